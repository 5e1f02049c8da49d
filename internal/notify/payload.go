package notify

import (
	"fmt"
	"time"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
)

const (
	resourceType = "BareMetalHost"

	typeSuccess = "SUCCESS"
	typeError   = "ERROR"

	eventProvisioningCompleted = "PROVISIONING_COMPLETED"
	eventProvisioningFailed    = "PROVISIONING_FAILED"
)

// notification is the body posted to the notification endpoint.
type notification struct {
	WebhookID  string               `json:"webhookId"`
	UserID     string               `json:"userId"`
	Message    string               `json:"message"`
	Type       string               `json:"type"`
	EventID    string               `json:"eventId"`
	ResourceID string               `json:"resourceId"`
	EventType  string               `json:"eventType"`
	Metadata   notificationMetadata `json:"metadata"`
}

type notificationMetadata struct {
	ResourceType string `json:"resourceType"`
	ResourceName string `json:"resourceName"`
	Timestamp    string `json:"timestamp"`
	Namespace    string `json:"namespace"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

func newNotification(bc reservation.BatchContext, o reservation.Outcome, eventID, namespace string, now time.Time) notification {
	n := notification{
		WebhookID:  bc.WebhookID,
		UserID:     bc.UserID,
		EventID:    eventID,
		ResourceID: o.ResourceName,
		Metadata: notificationMetadata{
			ResourceType: resourceType,
			ResourceName: o.ResourceName,
			Timestamp:    now.UTC().Format(time.RFC3339),
			Namespace:    namespace,
		},
	}

	if o.Succeeded() {
		n.Type = typeSuccess
		n.EventType = eventProvisioningCompleted
		n.Message = fmt.Sprintf("Your bare metal server reservation '%s' has been successfully provisioned "+
			"and will be available soon after the system boot completes. This could take some minutes. "+
			"You can login using SSH with the user 'prognose' and your configured SSH key to the IP address "+
			"specified in the resource specification.", o.ResourceName)
		return n
	}

	detail := o.ErrorDetail
	if detail == "" {
		detail = "Unknown error occurred"
	}
	n.Type = typeError
	n.EventType = eventProvisioningFailed
	n.Message = fmt.Sprintf("Your bare metal server reservation '%s' provisioning failed. Error: %s", o.ResourceName, detail)
	n.Metadata.ErrorMessage = o.ErrorDetail
	return n
}

// DeliveryRecord summarizes one webhook delivery for the audit log.
type DeliveryRecord struct {
	WebhookID string
	// EventType is the raw event type; empty when the body could not be parsed.
	EventType  string
	UserID     string
	StatusCode int
	// Response is the message returned to the caller.
	Response   string
	Success    bool
	Error      string
	ReceivedAt time.Time
	Events     []EventSummary
}

// EventSummary is one event of a DeliveryRecord.
type EventSummary struct {
	EventID      string `json:"eventId"`
	ResourceName string `json:"resourceName"`
	Action       string `json:"action"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// Summarize turns outcomes into audit event summaries.
func Summarize(outcomes []reservation.Outcome) []EventSummary {
	out := make([]EventSummary, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, EventSummary{
			EventID:      o.EventID,
			ResourceName: o.ResourceName,
			Action:       string(o.Action),
			Status:       string(o.Status),
			Error:        o.ErrorDetail,
		})
	}
	return out
}

// auditEntry is the body posted to the webhook log endpoint.
type auditEntry struct {
	WebhookID  string        `json:"webhookId"`
	EventType  string        `json:"eventType"`
	Payload    string        `json:"payload"`
	StatusCode int           `json:"statusCode"`
	Response   string        `json:"response"`
	Success    bool          `json:"success"`
	RetryCount int           `json:"retryCount"`
	Metadata   auditMetadata `json:"metadata"`
}

type auditMetadata struct {
	ResourceType string         `json:"resourceType"`
	Namespace    string         `json:"namespace"`
	Timestamp    string         `json:"timestamp"`
	UserID       string         `json:"userId,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Events       []EventSummary `json:"events"`
}

// deliverySummary is serialized compactly into auditEntry.Payload.
type deliverySummary struct {
	EventType string         `json:"eventType"`
	Timestamp string         `json:"timestamp"`
	UserID    string         `json:"userId"`
	Events    []EventSummary `json:"events"`
}

func (r DeliveryRecord) summary() deliverySummary {
	userID := r.UserID
	if userID == "" {
		userID = "unknown"
	}
	events := r.Events
	if events == nil {
		events = []EventSummary{}
	}
	return deliverySummary{
		EventType: r.EventType,
		Timestamp: r.ReceivedAt.UTC().Format(time.RFC3339),
		UserID:    userID,
		Events:    events,
	}
}

func newAuditEntry(r DeliveryRecord, payload, namespace string, now time.Time) auditEntry {
	events := r.Events
	if events == nil {
		events = []EventSummary{}
	}
	return auditEntry{
		WebhookID:  r.WebhookID,
		EventType:  r.EventType,
		Payload:    payload,
		StatusCode: r.StatusCode,
		Response:   r.Response,
		Success:    r.Success,
		Metadata: auditMetadata{
			ResourceType: resourceType,
			Namespace:    namespace,
			Timestamp:    now.UTC().Format(time.RFC3339),
			UserID:       r.UserID,
			ErrorMessage: r.Error,
			Events:       events,
		},
	}
}
