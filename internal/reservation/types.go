package reservation

import "time"

// EventType is the reservation lifecycle event carried by a webhook.
type EventType string

const (
	EventStart   EventType = "EVENT_START"
	EventEnd     EventType = "EVENT_END"
	EventDeleted EventType = "EVENT_DELETED"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventStart, EventEnd, EventDeleted:
		return true
	}
	return false
}

// Shape identifies which payload layout a webhook body used.
type Shape int

const (
	ShapeBatch Shape = iota
	ShapeSingle
	ShapeDeleted
)

func (s Shape) String() string {
	switch s {
	case ShapeBatch:
		return "batch"
	case ShapeSingle:
		return "single"
	case ShapeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// BatchContext is shared by every event of one webhook delivery.
// It is created by the Normalizer and never modified afterwards.
type BatchContext struct {
	UserID       string
	Username     string
	Email        string
	SSHPublicKey string
	EventType    EventType
	Timestamp    time.Time
	WebhookID    string
}

// EventRecord is one reservation event. ResourceName is the identity of the
// BareMetalHost the event applies to.
type EventRecord struct {
	EventID          string
	ResourceID       string
	ResourceName     string
	ResourceType     string
	EventStart       time.Time
	EventEnd         time.Time
	Title            string
	Description      string
	ResourceSpecs    string
	ResourceLocation string
	SiteID           string
	SiteName         string
}

// Active reports whether now falls inside the reservation window, both ends inclusive.
func (e EventRecord) Active(now time.Time) bool {
	return !now.Before(e.EventStart) && !now.After(e.EventEnd)
}

// Batch is the normalized form of a webhook body.
type Batch struct {
	Shape   Shape
	Context BatchContext
	Events  []EventRecord
	// Active lists resources the user holds outside this batch. Context only.
	Active []EventRecord
}

// ResourceNames returns the resource names of the batch events in payload order.
func (b *Batch) ResourceNames() []string {
	names := make([]string, 0, len(b.Events))
	for _, ev := range b.Events {
		names = append(names, ev.ResourceName)
	}
	return names
}

// Action is what the host controller does for one event.
type Action string

const (
	ActionProvision            Action = "provision"
	ActionDeprovision          Action = "deprovision"
	ActionEmergencyDeprovision Action = "emergency-deprovision"
	ActionSkip                 Action = "skip"
)

// Deprovisions reports whether the action removes the image from a host.
func (a Action) Deprovisions() bool {
	return a == ActionDeprovision || a == ActionEmergencyDeprovision
}

// ActionRequest is the resolved instruction for one event.
type ActionRequest struct {
	EventID      string
	ResourceName string
	Action       Action
	// Image is the desired image URL. Empty clears the image.
	Image        string
	Checksum     string
	ChecksumType string
	// SSHPublicKey is injected into the host's user data on provision.
	SSHPublicKey string
}

// OutcomeStatus is the terminal status of one ActionRequest.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeTimedOut  OutcomeStatus = "timed-out"
)

// Outcome is the result of driving one ActionRequest to completion.
type Outcome struct {
	EventID      string
	ResourceName string
	Action       Action
	Status       OutcomeStatus
	ErrorDetail  string
	Duration     time.Duration
}

// Succeeded reports whether the outcome status is succeeded.
func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSucceeded
}
