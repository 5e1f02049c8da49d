package testing

import (
	"encoding/json"
	"time"
)

// Timestamp is the batch timestamp used by the payload builders.
var Timestamp = time.Date(2025, 5, 29, 12, 0, 0, 0, time.UTC)

// PayloadBuilder builds webhook request bodies.
type PayloadBuilder struct {
	fields map[string]any
	events []map[string]any
	single bool
}

// NewBatchPayload starts a batch body for eventType with one default user.
func NewBatchPayload(eventType string) *PayloadBuilder {
	return &PayloadBuilder{
		fields: map[string]any{
			"eventType":    eventType,
			"timestamp":    Timestamp.Format(time.RFC3339),
			"webhookId":    "wh-1",
			"userId":       "user-1",
			"username":     "alice",
			"email":        "alice@example.org",
			"sshPublicKey": "ssh-ed25519 AAAAC3 alice@laptop",
		},
	}
}

// NewSinglePayload starts a single-event body. Only the first WithEvent is used.
func NewSinglePayload(eventType string) *PayloadBuilder {
	b := NewBatchPayload(eventType)
	b.single = true
	return b
}

// WithUser sets the username.
func (b *PayloadBuilder) WithUser(username string) *PayloadBuilder {
	b.fields["username"] = username
	return b
}

// WithField sets an arbitrary top-level field. A nil value removes it.
func (b *PayloadBuilder) WithField(key string, value any) *PayloadBuilder {
	if value == nil {
		delete(b.fields, key)
		return b
	}
	b.fields[key] = value
	return b
}

// WithEvent appends an event for resourceName.
func (b *PayloadBuilder) WithEvent(eventID, resourceName string, start, end time.Time) *PayloadBuilder {
	b.events = append(b.events, map[string]any{
		"eventId":      eventID,
		"eventTitle":   "Reservation " + eventID,
		"eventStart":   start.Format(time.RFC3339),
		"eventEnd":     end.Format(time.RFC3339),
		"resourceId":   "res-" + resourceName,
		"resourceName": resourceName,
		"resourceType": "Server",
		"siteId":       "site-1",
		"siteName":     "Torino",
	})
	return b
}

// Build returns the JSON body.
func (b *PayloadBuilder) Build() []byte {
	body := make(map[string]any, len(b.fields)+2)
	for k, v := range b.fields {
		body[k] = v
	}

	if b.single {
		if len(b.events) > 0 {
			for k, v := range b.events[0] {
				body[k] = v
			}
		}
	} else {
		body["eventCount"] = len(b.events)
		body["events"] = b.events
	}

	out, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return out
}

// NewDeletedPayload returns an EVENT_DELETED body for one reservation.
func NewDeletedPayload(eventID, resourceName string, start, end time.Time) []byte {
	body := map[string]any{
		"eventType": "EVENT_DELETED",
		"timestamp": Timestamp.Format(time.RFC3339),
		"webhookId": "wh-deleted",
		"data": map[string]any{
			"id":          eventID,
			"title":       "Reservation " + eventID,
			"description": "deleted by administrator",
			"start":       start.Format(time.RFC3339),
			"end":         end.Format(time.RFC3339),
			"keycloakId":  "user-1",
			"resource": map[string]any{
				"id":   "res-" + resourceName,
				"name": resourceName,
			},
		},
	}

	out, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return out
}
