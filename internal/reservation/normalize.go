package reservation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

// Normalizer parses webhook bodies into batches.
type Normalizer struct {
	clock clock.PassiveClock
	newID func() string
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithNormalizerClock sets the clock used for a missing batch timestamp.
func WithNormalizerClock(c clock.PassiveClock) NormalizerOption {
	return func(n *Normalizer) {
		n.clock = c
	}
}

// WithIDGenerator sets the generator used for a missing webhook ID.
func WithIDGenerator(gen func() string) NormalizerOption {
	return func(n *Normalizer) {
		n.newID = gen
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		clock: clock.RealClock{},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize decodes body and returns the batch it describes. Every failure is
// a *ValidationError.
func (n *Normalizer) Normalize(body []byte) (*Batch, error) {
	var w wirePayload
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, &ValidationError{Field: "body", Reason: fmt.Sprintf("failed to decode JSON: %v", err)}
	}

	eventType := EventType(w.EventType)
	if !eventType.Valid() {
		return nil, invalid("eventType", "unknown event type %q", w.EventType)
	}

	batch := &Batch{
		Shape:   detectShape(eventType, &w),
		Context: n.context(eventType, &w),
	}

	switch batch.Shape {
	case ShapeDeleted:
		events, err := deletedEvents(&w)
		if err != nil {
			return nil, err
		}
		batch.Events = events
		if batch.Context.UserID == "" {
			batch.Context.UserID = w.Data.KeycloakID
		}
	case ShapeBatch:
		events, err := batchEvents(&w)
		if err != nil {
			return nil, err
		}
		batch.Events = events
	case ShapeSingle:
		batch.Events = []EventRecord{w.wireEvent.record()}
	}

	for _, active := range w.ActiveResources {
		batch.Active = append(batch.Active, active.record())
	}

	if err := validateEvents(batch.Events); err != nil {
		return nil, err
	}
	return batch, nil
}

// detectShape picks the payload layout. EVENT_DELETED always uses the nested
// data layout; otherwise an events array or count marks a batch.
func detectShape(eventType EventType, w *wirePayload) Shape {
	switch {
	case eventType == EventDeleted:
		return ShapeDeleted
	case w.Events != nil || w.EventCount != nil:
		return ShapeBatch
	default:
		return ShapeSingle
	}
}

func (n *Normalizer) context(eventType EventType, w *wirePayload) BatchContext {
	bc := BatchContext{
		UserID:       string(w.UserID),
		Username:     w.Username,
		Email:        w.Email,
		SSHPublicKey: w.SSHPublicKey,
		EventType:    eventType,
		WebhookID:    string(w.WebhookID),
	}
	if w.Timestamp != nil {
		bc.Timestamp = w.Timestamp.UTC()
	} else {
		bc.Timestamp = n.clock.Now().UTC()
	}
	if bc.WebhookID == "" {
		bc.WebhookID = n.newID()
	}
	return bc
}

func batchEvents(w *wirePayload) ([]EventRecord, error) {
	var wire []wireEvent
	if w.Events != nil {
		wire = *w.Events
	}
	if len(wire) == 0 {
		return nil, invalid("events", "batch contains no events")
	}
	if w.EventCount != nil && *w.EventCount != len(wire) {
		return nil, invalid("eventCount", "declares %d events but %d were sent", *w.EventCount, len(wire))
	}
	events := make([]EventRecord, 0, len(wire))
	for _, ev := range wire {
		events = append(events, ev.record())
	}
	return events, nil
}

func deletedEvents(w *wirePayload) ([]EventRecord, error) {
	switch {
	case w.Data == nil:
		return nil, invalid("data", "EVENT_DELETED payload requires a data object")
	case w.Data.Resource == nil || w.Data.Resource.Name == "":
		return nil, invalid("data.resource.name", "EVENT_DELETED payload requires a resource name")
	case w.Data.Start == nil:
		return nil, invalid("data.start", "EVENT_DELETED payload requires the reservation start")
	case w.Data.End == nil:
		return nil, invalid("data.end", "EVENT_DELETED payload requires the reservation end")
	}
	return []EventRecord{w.Data.record()}, nil
}

func validateEvents(events []EventRecord) error {
	seen := make(map[string]int, len(events))
	for i, ev := range events {
		field := fmt.Sprintf("events[%d].resourceName", i)
		if ev.ResourceName == "" {
			return invalid(field, "resource name is empty")
		}
		if prev, dup := seen[ev.ResourceName]; dup {
			return invalid(field, "resource %q already used by events[%d]", ev.ResourceName, prev)
		}
		seen[ev.ResourceName] = i

		if !ev.EventStart.IsZero() && !ev.EventEnd.IsZero() && ev.EventEnd.Before(ev.EventStart) {
			return invalid(fmt.Sprintf("events[%d].eventEnd", i), "ends at %s before it starts at %s",
				ev.EventEnd.Format(time.RFC3339), ev.EventStart.Format(time.RFC3339))
		}
	}
	return nil
}
