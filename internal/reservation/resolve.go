package reservation

import (
	"fmt"

	"k8s.io/utils/clock"
)

// ImagePolicy holds the images the resolver assigns to actions.
type ImagePolicy struct {
	ProvisionImage        string
	ProvisionChecksum     string
	ProvisionChecksumType string
	// DeprovisionImage is written on deprovision. Empty clears the image.
	DeprovisionImage string
}

// Resolver maps events to actions.
type Resolver struct {
	policy ImagePolicy
	clock  clock.PassiveClock
}

// NewResolver creates a Resolver. A nil clock uses wall-clock time.
func NewResolver(policy ImagePolicy, c clock.PassiveClock) *Resolver {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Resolver{policy: policy, clock: c}
}

// Resolve returns the action for one event of a batch.
//
// EVENT_DELETED only triggers an emergency deprovision when the reservation
// window contains the current time; otherwise the request is a skip. The
// check runs against the resolver clock, not the webhook timestamp, so a late
// or duplicated delivery is neutralized here.
func (r *Resolver) Resolve(bc BatchContext, ev EventRecord) (ActionRequest, error) {
	req := ActionRequest{
		EventID:      ev.EventID,
		ResourceName: ev.ResourceName,
	}

	switch bc.EventType {
	case EventStart:
		req.Action = ActionProvision
		req.Image = r.policy.ProvisionImage
		req.Checksum = r.policy.ProvisionChecksum
		req.ChecksumType = r.policy.ProvisionChecksumType
		req.SSHPublicKey = bc.SSHPublicKey
	case EventEnd:
		req.Action = ActionDeprovision
		req.Image = r.policy.DeprovisionImage
	case EventDeleted:
		if !ev.Active(r.clock.Now()) {
			req.Action = ActionSkip
			return req, nil
		}
		req.Action = ActionEmergencyDeprovision
		req.Image = r.policy.DeprovisionImage
	default:
		return ActionRequest{}, invalid("eventType", "no action for event type %q", bc.EventType)
	}

	if req.ResourceName == "" {
		return ActionRequest{}, invalid("resourceName", "event %q has no resource", ev.EventID)
	}
	return req, nil
}

// ResolveAll resolves every event of the batch in payload order.
func (r *Resolver) ResolveAll(b *Batch) ([]ActionRequest, error) {
	reqs := make([]ActionRequest, 0, len(b.Events))
	for i, ev := range b.Events {
		req, err := r.Resolve(b.Context, ev)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve events[%d]: %w", i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
