package provisioning

import (
	"fmt"
	"strings"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
)

// OverallStatus is the batch-level result.
type OverallStatus string

const (
	StatusSuccess        OverallStatus = "success"
	StatusPartialFailure OverallStatus = "partial_failure"
)

// Verdict is the folded result of one batch.
type Verdict struct {
	Overall OverallStatus
	// Outcomes holds every non-skip outcome in request order.
	Outcomes  []reservation.Outcome
	Succeeded []reservation.Outcome
	Failed    []reservation.Outcome
	Skipped   []reservation.ActionRequest
}

func newVerdict(outcomes []reservation.Outcome, skipped []reservation.ActionRequest) Verdict {
	v := Verdict{
		Overall:  StatusSuccess,
		Outcomes: outcomes,
		Skipped:  skipped,
	}
	for _, o := range outcomes {
		if o.Succeeded() {
			v.Succeeded = append(v.Succeeded, o)
			continue
		}
		v.Failed = append(v.Failed, o)
		v.Overall = StatusPartialFailure
	}
	return v
}

// Success reports whether every non-skip outcome succeeded.
func (v Verdict) Success() bool {
	return v.Overall == StatusSuccess
}

// AllFailed reports whether there was work and none of it succeeded.
func (v Verdict) AllFailed() bool {
	return len(v.Failed) > 0 && len(v.Succeeded) == 0
}

// SucceededProvisions returns the succeeded outcomes of provision actions.
func (v Verdict) SucceededProvisions() []reservation.Outcome {
	var out []reservation.Outcome
	for _, o := range v.Succeeded {
		if o.Action == reservation.ActionProvision {
			out = append(out, o)
		}
	}
	return out
}

// FailureDetail lists every failed (eventId, resourceName, action) tuple.
// It returns an empty string when nothing failed.
func (v Verdict) FailureDetail() string {
	if len(v.Failed) == 0 {
		return ""
	}

	parts := make([]string, 0, len(v.Failed))
	for _, o := range v.Failed {
		entry := fmt.Sprintf("eventId=%s resource=%s action=%s status=%s", o.EventID, o.ResourceName, o.Action, o.Status)
		if o.ErrorDetail != "" {
			entry += ": " + o.ErrorDetail
		}
		parts = append(parts, entry)
	}
	return fmt.Sprintf("%d of %d events failed: %s", len(v.Failed), len(v.Outcomes), strings.Join(parts, "; "))
}
