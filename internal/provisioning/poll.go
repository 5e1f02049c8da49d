package provisioning

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
)

// pollState is the provisioning state machine:
//
//	Pending -> InProgress -> {Ready | Error}
//
// Ready and Error are terminal. A Pending report after InProgress keeps
// the machine in InProgress.
type pollState struct {
	phase HostPhase
	last  HostStatus
	seen  bool
}

// observe folds one status report into the state and returns the new phase.
func (s *pollState) observe(st HostStatus) HostPhase {
	s.last = st
	s.seen = true

	if s.phase.Terminal() {
		return s.phase
	}
	if st.Phase == PhasePending && s.phase == PhaseInProgress {
		return s.phase
	}
	s.phase = st.Phase
	return s.phase
}

func (s *pollState) describe() string {
	if !s.seen {
		return "no status observed"
	}
	return s.last.String()
}

// awaitProvisioned polls the host until it reaches a terminal phase or the
// provisioning timeout elapses. The first read happens immediately.
func (c *Controller) awaitProvisioned(ctx context.Context, logger logr.Logger, name string) (reservation.OutcomeStatus, string) {
	deadline := c.clock.NewTimer(c.cfg.Timeout)
	defer deadline.Stop()

	var state pollState
	var lastErr error

	for {
		select {
		case <-deadline.C():
			return c.timedOut(logger, &state, lastErr)
		default:
		}

		next := c.clock.NewTimer(c.cfg.PollInterval)

		st, err := c.hosts.HostStatus(ctx, name)
		switch {
		case errors.Is(err, ErrResourceNotFound):
			next.Stop()
			return reservation.OutcomeFailed, fmt.Sprintf("host %s disappeared while provisioning: %v", name, err)
		case err != nil:
			lastErr = err
			logger.Info("failed to read host status, will retry", "error", err.Error(), "transient", IsTransient(err))
		default:
			lastErr = nil
			prev := state.phase
			phase := state.observe(st)
			if phase != prev {
				logger.Info("host phase changed", "from", prev.String(), "to", phase.String(), "state", st.State)
			}
			switch phase {
			case PhaseReady:
				next.Stop()
				return reservation.OutcomeSucceeded, ""
			case PhaseError:
				next.Stop()
				return reservation.OutcomeFailed, fmt.Sprintf("host %s reported an error: %s", name, state.describe())
			}
		}

		select {
		case <-ctx.Done():
			next.Stop()
			return reservation.OutcomeFailed, fmt.Sprintf("provisioning of %s aborted: %v", name, ctx.Err())
		case <-deadline.C():
			next.Stop()
			return c.timedOut(logger, &state, lastErr)
		case <-next.C():
		}
	}
}

func (c *Controller) timedOut(logger logr.Logger, state *pollState, lastErr error) (reservation.OutcomeStatus, string) {
	detail := fmt.Sprintf("provisioning did not finish within %s, last observed: %s", c.cfg.Timeout, state.describe())
	if lastErr != nil {
		detail = fmt.Sprintf("%s, last error: %v", detail, lastErr)
	}
	logger.Info("provisioning timed out", "timeout", c.cfg.Timeout.String(), "phase", state.phase.String())
	return reservation.OutcomeTimedOut, detail
}
