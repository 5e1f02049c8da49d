package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/metrics"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/util/retry"
)

// Config tunes the Controller.
type Config struct {
	// PollInterval is the time between two status reads while provisioning.
	PollInterval time.Duration
	// Timeout bounds the whole wait for a provision to finish.
	Timeout time.Duration

	PatchMaxRetries   int
	PatchInitialDelay time.Duration
	PatchMaxDelay     time.Duration
}

// DefaultConfig returns the Controller defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:      15 * time.Second,
		Timeout:           30 * time.Minute,
		PatchMaxRetries:   3,
		PatchInitialDelay: time.Second,
		PatchMaxDelay:     15 * time.Second,
	}
}

// Controller drives ActionRequests against hosts.
type Controller struct {
	hosts HostAPI
	cfg   Config
	clock clock.Clock
	locks *KeyedMutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for backoff, polling and the provisioning deadline.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) {
		if c != nil {
			ctrl.clock = c
		}
	}
}

// WithLocks shares a KeyedMutex between controllers.
func WithLocks(k *KeyedMutex) Option {
	return func(ctrl *Controller) {
		if k != nil {
			ctrl.locks = k
		}
	}
}

// NewController creates a Controller for the given host API.
func NewController(hosts HostAPI, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		hosts: hosts,
		cfg:   cfg,
		clock: clock.RealClock{},
		locks: NewKeyedMutex(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute drives req to its terminal outcome. It always returns exactly one
// outcome; errors are reported through Outcome.Status and ErrorDetail.
func (c *Controller) Execute(ctx context.Context, req reservation.ActionRequest) reservation.Outcome {
	logger := log.FromContext(ctx).WithValues(
		"resource", req.ResourceName,
		"action", string(req.Action),
		"eventId", req.EventID,
	)
	ctx = log.IntoContext(ctx, logger)

	start := c.clock.Now()
	out := reservation.Outcome{
		EventID:      req.EventID,
		ResourceName: req.ResourceName,
		Action:       req.Action,
	}

	status, detail := c.execute(ctx, logger, req)
	out.Status = status
	out.ErrorDetail = detail
	out.Duration = c.clock.Since(start)

	metrics.RecordOutcome(string(req.Action), string(out.Status), out.Duration)
	if out.Succeeded() {
		logger.Info("resource action completed", "duration", out.Duration.String())
	} else {
		logger.Info("resource action did not succeed", "status", string(out.Status), "detail", out.ErrorDetail)
	}
	return out
}

func (c *Controller) execute(ctx context.Context, logger logr.Logger, req reservation.ActionRequest) (reservation.OutcomeStatus, string) {
	switch req.Action {
	case reservation.ActionSkip:
		return reservation.OutcomeSucceeded, ""
	case reservation.ActionProvision, reservation.ActionDeprovision, reservation.ActionEmergencyDeprovision:
	default:
		return reservation.OutcomeFailed, fmt.Sprintf("unsupported action %q", req.Action)
	}

	unlock, err := c.locks.Lock(ctx, req.ResourceName)
	if err != nil {
		return reservation.OutcomeFailed, fmt.Sprintf("failed to acquire lock for %s: %v", req.ResourceName, err)
	}
	defer unlock()

	target := ImageTarget{
		URL:          req.Image,
		Checksum:     req.Checksum,
		ChecksumType: req.ChecksumType,
		UserData:     req.Action == reservation.ActionProvision,
		SSHPublicKey: req.SSHPublicKey,
	}

	if err := c.patch(ctx, logger, req.ResourceName, target); err != nil {
		return reservation.OutcomeFailed, err.Error()
	}

	if req.Action.Deprovisions() {
		logger.V(1).Info("deprovision patch applied, not waiting for the host")
		return reservation.OutcomeSucceeded, ""
	}

	return c.awaitProvisioned(ctx, logger, req.ResourceName)
}

// patch applies the image target, retrying only transient failures.
func (c *Controller) patch(ctx context.Context, logger logr.Logger, name string, target ImageTarget) error {
	attempts, err := retry.Do(ctx, func() error {
		err := c.hosts.PatchImage(ctx, name, target)
		switch {
		case err == nil:
			metrics.RecordPatchAttempt("success")
			return nil
		case IsTransient(err):
			metrics.RecordPatchAttempt("retry")
			return err
		default:
			metrics.RecordPatchAttempt("error")
			return retry.Fatal(err)
		}
	},
		retry.WithMaxRetries(c.cfg.PatchMaxRetries),
		retry.WithInitialDelay(c.cfg.PatchInitialDelay),
		retry.WithMaxDelay(c.cfg.PatchMaxDelay),
		retry.WithClock(c.clock),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Info("patch failed, retrying", "attempt", attempt, "delay", delay.String(), "error", err.Error())
		}),
	)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return fmt.Errorf("host %s not found: %w", name, err)
		}
		return fmt.Errorf("failed to patch host %s after %d attempt(s): %w", name, attempts, err)
	}

	logger.V(1).Info("host patched", "attempts", attempts, "clearImage", target.Clears())
	return nil
}
