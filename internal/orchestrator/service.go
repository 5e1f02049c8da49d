package orchestrator

import (
	"context"
	"net/http"
	"time"

	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/metrics"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/network"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/notify"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/provisioning"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
)

// BatchRunner drives a batch of requests to a verdict.
type BatchRunner interface {
	Run(ctx context.Context, reqs []reservation.ActionRequest) provisioning.Verdict
}

// NetworkStep isolates a finished batch.
type NetworkStep interface {
	Configure(ctx context.Context, bc reservation.BatchContext, v provisioning.Verdict) network.Result
}

// SideEffects receives notifications and audit records.
type SideEffects interface {
	NotifyProvisioning(ctx context.Context, bc reservation.BatchContext, o reservation.Outcome)
	LogDelivery(ctx context.Context, rec notify.DeliveryRecord)
}

// Service handles webhook deliveries.
type Service struct {
	normalizer *reservation.Normalizer
	resolver   *reservation.Resolver
	runner     BatchRunner
	network    NetworkStep
	effects    SideEffects
	clock      clock.PassiveClock
}

// Option configures a Service.
type Option func(*Service)

// WithNetwork enables the network step.
func WithNetwork(n NetworkStep) Option {
	return func(s *Service) { s.network = n }
}

// WithSideEffects enables notifications and audit logging.
func WithSideEffects(e SideEffects) Option {
	return func(s *Service) { s.effects = e }
}

// WithClock sets the clock used for response timestamps.
func WithClock(c clock.PassiveClock) Option {
	return func(s *Service) { s.clock = c }
}

// NewService creates a Service.
func NewService(normalizer *reservation.Normalizer, resolver *reservation.Resolver, runner BatchRunner, opts ...Option) *Service {
	s := &Service{
		normalizer: normalizer,
		resolver:   resolver,
		runner:     runner,
		clock:      clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle processes one verified webhook body. Work continues when ctx is
// cancelled, so a client hanging up does not abandon hosts half way.
func (s *Service) Handle(ctx context.Context, body []byte) Response {
	ctx = context.WithoutCancel(ctx)
	receivedAt := s.clock.Now()
	logger := log.FromContext(ctx)

	batch, reqs, err := s.prepare(body)
	if err != nil {
		logger.Info("rejecting webhook", "reason", err.Error())
		metrics.RecordBatch("unknown", "invalid")
		resp := errorResponse(http.StatusBadRequest, err.Error(), s.clock.Now())
		s.logDelivery(ctx, nil, receivedAt, resp, nil, err.Error())
		return resp
	}

	bc := batch.Context
	logger = logger.WithValues("webhookId", bc.WebhookID, "eventType", string(bc.EventType), "username", bc.Username)
	ctx = log.IntoContext(ctx, logger)
	logger.Info("processing webhook batch",
		"shape", batch.Shape.String(),
		"events", len(batch.Events),
		"activeResources", len(batch.Active),
	)

	verdict := s.runner.Run(ctx, reqs)

	var netResult *network.Result
	if s.network != nil {
		res := s.network.Configure(ctx, bc, verdict)
		netResult = &res
	}

	s.notify(ctx, bc, verdict)

	resp := verdictResponse(bc.EventType, verdict, netResult, s.clock.Now())
	metrics.RecordBatch(string(bc.EventType), batchStatus(resp.StatusCode))
	logger.Info("webhook batch finished", "status", resp.StatusCode, "message", resp.Message())

	s.logDelivery(ctx, &bc, receivedAt, resp, verdict.Outcomes, verdict.FailureDetail())
	return resp
}

func (s *Service) prepare(body []byte) (*reservation.Batch, []reservation.ActionRequest, error) {
	batch, err := s.normalizer.Normalize(body)
	if err != nil {
		return nil, nil, err
	}
	reqs, err := s.resolver.ResolveAll(batch)
	if err != nil {
		return nil, nil, err
	}
	return batch, reqs, nil
}

// notify reports every provisioning wait; deprovisions are not waited on
// and produce no notification.
func (s *Service) notify(ctx context.Context, bc reservation.BatchContext, v provisioning.Verdict) {
	if s.effects == nil {
		return
	}
	for _, o := range v.Outcomes {
		if o.Action == reservation.ActionProvision {
			s.effects.NotifyProvisioning(ctx, bc, o)
		}
	}
}

func (s *Service) logDelivery(ctx context.Context, bc *reservation.BatchContext, receivedAt time.Time, resp Response, outcomes []reservation.Outcome, errMsg string) {
	if s.effects == nil {
		return
	}
	rec := notify.DeliveryRecord{
		StatusCode: resp.StatusCode,
		Response:   resp.Message(),
		Success:    resp.StatusCode < 300,
		Error:      errMsg,
		ReceivedAt: receivedAt,
		Events:     notify.Summarize(outcomes),
	}
	if bc != nil {
		rec.WebhookID = bc.WebhookID
		rec.EventType = string(bc.EventType)
		rec.UserID = bc.UserID
	}
	s.effects.LogDelivery(ctx, rec)
}

func batchStatus(code int) string {
	switch code {
	case http.StatusOK:
		return string(provisioning.StatusSuccess)
	case http.StatusMultiStatus:
		return string(provisioning.StatusPartialFailure)
	default:
		return "failed"
	}
}
