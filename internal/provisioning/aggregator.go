package provisioning

import (
	"context"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/util/async"
)

// DefaultConcurrency is the number of hosts driven in parallel per batch.
const DefaultConcurrency = 4

// Executor drives one request to its outcome. Implemented by Controller.
type Executor interface {
	Execute(ctx context.Context, req reservation.ActionRequest) reservation.Outcome
}

// Aggregator runs a whole batch through an Executor.
type Aggregator struct {
	exec        Executor
	concurrency int
}

// NewAggregator creates an Aggregator. concurrency <= 0 selects DefaultConcurrency.
func NewAggregator(exec Executor, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{exec: exec, concurrency: concurrency}
}

// Run executes every non-skip request and returns the batch verdict.
// Outcomes keep the order of reqs regardless of completion order.
func (a *Aggregator) Run(ctx context.Context, reqs []reservation.ActionRequest) Verdict {
	logger := log.FromContext(ctx)

	var work []reservation.ActionRequest
	var skipped []reservation.ActionRequest
	for _, req := range reqs {
		if req.Action == reservation.ActionSkip {
			skipped = append(skipped, req)
			continue
		}
		work = append(work, req)
	}

	outcomes := make([]reservation.Outcome, len(work))
	_ = async.ForEach(ctx, a.concurrency, len(work), func(ctx context.Context, i int) error {
		outcomes[i] = a.exec.Execute(ctx, work[i])
		return nil
	})

	v := newVerdict(outcomes, skipped)
	logger.Info("batch actions finished",
		"status", string(v.Overall),
		"succeeded", len(v.Succeeded),
		"failed", len(v.Failed),
		"skipped", len(v.Skipped),
	)
	return v
}
