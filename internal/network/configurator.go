package network

import (
	"context"
	"errors"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/metrics"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/provisioning"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
)

// Result describes what the network step did for one batch.
type Result struct {
	// Ran is false when the step was skipped; Reason says why.
	Ran    bool
	Reason string

	VLANID   int
	VLANName string
	Ports    []int
	Unmapped []string

	// Err is a *NetworkConfigError when the switch transaction failed.
	Err error
}

// Configurator runs the network step of a batch.
type Configurator struct {
	cfg Config
	sw  Switch
	// slot serializes transactions on the single switch session.
	slot chan struct{}
}

// NewConfigurator creates a Configurator. sw may be nil when cfg is disabled.
func NewConfigurator(cfg Config, sw Switch) *Configurator {
	return &Configurator{
		cfg:  cfg,
		sw:   sw,
		slot: make(chan struct{}, 1),
	}
}

// Eligible reports whether a batch gets a VLAN: the batch starts
// reservations, the feature is on, every action succeeded and at least one
// host was provisioned. The reason is set when it does not.
func (c *Configurator) Eligible(eventType reservation.EventType, v provisioning.Verdict) (bool, string) {
	switch {
	case eventType != reservation.EventStart:
		return false, "only EVENT_START batches are isolated"
	case !c.cfg.Enabled || c.sw == nil:
		return false, "network configuration disabled"
	case !v.Success():
		return false, "batch did not fully succeed"
	case len(v.SucceededProvisions()) == 0:
		return false, "no host was provisioned"
	}
	return true, ""
}

// Plan computes the transaction for a set of provisioned resources. It
// returns ok=false when none of them maps to a switch port.
func (c *Configurator) Plan(bc reservation.BatchContext, resourceNames []string) (Transaction, []string, bool) {
	ports, unmapped := c.cfg.ResolvePorts(resourceNames)
	if len(ports) == 0 {
		return Transaction{}, unmapped, false
	}

	return Transaction{
		VLANID:      c.cfg.VLAN.VLANID(bc.Username, resourceNames, bc.Timestamp),
		Name:        c.cfg.VLAN.VLANName(bc.Username, bc.Timestamp),
		Description: c.cfg.VLAN.Description(bc.Username, len(ports)),
		Ports:       sortedPorts(ports),
	}, unmapped, true
}

// Configure applies the network step for a finished batch. It never
// returns an error; failures are carried in Result.Err.
func (c *Configurator) Configure(ctx context.Context, bc reservation.BatchContext, v provisioning.Verdict) Result {
	logger := log.FromContext(ctx).WithValues("webhookId", bc.WebhookID, "username", bc.Username)

	if ok, reason := c.Eligible(bc.EventType, v); !ok {
		logger.V(1).Info("skipping network configuration", "reason", reason)
		return Result{Reason: reason}
	}

	names := make([]string, 0, len(v.SucceededProvisions()))
	for _, o := range v.SucceededProvisions() {
		names = append(names, o.ResourceName)
	}

	tx, unmapped, ok := c.Plan(bc, names)
	for _, name := range unmapped {
		logger.Info("no switch port mapped for resource, leaving it out of the vlan", "resource", name)
	}
	if !ok {
		metrics.RecordNetworkConfig("skipped")
		return Result{Reason: "no provisioned resource has a switch port", Unmapped: unmapped}
	}

	res := Result{
		Ran:      true,
		VLANID:   tx.VLANID,
		VLANName: tx.Name,
		Ports:    tx.Ports,
		Unmapped: unmapped,
	}

	if err := c.apply(ctx, tx); err != nil {
		var nce *NetworkConfigError
		if !errors.As(err, &nce) {
			nce = &NetworkConfigError{Stage: stageOf(err), VLANID: tx.VLANID, Err: err}
		}
		res.Err = nce
		metrics.RecordNetworkConfig(string(nce.Stage))
		logger.Error(nce, "network configuration failed", "vlanId", tx.VLANID, "ports", tx.Ports)
		return res
	}

	metrics.RecordNetworkConfig("success")
	logger.Info("batch isolated on vlan", "vlanId", tx.VLANID, "vlanName", tx.Name, "ports", tx.Ports)
	return res
}

// apply runs one transaction while holding the switch slot.
func (c *Configurator) apply(ctx context.Context, tx Transaction) error {
	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return &NetworkConfigError{Stage: StageConnect, VLANID: tx.VLANID, Err: fmt.Errorf("waiting for switch session: %w", ctx.Err())}
	}
	defer func() { <-c.slot }()

	return c.sw.ApplyVLANTransaction(ctx, tx)
}
