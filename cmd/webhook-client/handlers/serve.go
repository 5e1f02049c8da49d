package handlers

import (
	"context"
	"fmt"
	"os"

	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/api"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/config"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/network"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/notify"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/orchestrator"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/platform/metal3"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/platform/s3"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/platform/ssh"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/provisioning"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
)

// Serve loads the configuration, wires the components and serves webhooks
// until ctx is cancelled. Pending notifications are drained before it
// returns.
func Serve(ctx context.Context, version string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg.Debug)
	ctrl.SetLogger(logger)
	ctx = log.IntoContext(ctx, logger)

	logger.Info("starting webhook client",
		"version", version,
		"port", cfg.Server.Port,
		"namespace", cfg.Kubernetes.Namespace,
		"networkConfig", cfg.Network.Enabled,
		"signatureVerification", cfg.Server.WebhookSecret != "",
	)

	hosts, err := metal3.NewClient(cfg.Kubernetes.Kubeconfig, cfg.Kubernetes.Namespace,
		metal3.WithUserDataOptions(cfg.UserData))
	if err != nil {
		return err
	}
	runner := provisioning.NewAggregator(provisioning.NewController(hosts, cfg.Provisioning), cfg.Concurrency)

	dispatcher, err := newDispatcher(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []orchestrator.Option{orchestrator.WithSideEffects(dispatcher)}
	if cfg.Network.Enabled {
		configurator, err := newConfigurator(cfg)
		if err != nil {
			return err
		}
		opts = append(opts, orchestrator.WithNetwork(configurator))
	}

	svc := orchestrator.NewService(reservation.NewNormalizer(), reservation.NewResolver(cfg.Images, nil), runner, opts...)

	server := api.NewServer(api.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.Port),
		WebhookSecret:   cfg.Server.WebhookSecret,
		RateLimit:       cfg.Server.RateLimit,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, svc)

	runErr := server.Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := dispatcher.Wait(drainCtx); err != nil {
		logger.Info("abandoning pending notifications", "error", err.Error())
	}

	logger.Info("webhook client stopped")
	return runErr
}

// newDispatcher creates the notification dispatcher. The audit archive is
// attached when a bucket is configured.
func newDispatcher(ctx context.Context, cfg *config.Config) (*notify.Dispatcher, error) {
	if cfg.Notify.Archive.Bucket == "" {
		return notify.NewDispatcher(cfg.Notify), nil
	}

	store, err := s3.NewClient(ctx, cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit archive client: %w", err)
	}
	if err := store.EnsureBucket(ctx, cfg.Notify.Archive.Bucket); err != nil {
		return nil, fmt.Errorf("failed to prepare audit archive: %w", err)
	}
	return notify.NewDispatcher(cfg.Notify, notify.WithObjectStore(store)), nil
}

// newConfigurator creates the network step backed by the configured switch.
func newConfigurator(cfg *config.Config) (*network.Configurator, error) {
	sw := cfg.Switch
	client, err := ssh.NewClient(&ssh.Config{
		Host:           sw.Host,
		Port:           sw.Port,
		User:           sw.Username,
		Password:       sw.Password,
		EnableSecret:   sw.EnableSecret,
		CommandTimeout: sw.CommandTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create switch client: %w", err)
	}
	return network.NewConfigurator(cfg.Network, network.NewSSHSwitch(client, cfg.Network.InterfacePrefix)), nil
}
