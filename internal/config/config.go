package config

import (
	"time"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/network"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/notify"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/platform/metal3"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/platform/s3"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/provisioning"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
)

// Config holds the application configuration.
type Config struct {
	Server     ServerConfig
	Kubernetes KubernetesConfig

	Images       reservation.ImagePolicy
	Provisioning provisioning.Config
	// Concurrency caps how many events of one batch run at once.
	Concurrency int
	UserData    metal3.UserDataOptions

	Network network.Config
	Switch  SwitchConfig

	Notify  notify.Config
	Archive s3.Config

	Debug bool
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int
	// WebhookSecret enables signature verification and signing. Empty disables both.
	WebhookSecret string
	// RateLimit is the number of webhook requests accepted per minute. Zero disables limiting.
	RateLimit       int
	ShutdownTimeout time.Duration
}

// KubernetesConfig selects the cluster holding the BareMetalHosts.
type KubernetesConfig struct {
	// Kubeconfig is empty for in-cluster or default loading rules.
	Kubeconfig string
	Namespace  string
}

// SwitchConfig is the switch login.
type SwitchConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	EnableSecret string
	// DeviceType is informational; only Cisco IOS is supported.
	DeviceType     string
	CommandTimeout time.Duration
}
