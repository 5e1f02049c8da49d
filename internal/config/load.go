package config

import (
	"fmt"
	"time"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/network"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/notify"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/platform/metal3"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/platform/s3"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/provisioning"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
)

// DefaultNetworkConfigPath is read when NETWORK_CONFIG_PATH is unset.
const DefaultNetworkConfigPath = "network_config.yaml"

// Load builds the configuration from the environment and, when network
// configuration is enabled, the network file.
//
// Environment Variables:
//   - PORT (default: 8088)
//   - WEBHOOK_SECRET, WEBHOOK_RATE_LIMIT (default: 120), SHUTDOWN_TIMEOUT (default: 30s)
//   - KUBECONFIG, K8S_NAMESPACE (default: default)
//   - PROVISION_IMAGE, PROVISION_CHECKSUM, PROVISION_CHECKSUM_TYPE (default: sha256), DEPROVISION_IMAGE
//   - PROVISIONING_TIMEOUT (default: 30m), PROVISIONING_POLL_INTERVAL (default: 15s)
//   - PATCH_MAX_RETRIES (default: 3), PATCH_RETRY_INITIAL_DELAY (default: 1s), PATCH_RETRY_MAX_DELAY (default: 15s)
//   - BATCH_CONCURRENCY (default: 4)
//   - USERDATA_ADMIN_PASSWORD_HASH
//   - NETWORK_CONFIG_ENABLED (default: false), NETWORK_CONFIG_PATH (default: network_config.yaml)
//   - SWITCH_HOST, SWITCH_USERNAME, SWITCH_PASSWORD, SWITCH_ENABLE_SECRET (override the file)
//   - NOTIFICATION_ENDPOINT, NOTIFICATION_TIMEOUT (default: 10s)
//   - WEBHOOK_LOG_ENDPOINT, WEBHOOK_LOG_TIMEOUT (default: 5s), DISPATCH_MAX_RETRIES (default: 2)
//   - AUDIT_ARCHIVE_BUCKET, AUDIT_ARCHIVE_PREFIX (default: webhook-audit), AUDIT_ARCHIVE_ENDPOINT,
//     AUDIT_ARCHIVE_REGION (default: us-east-1), AUDIT_ARCHIVE_ACCESS_KEY, AUDIT_ARCHIVE_SECRET_KEY,
//     AUDIT_ARCHIVE_PATH_STYLE (default: true when an endpoint is set)
//   - DEBUG (default: false)
func Load() (*Config, error) {
	cfg := fromEnv()

	if cfg.Network.Enabled {
		path := parseString("NETWORK_CONFIG_PATH", DefaultNetworkConfigPath)
		file, err := LoadNetworkFile(path)
		if err != nil {
			return nil, err
		}
		file.apply(cfg)
		overrideSwitchFromEnv(&cfg.Switch)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func fromEnv() *Config {
	prov := provisioning.DefaultConfig()
	prov.Timeout = parseDuration("PROVISIONING_TIMEOUT", prov.Timeout)
	prov.PollInterval = parseDuration("PROVISIONING_POLL_INTERVAL", prov.PollInterval)
	prov.PatchMaxRetries = parseInt("PATCH_MAX_RETRIES", prov.PatchMaxRetries)
	prov.PatchInitialDelay = parseDuration("PATCH_RETRY_INITIAL_DELAY", prov.PatchInitialDelay)
	prov.PatchMaxDelay = parseDuration("PATCH_RETRY_MAX_DELAY", prov.PatchMaxDelay)

	userData := metal3.DefaultUserDataOptions()
	userData.AdminPasswordHash = parseString("USERDATA_ADMIN_PASSWORD_HASH", "")

	net := network.DefaultConfig()
	net.Enabled = parseBool("NETWORK_CONFIG_ENABLED", false)

	namespace := parseString("K8S_NAMESPACE", "default")
	secret := parseString("WEBHOOK_SECRET", "")

	ntf := notify.DefaultConfig()
	ntf.NotificationEndpoint = parseString("NOTIFICATION_ENDPOINT", "")
	ntf.NotificationTimeout = parseDuration("NOTIFICATION_TIMEOUT", ntf.NotificationTimeout)
	ntf.LogEndpoint = parseString("WEBHOOK_LOG_ENDPOINT", "")
	ntf.LogTimeout = parseDuration("WEBHOOK_LOG_TIMEOUT", ntf.LogTimeout)
	ntf.MaxRetries = parseInt("DISPATCH_MAX_RETRIES", ntf.MaxRetries)
	ntf.Secret = secret
	ntf.Namespace = namespace
	ntf.Archive.Bucket = parseString("AUDIT_ARCHIVE_BUCKET", "")
	ntf.Archive.Prefix = parseString("AUDIT_ARCHIVE_PREFIX", ntf.Archive.Prefix)

	endpoint := parseString("AUDIT_ARCHIVE_ENDPOINT", "")

	return &Config{
		Server: ServerConfig{
			Port:            parseInt("PORT", 8088),
			WebhookSecret:   secret,
			RateLimit:       parseInt("WEBHOOK_RATE_LIMIT", 120),
			ShutdownTimeout: parseDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Kubernetes: KubernetesConfig{
			Kubeconfig: parseString("KUBECONFIG", ""),
			Namespace:  namespace,
		},
		Images: reservation.ImagePolicy{
			ProvisionImage:        parseString("PROVISION_IMAGE", "default-provision-image-url"),
			ProvisionChecksum:     parseString("PROVISION_CHECKSUM", ""),
			ProvisionChecksumType: parseString("PROVISION_CHECKSUM_TYPE", "sha256"),
			DeprovisionImage:      parseString("DEPROVISION_IMAGE", ""),
		},
		Provisioning: prov,
		Concurrency:  parseInt("BATCH_CONCURRENCY", provisioning.DefaultConcurrency),
		UserData:     userData,
		Network:      net,
		Switch: SwitchConfig{
			Port:           22,
			DeviceType:     "cisco_ios",
			CommandTimeout: 30 * time.Second,
		},
		Notify: ntf,
		Archive: s3.Config{
			Endpoint:  endpoint,
			Region:    parseString("AUDIT_ARCHIVE_REGION", "us-east-1"),
			AccessKey: parseString("AUDIT_ARCHIVE_ACCESS_KEY", ""),
			SecretKey: parseString("AUDIT_ARCHIVE_SECRET_KEY", ""),
			PathStyle: parseBool("AUDIT_ARCHIVE_PATH_STYLE", endpoint != ""),
		},
		Debug: parseBool("DEBUG", false),
	}
}

func overrideSwitchFromEnv(s *SwitchConfig) {
	s.Host = parseString("SWITCH_HOST", s.Host)
	s.Username = parseString("SWITCH_USERNAME", s.Username)
	s.Password = parseString("SWITCH_PASSWORD", s.Password)
	s.EnableSecret = parseString("SWITCH_ENABLE_SECRET", s.EnableSecret)
}
