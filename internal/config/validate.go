package config

import (
	"fmt"
	"strings"
)

// supportedDeviceTypes lists switch dialects the command renderer speaks.
var supportedDeviceTypes = map[string]bool{
	"cisco_ios": true,
	"cisco_xe":  true,
}

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("webhook rate limit must not be negative, got %d", c.Server.RateLimit)
	}
	if c.Kubernetes.Namespace == "" {
		return fmt.Errorf("kubernetes namespace is required")
	}
	if c.Images.ProvisionImage == "" {
		return fmt.Errorf("provision image is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1, got %d", c.Concurrency)
	}

	if err := c.validateProvisioning(); err != nil {
		return fmt.Errorf("provisioning validation failed: %w", err)
	}

	if c.Network.Enabled {
		if err := c.validateNetwork(); err != nil {
			return fmt.Errorf("network validation failed: %w", err)
		}
	}

	if err := c.validateNotify(); err != nil {
		return fmt.Errorf("notification validation failed: %w", err)
	}

	return nil
}

func (c *Config) validateProvisioning() error {
	p := c.Provisioning
	if p.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", p.PollInterval)
	}
	if p.Timeout < p.PollInterval {
		return fmt.Errorf("timeout %s is shorter than the poll interval %s", p.Timeout, p.PollInterval)
	}
	if p.PatchMaxRetries < 0 {
		return fmt.Errorf("patch retries must not be negative, got %d", p.PatchMaxRetries)
	}
	if p.PatchInitialDelay > p.PatchMaxDelay {
		return fmt.Errorf("patch retry initial delay %s exceeds the max delay %s", p.PatchInitialDelay, p.PatchMaxDelay)
	}
	return nil
}

func (c *Config) validateNetwork() error {
	s := c.Switch
	var missing []string
	if s.Host == "" {
		missing = append(missing, "host")
	}
	if s.Username == "" {
		missing = append(missing, "username")
	}
	if s.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("switch %s required", strings.Join(missing, ", "))
	}
	if !supportedDeviceTypes[s.DeviceType] {
		return fmt.Errorf("unsupported switch device type %q", s.DeviceType)
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("switch port must be between 1 and 65535, got %d", s.Port)
	}

	if len(c.Network.PortMapping) == 0 && c.Network.PortNamePrefix == "" {
		return fmt.Errorf("server_port_mapping or port_name_prefix is required")
	}

	return c.Network.Validate()
}

func (c *Config) validateNotify() error {
	n := c.Notify
	if n.MaxRetries < 0 {
		return fmt.Errorf("dispatch retries must not be negative, got %d", n.MaxRetries)
	}
	if n.NotificationEndpoint != "" && n.NotificationTimeout <= 0 {
		return fmt.Errorf("notification timeout must be positive")
	}
	if n.LogEndpoint != "" && n.LogTimeout <= 0 {
		return fmt.Errorf("webhook log timeout must be positive")
	}
	if n.Archive.Bucket != "" && c.Archive.Region == "" {
		return fmt.Errorf("audit archive region is required when a bucket is set")
	}
	return nil
}
