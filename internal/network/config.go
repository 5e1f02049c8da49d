package network

import (
	"fmt"
	"time"
)

const (
	maxVLANID            = 4094
	defaultInterfaceName = "Twe1/0/"
)

// VLANConfig controls VLAN id and naming.
type VLANConfig struct {
	BaseID            int
	IDRange           int
	NamePrefix        string
	DescriptionPrefix string
	// TimeBucket is the granularity of the batch timestamp fed into the id hash.
	TimeBucket time.Duration
}

// Config is the network configuration consumed by the Configurator.
type Config struct {
	Enabled bool
	// PortMapping maps resource names to switch port numbers.
	PortMapping map[string]int
	// PortNamePrefix enables "<prefix><digits>" resource names to map to port <digits>.
	PortNamePrefix string
	// InterfacePrefix is prepended to port numbers, e.g. "Twe1/0/".
	InterfacePrefix string
	VLAN            VLANConfig
}

// DefaultConfig returns a disabled configuration with sane VLAN defaults.
func DefaultConfig() Config {
	return Config{
		InterfacePrefix: defaultInterfaceName,
		VLAN: VLANConfig{
			BaseID:            1000,
			IDRange:           900,
			NamePrefix:        "restart",
			DescriptionPrefix: "Reservation batch",
			TimeBucket:        time.Hour,
		},
	}
}

// Validate checks that every VLAN id the hash can produce is usable.
func (c Config) Validate() error {
	v := c.VLAN
	if v.BaseID < 1 {
		return fmt.Errorf("vlan base_id must be at least 1, got %d", v.BaseID)
	}
	if v.IDRange < 1 {
		return fmt.Errorf("vlan id_range must be at least 1, got %d", v.IDRange)
	}
	if last := v.BaseID + v.IDRange - 1; last > maxVLANID {
		return fmt.Errorf("vlan ids %d-%d exceed %d", v.BaseID, last, maxVLANID)
	}
	if v.TimeBucket < 0 {
		return fmt.Errorf("vlan time_bucket must not be negative")
	}
	for name, port := range c.PortMapping {
		if port < 1 {
			return fmt.Errorf("port for %s must be positive, got %d", name, port)
		}
	}
	return nil
}
