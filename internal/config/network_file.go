package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/network"
)

// NetworkFile is the YAML network configuration file.
//
//	switch:
//	  host: 192.168.1.1
//	  username: admin
//	  password: admin
//	  device_type: cisco_ios
//	vlan:
//	  base_id: 1000
//	  name_prefix: restart
//	  description_prefix: Reservation batch
//	server_port_mapping:
//	  restart-srv01: 1
type NetworkFile struct {
	Switch            SwitchSection  `yaml:"switch"`
	VLAN              VLANSection    `yaml:"vlan"`
	ServerPortMapping map[string]int `yaml:"server_port_mapping"`
	PortNamePrefix    string         `yaml:"port_name_prefix"`
	InterfacePrefix   string         `yaml:"interface_prefix"`
}

// SwitchSection is the switch block of the network file.
type SwitchSection struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	Secret         string `yaml:"secret"`
	DeviceType     string `yaml:"device_type"`
	CommandTimeout string `yaml:"command_timeout"`
}

// VLANSection is the vlan block of the network file.
type VLANSection struct {
	BaseID            int    `yaml:"base_id"`
	IDRange           int    `yaml:"id_range"`
	NamePrefix        string `yaml:"name_prefix"`
	DescriptionPrefix string `yaml:"description_prefix"`
	TimeBucket        string `yaml:"time_bucket"`
}

// placeholder matches deployment templating left in the file, e.g.
// "{{ SWITCH_HOST | default('192.168.1.1') }}".
var placeholder = regexp.MustCompile(`^\{\{\s*([A-Z0-9_]+)\s*(?:\|\s*default\(\s*'([^']*)'\s*\)\s*)?\}\}$`)

// LoadNetworkFile reads and parses the network file.
func LoadNetworkFile(path string) (*NetworkFile, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network config file: %w", err)
	}

	var file NetworkFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal network config %s: %w", path, err)
	}

	s := &file.Switch
	for _, field := range []*string{&s.Host, &s.Username, &s.Password, &s.Secret} {
		*field = expandPlaceholder(*field)
	}

	return &file, nil
}

// expandPlaceholder resolves a templated value from the environment or its default.
func expandPlaceholder(val string) string {
	m := placeholder.FindStringSubmatch(val)
	if m == nil {
		return val
	}
	return parseString(m[1], m[2])
}

// apply merges the file into cfg; zero values keep the defaults.
func (f *NetworkFile) apply(cfg *Config) {
	s := f.Switch
	cfg.Switch.Host = s.Host
	cfg.Switch.Username = s.Username
	cfg.Switch.Password = s.Password
	cfg.Switch.EnableSecret = s.Secret
	if s.Port != 0 {
		cfg.Switch.Port = s.Port
	}
	if s.DeviceType != "" {
		cfg.Switch.DeviceType = s.DeviceType
	}
	if d, err := time.ParseDuration(s.CommandTimeout); err == nil {
		cfg.Switch.CommandTimeout = d
	}

	n := &cfg.Network
	n.PortMapping = f.ServerPortMapping
	n.PortNamePrefix = f.PortNamePrefix
	if f.InterfacePrefix != "" {
		n.InterfacePrefix = f.InterfacePrefix
	}

	v := f.VLAN
	if v.BaseID != 0 {
		n.VLAN.BaseID = v.BaseID
	}
	if v.IDRange != 0 {
		n.VLAN.IDRange = v.IDRange
	}
	if v.NamePrefix != "" {
		n.VLAN.NamePrefix = v.NamePrefix
	}
	if v.DescriptionPrefix != "" {
		n.VLAN.DescriptionPrefix = v.DescriptionPrefix
	}
	if d, err := time.ParseDuration(v.TimeBucket); err == nil {
		n.VLAN.TimeBucket = d
	}
}

// NetworkConfig returns the network section the file describes on top of
// network.DefaultConfig. The result is enabled and validated.
func (f *NetworkFile) NetworkConfig() (network.Config, error) {
	cfg := &Config{Network: network.DefaultConfig()}
	f.apply(cfg)
	cfg.Network.Enabled = true
	if err := cfg.Network.Validate(); err != nil {
		return network.Config{}, err
	}
	return cfg.Network, nil
}
