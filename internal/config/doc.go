// Package config builds the immutable runtime configuration of the webhook
// client.
//
// Everything comes from environment variables except the switch and VLAN
// settings, which live in a YAML network file read only when network
// configuration is enabled. [Load] returns one validated [Config]; each
// component receives its own section by value.
package config
