// Package network isolates a provisioned batch on its own VLAN.
//
// After a fully successful EVENT_START batch the Configurator resolves the
// switch port of every provisioned host, derives a stable VLAN id from the
// batch content and applies one transaction to the switch: create the VLAN,
// put the ports in access mode on it, enable them and save the
// configuration. Failures are reported as *NetworkConfigError and never
// change the provisioning verdict.
package network
