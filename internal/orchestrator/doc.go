// Package orchestrator runs one webhook delivery end to end: normalize,
// resolve, drive every host, isolate the batch on a VLAN, dispatch side
// effects and assemble the HTTP response from the verdict.
package orchestrator
