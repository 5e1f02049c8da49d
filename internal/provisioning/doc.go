// Package provisioning drives reservation actions against BareMetalHosts.
//
// # Components
//
// Controller takes one reservation.ActionRequest to exactly one
// reservation.Outcome: it patches the host image (retrying transient
// failures with exponential backoff) and, for provisions, polls the host
// until it is provisioned, reports an error, or the provisioning timeout
// elapses. Work on a single host is serialized by a KeyedMutex.
//
// Aggregator runs the Controller for every request of a batch with bounded
// concurrency and folds the outcomes into a Verdict.
//
// The Kubernetes side lives behind HostAPI so the state machine can be tested
// with a fake clock and scripted host states.
package provisioning
