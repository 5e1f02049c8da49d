// Package notify delivers the side effects of a webhook batch: one
// notification per provisioning outcome and one audit log entry per
// delivery, optionally archived to object storage.
//
// Every send runs on a tracked background goroutine with its own timeout
// and a bounded retry budget. Failures are logged and counted but never
// reach the caller; the batch verdict is final before anything is sent.
package notify
