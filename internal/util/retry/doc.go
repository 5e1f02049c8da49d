// Package retry provides exponential backoff retry logic for transient failures.
//
// The [WithExponentialBackoff] function retries an operation with configurable
// max retries, initial delay, and maximum delay. Errors marked with [Fatal]
// end the loop immediately. The delay source is an injectable
// k8s.io/utils/clock so tests can step through backoff without sleeping.
package retry
