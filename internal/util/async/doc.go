// Package async provides helpers for running work concurrently.
//
// ForEach fans a fixed number of items out over a bounded set of goroutines
// and joins every failure. Tracker runs fire-and-forget goroutines that can
// still be awaited during shutdown.
package async
