// Package api exposes the webhook client over HTTP.
//
// Routes:
//
//	POST /webhook   signed reservation webhook, rate limited
//	GET  /healthz   liveness
//	GET  /metrics   Prometheus metrics
package api
