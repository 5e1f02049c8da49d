package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/crypto/signature"
)

// requestLogger puts a request scoped logger on the context and logs
// every request when it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context()).WithValues(
			"requestId", chimiddleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(log.IntoContext(r.Context(), logger)))

		logger.V(1).Info("request served",
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// rateLimit allows requestsPerMinute requests per client IP.
func rateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	window := time.Minute
	return httprate.Limit(
		requestsPerMinute,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		}),
	)
}

// verifySignature rejects bodies whose X-Webhook-Signature does not match.
// With an empty secret every request passes. The body is buffered up to
// maxBytes and handed on unchanged.
func verifySignature(secret string, maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.FromContext(r.Context())

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
			if err != nil {
				writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("failed to read body: %v", err))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if secret == "" {
				logger.V(1).Info("webhook secret not configured, skipping signature verification")
				next.ServeHTTP(w, r)
				return
			}

			sig := r.Header.Get(signature.Header)
			if sig == "" {
				logger.Info("missing webhook signature")
				writeError(w, http.StatusUnauthorized, "Signature verification failed")
				return
			}
			if !signature.Verify(body, secret, sig) {
				logger.Info("webhook signature mismatch")
				writeError(w, http.StatusUnauthorized, "Signature verification failed")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
