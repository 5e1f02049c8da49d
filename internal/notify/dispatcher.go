package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/crypto/signature"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/metrics"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/util/async"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/util/retry"
)

// UserAgent is sent with every outbound request.
const UserAgent = "polito-reservation-webhook-client/1.0"

const (
	kindNotification = "notification"
	kindAudit        = "audit"
	kindArchive      = "archive"

	// maxResponseBody bounds how much of an error response is kept for logs.
	maxResponseBody = 1024
)

// Config holds the dispatcher settings.
type Config struct {
	NotificationEndpoint string
	NotificationTimeout  time.Duration
	LogEndpoint          string
	LogTimeout           time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	RetryDelay time.Duration
	// Secret signs outgoing bodies. Empty disables signing.
	Secret    string
	Namespace string
	Archive   ArchiveConfig
}

// ArchiveConfig selects where audit entries are archived.
type ArchiveConfig struct {
	// Bucket enables archiving when set.
	Bucket string
	Prefix string
}

// DefaultConfig returns the dispatcher defaults.
func DefaultConfig() Config {
	return Config{
		NotificationTimeout: 10 * time.Second,
		LogTimeout:          5 * time.Second,
		MaxRetries:          2,
		RetryDelay:          500 * time.Millisecond,
		Namespace:           "default",
		Archive:             ArchiveConfig{Prefix: "webhook-audit"},
	}
}

// ObjectStore stores archived audit entries.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
}

// Dispatcher sends notifications and audit entries in the background.
type Dispatcher struct {
	cfg     Config
	http    *http.Client
	store   ObjectStore
	clock   clock.Clock
	tracker async.Tracker
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.http = c }
}

// WithObjectStore enables the audit archive.
func WithObjectStore(s ObjectStore) Option {
	return func(d *Dispatcher) { d.store = s }
}

// WithClock replaces the clock used for payload timestamps and retry backoff.
func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:   cfg,
		http:  &http.Client{},
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NotifyProvisioning reports the outcome of one provisioning wait. It
// returns immediately.
func (d *Dispatcher) NotifyProvisioning(ctx context.Context, bc reservation.BatchContext, o reservation.Outcome) {
	ctx = context.WithoutCancel(ctx)
	logger := log.FromContext(ctx).WithValues("kind", kindNotification, "resource", o.ResourceName)

	if d.cfg.NotificationEndpoint == "" {
		logger.V(1).Info("notification endpoint not configured, skipping notification")
		metrics.RecordDispatch(kindNotification, "skipped")
		return
	}

	eventID := o.EventID
	if eventID == "" {
		eventID = "event-" + uuid.NewString()
	}
	n := newNotification(bc, o, eventID, d.cfg.Namespace, d.clock.Now())

	d.tracker.Go(func() {
		body, err := json.Marshal(n)
		if err != nil {
			logger.Error(err, "failed to encode notification")
			metrics.RecordDispatch(kindNotification, "failed")
			return
		}
		err = d.send(ctx, kindNotification, d.cfg.NotificationEndpoint, d.cfg.NotificationTimeout, func(int) ([]byte, error) {
			return body, nil
		})
		d.finish(ctx, kindNotification, err, "success", o.Succeeded())
	})
}

// LogDelivery records one webhook delivery in the audit log and, when
// configured, the archive. It returns immediately.
func (d *Dispatcher) LogDelivery(ctx context.Context, rec DeliveryRecord) {
	ctx = context.WithoutCancel(ctx)
	if rec.WebhookID == "" {
		rec.WebhookID = uuid.NewString()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = d.clock.Now()
	}

	summary, err := json.Marshal(rec.summary())
	if err != nil {
		log.FromContext(ctx).Error(err, "failed to encode delivery summary")
		return
	}
	entry := newAuditEntry(rec, string(summary), d.cfg.Namespace, d.clock.Now())

	if d.cfg.LogEndpoint == "" {
		log.FromContext(ctx).V(1).Info("webhook log endpoint not configured, skipping audit log")
		metrics.RecordDispatch(kindAudit, "skipped")
	} else {
		d.tracker.Go(func() {
			err := d.send(ctx, kindAudit, d.cfg.LogEndpoint, d.cfg.LogTimeout, func(attempt int) ([]byte, error) {
				e := entry
				e.RetryCount = attempt - 1
				return json.Marshal(e)
			})
			d.finish(ctx, kindAudit, err, "webhookId", rec.WebhookID)
		})
	}

	if d.store != nil && d.cfg.Archive.Bucket != "" {
		d.tracker.Go(func() {
			d.finish(ctx, kindArchive, d.archive(ctx, rec, entry), "webhookId", rec.WebhookID)
		})
	}
}

// Wait blocks until every pending delivery is done or ctx expires.
func (d *Dispatcher) Wait(ctx context.Context) error {
	return d.tracker.Wait(ctx)
}

// ArchiveKey returns the object key of an archived audit entry.
func ArchiveKey(prefix, webhookID string, receivedAt time.Time) string {
	t := receivedAt.UTC()
	return path.Join(prefix, t.Format("2006"), t.Format("01"), t.Format("02"), webhookID+".json")
}

func (d *Dispatcher) archive(ctx context.Context, rec DeliveryRecord, entry auditEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}

	key := ArchiveKey(d.cfg.Archive.Prefix, rec.WebhookID, rec.ReceivedAt)
	ctx, cancel := context.WithTimeout(ctx, d.cfg.LogTimeout)
	defer cancel()

	return d.store.PutObject(ctx, d.cfg.Archive.Bucket, key, data, "application/json")
}

// send posts the body produced for each attempt. Server errors and
// transport failures are retried; client errors are not.
func (d *Dispatcher) send(ctx context.Context, kind, endpoint string, timeout time.Duration, body func(attempt int) ([]byte, error)) error {
	logger := log.FromContext(ctx).WithValues("kind", kind, "endpoint", endpoint)

	attempt := 0
	_, err := retry.Do(ctx, func() error {
		attempt++
		payload, err := body(attempt)
		if err != nil {
			return retry.Fatal(fmt.Errorf("failed to encode %s: %w", kind, err))
		}
		return d.post(ctx, kind, endpoint, timeout, payload)
	},
		retry.WithMaxRetries(d.cfg.MaxRetries),
		retry.WithInitialDelay(d.cfg.RetryDelay),
		retry.WithMaxDelay(10*d.cfg.RetryDelay),
		retry.WithClock(d.clock),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.V(1).Info("delivery failed, retrying", "attempt", attempt, "delay", delay, "error", err.Error())
		}),
	)
	return err
}

func (d *Dispatcher) post(ctx context.Context, kind, endpoint string, timeout time.Duration, payload []byte) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return retry.Fatal(&DispatchError{Kind: kind, Endpoint: endpoint, Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if d.cfg.Secret != "" {
		req.Header.Set(signature.Header, signature.Sign(payload, d.cfg.Secret))
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return &DispatchError{Kind: kind, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if resp.StatusCode < 300 {
		return nil
	}

	derr := &DispatchError{
		Kind:       kind,
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("%s", bytes.TrimSpace(respBody)),
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return derr
	}
	return retry.Fatal(derr)
}

func (d *Dispatcher) finish(ctx context.Context, kind string, err error, kv ...any) {
	logger := log.FromContext(ctx).WithValues("kind", kind).WithValues(kv...)
	if err != nil {
		logger.Error(err, "side effect delivery failed")
		metrics.RecordDispatch(kind, "failed")
		return
	}
	logger.Info("side effect delivered")
	metrics.RecordDispatch(kind, "success")
}
