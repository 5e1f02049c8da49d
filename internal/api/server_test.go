package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/crypto/signature"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/metrics"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/orchestrator"
)

// recordingHandler answers with a fixed response and keeps the bodies it saw.
type recordingHandler struct {
	mu     sync.Mutex
	bodies [][]byte
	resp   orchestrator.Response
}

func (h *recordingHandler) Handle(_ context.Context, body []byte) orchestrator.Response {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bodies = append(h.bodies, body)
	return h.resp
}

func (h *recordingHandler) Bodies() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]byte(nil), h.bodies...)
}

func post(url string, body []byte, sig string) *http.Response {
	req, err := http.NewRequest(http.MethodPost, url+"/webhook", bytes.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set(signature.Header, sig)
	}
	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	return resp
}

func decode(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	var out map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
	return out
}

var _ = Describe("Server", func() {
	const secret = "s3cr3t"

	var (
		handler *recordingHandler
		cfg     Config
		ts      *httptest.Server
		body    []byte
	)

	BeforeEach(func() {
		handler = &recordingHandler{resp: orchestrator.Response{
			StatusCode: http.StatusOK,
			Body: &orchestrator.BatchBody{
				Status:    "success",
				Message:   "Batch event_start initiated for 1 events",
				Timestamp: "2025-05-29T12:00:00Z",
			},
		}}
		cfg = Config{WebhookSecret: secret, RateLimit: 100}
		body = []byte(`{"eventType":"EVENT_START","resourceName":"restart-srv01"}`)
	})

	JustBeforeEach(func() {
		ts = httptest.NewServer(NewServer(cfg, handler).Handler())
		DeferCleanup(ts.Close)
	})

	Describe("POST /webhook", func() {
		It("passes a correctly signed body through unchanged", func() {
			resp := post(ts.URL, body, signature.Sign(body, secret))

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(decode(resp)).To(HaveKeyWithValue("status", "success"))
			Expect(handler.Bodies()).To(ConsistOf(body))
		})

		It("rejects a missing signature", func() {
			resp := post(ts.URL, body, "")

			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(decode(resp)).To(HaveKeyWithValue("detail", "Signature verification failed"))
			Expect(handler.Bodies()).To(BeEmpty())
		})

		It("rejects a signature over a different body", func() {
			resp := post(ts.URL, body, signature.Sign([]byte(`{}`), secret))
			_ = resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(handler.Bodies()).To(BeEmpty())
		})

		It("relays the orchestrator status code and body", func() {
			handler.resp = orchestrator.Response{
				StatusCode: http.StatusMultiStatus,
				Body: &orchestrator.BatchBody{
					Status:  "partial_failure",
					Message: "Batch event_start partially failed: 1 of 2 events succeeded",
					Detail:  "1 of 2 events failed: eventId=2 resource=restart-srv02 action=provision status=failed",
					Failures: []orchestrator.Failure{
						{EventID: "2", ResourceName: "restart-srv02", Action: "provision", Status: "failed"},
					},
					Timestamp: "2025-05-29T12:00:00Z",
				},
			}

			resp := post(ts.URL, body, signature.Sign(body, secret))

			Expect(resp.StatusCode).To(Equal(http.StatusMultiStatus))
			out := decode(resp)
			Expect(out).To(HaveKeyWithValue("status", "partial_failure"))
			Expect(out).To(HaveKeyWithValue("detail", ContainSubstring("resource=restart-srv02")))
			Expect(out["failures"]).To(HaveLen(1))
			Expect(out).To(HaveKey("timestamp"))
		})

		Context("with a small body limit", func() {
			BeforeEach(func() {
				cfg.MaxBodyBytes = 16
			})

			It("rejects bodies above the limit", func() {
				resp := post(ts.URL, body, signature.Sign(body, secret))
				_ = resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusRequestEntityTooLarge))
				Expect(handler.Bodies()).To(BeEmpty())
			})
		})

		It("only accepts POST", func() {
			resp, err := http.Get(ts.URL + "/webhook")
			Expect(err).NotTo(HaveOccurred())
			_ = resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
		})

		Context("without a webhook secret", func() {
			BeforeEach(func() {
				cfg.WebhookSecret = ""
			})

			It("accepts unsigned bodies", func() {
				resp := post(ts.URL, body, "")
				_ = resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(handler.Bodies()).To(HaveLen(1))
			})
		})

		Context("with a rate limit", func() {
			BeforeEach(func() {
				cfg.RateLimit = 2
			})

			It("answers 429 once the budget is spent", func() {
				sig := signature.Sign(body, secret)
				for range 2 {
					resp := post(ts.URL, body, sig)
					_ = resp.Body.Close()
					Expect(resp.StatusCode).To(Equal(http.StatusOK))
				}

				resp := post(ts.URL, body, sig)
				Expect(resp.StatusCode).To(Equal(http.StatusTooManyRequests))
				Expect(resp.Header.Get("Retry-After")).To(Equal("60"))
				Expect(decode(resp)).To(HaveKey("detail"))
			})
		})
	})

	Describe("GET /healthz", func() {
		It("reports ok", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(decode(resp)).To(Equal(map[string]any{"status": "ok"}))
		})
	})

	Describe("GET /metrics", func() {
		It("exposes the webhook client collectors", func() {
			metrics.RecordBatch("EVENT_START", "success")

			resp, err := http.Get(ts.URL + "/metrics")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			data, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(data)).To(ContainSubstring(`webhook_client_batches_total{event_type="EVENT_START",status="success"}`))
		})
	})
})

var _ = Describe("Server.Run", func() {
	It("shuts down when the context is cancelled", func() {
		srv := NewServer(Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, &recordingHandler{})
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- srv.Run(ctx) }()

		Consistently(done, 50*time.Millisecond).ShouldNot(Receive())
		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})
})
