package orchestrator

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/network"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/provisioning"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
)

// Response is the HTTP answer to one delivery.
type Response struct {
	StatusCode int
	// Body is a *BatchBody or an *ErrorBody.
	Body any
}

// Message returns the human readable summary of the response.
func (r Response) Message() string {
	switch b := r.Body.(type) {
	case *BatchBody:
		return b.Message
	case *ErrorBody:
		return b.Detail
	}
	return ""
}

// BatchBody is returned for batches where at least one event succeeded.
type BatchBody struct {
	Status    string        `json:"status"`
	Message   string        `json:"message"`
	Detail    string        `json:"detail,omitempty"`
	Failures  []Failure     `json:"failures,omitempty"`
	Network   *NetworkBlock `json:"network,omitempty"`
	Timestamp string        `json:"timestamp"`
}

// ErrorBody is returned when the request failed as a whole.
type ErrorBody struct {
	Detail    string `json:"detail"`
	Timestamp string `json:"timestamp"`
}

// Failure is one failed event of a partially failed batch.
type Failure struct {
	EventID      string `json:"eventId"`
	ResourceName string `json:"resourceName"`
	Action       string `json:"action"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// NetworkBlock reports the network step when it ran.
type NetworkBlock struct {
	VLANID   int      `json:"vlanId"`
	VLANName string   `json:"vlanName"`
	Ports    []int    `json:"ports"`
	Unmapped []string `json:"unmapped,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func errorResponse(code int, detail string, now time.Time) Response {
	return Response{StatusCode: code, Body: &ErrorBody{Detail: detail, Timestamp: timestamp(now)}}
}

// verdictResponse maps a batch verdict to its HTTP response: 200 on full
// success, 207 when some events failed and 500 when every event failed.
func verdictResponse(eventType reservation.EventType, v provisioning.Verdict, net *network.Result, now time.Time) Response {
	if v.AllFailed() {
		return errorResponse(http.StatusInternalServerError, v.FailureDetail(), now)
	}

	label := strings.ToLower(string(eventType))
	body := &BatchBody{
		Status:    string(v.Overall),
		Network:   networkBlock(net),
		Timestamp: timestamp(now),
	}

	if v.Success() {
		body.Message = fmt.Sprintf("Batch %s initiated for %d events", label, len(v.Outcomes))
		if n := len(v.Skipped); n > 0 {
			body.Message += fmt.Sprintf(", %d skipped", n)
		}
		return Response{StatusCode: http.StatusOK, Body: body}
	}

	body.Message = fmt.Sprintf("Batch %s partially failed: %d of %d events succeeded", label, len(v.Succeeded), len(v.Outcomes))
	body.Detail = v.FailureDetail()
	for _, o := range v.Failed {
		body.Failures = append(body.Failures, Failure{
			EventID:      o.EventID,
			ResourceName: o.ResourceName,
			Action:       string(o.Action),
			Status:       string(o.Status),
			Error:        o.ErrorDetail,
		})
	}
	return Response{StatusCode: http.StatusMultiStatus, Body: body}
}

func networkBlock(res *network.Result) *NetworkBlock {
	if res == nil || !res.Ran {
		return nil
	}
	block := &NetworkBlock{
		VLANID:   res.VLANID,
		VLANName: res.VLANName,
		Ports:    res.Ports,
		Unmapped: res.Unmapped,
	}
	if res.Err != nil {
		block.Error = res.Err.Error()
	}
	return block
}
