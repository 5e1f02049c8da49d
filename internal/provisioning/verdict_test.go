package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/reservation"
)

func outcome(id, name string, action reservation.Action, status reservation.OutcomeStatus, detail string) reservation.Outcome {
	return reservation.Outcome{EventID: id, ResourceName: name, Action: action, Status: status, ErrorDetail: detail}
}

func TestNewVerdict(t *testing.T) {
	t.Parallel()

	ok := outcome("1", "srv-01", reservation.ActionProvision, reservation.OutcomeSucceeded, "")
	failed := outcome("2", "srv-02", reservation.ActionProvision, reservation.OutcomeFailed, "host reported an error")
	timedOut := outcome("3", "srv-03", reservation.ActionProvision, reservation.OutcomeTimedOut, "no progress")

	tests := []struct {
		name          string
		outcomes      []reservation.Outcome
		wantOverall   OverallStatus
		wantAllFailed bool
		wantFailed    int
	}{
		{"all succeeded", []reservation.Outcome{ok}, StatusSuccess, false, 0},
		{"nothing to do", nil, StatusSuccess, false, 0},
		{"partial", []reservation.Outcome{ok, failed}, StatusPartialFailure, false, 1},
		{"all failed", []reservation.Outcome{failed, timedOut}, StatusPartialFailure, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := newVerdict(tt.outcomes, nil)
			assert.Equal(t, tt.wantOverall, v.Overall)
			assert.Equal(t, tt.wantOverall == StatusSuccess, v.Success())
			assert.Equal(t, tt.wantAllFailed, v.AllFailed())
			assert.Len(t, v.Failed, tt.wantFailed)
		})
	}
}

func TestVerdict_FailureDetailListsEveryTuple(t *testing.T) {
	t.Parallel()

	v := newVerdict([]reservation.Outcome{
		outcome("1", "srv-01", reservation.ActionProvision, reservation.OutcomeSucceeded, ""),
		outcome("2", "srv-02", reservation.ActionProvision, reservation.OutcomeFailed, "image checksum mismatch"),
		outcome("3", "srv-03", reservation.ActionProvision, reservation.OutcomeTimedOut, ""),
	}, nil)

	assert.Equal(t,
		"2 of 3 events failed: eventId=2 resource=srv-02 action=provision status=failed: image checksum mismatch; "+
			"eventId=3 resource=srv-03 action=provision status=timed-out",
		v.FailureDetail())
}

func TestVerdict_FailureDetailEmptyOnSuccess(t *testing.T) {
	t.Parallel()

	v := newVerdict([]reservation.Outcome{
		outcome("1", "srv-01", reservation.ActionDeprovision, reservation.OutcomeSucceeded, ""),
	}, nil)
	assert.Empty(t, v.FailureDetail())
}

func TestVerdict_SucceededProvisions(t *testing.T) {
	t.Parallel()

	v := newVerdict([]reservation.Outcome{
		outcome("1", "srv-01", reservation.ActionProvision, reservation.OutcomeSucceeded, ""),
		outcome("2", "srv-02", reservation.ActionDeprovision, reservation.OutcomeSucceeded, ""),
		outcome("3", "srv-03", reservation.ActionProvision, reservation.OutcomeFailed, "x"),
	}, nil)

	got := v.SucceededProvisions()
	if assert.Len(t, got, 1) {
		assert.Equal(t, "srv-01", got[0].ResourceName)
	}
}
