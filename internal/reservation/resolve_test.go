package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var testPolicy = ImagePolicy{
	ProvisionImage:        "http://images/ubuntu.qcow2",
	ProvisionChecksum:     "http://images/ubuntu.qcow2.sha256sum",
	ProvisionChecksumType: "sha256",
}

func TestResolve_EventStart(t *testing.T) {
	t.Parallel()

	r := NewResolver(testPolicy, clocktesting.NewFakePassiveClock(testNow))
	req, err := r.Resolve(
		BatchContext{EventType: EventStart, SSHPublicKey: "ssh-ed25519 AAAA"},
		EventRecord{EventID: "evt_1", ResourceName: "srv01"},
	)
	require.NoError(t, err)
	assert.Equal(t, ActionRequest{
		EventID:      "evt_1",
		ResourceName: "srv01",
		Action:       ActionProvision,
		Image:        testPolicy.ProvisionImage,
		Checksum:     testPolicy.ProvisionChecksum,
		ChecksumType: "sha256",
		SSHPublicKey: "ssh-ed25519 AAAA",
	}, req)
}

func TestResolve_EventEnd(t *testing.T) {
	t.Parallel()

	t.Run("clears image when no deprovision image", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(testPolicy, nil)
		req, err := r.Resolve(BatchContext{EventType: EventEnd}, EventRecord{EventID: "evt_1", ResourceName: "srv01"})
		require.NoError(t, err)
		assert.Equal(t, ActionDeprovision, req.Action)
		assert.Empty(t, req.Image)
		assert.Empty(t, req.SSHPublicKey)
	})

	t.Run("uses deprovision image", func(t *testing.T) {
		t.Parallel()
		policy := testPolicy
		policy.DeprovisionImage = "http://images/wipe.qcow2"
		r := NewResolver(policy, nil)
		req, err := r.Resolve(BatchContext{EventType: EventEnd}, EventRecord{ResourceName: "srv01"})
		require.NoError(t, err)
		assert.Equal(t, "http://images/wipe.qcow2", req.Image)
	})
}

func TestResolve_EventDeletedWindow(t *testing.T) {
	t.Parallel()

	start := testNow.Add(-time.Hour)
	end := testNow.Add(time.Hour)

	tests := []struct {
		name string
		now  time.Time
		want Action
	}{
		{"inside window", testNow, ActionEmergencyDeprovision},
		{"at start", start, ActionEmergencyDeprovision},
		{"at end", end, ActionEmergencyDeprovision},
		{"before start", start.Add(-time.Second), ActionSkip},
		{"after end", end.Add(time.Second), ActionSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewResolver(testPolicy, clocktesting.NewFakePassiveClock(tt.now))
			req, err := r.Resolve(
				BatchContext{EventType: EventDeleted},
				EventRecord{EventID: "991", ResourceName: "srv03", EventStart: start, EventEnd: end},
			)
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Action)
			assert.Equal(t, "srv03", req.ResourceName)
		})
	}
}

func TestResolve_UnknownEventType(t *testing.T) {
	t.Parallel()

	r := NewResolver(testPolicy, nil)
	_, err := r.Resolve(BatchContext{EventType: "EVENT_PAUSED"}, EventRecord{ResourceName: "srv01"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestResolveAll_PreservesOrder(t *testing.T) {
	t.Parallel()

	batch, err := testNormalizer().Normalize([]byte(batchBody))
	require.NoError(t, err)

	reqs, err := NewResolver(testPolicy, nil).ResolveAll(batch)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "evt_1", reqs[0].EventID)
	assert.Equal(t, "evt_2", reqs[1].EventID)
	for _, req := range reqs {
		assert.Equal(t, ActionProvision, req.Action)
	}
}

func TestAction_Deprovisions(t *testing.T) {
	t.Parallel()
	assert.True(t, ActionDeprovision.Deprovisions())
	assert.True(t, ActionEmergencyDeprovision.Deprovisions())
	assert.False(t, ActionProvision.Deprovisions())
	assert.False(t, ActionSkip.Deprovisions())
}
