package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

func TestRecordBatch(t *testing.T) {
	batchesTotal.Reset()

	RecordBatch("EVENT_START", "success")
	RecordBatch("EVENT_START", "success")
	RecordBatch("EVENT_END", "partial_failure")

	assert.Equal(t, float64(2), testutil.ToFloat64(batchesTotal.WithLabelValues("EVENT_START", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(batchesTotal.WithLabelValues("EVENT_END", "partial_failure")))
}

func TestRecordOutcome(t *testing.T) {
	outcomesTotal.Reset()
	actionDuration.Reset()

	RecordOutcome("provision", "succeeded", 90*time.Second)
	RecordOutcome("provision", "timed-out", 30*time.Minute)

	counter, err := outcomesTotal.GetMetricWithLabelValues("provision", "succeeded")
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))

	assert.Equal(t, 1, testutil.CollectAndCount(actionDuration))
}

func TestActionDuration_CoversLockWait(t *testing.T) {
	m, ok := actionDuration.WithLabelValues("provision").(prometheus.Metric)
	require.True(t, ok)
	assert.Contains(t, m.Desc().String(), "including lock wait")
}

func TestRecordPatchAttempt(t *testing.T) {
	patchAttemptsTotal.Reset()

	RecordPatchAttempt("retry")
	RecordPatchAttempt("retry")
	RecordPatchAttempt("success")

	assert.Equal(t, float64(2), testutil.ToFloat64(patchAttemptsTotal.WithLabelValues("retry")))
	assert.Equal(t, float64(1), testutil.ToFloat64(patchAttemptsTotal.WithLabelValues("success")))
}

func TestRecordNetworkConfigAndDispatch(t *testing.T) {
	networkConfigTotal.Reset()
	dispatchTotal.Reset()

	RecordNetworkConfig("auth")
	RecordDispatch("notification", "failure")

	assert.Equal(t, float64(1), testutil.ToFloat64(networkConfigTotal.WithLabelValues("auth")))
	assert.Equal(t, float64(1), testutil.ToFloat64(dispatchTotal.WithLabelValues("notification", "failure")))
}

func TestCollectorsRegistered(t *testing.T) {
	RecordBatch("EVENT_END", "success")

	families, err := ctrlmetrics.Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["webhook_client_batches_total"])
}
