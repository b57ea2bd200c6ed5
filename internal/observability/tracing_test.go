package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "test", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartClientSpan(context.Background(), "reports.predict")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}

func TestTrackReportsCallCountsOutcome(t *testing.T) {
	failedBefore := testutil.ToFloat64(ReportsAPIRequests.WithLabelValues("track_test", "error"))
	okBefore := testutil.ToFloat64(ReportsAPIRequests.WithLabelValues("track_test", "ok"))

	done := TrackReportsCall("track_test")
	err := errors.New("down")
	done(&err)

	done = TrackReportsCall("track_test")
	var noErr error
	done(&noErr)

	assert.Equal(t, failedBefore+1, testutil.ToFloat64(ReportsAPIRequests.WithLabelValues("track_test", "error")))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(ReportsAPIRequests.WithLabelValues("track_test", "ok")))
}
