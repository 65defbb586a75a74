package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPoll(t *testing.T) {
	okBefore := testutil.ToFloat64(statusPollsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(statusPollsTotal.WithLabelValues("error"))

	RecordPoll(nil)
	RecordPoll(errors.New("boom"))
	RecordPoll(nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(statusPollsTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(statusPollsTotal.WithLabelValues("error")))
}

func TestRecordPeerEvent_SetsGauge(t *testing.T) {
	RecordPeerEvent("connection", 3)
	assert.Equal(t, float64(3), testutil.ToFloat64(peerConnections))

	RecordPeerEvent("drop", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(peerConnections))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	RecordFrame("downloading")
	SetActiveSessions(1)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dat_frames_rendered_total")
	assert.Contains(t, w.Body.String(), "dat_active_sessions 1")
}
