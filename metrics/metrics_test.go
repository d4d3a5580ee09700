package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)

	m.RecordVerification("verified")
	m.RecordEvent("message")
	m.RecordEvent("message")
	m.RecordSend("sent", 0.1)
	m.RecordSend("status_error", 0.2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerificationsTotal.WithLabelValues("verified")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SendTotal.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SendTotal.WithLabelValues("status_error")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordVerification("verified")
		m.RecordEvent("message")
		m.RecordSend("sent", 0.1)
	})
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.RecordEvent("postback")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `messenger_bot_webhook_events_total{kind="postback"} 1`)
}
