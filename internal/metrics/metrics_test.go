package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.InboundMessage("8")
	m.InboundMessage("8")
	m.TranslationFailed("y")
	m.DuplicateSuppressed()
	m.EventPublished("order_filled")
	m.SessionState("primary", 3)

	body := scrape(t, m)
	for _, line := range []string{
		`fixgw_session_inbound_messages_total{msg_type="8"} 2`,
		`fixgw_session_translation_errors_total{msg_type="y"} 1`,
		`fixgw_session_suppressed_duplicates_total 1`,
		`fixgw_gateway_events_published_total{kind="order_filled"} 1`,
		`fixgw_session_state{session="primary"} 3`,
	} {
		assert.Contains(t, body, line)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.InboundMessage("8")
		m.OutboundMessage("D")
		m.TranslationFailed("8")
		m.DuplicateSuppressed()
		m.EventPublished("x")
		m.SessionState("primary", 1)
		m.SinkFailed("kafka")
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.OutboundMessage("D")

	body := scrape(t, m)
	assert.True(t, strings.Contains(body, `fixgw_session_outbound_messages_total{msg_type="D"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
