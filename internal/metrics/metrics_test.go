package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/voicebuddy-actions/internal/actions"
)

func TestObserveInvocation(t *testing.T) {
	m := New()

	m.ObserveInvocation(actions.Invocation{Action: "speech_speed", State: actions.StateCompleted, Duration: 200 * time.Millisecond})
	m.ObserveInvocation(actions.Invocation{Action: "speech_speed", State: actions.StateCompleted, Duration: 100 * time.Millisecond})
	m.ObserveInvocation(actions.Invocation{Action: "speech_lang", State: actions.StateRejected})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.invocations.WithLabelValues("speech_speed", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("speech_lang", "rejected")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestObserveInvocation_UnknownActions(t *testing.T) {
	m := New()

	for i := 0; i < 50; i++ {
		m.ObserveInvocation(actions.Invocation{
			Action:  fmt.Sprintf("made_up_%d", i),
			Unknown: true,
			State:   actions.StateRejected,
		})
	}

	assert.Equal(t, 1, testutil.CollectAndCount(m.invocations))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.invocations.WithLabelValues(UnknownAction, "rejected")))
}

func TestSessionGauge(t *testing.T) {
	m := New()
	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()
	m.SchemaDerived()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.derivations))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveInvocation(actions.Invocation{Action: "end_call", State: actions.StateCompleted})
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	expected := `
# HELP voicebuddy_action_invocations_total Total number of action invocations by outcome
# TYPE voicebuddy_action_invocations_total counter
voicebuddy_action_invocations_total{action="end_call",state="completed"} 1
`
	assert.NoError(t, testutil.ScrapeAndCompare(srv.URL+"/metrics", strings.NewReader(expected), "voicebuddy_action_invocations_total"))
}
