package metric

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.NotNil(t, r.registry)
	assert.NotNil(t, r.SessionTransitions)
	assert.NotNil(t, r.StaleResults)
	assert.NotNil(t, r.IdentityRequests)
	assert.NotNil(t, r.IdentityRequestDuration)
}

func TestGlobal(t *testing.T) {
	assert.Same(t, Global(), Global())
}

func TestRegistry_SessionMetrics(t *testing.T) {
	r := NewRegistry()

	r.ObserveTransition("uninitialized", "loading")
	r.ObserveTransition("loading", "authenticated")
	r.ObserveTransition("loading", "authenticated")
	r.ObserveStaleResult("sign_in")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.SessionTransitions.WithLabelValues("loading", "authenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SessionTransitions.WithLabelValues("uninitialized", "loading")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.StaleResults.WithLabelValues("sign_in")))
}

func TestRegistry_RequestMetrics(t *testing.T) {
	r := NewRegistry()

	r.ObserveRequest("login", OutcomeOK, 20*time.Millisecond)
	r.ObserveRequest("login", OutcomeRejected, 5*time.Millisecond)
	r.ObserveRequest("me", OutcomeTransport, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.IdentityRequests.WithLabelValues("login", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.IdentityRequests.WithLabelValues("login", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.IdentityRequests.WithLabelValues("me", OutcomeTransport)))
	assert.Equal(t, 2, testutil.CollectAndCount(r.IdentityRequestDuration))
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	r.ObserveTransition("a", "b")
	r.ObserveStaleResult("op")
	r.ObserveRequest("op", OutcomeOK, time.Millisecond)
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
	assert.NoError(t, r.Register(nil))
}

func TestRegistry_WriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.ObserveTransition("anonymous", "loading")

	path := filepath.Join(t.TempDir(), "emplo.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `emplo_session_transitions_total{from="anonymous",to="loading"} 1`)
}

func TestRegistry_WriteTextfileEmptyPath(t *testing.T) {
	assert.NoError(t, NewRegistry().WriteTextfile(""))
}

type fixedPhase string

func (f fixedPhase) CurrentPhase() string { return string(f) }
func (fixedPhase) Phases() []string {
	return []string{"uninitialized", "loading", "authenticated", "anonymous", "error"}
}

func TestCollector(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewCollector(fixedPhase("authenticated"))))

	expected := `
# HELP emplo_session_phase Current session phase.
# TYPE emplo_session_phase gauge
emplo_session_phase{phase="anonymous"} 0
emplo_session_phase{phase="authenticated"} 1
emplo_session_phase{phase="error"} 0
emplo_session_phase{phase="loading"} 0
emplo_session_phase{phase="uninitialized"} 0
`
	require.NoError(t, testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected), "emplo_session_phase"))
}
