package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageflow/internal/analytics"
	"pageflow/internal/events"
	handlers "pageflow/internal/http"
	"pageflow/internal/pkg/user_agent"
)

// fakeServer records the requests it receives and answers with canned payloads.
type fakeServer struct {
	mu       sync.Mutex
	requests []*http.Request
	*httptest.Server
}

func (f *fakeServer) last() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{}
	at := time.Date(2024, 7, 15, 14, 29, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("range") == "fortnight" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid range: fortnight"})
			return
		}
		writeJSON(w, http.StatusOK, analytics.Stats{
			Range:       analytics.RangeInfo{Label: r.URL.Query().Get("range"), From: at.Truncate(24 * time.Hour), To: at},
			PV:          42,
			UV:          7,
			TopPages:    []analytics.PageCount{{URL: "/pricing", Count: 12}},
			Channels:    map[string]int64{"direct": 5, "search": 2},
			TrendBucket: "hour",
		})
	})
	mux.HandleFunc("/api/flow", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, analytics.FlowGraph{
			Nodes:    []analytics.FlowNode{{Name: "Direct Entry"}, {Name: "L1: /home"}},
			Links:    []analytics.FlowLink{{Source: "Direct Entry", Target: "L1: /home", Value: 3}},
			MaxLayer: 5,
			Sessions: 3,
		})
	})
	mux.HandleFunc("/api/visitors", func(w http.ResponseWriter, r *http.Request) {
		addr := "203.0.113.9"
		uid := "v-1"
		page := "/docs"
		writeJSON(w, http.StatusOK, analytics.VisitorList{
			Visitors: []analytics.VisitorEntry{{
				Event:  events.Event{ID: 1, Timestamp: at, VisitorID: &uid, URL: &page, ClientAddress: &addr},
				Device: user_agent.Classification{Type: "Mobile", Browser: "Safari", OS: "iOS"},
			}},
			Addresses: []string{addr},
			Limit:     50,
		})
	})
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Query().Get("confirm") != events.DefaultPurgeToken {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "deleted": 9})
	})
	mux.HandleFunc("/_health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, handlers.HealthStatus{Status: "ok", Timestamp: at, DBStatus: "ok", Events: 11})
	})

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Clone(r.Context()))
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// testEnv captures stdout and feeds stdin.
func testEnv(stdin string, tty bool) (*env, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &env{
		stdout:     out,
		stdin:      strings.NewReader(stdin),
		isTerminal: func() bool { return tty },
	}, out
}

func run(t *testing.T, srv *fakeServer, e *env, args ...string) error {
	t.Helper()
	return runWithEnv(e, append([]string{"--server", srv.URL}, args...))
}

func TestSubcommandsRegistered(t *testing.T) {
	e, _ := testEnv("", false)
	parser, globals, cmds := buildParser(e)

	for _, name := range []string{"stats", "flow", "visitors", "purge", "status"} {
		assert.NotNil(t, parser.Find(name), "missing subcommand %s", name)
	}
	assert.Equal(t, "http://localhost:5055", globals.Server)
	assert.Same(t, globals, cmds.Stats.globals)
}

func TestStatsCommand(t *testing.T) {
	srv := newFakeServer(t)

	t.Run("renders a table", func(t *testing.T) {
		e, out := testEnv("", false)
		require.NoError(t, run(t, srv, e, "stats", "--range", "week"))

		assert.Equal(t, "week", srv.last().URL.Query().Get("range"))
		text := out.String()
		assert.Contains(t, text, "Page views")
		assert.Contains(t, text, "42")
		assert.Contains(t, text, "/pricing")
		assert.Contains(t, text, "direct")
	})

	t.Run("forwards custom bounds", func(t *testing.T) {
		e, _ := testEnv("", false)
		require.NoError(t, run(t, srv, e, "stats", "--range", "custom", "--start", "2024-07-01", "--end", "2024-07-12"))

		q := srv.last().URL.Query()
		assert.Equal(t, url.Values{"range": {"custom"}, "start": {"2024-07-01"}, "end": {"2024-07-12"}}, q)
	})

	t.Run("prints raw json", func(t *testing.T) {
		e, out := testEnv("", false)
		require.NoError(t, run(t, srv, e, "--json", "stats"))

		var stats analytics.Stats
		require.NoError(t, json.Unmarshal(out.Bytes(), &stats))
		assert.Equal(t, 7, stats.UV)
	})

	t.Run("rejects unknown range before calling the server", func(t *testing.T) {
		e, _ := testEnv("", false)
		before := srv.last()
		assert.Error(t, run(t, srv, e, "stats", "--range", "fortnight"))
		assert.Same(t, before, srv.last())
	})
}

func TestFlowCommand(t *testing.T) {
	srv := newFakeServer(t)

	e, out := testEnv("", false)
	require.NoError(t, run(t, srv, e, "flow", "--depth", "3"))

	assert.Equal(t, "3", srv.last().URL.Query().Get("maxLayer"))
	assert.Contains(t, out.String(), "3 sessions")
	assert.Contains(t, out.String(), "L1: /home")

	e, _ = testEnv("", false)
	require.NoError(t, run(t, srv, e, "flow"))
	assert.Empty(t, srv.last().URL.RawQuery)
}

func TestVisitorsCommand(t *testing.T) {
	srv := newFakeServer(t)

	e, out := testEnv("", false)
	require.NoError(t, run(t, srv, e, "visitors", "-n", "10"))

	assert.Equal(t, "10", srv.last().URL.Query().Get("limit"))
	text := out.String()
	assert.Contains(t, text, "/docs")
	assert.Contains(t, text, "Safari")
	assert.Contains(t, text, "1 distinct addresses")
}

func TestStatusCommand(t *testing.T) {
	srv := newFakeServer(t)

	e, out := testEnv("", false)
	require.NoError(t, run(t, srv, e, "status"))
	assert.Contains(t, out.String(), "Events in memory")
	assert.Contains(t, out.String(), "11")

	e, _ = testEnv("", false)
	err := runWithEnv(e, []string{"--server", "http://127.0.0.1:1", "--timeout", "1s", "status"})
	assert.ErrorContains(t, err, "unreachable")
}

func TestPurgeCommand(t *testing.T) {
	srv := newFakeServer(t)
	t.Setenv("PAGEFLOW_PURGE_TOKEN", "")
	token := events.DefaultPurgeToken

	t.Run("force skips the prompt", func(t *testing.T) {
		e, out := testEnv("", false)
		require.NoError(t, run(t, srv, e, "purge", "--force", "--token", token))

		assert.Equal(t, http.MethodDelete, srv.last().Method)
		assert.Equal(t, token, srv.last().URL.Query().Get("confirm"))
		assert.Contains(t, out.String(), "Purged 9 events")
	})

	t.Run("token is required", func(t *testing.T) {
		before := srv.last()
		for _, args := range [][]string{{"purge", "--force"}, {"purge"}} {
			e, out := testEnv("PURGE\n", true)
			assert.ErrorContains(t, run(t, srv, e, args...), "--token")
			assert.NotContains(t, out.String(), "Type")
		}
		assert.Same(t, before, srv.last())
	})

	t.Run("token from the environment", func(t *testing.T) {
		t.Setenv("PAGEFLOW_PURGE_TOKEN", token)
		e, _ := testEnv("", false)
		require.NoError(t, run(t, srv, e, "purge", "--force"))
		assert.Equal(t, token, srv.last().URL.Query().Get("confirm"))
	})

	t.Run("refuses without a terminal", func(t *testing.T) {
		e, _ := testEnv("PURGE\n", false)
		before := srv.last()
		assert.ErrorContains(t, run(t, srv, e, "purge", "--token", token), "--force")
		assert.Same(t, before, srv.last())
	})

	t.Run("confirmed at the prompt", func(t *testing.T) {
		e, out := testEnv("PURGE\n", true)
		require.NoError(t, run(t, srv, e, "purge", "--token", token))
		assert.Contains(t, out.String(), `Type "PURGE" to confirm`)
		assert.Contains(t, out.String(), "Purged 9 events")
	})

	t.Run("aborted at the prompt", func(t *testing.T) {
		e, _ := testEnv("nope\n", true)
		before := srv.last()
		assert.ErrorContains(t, run(t, srv, e, "purge", "--token", token), "did not match")
		assert.Same(t, before, srv.last())
	})

	t.Run("server rejects the token", func(t *testing.T) {
		e, _ := testEnv("", false)
		err := run(t, srv, e, "purge", "--force", "--token", "wrong")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, "bad token", apiErr.Message)
	})
}
