package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nagwatch/internal/config"
	"nagwatch/internal/database"
	"nagwatch/internal/nagios"
)

const statusText = `info {
    created=123456789
    version=9.99
}
programstatus {
    nagios_pid=99999
}
hoststatus {
    host_name=web01
    notifications_enabled=1
    active_checks_enabled=1
    passive_checks_enabled=1
    obsess=1
    event_handler_enabled=1
    flap_detection_enabled=1
}
hoststatus {
    host_name=db01
    current_state=1
    notifications_enabled=1
    active_checks_enabled=1
    passive_checks_enabled=1
    obsess=1
    event_handler_enabled=1
    flap_detection_enabled=1
}
servicestatus {
    host_name=web01
    service_description=PING
    check_command=hoge
    notifications_enabled=1
    active_checks_enabled=1
    passive_checks_enabled=1
    obsess=1
    event_handler_enabled=1
    flap_detection_enabled=1
}
contactstatus {
    contact_name=nagiosadmin
}
`

type testEnv struct {
	server     *Server
	statusPath string
	cmdPath    string
	store      *database.BoltStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	env := &testEnv{
		statusPath: filepath.Join(dir, "status.dat"),
		cmdPath:    filepath.Join(dir, "nagios.cmd"),
	}
	require.NoError(t, os.WriteFile(env.statusPath, []byte(statusText), 0o644))
	require.NoError(t, os.WriteFile(env.cmdPath, nil, 0o644))

	store, err := database.NewBoltStore(filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	env.store = store

	cfg := &config.Config{}
	cfg.Logging.Level = "debug"
	cfg.Database.HistoryRetention = time.Hour
	cfg.Prometheus.Enabled = true
	cfg.Prometheus.MetricsPath = "/metrics"

	client := nagios.New(nagios.FileSource(env.statusPath), nagios.FileSink(env.cmdPath), time.Minute)
	env.server = NewServer(cfg, client, store, nil)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)

	var out map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestInfoAndProgram(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "9.99", body["data"].(map[string]interface{})["version"])

	w, body = env.do(t, http.MethodGet, "/api/program", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "99999", body["data"].(map[string]interface{})["nagios_pid"])
}

func TestHosts(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/hosts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, body["count"])
	hosts := body["data"].([]interface{})
	assert.Equal(t, "db01", hosts[0].(map[string]interface{})["host_name"])

	w, body = env.do(t, http.MethodGet, "/api/hosts?match=^web", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["count"])

	w, _ = env.do(t, http.MethodGet, "/api/hosts?match=(", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/hosts/web01", "")
	require.Equal(t, http.StatusOK, w.Code)
	host := body["data"].(map[string]interface{})
	assert.Equal(t, "web01", host["host_name"])
	assert.Equal(t, true, host["obsess"])
	assert.Len(t, host["services"], 1)

	w, _ = env.do(t, http.MethodGet, "/api/hosts/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/hosts/web01/services", "")
	require.Equal(t, http.StatusOK, w.Code)
	svcs := body["data"].([]interface{})
	require.Len(t, svcs, 1)
	assert.Equal(t, "PING", svcs[0].(map[string]interface{})["service_description"])

	w, body = env.do(t, http.MethodGet, "/api/hosts/db01/services", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, body["count"])

	w, body = env.do(t, http.MethodGet, "/api/contacts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["count"])
}

func TestBrokenStatusFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.statusPath, []byte("piyo {\n}\n"), 0o644))

	w, body := env.do(t, http.MethodGet, "/api/hosts", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, body["error"], "piyo {")

	w, body = env.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestSubmitCommands(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/hosts/web01", "")
	require.Equal(t, http.StatusOK, w.Code)

	w, body := env.do(t, http.MethodPost, "/api/commands", `{"commands":[
		{"name":"DISABLE_HOST_CHECK","params":["web01"]},
		{"name":"enable_svc_notifications","params":["web01","PING"]}
	]}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, 2.0, body["count"])

	data, err := os.ReadFile(env.cmdPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^\[\d+\] DISABLE_HOST_CHECK;web01$`, lines[0])
	assert.Regexp(t, `^\[\d+\] ENABLE_SVC_NOTIFICATIONS;web01;PING$`, lines[1])

	w, body = env.do(t, http.MethodGet, "/api/commands/history?host=web01", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, body["count"])
	first := body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, true, first["written"])

	journaled := []string{}
	for _, rec := range body["data"].([]interface{}) {
		journaled = append(journaled, rec.(map[string]interface{})["line"].(string))
	}
	assert.ElementsMatch(t, []string{lines[0] + "\n", lines[1] + "\n"}, journaled,
		"the journal holds the exact lines the daemon received")

	w, body = env.do(t, http.MethodGet, "/api/commands/"+first["id"].(string), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first["name"], body["data"].(map[string]interface{})["name"])

	w, _ = env.do(t, http.MethodGet, "/api/commands/unknown-id", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitCommandsRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"unknown command", `{"commands":[{"name":"SHUTDOWN_PROGRAM"}]}`},
		{"wrong arity", `{"commands":[{"name":"ENABLE_SVC_CHECK","params":["web01"]}]}`},
		{"empty batch", `{"commands":[]}`},
		{"line break in parameter", `{"commands":[{"name":"ENABLE_HOST_CHECK","params":["web01\n[0] SHUTDOWN_PROGRAM"]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := env.do(t, http.MethodPost, "/api/commands", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	data, err := os.ReadFile(env.cmdPath)
	require.NoError(t, err)
	assert.Empty(t, data, "nothing reaches the command file when validation fails")
}

func TestSubmitCommandsMissingCommandFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.Remove(env.cmdPath))

	w, body := env.do(t, http.MethodPost, "/api/commands", `{"commands":[{"name":"ENABLE_HOST_CHECK","params":["web01"]}]}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, body["error"], "open command file")

	_, err := os.Stat(env.cmdPath)
	assert.True(t, os.IsNotExist(err))

	w, body = env.do(t, http.MethodGet, "/api/commands/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	rec := body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, false, rec["written"])
}

func TestPurgeHistory(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/commands", `{"commands":[{"name":"ENABLE_HOST_CHECK","params":["web01"]}]}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w, body := env.do(t, http.MethodDelete, "/api/commands/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, body["deleted"], "retention keeps recent entries")

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	w, body = env.do(t, http.MethodDelete, "/api/commands/history?before="+future, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["deleted"])

	w, _ = env.do(t, http.MethodDelete, "/api/commands/history?before=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsHealthBuildAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap := body["data"].(map[string]interface{})["snapshot"].(map[string]interface{})
	assert.Equal(t, 2.0, snap["hosts"])
	assert.Equal(t, map[string]interface{}{"up": 1.0, "down": 1.0}, snap["host_states"])

	w, body = env.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])

	w, body = env.do(t, http.MethodGet, "/api/build", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Version, body["data"].(map[string]interface{})["version"])

	w, _ = env.do(t, http.MethodPost, "/api/snapshot/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestWebSocketBroadcast(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.server.websocketClients() == 1 }, time.Second, 10*time.Millisecond)

	env.server.Broadcast("snapshot_refreshed", map[string]int{"hosts": 2})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "snapshot_refreshed", msg.Type)
	assert.Equal(t, map[string]interface{}{"hosts": 2.0}, msg.Data)
}
