package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"milkpoint/internal/config"
	"milkpoint/internal/events"
	"milkpoint/internal/http/handlers"
	applog "milkpoint/internal/log"
	"milkpoint/internal/repos"
	"milkpoint/internal/store"
)

const (
	adminEmail = "admin@milkpoint.com"
	modEmail   = "moderator@example.com"
	userEmail  = "john@example.com"
)

type testApp struct {
	app *fiber.App
	st  *store.Store
	rec *events.Recorder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := repos.NewSQLStore(db)
	_, err = s.SeedDemo(ctx)
	require.NoError(t, err)
	st, err := s.Open(ctx)
	require.NoError(t, err)

	rec := events.NewRecorder(256)
	deps := handlers.NewDeps(db, st, config.Config{}, rec)
	return &testApp{app: handlers.NewApp(deps), st: st, rec: rec}
}

// do sends a request with an optional JSON body and bearer session.
func (ta *testApp) do(t *testing.T, method, path, sid string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.Header.Set("Authorization", "Bearer "+sid)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func (ta *testApp) login(t *testing.T, email string) string {
	t.Helper()
	resp, body := ta.do(t, "POST", "/login", "", map[string]string{"email": email, "password": repos.DemoPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login %s: %v", email, body)
	sid, _ := body["session"].(string)
	require.NotEmpty(t, sid)
	return sid
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Kind   string         `json:"kind"`
	UserID string         `json:"user_id"`
	ReqID  string         `json:"req_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

// captureLogs swaps the process logger onto a buffer while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	restore := applog.Replace(applog.New(&lockedWriter{w: &buf, mu: &mu}, zapcore.DebugLevel))
	defer restore()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
