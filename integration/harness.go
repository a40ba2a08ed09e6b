package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/banditrecycle/server/api/rest"
	"github.com/banditrecycle/server/audit"
	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/config"
	mw "github.com/banditrecycle/server/middleware"
	"github.com/banditrecycle/server/scheduler"
	"github.com/banditrecycle/server/store"
	"github.com/banditrecycle/server/testutil"
	"github.com/banditrecycle/server/tracker/batch"
	"github.com/banditrecycle/server/tracker/setup"
	"github.com/banditrecycle/server/tracker/stats"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const AdminKey = "integration-admin-key"

// TestServer wraps a real HTTP server with every subsystem wired together.
type TestServer struct {
	DB     *gorm.DB
	Cache  cache.Cache
	PubSub cache.PubSub
	Query  *cache.QueryCache
	Store  *store.Store
	Sched  *scheduler.Scheduler
	Audit  *audit.Service
	Server *httptest.Server
	URL    string // http://127.0.0.1:<port>
	Sec    config.SecurityConfig
}

// NewTestServer creates a fully wired server for integration testing.
// It mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupSeededDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	qc := cache.NewQueryCache(c, pubsub, time.Minute, logger)

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
		AllowedOrigins: []string{}, // allow all origins
	}

	// ---- Services ----
	st := store.New(db, qc, store.Options{WeeklyWindow: store.DefaultWeeklyWindow}, logger)
	auditSvc := audit.New(db, logger)
	sched := scheduler.New(logger)

	ctx, cancel := context.WithCancel(context.Background())
	r := rest.NewRouter(ctx, rest.Deps{
		DB:     db,
		Cache:  c,
		PubSub: pubsub,
		Store:  st,
		Setup:  setup.NewService(st, c, config.DefaultRequiredItems, time.Hour, logger),
		Batch:  batch.NewService(st, c, time.Hour, logger),
		Stats:  stats.NewService(st, logger),
		Audit:  auditSvc,
		Sched:  sched,
		Server: config.ServerConfig{AdminKey: AdminKey},
		Sec:    sec,
		Logger: logger,
	})

	server := httptest.NewServer(mw.CORS(sec.AllowedOrigins)(r))
	ts := &TestServer{
		DB:     db,
		Cache:  c,
		PubSub: pubsub,
		Query:  qc,
		Store:  st,
		Sched:  sched,
		Audit:  auditSvc,
		Server: server,
		URL:    server.URL,
		Sec:    sec,
	}
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return ts
}

// Close shuts down the test server and background workers. Safe to call twice.
func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.Sched.Stop()
	ts.Audit.Stop(context.Background())
}

// --- HTTP helpers ---

// Do sends a request with an optional JSON body, Bearer token and extra
// header pairs.
func (ts *TestServer) Do(t *testing.T, method, path string, body interface{}, token string, headers ...string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, bodyReader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// PostJSON sends a POST request with JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.Do(t, http.MethodPost, path, body, token)
}

// PutJSON sends a PUT request with JSON body and optional Bearer token.
func (ts *TestServer) PutJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.Do(t, http.MethodPut, path, body, token)
}

// Get sends a GET request with optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	return ts.Do(t, http.MethodGet, path, nil, token)
}

// ReadJSON decodes and closes the response body.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// Expect asserts the status code and decodes the body into a map.
func Expect(t *testing.T, resp *http.Response, status int) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	ReadJSON(t, resp, &out)
	require.Equal(t, status, resp.StatusCode, "body: %v", out)
	return out
}

// --- Flow helpers ---

// Login logs in (auto-registers on first call) and returns the token and user id.
func (ts *TestServer) Login(t *testing.T, username, password string) (token, userID string) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	result := Expect(t, resp, http.StatusOK)
	return result["token"].(string), result["user_id"].(string)
}

// CompleteSetup walks the wizard with the given location, stream mode and
// one rule for every required item.
func (ts *TestServer) CompleteSetup(t *testing.T, token, location, mode string, rule string) {
	t.Helper()
	Expect(t, ts.PutJSON(t, "/api/setup/location", map[string]string{"location": location}, token), http.StatusOK)
	Expect(t, ts.PostJSON(t, "/api/setup/next", nil, token), http.StatusOK)
	Expect(t, ts.PutJSON(t, "/api/setup/stream_mode", map[string]string{"stream_mode": mode}, token), http.StatusOK)
	Expect(t, ts.PostJSON(t, "/api/setup/next", nil, token), http.StatusOK)
	for _, item := range config.DefaultRequiredItems {
		Expect(t, ts.PutJSON(t, "/api/setup/rules/"+item, map[string]string{"rule": rule}, token), http.StatusOK)
	}
	Expect(t, ts.PostJSON(t, "/api/setup/next", nil, token), http.StatusOK)
}

// LogItems adds each item id once to the batch and submits it.
func (ts *TestServer) LogItems(t *testing.T, token string, items ...string) map[string]interface{} {
	t.Helper()
	for _, item := range items {
		Expect(t, ts.PostJSON(t, "/api/log/batch/items", map[string]interface{}{
			"item_type_id": item,
			"confirmed":    true,
		}, token), http.StatusOK)
	}
	return Expect(t, ts.PostJSON(t, "/api/log/batch/submit", nil, token), http.StatusCreated)
}

var testCounter uint64

// UniqueID returns a short unique string suitable for usernames.
func UniqueID(prefix string) string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%100000, n)
}
