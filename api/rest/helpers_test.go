package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/banditrecycle/server/api/rest"
	"github.com/banditrecycle/server/audit"
	"github.com/banditrecycle/server/config"
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

func init() {
	gin.SetMode(gin.TestMode)
}

const testAdminKey = "admin-secret"

type testAPI struct {
	r     *gin.Engine
	db    *gorm.DB
	store *store.Store
	audit *audit.Service
	sched *scheduler.Scheduler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testutil.SetupSeededDB(t)
	qc, c := testutil.SetupQueryCache(t)
	_, ps := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	st := store.New(db, qc, store.Options{}, logger)
	auditSvc := audit.New(db, logger)
	sched := scheduler.New(logger)
	t.Cleanup(func() {
		sched.Stop()
		auditSvc.Stop(context.Background())
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := rest.NewRouter(ctx, rest.Deps{
		DB:     db,
		Cache:  c,
		PubSub: ps,
		Store:  st,
		Setup:  setup.NewService(st, c, config.DefaultRequiredItems, time.Hour, logger),
		Batch:  batch.NewService(st, c, time.Hour, logger),
		Stats:  stats.NewService(st, logger),
		Audit:  auditSvc,
		Sched:  sched,
		Server: config.ServerConfig{AdminKey: testAdminKey},
		Sec: config.SecurityConfig{
			JWTSecret:      "test-secret",
			JWTTTLH:        72 * time.Hour,
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
		},
		Logger: logger,
	})
	return &testAPI{r: r, db: db, store: st, audit: auditSvc, sched: sched}
}

func do(r http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r http.Handler, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	return do(r, http.MethodPost, path, body, headers...)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// session logs username in and returns the bearer header pair and user id.
func (a *testAPI) session(t *testing.T, username string) ([]string, string) {
	t.Helper()
	w := postJSON(a.r, "/api/auth/login", map[string]string{"username": username, "password": "pass1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	return []string{"Authorization", "Bearer " + resp["token"].(string)}, resp["user_id"].(string)
}

// completeSetup runs the wizard to Done for the signed-in user.
func (a *testAPI) completeSetup(t *testing.T, auth []string) {
	t.Helper()
	steps := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodPut, "/api/setup/location", map[string]string{"location": "Springfield"}},
		{http.MethodPost, "/api/setup/next", nil},
		{http.MethodPut, "/api/setup/stream_mode", map[string]string{"stream_mode": "double"}},
		{http.MethodPost, "/api/setup/next", nil},
	}
	for _, item := range config.DefaultRequiredItems {
		steps = append(steps, struct {
			method, path string
			body         interface{}
		}{http.MethodPut, "/api/setup/rules/" + item, map[string]string{"rule": "accepted"}})
	}
	steps = append(steps, struct {
		method, path string
		body         interface{}
	}{http.MethodPost, "/api/setup/next", nil})

	for _, s := range steps {
		w := do(a.r, s.method, s.path, s.body, auth...)
		require.Equal(t, http.StatusOK, w.Code, "%s %s: %s", s.method, s.path, w.Body.String())
	}
}
