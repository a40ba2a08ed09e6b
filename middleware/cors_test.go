package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsHandler(origins []string) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	return CORS(origins)(ok)
}

func preflight(h http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/profile", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCORS_AllowedOrigin(t *testing.T) {
	w := preflight(corsHandler([]string{"https://bandit.example"}), "https://bandit.example")
	assert.Equal(t, "https://bandit.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_OtherOriginRejected(t *testing.T) {
	w := preflight(corsHandler([]string{"https://bandit.example"}), "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_EmptyAllowsAll(t *testing.T) {
	w := preflight(corsHandler(nil), "http://localhost:5173")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
