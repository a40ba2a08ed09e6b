package rest_test

import (
	"net/http"
	"testing"

	"github.com/banditrecycle/server/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_RequiresAuth(t *testing.T) {
	a := newTestAPI(t)
	w := do(a.r, http.MethodGet, "/api/setup", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetup_GuardsAndCompletion(t *testing.T) {
	a := newTestAPI(t)
	auth, uid := a.session(t, "hank")

	w := do(a.r, http.MethodGet, "/api/setup", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["resumed"])
	s := body["setup"].(map[string]interface{})
	assert.Equal(t, "location", s["step"])

	w = do(a.r, http.MethodGet, "/api/setup", nil, auth...)
	assert.Equal(t, true, decode(t, w)["resumed"])

	// Whitespace-only location is rejected.
	do(a.r, http.MethodPut, "/api/setup/location", map[string]string{"location": "   "}, auth...)
	w = postJSON(a.r, "/api/setup/next", nil, auth...)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "location", decode(t, w)["setup"].(map[string]interface{})["step"])

	do(a.r, http.MethodPut, "/api/setup/location", map[string]string{"location": "  Austin, TX "}, auth...)
	w = postJSON(a.r, "/api/setup/next", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(a.r, "/api/setup/back", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "location", decode(t, w)["setup"].(map[string]interface{})["step"])
	w = postJSON(a.r, "/api/setup/back", nil, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	postJSON(a.r, "/api/setup/next", nil, auth...)

	do(a.r, http.MethodPut, "/api/setup/stream_mode", map[string]string{"stream_mode": "double"}, auth...)
	w = postJSON(a.r, "/api/setup/next", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)

	// Only two of the four required items answered.
	do(a.r, http.MethodPut, "/api/setup/rules/plastic_bottle", map[string]string{"rule": "accepted"}, auth...)
	do(a.r, http.MethodPut, "/api/setup/rules/paper", map[string]string{"rule": "not_sure"}, auth...)
	w = postJSON(a.r, "/api/setup/next", nil, auth...)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []interface{}{"aluminum_can", "cardboard"}, decode(t, w)["missing"])

	do(a.r, http.MethodPut, "/api/setup/rules/aluminum_can", map[string]string{"rule": "accepted"}, auth...)
	do(a.r, http.MethodPut, "/api/setup/rules/cardboard", map[string]string{"rule": "not_accepted"}, auth...)
	w = postJSON(a.r, "/api/setup/next", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "done", decode(t, w)["setup"].(map[string]interface{})["step"])

	// Re-entering starts over with the stored answers pre-filled.
	w = do(a.r, http.MethodGet, "/api/setup", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["resumed"])
	s = body["setup"].(map[string]interface{})
	assert.Equal(t, "location", s["step"])
	assert.Equal(t, "Austin, TX", s["location"])

	var prof model.Profile
	require.NoError(t, a.db.First(&prof, "user_id = ?", uid).Error)
	assert.True(t, prof.LocalSetupCompleted)
	assert.Equal(t, "Austin, TX", prof.LocationLabel)
	assert.Equal(t, model.StreamDouble, prof.StreamMode)

	var rules []model.UserItemRule
	require.NoError(t, a.db.Where("user_id = ?", uid).Find(&rules).Error)
	assert.Len(t, rules, 4)
}

func TestSetup_UnknownItemAndBadRule(t *testing.T) {
	a := newTestAPI(t)
	auth, _ := a.session(t, "ivy")

	w := do(a.r, http.MethodPut, "/api/setup/rules/unobtainium", map[string]string{"rule": "accepted"}, auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(a.r, http.MethodPut, "/api/setup/rules/paper", map[string]string{"rule": "maybe"}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetup_Discard(t *testing.T) {
	a := newTestAPI(t)
	auth, _ := a.session(t, "jack")

	do(a.r, http.MethodPut, "/api/setup/location", map[string]string{"location": "Draft City"}, auth...)
	w := do(a.r, http.MethodDelete, "/api/setup", nil, auth...)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(a.r, http.MethodGet, "/api/setup", nil, auth...)
	s := decode(t, w)["setup"].(map[string]interface{})
	assert.Equal(t, "", s["location"])
}
