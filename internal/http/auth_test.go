package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milkpoint/internal/repos"
)

func TestLogin_SuccessReturnsSessionAndAudits(t *testing.T) {
	ta := newTestApp(t)

	var (
		resp *http.Response
		body map[string]any
	)
	logs := captureLogs(t, func() {
		resp, body = ta.do(t, "POST", "/login", "", map[string]string{"email": "Admin@MilkPoint.com", "password": repos.DemoPassword})
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["session"])
	user, _ := body["user"].(map[string]any)
	assert.Equal(t, "u-admin", user["id"])
	assert.NotContains(t, user, "password_hash")

	var sid string
	for _, ck := range resp.Cookies() {
		if ck.Name == "sid" {
			sid = ck.Value
			assert.True(t, ck.HttpOnly)
		}
	}
	assert.Equal(t, body["session"], sid)

	e, ok := findLog(logs, "auth.login.success")
	require.True(t, ok)
	assert.Equal(t, "audit", e.Kind)
	assert.Equal(t, "u-admin", e.UserID)
	assert.NotEmpty(t, e.ReqID)
}

func TestLogin_BadPasswordIsUnauthorizedAndLogged(t *testing.T) {
	ta := newTestApp(t)

	var (
		resp *http.Response
		body map[string]any
	)
	logs := captureLogs(t, func() {
		resp, body = ta.do(t, "POST", "/login", "", map[string]string{"email": adminEmail, "password": "nope"})
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthenticated", body["error"])
	assert.Nil(t, body["session"])

	e, ok := findLog(logs, "auth.login.fail")
	require.True(t, ok)
	assert.Equal(t, "security", e.Kind)
	assert.Equal(t, "warn", e.Level)
}

func TestLogin_MalformedEmailIsRejected(t *testing.T) {
	ta := newTestApp(t)
	resp, _ := ta.do(t, "POST", "/login", "", map[string]string{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_RequiresSession(t *testing.T) {
	ta := newTestApp(t)

	resp, body := ta.do(t, "GET", "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthenticated", body["error"])

	resp, _ = ta.do(t, "GET", "/api/v1/orders", "made-up-session", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_InvalidatesSession(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, adminEmail)

	resp, _ := ta.do(t, "GET", "/api/v1/orders", sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ta.do(t, "POST", "/logout", sid, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ta.do(t, "GET", "/api/v1/orders", sid, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ta := newTestApp(t)
	resp, body := ta.do(t, "GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
}

func TestLogin_IgnoresPresentedSessionID(t *testing.T) {
	ta := newTestApp(t)
	planted := "planted-session-id"

	for _, viaCookie := range []bool{false, true} {
		req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"email":"`+adminEmail+`","password":"`+repos.DemoPassword+`"}`))
		req.Header.Set("Content-Type", "application/json")
		if viaCookie {
			req.AddCookie(&http.Cookie{Name: "sid", Value: planted})
		} else {
			req.Header.Set("Authorization", "Bearer "+planted)
		}
		resp, err := ta.app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEqual(t, planted, body["session"])
		for _, ck := range resp.Cookies() {
			if ck.Name == "sid" {
				assert.Equal(t, body["session"], ck.Value)
			}
		}
	}

	resp, _ := ta.do(t, "PATCH", "/api/v1/users/u-john/role", planted, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	u, _ := ta.st.User("u-john")
	assert.Equal(t, "user", string(u.Role))
}

func TestLogin_RetiresPreviousSession(t *testing.T) {
	ta := newTestApp(t)
	first := ta.login(t, modEmail)

	resp, body := ta.do(t, "POST", "/login", first, map[string]string{"email": adminEmail, "password": repos.DemoPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second, _ := body["session"].(string)
	require.NotEqual(t, first, second)

	resp, _ = ta.do(t, "GET", "/api/v1/orders", first, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = ta.do(t, "GET", "/api/v1/orders", second, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
