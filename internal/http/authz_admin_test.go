package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milkpoint/internal/domain"
)

func TestModerator_CannotChangeRoles(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, modEmail)

	var resp *http.Response
	logs := captureLogs(t, func() {
		resp, _ = ta.do(t, "PATCH", "/api/v1/users/u-john/role", sid, map[string]string{"role": "admin"})
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	u, ok := ta.st.User("u-john")
	require.True(t, ok)
	assert.Equal(t, domain.RoleUser, u.Role)

	e, ok := findLog(logs, "admin.users.role.denied")
	require.True(t, ok)
	assert.Equal(t, "security", e.Kind)
	assert.Equal(t, "u-jane", e.UserID)
}

func TestModerator_ReadsDashboardAndUsers(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, modEmail)

	resp, body := ta.do(t, "GET", "/api/v1/dashboard", sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, body["total_products"])
	assert.EqualValues(t, 1, body["total_orders"])

	resp, body = ta.do(t, "GET", "/api/v1/users", sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users, _ := body["users"].([]any)
	assert.Len(t, users, 3)
}

func TestModerator_CannotManageCatalog(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, modEmail)

	resp, body := ta.do(t, "POST", "/api/v1/products/prd-cow-milk/stock", sid, map[string]int{"delta": 10})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["error"])

	resp, _ = ta.do(t, "DELETE", "/api/v1/products/prd-curd", sid, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	p, ok := ta.st.Product("prd-cow-milk")
	require.True(t, ok)
	assert.Equal(t, 118, p.StockQuantity)
}

func TestUserRole_IsDeniedEverywhere(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, userEmail)

	for _, path := range []string{"/api/v1/products", "/api/v1/orders", "/api/v1/users", "/api/v1/dashboard"} {
		resp, _ := ta.do(t, "GET", path, sid, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}
}

func TestAdmin_ChangesRole(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, adminEmail)

	resp, body := ta.do(t, "PATCH", "/api/v1/users/u-john/role", sid, map[string]string{"role": "moderator"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "moderator", body["role"])

	u, _ := ta.st.User("u-john")
	assert.Equal(t, domain.RoleModerator, u.Role)

	resp, body = ta.do(t, "PATCH", "/api/v1/users/u-admin/role", sid, map[string]string{"role": "user"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, body)

	resp, _ = ta.do(t, "PATCH", "/api/v1/users/u-john/role", sid, map[string]string{"role": "root"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
