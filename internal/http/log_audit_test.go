package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessLog_UnknownSessionIsSecurityEvent(t *testing.T) {
	ta := newTestApp(t)

	logs := captureLogs(t, func() {
		resp, _ := ta.do(t, "GET", "/api/v1/products", "forged", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
	e, ok := findLog(logs, "access.denied.session")
	require.True(t, ok)
	assert.Equal(t, "security", e.Kind)
}

func TestAuditLog_OrderAndInventoryChanges(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, adminEmail)

	logs := captureLogs(t, func() {
		resp, _ := ta.do(t, "POST", "/api/v1/products/prd-buffalo-milk/stock", sid, map[string]int{"delta": -5})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = ta.do(t, "POST", "/api/v1/orders/ord-demo-1/cancel", sid, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	adj, ok := findLog(logs, "inventory.adjust")
	require.True(t, ok)
	assert.Equal(t, "audit", adj.Kind)
	assert.Equal(t, "u-admin", adj.UserID)
	assert.EqualValues(t, 75, adj.Fields["stock"])

	cancel, ok := findLog(logs, "orders.cancel")
	require.True(t, ok)
	assert.Equal(t, "refunded", cancel.Fields["payment_status"])
}

func TestAuditLog_FailedTransitionIsWarned(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, adminEmail)

	logs := captureLogs(t, func() {
		resp, _ := ta.do(t, "PATCH", "/api/v1/orders/ord-demo-1/status", sid, map[string]string{"status": "delivered"})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})
	e, ok := findLog(logs, "orders.status.fail")
	require.True(t, ok)
	assert.Equal(t, "warn", e.Level)
	assert.NotEmpty(t, e.Err)
	_, audited := findLog(logs, "orders.status")
	assert.False(t, audited)
}
