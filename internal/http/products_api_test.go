package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducts_CreateUpdateDelete(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, adminEmail)

	resp, body := ta.do(t, "POST", "/api/v1/products", sid, map[string]any{
		"name":           "Malai Paneer",
		"description":    "Soft paneer",
		"price":          "320.50",
		"category":       "Paneer",
		"unit":           "kg",
		"stock_quantity": 12,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "320.5", body["price"])
	assert.Equal(t, true, body["is_active"])

	resp, body = ta.do(t, "PUT", "/api/v1/products/"+id, sid, map[string]any{
		"name":           "Malai Paneer",
		"price":          "300",
		"category":       "Paneer",
		"unit":           "kg",
		"stock_quantity": 12,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "300", body["price"])

	resp, _ = ta.do(t, "DELETE", "/api/v1/products/"+id, sid, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok := ta.st.Product(id)
	assert.False(t, ok)

	resp, _ = ta.do(t, "GET", "/api/v1/products/"+id, sid, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProducts_CreateRejectsBadInput(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, adminEmail)

	cases := map[string]map[string]any{
		"negative price": {"name": "X", "price": "-1", "category": "Milk", "unit": "l"},
		"bad category":   {"name": "X", "price": "1", "category": "Cheese", "unit": "l"},
		"missing name":   {"price": "1", "category": "Milk", "unit": "l"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			resp, body := ta.do(t, "POST", "/api/v1/products", sid, in)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		})
	}
	assert.Len(t, ta.st.Products(), 4)
}

func TestProducts_StaleStockEditIsConflict(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, adminEmail)

	// edit form loaded before the demo order reserved 2 of 120
	resp, body := ta.do(t, "PUT", "/api/v1/products/prd-cow-milk", sid, map[string]any{
		"name": "Fresh Cow Milk", "price": "62", "category": "Milk", "unit": "litre", "stock_quantity": 120,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", body["error"])

	resp, body = ta.do(t, "PUT", "/api/v1/products/prd-cow-milk", sid, map[string]any{
		"name": "Fresh Cow Milk", "price": "62", "category": "Milk", "unit": "litre",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 118, body["stock_quantity"])

	resp, _ = ta.do(t, "POST", "/api/v1/orders/ord-demo-1/cancel", sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cow, _ := ta.st.Product("prd-cow-milk")
	assert.Equal(t, 120, cow.StockQuantity)
}

func TestProducts_DeleteReferencedIsConflict(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, adminEmail)

	resp, body := ta.do(t, "DELETE", "/api/v1/products/prd-a2-ghee", sid, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", body["error"])
	_, ok := ta.st.Product("prd-a2-ghee")
	assert.True(t, ok)
}

func TestProducts_ListFilters(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, modEmail)

	resp, body := ta.do(t, "GET", "/api/v1/products?category=Milk", sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ps, _ := body["products"].([]any)
	assert.Len(t, ps, 2)

	resp, body = ta.do(t, "GET", "/api/v1/products?active=false", sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ps, _ = body["products"].([]any)
	assert.Len(t, ps, 1)

	resp, _ = ta.do(t, "GET", "/api/v1/products?active=maybe", sid, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProducts_ActivateDeactivate(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, adminEmail)

	resp, body := ta.do(t, "POST", "/api/v1/products/prd-curd/activate", sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_active"])

	resp, body = ta.do(t, "POST", "/api/v1/products/prd-cow-milk/deactivate", sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["is_active"])

	resp, _ = ta.do(t, "POST", "/api/v1/orders", sid, orderBody(line("prd-cow-milk", 1)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInventory_AdjustAndAvailability(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.login(t, adminEmail)

	resp, body := ta.do(t, "POST", "/api/v1/products/prd-a2-ghee/stock", sid, map[string]int{"delta": 6})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 30, body["stock_quantity"])

	resp, body = ta.do(t, "POST", "/api/v1/products/prd-a2-ghee/stock", sid, map[string]int{"delta": -31})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_argument", body["error"])

	ghee, _ := ta.st.Product("prd-a2-ghee")
	assert.Equal(t, 30, ghee.StockQuantity)

	resp, body = ta.do(t, "GET", "/api/v1/products/prd-a2-ghee/availability", sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "IN_STOCK", body["status"])
	assert.EqualValues(t, 30, body["qty"])

	resp, _ = ta.do(t, "GET", "/api/v1/products/prd-missing/availability", sid, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
