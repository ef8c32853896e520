package handlers

import (
	"github.com/gofiber/fiber/v2"

	"milkpoint/internal/domain"
	applog "milkpoint/internal/log"
	"milkpoint/internal/services"
)

type OrderHandler struct {
	Orders *services.OrderService
}

type statusRequest struct {
	Status string `json:"status"`
}

type paymentRequest struct {
	PaymentStatus string `json:"payment_status"`
}

type itemsRequest struct {
	Items []services.ItemInput `json:"items"`
}

// GET /api/v1/orders?status=&payment_status=&limit=
func (h *OrderHandler) List(c *fiber.Ctx) error {
	var f services.OrderFilter
	if s := c.Query("status"); s != "" {
		st, err := domain.ParseOrderStatus(s)
		if err != nil {
			return badRequest(c, "status")
		}
		f.Status = st
	}
	if s := c.Query("payment_status"); s != "" {
		ps, err := domain.ParsePaymentStatus(s)
		if err != nil {
			return badRequest(c, "payment_status")
		}
		f.PaymentStatus = ps
	}
	f.Limit = c.QueryInt("limit", 0)
	if f.Limit < 0 || f.Limit > 500 {
		return badRequest(c, "limit")
	}

	orders, err := h.Orders.ListOrders(principal(c), f)
	if err != nil {
		return writeError(c, "orders.list", err)
	}
	return render(c, fiber.StatusOK, fiber.Map{"orders": orders})
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	o, err := h.Orders.GetOrder(principal(c), id)
	if err != nil {
		return writeError(c, "orders.get", err)
	}
	return render(c, fiber.StatusOK, o)
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in services.CreateOrderInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	o, err := h.Orders.CreateOrder(c.UserContext(), principal(c), in)
	if err != nil {
		return writeError(c, "orders.create", err)
	}
	applog.Audit(c, "orders.create", map[string]any{"order_id": o.ID, "total": o.TotalAmount.String(), "items": len(o.Items)})
	return render(c, fiber.StatusCreated, o)
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	o, err := h.Orders.UpdateStatus(c.UserContext(), principal(c), id, domain.OrderStatus(req.Status))
	if err != nil {
		return writeError(c, "orders.status", err)
	}
	applog.Audit(c, "orders.status", map[string]any{"order_id": id, "status": o.Status, "payment_status": o.PaymentStatus})
	return render(c, fiber.StatusOK, o)
}

func (h *OrderHandler) UpdatePayment(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	o, err := h.Orders.UpdatePaymentStatus(c.UserContext(), principal(c), id, domain.PaymentStatus(req.PaymentStatus))
	if err != nil {
		return writeError(c, "orders.payment", err)
	}
	applog.Audit(c, "orders.payment", map[string]any{"order_id": id, "payment_status": o.PaymentStatus})
	return render(c, fiber.StatusOK, o)
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	o, err := h.Orders.CancelOrder(c.UserContext(), principal(c), id)
	if err != nil {
		return writeError(c, "orders.cancel", err)
	}
	applog.Audit(c, "orders.cancel", map[string]any{"order_id": id, "payment_status": o.PaymentStatus})
	return render(c, fiber.StatusOK, o)
}

func (h *OrderHandler) UpdateItems(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	var req itemsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	o, err := h.Orders.UpdateItems(c.UserContext(), principal(c), id, req.Items)
	if err != nil {
		return writeError(c, "orders.items", err)
	}
	applog.Audit(c, "orders.items", map[string]any{"order_id": id, "total": o.TotalAmount.String()})
	return render(c, fiber.StatusOK, o)
}
