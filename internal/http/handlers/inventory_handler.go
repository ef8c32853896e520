package handlers

import (
	"github.com/gofiber/fiber/v2"

	"milkpoint/internal/authz"
	applog "milkpoint/internal/log"
	"milkpoint/internal/services"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

// GET /api/v1/products/:id/availability
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	if err := principal(c).Authorize(authz.OpProductList); err != nil {
		return writeError(c, "inventory.check", err)
	}
	avail, err := h.Inv.CheckAvailability(productID)
	if err != nil {
		return writeError(c, "inventory.check", err)
	}
	return render(c, fiber.StatusOK, avail)
}

// POST /api/v1/products/:id/stock {"delta": n}
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	productID, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Inv.Adjust(c.UserContext(), principal(c), productID, req.Delta)
	if err != nil {
		return writeError(c, "inventory.adjust", err)
	}
	applog.Audit(c, "inventory.adjust", map[string]any{"product_id": productID, "delta": req.Delta, "stock": p.StockQuantity})
	return render(c, fiber.StatusOK, p)
}
