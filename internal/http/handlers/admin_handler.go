package handlers

import (
	"github.com/gofiber/fiber/v2"

	"milkpoint/internal/domain"
	applog "milkpoint/internal/log"
	"milkpoint/internal/services"
)

type AdminHandler struct {
	Users     *services.UserService
	Dashboard *services.DashboardService
}

type roleRequest struct {
	Role string `json:"role"`
}

// GET /api/v1/dashboard
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Dashboard.Stats(principal(c))
	if err != nil {
		return writeError(c, "admin.dashboard", err)
	}
	return render(c, fiber.StatusOK, st)
}

// GET /api/v1/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Users.ListUsers(principal(c))
	if err != nil {
		return writeError(c, "admin.users.list", err)
	}
	return render(c, fiber.StatusOK, fiber.Map{"users": users})
}

// PATCH /api/v1/users/:id/role
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	u, err := h.Users.UpdateUserRole(c.UserContext(), principal(c), id, domain.Role(req.Role))
	if err != nil {
		return writeError(c, "admin.users.role", err)
	}
	applog.Audit(c, "admin.users.role", map[string]any{"user_id": id, "role": u.Role})
	return render(c, fiber.StatusOK, u)
}
