package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"milkpoint/internal/authz"
	"milkpoint/internal/domain"
	applog "milkpoint/internal/log"
	"milkpoint/internal/services"
)

const friendlyError = "Something went wrong. Please try again."

func render(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(data)
}

// writeError maps a service error onto a status code and a stable error kind.
// Unknown errors are logged and reported without their text.
func writeError(c *fiber.Ctx, action string, err error) error {
	var (
		status int
		kind   string
	)
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status, kind = fiber.StatusBadRequest, "invalid_argument"
	case errors.Is(err, domain.ErrForbidden):
		status, kind = fiber.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status, kind = fiber.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, kind = fiber.StatusConflict, "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidTransition):
		status, kind = fiber.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrConflict):
		status, kind = fiber.StatusConflict, "conflict"
	case errors.Is(err, services.ErrBadCreds):
		status, kind = fiber.StatusUnauthorized, "unauthenticated"
	default:
		c.Status(fiber.StatusInternalServerError)
		applog.Error(c, action+".fail", err, nil)
		return render(c, fiber.StatusInternalServerError, fiber.Map{"error": "internal", "message": friendlyError})
	}

	c.Status(status)
	body := fiber.Map{"error": kind, "message": err.Error()}
	var se *domain.StockError
	if errors.As(err, &se) {
		body["product_id"] = se.ProductID
		body["requested"] = se.Requested
		body["available"] = se.Available
	}
	if status == fiber.StatusForbidden {
		applog.Security(c, action+".denied", map[string]any{"reason": err.Error()})
	} else {
		applog.Warn(c, action+".fail", err, nil)
	}
	return render(c, status, body)
}

func principal(c *fiber.Ctx) authz.Principal {
	p, _ := c.Locals(localPrincipal).(authz.Principal)
	return p
}
