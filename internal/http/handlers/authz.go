package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"milkpoint/internal/authz"
	applog "milkpoint/internal/log"
	"milkpoint/internal/services"
)

const (
	localUser      = "user"
	localUserID    = "user_id"
	localPrincipal = "principal"
)

// sessionID reads the sid cookie, falling back to an Authorization bearer token.
func sessionID(c *fiber.Ctx) string {
	if sid := c.Cookies("sid"); sid != "" {
		return sid
	}
	h := c.Get(fiber.HeaderAuthorization)
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}

// RequireUser resolves the caller's principal or answers 401. What the caller
// may do is left to the services.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := sessionID(c)
		if sid == "" {
			return render(c, fiber.StatusUnauthorized, fiber.Map{"error": "unauthenticated", "message": "login required"})
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			applog.Security(c, "access.denied.session", nil)
			return render(c, fiber.StatusUnauthorized, fiber.Map{"error": "unauthenticated", "message": "login required"})
		}
		c.Locals(localUser, u)
		c.Locals(localUserID, u.ID)
		c.Locals(localPrincipal, authz.Principal{UserID: u.ID, Role: u.Role})
		return c.Next()
	}
}
