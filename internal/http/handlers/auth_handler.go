package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"milkpoint/internal/log"
	"milkpoint/internal/services"
	"milkpoint/internal/validate"
)

type AuthHandler struct {
	Auth         *services.AuthService
	CookieSecure bool
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=72"`
}

// setSID writes the session cookie.
func (h *AuthHandler) setSID(c *fiber.Ctx, sid string) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_body"})
		return render(c, fiber.StatusBadRequest, fiber.Map{"error": "invalid_argument", "message": "malformed body"})
	}
	email, ok := validate.Email(req.Email)
	if !ok || validate.Struct(req) != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_format"})
		return render(c, fiber.StatusUnauthorized, fiber.Map{"error": "unauthenticated", "message": services.ErrBadCreds.Error()})
	}

	// Always mint a new session; a presented id is never promoted.
	sid := uuid.NewString()
	u, err := h.Auth.Login(sid, email, req.Password)
	if errors.Is(err, services.ErrBadCreds) {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return render(c, fiber.StatusUnauthorized, fiber.Map{"error": "unauthenticated", "message": services.ErrBadCreds.Error()})
	}
	if err != nil {
		return writeError(c, "auth.login", err)
	}

	if old := sessionID(c); old != "" {
		_ = h.Auth.Logout(old)
	}
	h.setSID(c, sid)

	c.Locals(localUserID, u.ID)
	log.Audit(c, "auth.login.success", map[string]any{"email": email, "role": u.Role})
	return render(c, fiber.StatusOK, fiber.Map{"user": u, "session": sid})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := sessionID(c)
	if sid != "" {
		_ = h.Auth.Logout(sid)
	}
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}
