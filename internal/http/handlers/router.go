package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "milkpoint/internal/log"
)

// ErrorHandler answers errors that escape a handler. Client errors keep
// their message; anything else is logged and replaced by a friendly one.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return render(c, fe.Code, fiber.Map{"error": "http", "message": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return render(c, fiber.StatusInternalServerError, fiber.Map{"error": "internal", "message": friendlyError})
}

// NewApp builds the HTTP surface. extra middleware (access logging in main)
// runs right after request ids are assigned.
func NewApp(d *Deps, extra ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    1 << 20, // 1 MiB
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	for _, h := range extra {
		app.Use(h)
	}
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return render(c, fiber.StatusTooManyRequests, fiber.Map{"error": "rate_limited", "message": "rate limit exceeded, retry soon"})
		},
	}))

	// Auth routes (login throttled)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return render(c, fiber.StatusTooManyRequests, fiber.Map{"error": "rate_limited", "message": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	api := app.Group("/api/v1", RequireUser(d.Auth))

	api.Get("/products", d.ProductHandler.List)
	api.Post("/products", d.ProductHandler.Create)
	api.Get("/products/:id", d.ProductHandler.Get)
	api.Put("/products/:id", d.ProductHandler.Update)
	api.Delete("/products/:id", d.ProductHandler.Delete)
	api.Post("/products/:id/activate", d.ProductHandler.Activate)
	api.Post("/products/:id/deactivate", d.ProductHandler.Deactivate)
	api.Post("/products/:id/stock", d.InventoryHandler.Adjust)
	api.Get("/products/:id/availability", d.InventoryHandler.Check)

	api.Get("/orders", d.OrderHandler.List)
	api.Post("/orders", d.OrderHandler.Create)
	api.Get("/orders/:id", d.OrderHandler.Get)
	api.Patch("/orders/:id/status", d.OrderHandler.UpdateStatus)
	api.Patch("/orders/:id/payment", d.OrderHandler.UpdatePayment)
	api.Post("/orders/:id/cancel", d.OrderHandler.Cancel)
	api.Put("/orders/:id/items", d.OrderHandler.UpdateItems)

	api.Get("/users", d.AdminHandler.ListUsers)
	api.Patch("/users/:id/role", d.AdminHandler.UpdateRole)
	api.Get("/dashboard", d.AdminHandler.Stats)

	app.Use(func(c *fiber.Ctx) error {
		return render(c, fiber.StatusNotFound, fiber.Map{"error": "not_found", "message": "route not found"})
	})
	return app
}
