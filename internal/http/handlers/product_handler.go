package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"milkpoint/internal/domain"
	applog "milkpoint/internal/log"
	"milkpoint/internal/services"
	"milkpoint/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func badRequest(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return render(c, fiber.StatusBadRequest, fiber.Map{"error": "invalid_argument", "message": "invalid " + field})
}

func pathID(c *fiber.Ctx) (string, bool) {
	return validate.ID(c.Params("id"))
}

// GET /api/v1/products?category=&active=&available=&q=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var f services.ProductFilter
	if s := c.Query("category"); s != "" {
		cat, err := domain.ParseCategory(s)
		if err != nil {
			return badRequest(c, "category")
		}
		f.Category = cat
	}
	if s := c.Query("active"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return badRequest(c, "active")
		}
		f.Active = &b
	}
	f.AvailableOnly = c.QueryBool("available", false)
	f.Query = c.Query("q")

	ps, err := h.Catalog.ListProducts(principal(c), f)
	if err != nil {
		return writeError(c, "products.list", err)
	}
	return render(c, fiber.StatusOK, fiber.Map{"products": ps})
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	p, err := h.Catalog.GetProduct(principal(c), id)
	if err != nil {
		return writeError(c, "products.get", err)
	}
	return render(c, fiber.StatusOK, p)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), principal(c), in)
	if err != nil {
		return writeError(c, "products.create", err)
	}
	applog.Audit(c, "products.create", map[string]any{"product_id": p.ID, "name": p.Name})
	return render(c, fiber.StatusCreated, p)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), principal(c), id, in)
	if err != nil {
		return writeError(c, "products.update", err)
	}
	applog.Audit(c, "products.update", map[string]any{"product_id": p.ID})
	return render(c, fiber.StatusOK, p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), principal(c), id); err != nil {
		return writeError(c, "products.delete", err)
	}
	applog.Audit(c, "products.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) Activate(c *fiber.Ctx) error   { return h.setActive(c, true) }
func (h *ProductHandler) Deactivate(c *fiber.Ctx) error { return h.setActive(c, false) }

func (h *ProductHandler) setActive(c *fiber.Ctx, active bool) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id")
	}
	p, err := h.Catalog.SetActive(c.UserContext(), principal(c), id, active)
	if err != nil {
		return writeError(c, "products.activate", err)
	}
	applog.Audit(c, "products.activate", map[string]any{"product_id": id, "active": active})
	return render(c, fiber.StatusOK, p)
}
