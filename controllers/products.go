package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"storefront/middleware"
	"storefront/models"
)

func (h *Handler) AllProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListAll(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "All products", products)
}

func (h *Handler) MyProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListOwn(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Your products", products)
}

func (h *Handler) InsertProduct(c *fiber.Ctx) error {
	var req models.CreateProductReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	product, err := h.catalog.Create(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "product inserted", product)
}

func (h *Handler) UpdateProduct(c *fiber.Ctx) error {
	var req models.UpdateProductReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	product, err := h.catalog.Update(c.UserContext(), middleware.IdentityFrom(c), req.ProductID, req.NewData)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "product updated", product)
}

func (h *Handler) DeleteProduct(c *fiber.Ctx) error {
	var req models.ProductIDReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.catalog.Delete(c.UserContext(), middleware.IdentityFrom(c), req.ProductID); err != nil {
		return h.fail(c, err)
	}
	return ok(c, "product deleted", nil)
}

// PopularProducts is the public best-seller list, limited by ?limit (default 10).
func (h *Handler) PopularProducts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 100 {
		return h.fail(c, fmt.Errorf("%w: limit must be between 1 and 100", models.ErrValidation))
	}
	items, err := h.ledger.Popular(c.UserContext(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Popular products", items)
}
