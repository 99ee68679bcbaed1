package controllers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/middleware"
)

func (h *Handler) PurchaseHistory(c *fiber.Ctx) error {
	sales, err := h.ledger.PurchaseHistory(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Purchase history", sales)
}

func (h *Handler) SalesHistory(c *fiber.Ctx) error {
	sales, err := h.ledger.SalesHistory(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Sales history", sales)
}

func (h *Handler) ProductCustomers(c *fiber.Ctx) error {
	customers, err := h.ledger.ProductCustomers(c.UserContext(), middleware.IdentityFrom(c), c.Params("productId"))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Product customers", customers)
}
