package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/middleware"
	"storefront/models"
)

func (h *Handler) Checkout(c *fiber.Ctx) error {
	var req models.CheckoutReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	resp, err := h.checkout.Checkout(c.UserContext(), middleware.IdentityFrom(c), req.Comment)
	switch {
	case err == nil:
		return ok(c, "Purchase successful, bill sent to email", resp)
	case errors.Is(err, models.ErrBillNotSent) && resp != nil:
		// the sales are committed; only the email is missing
		return ok(c, "Purchase successful, but the bill could not be emailed", resp)
	default:
		return h.fail(c, err)
	}
}

func (h *Handler) Purchase(c *fiber.Ctx) error {
	var req models.CartItemReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	resp, err := h.checkout.Purchase(c.UserContext(), middleware.IdentityFrom(c), req.ProductID, req.Quantity)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Purchase successful", resp)
}
