package controllers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/middleware"
	"storefront/models"
)

func (h *Handler) GetCart(c *fiber.Ctx) error {
	view, err := h.cart.List(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Cart", view)
}

func (h *Handler) AddToCart(c *fiber.Ctx) error {
	var req models.CartItemReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	cart, err := h.cart.Add(c.UserContext(), middleware.IdentityFrom(c), req.ProductID, req.Quantity)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Added to cart", cart)
}

func (h *Handler) RemoveFromCart(c *fiber.Ctx) error {
	var req models.ProductIDReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	cart, err := h.cart.Remove(c.UserContext(), middleware.IdentityFrom(c), req.ProductID)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Removed from cart", cart)
}

func (h *Handler) UpdateCart(c *fiber.Ctx) error {
	var req models.CartUpdateReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	cart, err := h.cart.Update(c.UserContext(), middleware.IdentityFrom(c), req.ProductID, req.Quantity)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Cart updated", cart)
}
