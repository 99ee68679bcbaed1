package controllers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/middleware"
	"storefront/models"
)

func (h *Handler) Register(c *fiber.Ctx) error {
	var req models.RegisterReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	acct, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "User registered successfully", fiber.Map{"id": acct.ID, "email": acct.Email, "role": acct.Role})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req models.LoginReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	token, acct, err := h.auth.Login(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	h.tokens.SetJWTCookie(c, token)
	return ok(c, "Login successful", fiber.Map{"token": token, "role": acct.Role})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	h.tokens.ClearJWTCookie(c)
	return ok(c, "Logged out successfully", nil)
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	acct, err := h.auth.Me(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "User data", fiber.Map{
		"email":    acct.Email,
		"role":     acct.Role,
		"products": acct.ProductIDs,
		"sales":    acct.SaleIDs,
	})
}
