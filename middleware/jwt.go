package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/models"
	"storefront/utils"
)

const identityKey = "identity"

// JWTMiddleware accepts the session token from an Authorization bearer header or
// the token cookie set at login, and stores the verified Identity for handlers.
func JWTMiddleware(tokens *utils.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := ""
		if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "invalid authorization header")
			}
			token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		} else {
			token = c.Cookies(utils.TokenCookie)
		}
		if token == "" {
			return unauthorized(c, "missing token")
		}

		id, err := tokens.ParseJWTToken(token)
		if err != nil {
			return unauthorized(c, "invalid token")
		}

		c.Locals(identityKey, id)
		return c.Next()
	}
}

// IdentityFrom returns the caller set by JWTMiddleware.
func IdentityFrom(c *fiber.Ctx) models.Identity {
	id, _ := c.Locals(identityKey).(models.Identity)
	return id
}

// RequireRole rejects callers whose token does not carry one of roles. Services
// re-check the stored account; this only turns away obvious mismatches early.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := IdentityFrom(c)
		for _, r := range roles {
			if id.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  false,
			"message": "access denied, " + string(roles[0]) + " role required",
		})
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": false, "message": msg})
}
