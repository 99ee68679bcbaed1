package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"storefront/models"
	"storefront/services"
	"storefront/utils"
)

// Handler serves the shop's HTTP API. Every response is the envelope
// {"status": bool, "message": string, "data": ...}.
type Handler struct {
	auth     *services.AuthService
	catalog  *services.CatalogService
	cart     *services.CartService
	checkout *services.CheckoutService
	ledger   *services.LedgerService
	tokens   *utils.TokenManager
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(
	auth *services.AuthService,
	catalog *services.CatalogService,
	cart *services.CartService,
	checkout *services.CheckoutService,
	ledger *services.LedgerService,
	tokens *utils.TokenManager,
	logger *slog.Logger,
) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		auth:     auth,
		catalog:  catalog,
		cart:     cart,
		checkout: checkout,
		ledger:   ledger,
		tokens:   tokens,
		validate: v,
		logger:   logger,
	}
}

func (h *Handler) bind(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return fmt.Errorf("%w: invalid request body", models.ErrValidation)
		}
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeField(fe))
			}
			return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return nil
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "max", "lte":
		return fe.Field() + " must be at most " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

func ok(c *fiber.Ctx, message string, data interface{}) error {
	body := fiber.Map{"status": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrInsufficientStock), errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err as a failed envelope. Unexpected errors are logged and hidden
// behind a generic message.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		h.logger.ErrorContext(c.UserContext(), "request_failed", "path", c.Path(), "error", err)
		msg = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"status": false, "message": msg})
}

// ErrorHandler renders errors that escape handlers, including recovered panics
// and Fiber's own routing errors, in the same envelope.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code, msg = fe.Code, fe.Message
		} else {
			logger.ErrorContext(c.UserContext(), "unhandled_error", "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"status": false, "message": msg})
	}
}
