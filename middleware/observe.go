package middleware

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/metrics"
)

// Observe logs every request and records its status and latency.
func Observe(logger *slog.Logger, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		elapsed := float64(time.Since(start).Microseconds()) / 1000
		route := c.Route().Path

		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(elapsed)

		logger.InfoContext(c.UserContext(), "http_request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration_ms", elapsed,
			"request_id", c.Locals("requestid"),
		)
		return err
	}
}
