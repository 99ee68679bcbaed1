package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"storefront/controllers"
	"storefront/metrics"
	"storefront/middleware"
	"storefront/models"
	"storefront/utils"
)

func RegisterRoutes(app *fiber.App, h *controllers.Handler, tokens *utils.TokenManager, m *metrics.Metrics) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": true, "message": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// auth
	app.Post("/register", h.Register)
	app.Post("/login", h.Login)
	app.Get("/logout", h.Logout)

	auth := middleware.JWTMiddleware(tokens)
	shopkeeper := middleware.RequireRole(models.RoleShopkeeper)
	customer := middleware.RequireRole(models.RoleCustomer)

	app.Get("/getUser", auth, h.GetUser)

	// catalog
	app.Get("/products/popular", h.PopularProducts)
	app.Get("/products/all", auth, h.AllProducts)
	app.Get("/products/my", auth, shopkeeper, h.MyProducts)
	app.Post("/insert", auth, shopkeeper, h.InsertProduct)
	app.Post("/update", auth, shopkeeper, h.UpdateProduct)
	app.Post("/delete", auth, shopkeeper, h.DeleteProduct)

	// cart
	cart := app.Group("/cart", auth, customer)
	cart.Get("/", h.GetCart)
	cart.Post("/add", h.AddToCart)
	cart.Post("/remove", h.RemoveFromCart)
	cart.Post("/update", h.UpdateCart)
	cart.Post("/checkout", h.Checkout)

	app.Post("/purchase", auth, customer, h.Purchase)

	// ledger
	app.Get("/purchases", auth, customer, h.PurchaseHistory)
	app.Get("/sales/history", auth, shopkeeper, h.SalesHistory)
	app.Get("/sales/product/:productId", auth, shopkeeper, h.ProductCustomers)
}
