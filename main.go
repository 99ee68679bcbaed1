package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"storefront/condb"
	"storefront/config"
	"storefront/controllers"
	"storefront/metrics"
	"storefront/middleware"
	"storefront/notify"
	"storefront/repository"
	"storefront/routes"
	"storefront/services"
	"storefront/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("storefront_exit", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := utils.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store repository.Store
	if cfg.DatabaseURL != "" {
		pool, err := condb.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := condb.Migrate(ctx, pool); err != nil {
			return err
		}
		store = repository.NewPostgres(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		store = repository.NewMemory()
	}

	var notifier notify.Notifier
	switch cfg.Notifier {
	case "smtp":
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.EmailHost,
			Port:     cfg.EmailPort,
			Username: cfg.EmailUser,
			Password: cfg.EmailPass,
			From:     cfg.EmailFrom,
		}, logger)
	case "kafka":
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaBillTopic)
		defer kn.Close()
		notifier = kn
	default:
		notifier = notify.NewLogNotifier(logger)
	}

	m := metrics.New()
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, cfg.CookieSecure)
	h := controllers.NewHandler(
		services.NewAuthService(store, utils.NewPasswordHasher(cfg.BcryptCost), tokens, logger),
		services.NewCatalogService(store, logger),
		services.NewCartService(store, logger),
		services.NewCheckoutService(store, notifier, cfg.CheckoutPolicy, m, logger),
		services.NewLedgerService(store, logger),
		tokens,
		logger,
	)

	app := newApp(cfg.AllowOrigins, logger, m)
	routes.RegisterRoutes(app, h, tokens, m)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.HTTPAddr, "checkout_policy", cfg.CheckoutPolicy, "notifier", cfg.Notifier)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// newApp builds the Fiber app and its global middleware. Observe sits outside
// recover so panicking requests are still logged and counted.
func newApp(allowOrigins string, logger *slog.Logger, m *metrics.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          controllers.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(requestid.New())
	app.Use(middleware.Observe(logger, m))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Set-Cookie",
		AllowCredentials: true,
	}))

	app.Static("/static", "./static")
	return app
}
