// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type CheckoutPolicy string

const (
	// AllOrNothing commits every cart line and the cart clear in one transaction.
	AllOrNothing CheckoutPolicy = "all_or_nothing"
	// BestEffort commits each cart line on its own and leaves failed lines in the cart.
	BestEffort CheckoutPolicy = "best_effort"
)

type Config struct {
	HTTPAddr     string
	AllowOrigins string
	DatabaseURL  string

	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool
	BcryptCost   int

	CheckoutPolicy CheckoutPolicy

	Notifier  string // log, smtp or kafka
	EmailHost string
	EmailPort string
	EmailUser string
	EmailPass string
	EmailFrom string

	KafkaBrokers   []string
	KafkaBillTopic string

	LogLevel  string
	LogFormat string
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		HTTPAddr:       get("HTTP_ADDR", ":8080"),
		AllowOrigins:   get("ALLOW_ORIGINS", "http://127.0.0.1:5500,http://localhost:5500,http://localhost:3000"),
		DatabaseURL:    get("DATABASE_URL", ""),
		JWTSecret:      get("JWT_SECRET_KEY", ""),
		CheckoutPolicy: CheckoutPolicy(get("CHECKOUT_POLICY", string(AllOrNothing))),
		Notifier:       strings.ToLower(get("NOTIFIER", "log")),
		EmailHost:      get("EMAIL_HOST", ""),
		EmailPort:      get("EMAIL_PORT", "587"),
		EmailUser:      get("EMAIL_USER", ""),
		EmailPass:      get("EMAIL_PASS", ""),
		KafkaBillTopic: get("KAFKA_BILL_TOPIC", "shop.bills"),
		LogLevel:       get("LOG_LEVEL", "info"),
		LogFormat:      get("LOG_FORMAT", "json"),
	}
	cfg.EmailFrom = get("EMAIL_FROM", cfg.EmailUser)

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(get("TOKEN_TTL", "24h")); err != nil || cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("invalid TOKEN_TTL %q", getenv("TOKEN_TTL"))
	}
	if cfg.CookieSecure, err = strconv.ParseBool(get("COOKIE_SECURE", "true")); err != nil {
		return Config{}, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}
	if cfg.BcryptCost, err = strconv.Atoi(get("BCRYPT_COST", "10")); err != nil {
		return Config{}, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if brokers := get("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	switch c.CheckoutPolicy {
	case AllOrNothing, BestEffort:
	default:
		return fmt.Errorf("invalid CHECKOUT_POLICY %q", c.CheckoutPolicy)
	}
	switch c.Notifier {
	case "log":
	case "smtp":
		if c.EmailHost == "" || c.EmailFrom == "" {
			return errors.New("NOTIFIER=smtp needs EMAIL_HOST and EMAIL_FROM (or EMAIL_USER)")
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return errors.New("NOTIFIER=kafka needs KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("invalid NOTIFIER %q", c.Notifier)
	}
	return nil
}
