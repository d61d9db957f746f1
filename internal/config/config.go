package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Required values are enforced by must() at load
// time; optional values fall back to documented defaults.
type Config struct {
	Env        string // application environment (e.g. "dev", "prod")
	Port       string // HTTP port to listen on
	DBUser     string // database username
	DBPass     string // database password (optional)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name
	JWTSecret  string // secret used to sign session tokens
	BcryptCost int    // bcrypt cost for password hashing

	// AdminEmail is the one config-driven exception at registration: a user
	// registering with exactly this address is created as ADMIN.
	AdminEmail string

	// Stripe checkout settings. SecretKey empty means the checkout endpoint
	// reports the provider as misconfigured; WebhookSecret empty means the
	// webhook accepts unsigned events (non-production fallback, logged loudly).
	StripeSecretKey      string
	StripeWebhookSecret  string
	ActivationPriceCents int64  // one-time activation price, in cents
	ActivationCurrency   string // ISO currency code for the checkout line item
	CheckoutSuccessURL   string // fixed redirect target after payment
	CheckoutCancelURL    string // fixed redirect target on abandon
}

// Load reads configuration values from environment variables and returns a
// Config. Missing required variables cause the program to exit with a fatal
// log message; everything payment-related is optional so the service can run
// without a Stripe account in development.
func Load() Config {
	return Config{
		Env:        must("APP_ENV"),
		Port:       must("APP_PORT"),
		DBUser:     must("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"),
		DBHost:     must("DB_HOST"),
		DBPort:     must("DB_PORT"),
		DBName:     must("DB_NAME"),
		JWTSecret:  must("JWT_SECRET"),
		BcryptCost: envInt("BCRYPT_COST", 12),

		AdminEmail: os.Getenv("ADMIN_EMAIL"),

		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		ActivationPriceCents: envInt64("ACTIVATION_PRICE_CENTS", 999),
		ActivationCurrency:   envStr("ACTIVATION_CURRENCY", "usd"),
		CheckoutSuccessURL:   envStr("CHECKOUT_SUCCESS_URL", "http://localhost:3000/activation/success"),
		CheckoutCancelURL:    envStr("CHECKOUT_CANCEL_URL", "http://localhost:3000/activation/cancelled"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envInt64(k string, d int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}
