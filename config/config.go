package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBURL       string
	RedisURL    string
	JWTSecret   string
	CORSOrigin  string
	LogLevel    string
	LogFormat   string
	Environment string

	Stripe StripeConfig

	// Hosts a checkout return URL may point at.
	AllowedReturnHosts []string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string

	// Subscription prices keyed by interval (day|month|year).
	SubscriptionPrices map[string]string
	SingleReportPrice  string
	// Credit pack prices keyed by pack id.
	PackPrices map[string]string
}

const packPricePrefix = "STRIPE_PRICE_PACK_"

func LoadEnv() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DBURL:       getEnv("DB_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWTSecret:   mustEnv("JWT_SECRET"),
		CORSOrigin:  getEnv("CORS_ORIGIN", "http://localhost:5173"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		Environment: getEnv("APP_ENV", "development"),

		Stripe: StripeConfig{
			SecretKey:     mustEnv("STRIPE_SECRET_KEY"),
			WebhookSecret: mustEnv("STRIPE_WEBHOOK_SECRET"),
			SubscriptionPrices: map[string]string{
				"day":   getEnv("STRIPE_PRICE_PRO_DAY", ""),
				"month": getEnv("STRIPE_PRICE_PRO_MONTH", ""),
				"year":  getEnv("STRIPE_PRICE_PRO_YEAR", ""),
			},
			SingleReportPrice: getEnv("STRIPE_PRICE_SINGLE_REPORT", ""),
			PackPrices:        packPricesFromEnv(os.Environ()),
		},

		AllowedReturnHosts: SplitList(getEnv("ALLOWED_RETURN_HOSTS", "localhost")),
	}
	return cfg
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// packPricesFromEnv collects STRIPE_PRICE_PACK_<ID>=price entries; ids are lower-cased.
func packPricesFromEnv(environ []string) map[string]string {
	prices := map[string]string{}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, packPricePrefix) || value == "" {
			continue
		}
		packID := strings.ToLower(strings.TrimPrefix(key, packPricePrefix))
		if packID != "" {
			prices[packID] = value
		}
	}
	return prices
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
