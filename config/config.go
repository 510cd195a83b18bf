package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        string
	Environment string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string

	JWTSecret string

	// Checkout pricing knobs. Tax and shipping differ between deployments,
	// so both live here instead of in code.
	TaxRate               decimal.Decimal // e.g. "0.16" for 16%, "0" to disable
	ShippingFlatCost      decimal.Decimal
	FreeShippingThreshold decimal.Decimal // zero disables free shipping

	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPass      string
	AdminEmail    string
	EmailFromName string
}

func Load() (*Config, error) {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Amman"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPass:         os.Getenv("SMTP_PASS"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Flawless Makeup"),
	}

	var err error
	if cfg.TaxRate, err = parseDecimalEnv("TAX_RATE", "0"); err != nil {
		return nil, err
	}
	if cfg.ShippingFlatCost, err = parseDecimalEnv("SHIPPING_FLAT_COST", "3"); err != nil {
		return nil, err
	}
	if cfg.FreeShippingThreshold, err = parseDecimalEnv("FREE_SHIPPING_THRESHOLD", "0"); err != nil {
		return nil, err
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDecimalEnv(key, fallback string) (decimal.Decimal, error) {
	val := getEnv(key, fallback)
	d, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s is not a valid decimal: %w", key, err)
	}
	return d, nil
}
