package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rakeshsingh12700/dearstudent62-storefront/database"
	aws_pkg "github.com/rakeshsingh12700/dearstudent62-storefront/pkg/aws"
	"github.com/rakeshsingh12700/dearstudent62-storefront/pricing"
)

const (
	dbSecretName  = "storefront/DB_CREDENTIALS"
	appSecretName = "storefront/APP_SECRETS"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Port        string
	Environment string

	Postgres database.PostgresConfig

	RedisURL        string
	ProductsTable   string
	ProductCacheTTL time.Duration

	DownloadBucket   string
	DownloadTokenTTL time.Duration
	PresignTTL       time.Duration

	// SNS topic for coupon and payment events
	EventsSNSTopicARN string

	JWTSecret   string
	AdminEmails []string

	RazorpayKeyID     string
	RazorpayKeySecret string

	AllowedOrigins       []string
	CouponRatePerMinute  int
	CouponRateBurst      int
	MetricsEnabled       bool
	MetricsNamespace     string
	CloudWatchLogGroup   string
	CloudWatchLogsEnable bool

	Pricing pricing.Config
}

// secretSource fetches a JSON secret as a flat map.
type secretSource interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// LoadConfig reads configuration from .env and environment variables with
// optional Secrets Manager override.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := configFromEnv()

	// Override credentials from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			applySecrets(context.Background(), cfg, aws_pkg.NewSecretsClient(awsCfg))
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromEnv() *Config {
	pc := pricing.DefaultConfig()
	pc.DefaultCountry = strings.ToUpper(getEnv("PRICING_DEFAULT_COUNTRY", pc.DefaultCountry))
	pc.DefaultCurrency = strings.ToUpper(getEnv("PRICING_DEFAULT_CURRENCY", pc.DefaultCurrency))
	pc.InternationalMultiplier = getEnvFloat("PRICING_INTERNATIONAL_MULTIPLIER", pc.InternationalMultiplier)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Kolkata"),
		},
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ProductsTable:        getEnv("PRODUCTS_TABLE", "Products"),
		ProductCacheTTL:      getEnvDuration("PRODUCT_CACHE_TTL", 10*time.Minute),
		DownloadBucket:       os.Getenv("DOWNLOAD_BUCKET"),
		DownloadTokenTTL:     getEnvDuration("DOWNLOAD_TOKEN_TTL", 15*time.Minute),
		PresignTTL:           getEnvDuration("DOWNLOAD_PRESIGN_TTL", 5*time.Minute),
		EventsSNSTopicARN:    os.Getenv("STOREFRONT_SNS_TOPIC_ARN"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		AdminEmails:          splitList(os.Getenv("ADMIN_EMAILS")),
		RazorpayKeyID:        os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:    os.Getenv("RAZORPAY_KEY_SECRET"),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "*")),
		CouponRatePerMinute:  getEnvInt("COUPON_RATE_PER_MINUTE", 30),
		CouponRateBurst:      getEnvInt("COUPON_RATE_BURST", 10),
		MetricsEnabled:       os.Getenv("METRICS_ENABLED") == "true",
		MetricsNamespace:     getEnv("METRICS_NAMESPACE", "Storefront"),
		CloudWatchLogGroup:   getEnv("CLOUDWATCH_LOG_GROUP", "/storefront/services"),
		CloudWatchLogsEnable: os.Getenv("CLOUDWATCH_LOGS_ENABLED") == "true",
		Pricing:              pc,
	}
}

// applySecrets overrides DB credentials and app secrets. Lookup failures keep
// the environment values.
func applySecrets(ctx context.Context, cfg *Config, sm secretSource) {
	if m, err := sm.GetSecretMap(ctx, dbSecretName); err == nil {
		setIfPresent(m, "POSTGRES_USER", &cfg.Postgres.User)
		setIfPresent(m, "POSTGRES_PASSWORD", &cfg.Postgres.Password)
		setIfPresent(m, "POSTGRES_DB", &cfg.Postgres.DBName)
		setIfPresent(m, "POSTGRES_HOST", &cfg.Postgres.Host)
		setIfPresent(m, "POSTGRES_PORT", &cfg.Postgres.Port)
	}
	if m, err := sm.GetSecretMap(ctx, appSecretName); err == nil {
		setIfPresent(m, "JWT_SECRET", &cfg.JWTSecret)
		setIfPresent(m, "RAZORPAY_KEY_ID", &cfg.RazorpayKeyID)
		setIfPresent(m, "RAZORPAY_KEY_SECRET", &cfg.RazorpayKeySecret)
	}
}

func (c *Config) validate() error {
	if c.Postgres.User == "" || c.Postgres.Password == "" || c.Postgres.DBName == "" || c.Postgres.Host == "" {
		return fmt.Errorf("database config incomplete")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DownloadBucket == "" {
		return fmt.Errorf("DOWNLOAD_BUCKET is required")
	}
	if _, ok := c.Pricing.Currencies[c.Pricing.DefaultCurrency]; !ok {
		return fmt.Errorf("unsupported PRICING_DEFAULT_CURRENCY %q", c.Pricing.DefaultCurrency)
	}
	return nil
}

func setIfPresent(m map[string]string, key string, dst *string) {
	if v, ok := m[key]; ok && v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
