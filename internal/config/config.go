package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	BaseURL     string
	StaticDir   string

	Observability ObservabilityConfig
	InvoiceNinja  InvoiceNinjaConfig
	Catalog       CatalogConfig
	Email         EmailConfig
	Redis         RedisConfig

	MagicLinkTTL time.Duration
}

// ObservabilityConfig carries the logging and OTLP export settings.
type ObservabilityConfig struct {
	LogLevel      string
	LogFormat     string
	OtelEnabled   bool
	OtelEndpoint  string
	OtelProtocol  string
	SamplingRatio float64
}

type InvoiceNinjaConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// CatalogConfig points at the static pricebook, benefit and plan-rule files.
type CatalogConfig struct {
	PricebookPath string
	BenefitsPath  string
	PlanRulesPath string
}

type EmailConfig struct {
	Delivery     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// RedisConfig enables the shared token store and rate limiter when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	EmailDeliveryConsole  = "console"
	EmailDeliveryEnabled  = "enabled"
	EmailDeliveryDisabled = "disabled"
)

var ErrMissingInvoiceNinja = errors.New("missing required environment variables: IN_NINJA_BASE_URL and IN_NINJA_API_TOKEN")

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("NODE_ENV", getenv("ENVIRONMENT", "development"))

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "roi"),
		AppVersion:  getenv("APP_VERSION", "1.0.0"),
		Environment: environment,
		HTTPAddr:    httpAddr(),
		BaseURL:     strings.TrimRight(getenv("BASE_URL", "http://localhost:3000"), "/"),
		StaticDir:   getenv("STATIC_DIR", "./public"),
		Observability: ObservabilityConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			OtelEnabled:   getenvBool("OTEL_ENABLED", false),
			OtelEndpoint:  strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
			OtelProtocol:  strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},
		InvoiceNinja: InvoiceNinjaConfig{
			BaseURL:  strings.TrimRight(strings.TrimSpace(getenv("IN_NINJA_BASE_URL", "")), "/"),
			APIToken: strings.TrimSpace(getenv("IN_NINJA_API_TOKEN", "")),
			Timeout:  getenvDuration("IN_NINJA_TIMEOUT", 30*time.Second),
		},
		Catalog: CatalogConfig{
			PricebookPath: getenv("PRICEBOOK_PATH", "./data/pricebook.json"),
			BenefitsPath:  getenv("BENEFITS_PATH", "./data/benefits.json"),
			PlanRulesPath: getenv("PLAN_RULES_PATH", "./data/plan_rules.json"),
		},
		Email: EmailConfig{
			Delivery:     normalizeDelivery(getenv("EMAIL_DELIVERY", "")),
			SMTPHost:     strings.TrimSpace(getenv("SMTP_HOST", "")),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: strings.TrimSpace(getenv("SMTP_USERNAME", "")),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			FromEmail:    getenv("FROM_EMAIL", "noreply@example.com"),
			FromName:     getenv("FROM_NAME", "ROI Analysis"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		MagicLinkTTL: getenvDuration("MAGIC_LINK_TTL", 15*time.Minute),
	}

	return cfg
}

// Validate reports configuration that makes serving reports impossible.
func (c Config) Validate() error {
	if c.InvoiceNinja.BaseURL == "" || c.InvoiceNinja.APIToken == "" {
		return ErrMissingInvoiceNinja
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func httpAddr() string {
	if addr := strings.TrimSpace(os.Getenv("HTTP_ADDR")); addr != "" {
		return addr
	}
	return ":" + getenv("PORT", "3000")
}

func normalizeDelivery(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case EmailDeliveryEnabled:
		return EmailDeliveryEnabled
	case EmailDeliveryDisabled:
		return EmailDeliveryDisabled
	case EmailDeliveryConsole:
		return EmailDeliveryConsole
	default:
		return ""
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getenvFloat(key string, def float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return def
}
