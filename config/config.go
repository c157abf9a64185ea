package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"checkout-service/database"
	"checkout-service/providers"
	"checkout-service/services"
)

const (
	PricingModeStatic  = "static"
	PricingModeCatalog = "catalog"

	EventsBackendNone  = "none"
	EventsBackendSNS   = "sns"
	EventsBackendKafka = "kafka"
)

// Secret names read when AWS_USE_SECRETS=true. SecretPayPalCredentials holds
// {"client_id": ..., "client_secret": ...} and wins over the single-value
// secrets.
const (
	SecretPayPalCredentials  = "checkout/PAYPAL_CREDENTIALS"
	SecretPayPalClientID     = "checkout/PAYPAL_CLIENT_ID"
	SecretPayPalClientSecret = "checkout/PAYPAL_CLIENT_SECRET"
)

type payPalCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Config holds all configuration for the checkout service.
type Config struct {
	Port      string
	AppEnv    string
	StaticDir string

	PayPalClientID     string
	PayPalClientSecret string
	PayPalBaseURL      string
	ProcessorTimeout   time.Duration
	SideEffectTimeout  time.Duration

	ErrorPolicy         services.ErrorPolicy
	PricingMode         string
	CatalogFile         string
	ShippingOptionsFile string
	Currency            string

	ContactPhoneCountryCode    string
	ContactPhoneNationalNumber string
	ContactFullName            string

	RedisURL       string
	IdempotencyTTL time.Duration

	Postgres database.Settings

	EventsBackend       string
	OrderEventsTopicARN string
	KafkaBrokers        []string
	KafkaTopic          string

	AllowedOrigins []string

	UseMetrics bool
}

// SecretSource fetches a named secret. *aws_pkg.SecretsClient satisfies it.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// LoadConfig reads configuration from environment variables. It fails when
// processor credentials are missing or a setting is out of range.
func LoadConfig() (*Config, error) {
	return LoadConfigWithSecrets(context.Background(), nil)
}

// LoadConfigWithSecrets is LoadConfig with PayPal credentials taken from
// secrets when available.
func LoadConfigWithSecrets(ctx context.Context, secrets SecretSource) (*Config, error) {
	cfg := &Config{
		Port:      getEnv("PORT", "8888"),
		AppEnv:    getEnv("APP_ENV", "development"),
		StaticDir: getEnv("STATIC_DIR", "client"),

		PayPalClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),

		PricingMode:         getEnv("PRICING_MODE", PricingModeStatic),
		CatalogFile:         os.Getenv("CATALOG_FILE"),
		ShippingOptionsFile: os.Getenv("SHIPPING_OPTIONS_FILE"),
		Currency:            strings.ToUpper(getEnv("CURRENCY", "USD")),

		ContactPhoneCountryCode:    getEnv("CONTACT_PHONE_COUNTRY_CODE", "1"),
		ContactPhoneNationalNumber: getEnv("CONTACT_PHONE_NATIONAL_NUMBER", "4085551234"),
		ContactFullName:            getEnv("CONTACT_FULL_NAME", "John Doe"),

		RedisURL: os.Getenv("REDIS_URL"),

		Postgres: database.Settings{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Name:     os.Getenv("POSTGRES_DB"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},

		EventsBackend:       getEnv("EVENTS_BACKEND", EventsBackendNone),
		OrderEventsTopicARN: os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
		KafkaBrokers:        splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "checkout-events"),

		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		UseMetrics: os.Getenv("CLOUDWATCH_METRICS_ENABLED") == "true",
	}

	var err error
	if cfg.PayPalBaseURL, err = payPalBaseURL(); err != nil {
		return nil, err
	}
	if cfg.ProcessorTimeout, err = getDuration("PROCESSOR_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SideEffectTimeout, err = getDuration("SIDE_EFFECT_TIMEOUT", services.DefaultSideEffectTimeout); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ErrorPolicy, err = services.ParseErrorPolicy(getEnv("ERROR_POLICY", string(services.ErrorPolicyLegacy))); err != nil {
		return nil, err
	}

	// Override processor credentials from Secrets Manager when running on AWS
	if secrets != nil {
		applySecrets(ctx, cfg, secrets)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applySecrets(ctx context.Context, cfg *Config, secrets SecretSource) {
	if raw, err := secrets.GetSecret(ctx, SecretPayPalCredentials); err == nil {
		var creds payPalCredentials
		if json.Unmarshal([]byte(raw), &creds) == nil && creds.ClientID != "" && creds.ClientSecret != "" {
			cfg.PayPalClientID = creds.ClientID
			cfg.PayPalClientSecret = creds.ClientSecret
			return
		}
	}
	if v, err := secrets.GetSecret(ctx, SecretPayPalClientID); err == nil && v != "" {
		cfg.PayPalClientID = v
	}
	if v, err := secrets.GetSecret(ctx, SecretPayPalClientSecret); err == nil && v != "" {
		cfg.PayPalClientSecret = v
	}
}

// LedgerEnabled reports whether enough Postgres settings are present to
// keep a transaction ledger.
func (c *Config) LedgerEnabled() bool {
	return c.Postgres.Host != "" && c.Postgres.User != "" && c.Postgres.Name != ""
}

func (c *Config) validate() error {
	if c.PayPalClientID == "" || c.PayPalClientSecret == "" {
		return fmt.Errorf("PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET must be set")
	}

	switch c.PricingMode {
	case PricingModeStatic:
	case PricingModeCatalog:
		if c.CatalogFile == "" {
			return fmt.Errorf("CATALOG_FILE is required when PRICING_MODE=%s", PricingModeCatalog)
		}
	default:
		return fmt.Errorf("invalid PRICING_MODE %q", c.PricingMode)
	}

	switch c.EventsBackend {
	case EventsBackendNone, EventsBackendKafka:
	case EventsBackendSNS:
		if c.OrderEventsTopicARN == "" {
			return fmt.Errorf("ORDER_EVENTS_TOPIC_ARN is required when EVENTS_BACKEND=%s", EventsBackendSNS)
		}
	default:
		return fmt.Errorf("invalid EVENTS_BACKEND %q", c.EventsBackend)
	}

	if c.EventsBackend == EventsBackendKafka && (len(c.KafkaBrokers) == 0 || c.KafkaTopic == "") {
		return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required when EVENTS_BACKEND=%s", EventsBackendKafka)
	}
	return nil
}

func payPalBaseURL() (string, error) {
	if v := os.Getenv("PAYPAL_BASE_URL"); v != "" {
		return strings.TrimSuffix(v, "/"), nil
	}
	switch env := getEnv("PAYPAL_ENVIRONMENT", "sandbox"); env {
	case "sandbox":
		return providers.PayPalSandboxURL, nil
	case "live":
		return providers.PayPalLiveURL, nil
	default:
		return "", fmt.Errorf("invalid PAYPAL_ENVIRONMENT %q (want sandbox or live)", env)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
