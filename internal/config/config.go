package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderStripe = "stripe"
	ProviderFake   = "fake"
)

type Config struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	CORSOrigins        []string

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	PaymentProvider     string
	StripeAPIKey        string
	StripeWebhookSecret string
	FakeWebhookSecret   string
	PublicBaseURL       string
	Currency            string
	CheckoutDescription string

	SendGridAPIKey    string
	ContactFromEmail  string
	ContactFromName   string
	ContactInboxEmail string
}

// Load reads the environment, after merging in a .env file from the working
// directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8001"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: 1 << 20, // 1MB
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "*")),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "mallow"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers: splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "payment-events"),

		PaymentProvider:     strings.ToLower(getEnv("PAYMENT_PROVIDER", ProviderStripe)),
		StripeAPIKey:        getEnv("STRIPE_API_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		FakeWebhookSecret:   getEnv("FAKE_WEBHOOK_SECRET", "whsec_fake"),
		PublicBaseURL:       getEnv("PUBLIC_BASE_URL", ""),
		Currency:            strings.ToLower(getEnv("CURRENCY", "eur")),
		CheckoutDescription: getEnv("CHECKOUT_DESCRIPTION", "Mallow bestelling"),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		ContactFromEmail:  getEnv("CONTACT_FROM_EMAIL", ""),
		ContactFromName:   getEnv("CONTACT_FROM_NAME", "Mallow"),
		ContactInboxEmail: getEnv("CONTACT_INBOX_EMAIL", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.PaymentProvider {
	case ProviderStripe:
		if c.StripeAPIKey == "" {
			return fmt.Errorf("STRIPE_API_KEY is required when PAYMENT_PROVIDER=%s", ProviderStripe)
		}
		if c.StripeWebhookSecret == "" {
			return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when PAYMENT_PROVIDER=%s", ProviderStripe)
		}
	case ProviderFake:
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider)
	}
	if c.SendGridAPIKey != "" && (c.ContactFromEmail == "" || c.ContactInboxEmail == "") {
		return fmt.Errorf("CONTACT_FROM_EMAIL and CONTACT_INBOX_EMAIL are required with SENDGRID_API_KEY")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go durations ("15s") or plain seconds ("15").
func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("invalid %s=%q, using %s", key, v, defaultValue)
	return defaultValue
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
