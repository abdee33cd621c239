package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	aws_pkg "webhook-service/pkg/aws"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EventBusNone  = "none"
	EventBusSNS   = "sns"
	EventBusKafka = "kafka"

	secretWebhookToken  = "webhook/WEBHOOK_TOKEN"
	secretDBCredentials = "webhook/DB_CREDENTIALS"
)

// Config holds all configuration for the webhook service.
type Config struct {
	Port   string
	AppEnv string

	DBDriver         string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
	SQLitePath       string

	WebhookToken         string
	SettlementConfirmURL string
	SettlementCancelURL  string
	SettlementTimeout    time.Duration
	RequestTimeout       time.Duration

	SeedFile  string
	SeedReset bool

	EventBus           string
	PaymentSNSTopicARN string
	KafkaBrokers       []string
	KafkaTopic         string

	RateLimitPerMinute int
	RateLimitBurst     int

	CloudWatchEnabled bool
	AWSUseSecrets     bool
}

// LoadConfig reads configuration from the environment (and .env when
// present), applies the Secrets Manager override when AWS_USE_SECRETS=true and
// validates the result.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if cfg.AWSUseSecrets {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplySecrets(ctx, aws_pkg.NewSecretsClient(awsCfg)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the environment without validating required values.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		AppEnv:               getEnv("APP_ENV", "development"),
		DBDriver:             getEnv("DB_DRIVER", DriverPostgres),
		PostgresUser:         os.Getenv("POSTGRES_USER"),
		PostgresPassword:     os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:           os.Getenv("POSTGRES_DB"),
		PostgresHost:         getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:         getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:      getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:     getEnv("POSTGRES_TIMEZONE", "UTC"),
		SQLitePath:           getEnv("SQLITE_PATH", "payments.db"),
		WebhookToken:         os.Getenv("WEBHOOK_TOKEN"),
		SettlementConfirmURL: os.Getenv("SETTLEMENT_CONFIRM_URL"),
		SettlementCancelURL:  os.Getenv("SETTLEMENT_CANCEL_URL"),
		SeedFile:             os.Getenv("SEED_FILE"),
		EventBus:             strings.ToLower(getEnv("EVENT_BUS", EventBusNone)),
		PaymentSNSTopicARN:   os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		KafkaBrokers:         splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "payment-transitions"),
		CloudWatchEnabled:    os.Getenv("CLOUDWATCH_ENABLED") == "true",
		AWSUseSecrets:        os.Getenv("AWS_USE_SECRETS") == "true",
	}

	var err error
	if cfg.SettlementTimeout, err = getDuration("SETTLEMENT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SeedReset, err = getBool("SEED_RESET", false); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 600); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 100); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplySecrets overrides the webhook token and database credentials with
// values from Secrets Manager. Missing secrets leave the env values in place.
func (c *Config) ApplySecrets(ctx context.Context, sm aws_pkg.SecretGetter) error {
	if v, err := sm.GetSecret(ctx, secretWebhookToken); err == nil && v != "" {
		c.WebhookToken = v
	}

	dbjson, err := sm.GetSecret(ctx, secretDBCredentials)
	if err != nil || dbjson == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(dbjson), &m); err != nil {
		return fmt.Errorf("secret %s: %w", secretDBCredentials, err)
	}
	override := func(dst *string, key string) {
		if v := m[key]; v != "" {
			*dst = v
		}
	}
	override(&c.PostgresUser, "POSTGRES_USER")
	override(&c.PostgresPassword, "POSTGRES_PASSWORD")
	override(&c.PostgresDB, "POSTGRES_DB")
	override(&c.PostgresHost, "POSTGRES_HOST")
	override(&c.PostgresPort, "POSTGRES_PORT")
	return nil
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.WebhookToken == "" {
		missing = append(missing, "WEBHOOK_TOKEN")
	}
	if c.SettlementConfirmURL == "" {
		missing = append(missing, "SETTLEMENT_CONFIRM_URL")
	}
	if c.SettlementCancelURL == "" {
		missing = append(missing, "SETTLEMENT_CANCEL_URL")
	}

	switch c.DBDriver {
	case DriverPostgres:
		if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" {
			missing = append(missing, "POSTGRES_USER/POSTGRES_PASSWORD/POSTGRES_DB")
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.EventBus {
	case EventBusNone, EventBusKafka:
	case EventBusSNS:
		if c.PaymentSNSTopicARN == "" {
			missing = append(missing, "PAYMENT_SNS_TOPIC_ARN")
		}
	default:
		return fmt.Errorf("unsupported EVENT_BUS %q", c.EventBus)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// PostgresDSN renders the libpq-style DSN for the gorm postgres driver.
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

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
