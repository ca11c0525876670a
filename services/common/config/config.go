package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	aws_pkg "github.com/yashrajoria/storefront-backend/pkg/aws"
	"go.uber.org/zap"
)

// Config holds all configuration for the storefront processes.
type Config struct {
	Port string
	Env  string

	DBDriver         string
	DatabaseURL      string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
	SQLitePath       string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CookieSecure    bool
	CookieDomain    string

	RedisURL        string
	ProductCacheTTL time.Duration

	AWSRegion          string
	AWSEndpoint        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSUseSecrets      bool
	AWSSecretName      string
	S3Bucket           string
	S3PublicBaseURL    string
	S3PathStyle        bool

	// EventBus selects the publisher: sns, sqs, kafka or none.
	EventBus     string
	SNSTopicARN  string
	SQSQueueURL  string
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	MongoURI string
	MongoDB  string

	CORSOrigins  []string
	RateLimitRPS float64
	RateBurst    int

	CloudWatchLogs      bool
	CloudWatchLogGroup  string
	CloudWatchMetrics   bool
	CloudWatchNamespace string

	LowStockThreshold   int
	StaleOrderTTL       time.Duration
	SeedAdminEmail      string
	SeedAdminPassword   string
	VoucherSweepSpec    string
	StaleOrderSweepSpec string
}

// SecretSource reads a JSON object secret.
type SecretSource interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override.
func LoadConfig() (*Config, error) {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg := FromEnv()

	if cfg.AWSUseSecrets {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background(), cfg.AWSOptions())
		if err != nil {
			return nil, fmt.Errorf("load aws config for secrets: %w", err)
		}
		if err := cfg.ApplySecrets(context.Background(), aws_pkg.NewSecretsClient(awsCfg)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the process environment without validation.
func FromEnv() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DBDriver:         getEnv("DB_DRIVER", "postgres"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		SQLitePath:       getEnv("SQLITE_PATH", "storefront.db"),

		JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CookieSecure:    getBool("COOKIE_SECURE", false),
		CookieDomain:    os.Getenv("COOKIE_DOMAIN"),

		RedisURL:        os.Getenv("REDIS_URL"),
		ProductCacheTTL: getDuration("PRODUCT_CACHE_TTL", 5*time.Minute),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:        os.Getenv("AWS_ENDPOINT"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSUseSecrets:      getBool("AWS_USE_SECRETS", false),
		AWSSecretName:      getEnv("AWS_SECRET_NAME", "storefront/backend"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:    os.Getenv("S3_PUBLIC_BASE_URL"),
		S3PathStyle:        getBool("S3_PATH_STYLE", os.Getenv("AWS_ENDPOINT") != ""),

		EventBus:     strings.ToLower(getEnv("EVENT_BUS", "none")),
		SNSTopicARN:  os.Getenv("SNS_TOPIC_ARN"),
		SQSQueueURL:  os.Getenv("SQS_QUEUE_URL"),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "storefront.events"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "storefront-notifications"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(getEnv("CURRENCY", "inr")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@storefront.local"),

		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getEnv("MONGO_DB", "storefront"),

		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		RateLimitRPS: getFloat("RATE_LIMIT_RPS", 20),
		RateBurst:    getInt("RATE_LIMIT_BURST", 40),

		CloudWatchLogs:      getBool("CLOUDWATCH_LOGS", false),
		CloudWatchLogGroup:  os.Getenv("CLOUDWATCH_LOG_GROUP"),
		CloudWatchMetrics:   getBool("CLOUDWATCH_METRICS", false),
		CloudWatchNamespace: os.Getenv("CLOUDWATCH_NAMESPACE"),

		LowStockThreshold:   getInt("LOW_STOCK_THRESHOLD", 5),
		StaleOrderTTL:       getDuration("STALE_ORDER_TTL", time.Hour),
		SeedAdminEmail:      getEnv("SEED_ADMIN_EMAIL", "admin@storefront.local"),
		SeedAdminPassword:   os.Getenv("SEED_ADMIN_PASSWORD"),
		VoucherSweepSpec:    getEnv("VOUCHER_SWEEP_CRON", "@every 15m"),
		StaleOrderSweepSpec: getEnv("STALE_ORDER_SWEEP_CRON", "@every 10m"),
	}
}

// ApplySecrets overlays database credentials and signing keys from a JSON secret.
func (c *Config) ApplySecrets(ctx context.Context, src SecretSource) error {
	m, err := src.GetSecretMap(ctx, c.AWSSecretName)
	if err != nil {
		return fmt.Errorf("load secret %s: %w", c.AWSSecretName, err)
	}
	overlay := map[string]*string{
		"DATABASE_URL":          &c.DatabaseURL,
		"POSTGRES_USER":         &c.PostgresUser,
		"POSTGRES_PASSWORD":     &c.PostgresPassword,
		"POSTGRES_DB":           &c.PostgresDB,
		"POSTGRES_HOST":         &c.PostgresHost,
		"POSTGRES_PORT":         &c.PostgresPort,
		"JWT_SECRET":            &c.JWTSecret,
		"STRIPE_SECRET_KEY":     &c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": &c.StripeWebhookSecret,
		"SMTP_PASSWORD":         &c.SMTPPassword,
	}
	applied := 0
	for key, dst := range overlay {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
			applied++
		}
	}
	zap.L().Info("secrets manager overrides applied", zap.String("secret", c.AWSSecretName), zap.Int("keys", applied))
	return nil
}

// Validate reports configuration that would prevent the service from starting.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL == "" && (c.PostgresUser == "" || c.PostgresDB == "" || c.PostgresHost == "") {
			return fmt.Errorf("database config incomplete")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (supported: postgres, sqlite)", c.DBDriver)
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.JWTSecret = "dev-only-secret"
		zap.L().Warn("JWT_SECRET not set, using development secret")
	}

	switch c.EventBus {
	case "none", "":
	case "sns":
		if c.SNSTopicARN == "" {
			return fmt.Errorf("SNS_TOPIC_ARN is required when EVENT_BUS=sns")
		}
	case "sqs":
		if c.SQSQueueURL == "" {
			return fmt.Errorf("SQS_QUEUE_URL is required when EVENT_BUS=sqs")
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENT_BUS=kafka")
		}
	default:
		return fmt.Errorf("unsupported EVENT_BUS %q", c.EventBus)
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// PostgresDSN returns DATABASE_URL or a DSN built from the POSTGRES_* values.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone)
}

func (c *Config) AWSOptions() aws_pkg.Options {
	return aws_pkg.Options{
		Region:          c.AWSRegion,
		Endpoint:        c.AWSEndpoint,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(p), "/")); p != "" {
			out = append(out, p)
		}
	}
	return out
}
