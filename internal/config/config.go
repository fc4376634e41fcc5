package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreDynamo   = "dynamo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

const envProduction = "production"

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort   string
	AppEnv    string
	LogLevel  string
	LogFormat string

	StoreDriver string
	DatabaseURL string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTSecret string
	JWTExpiry time.Duration

	OTPTTL          time.Duration
	OTPDemoFallback bool // return the code in the response when no transport can deliver it

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPFromName string
	SMTPUsername string
	SMTPPassword string
	SMTPTLS      bool

	SNSEnabled bool
	SNSRegion  string

	RedisURL       string
	RateLimitRPS   float64
	RateLimitBurst int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users    string
	OTPCodes string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	appEnv := getEnv("APP_ENV", "development")
	return &Config{
		AppPort:   getEnv("APP_PORT", "3000"),
		AppEnv:    appEnv,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDynamo)),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:    getEnv("DYNAMO_TABLE_USERS", "users"),
			OTPCodes: getEnv("DYNAMO_TABLE_OTP_CODES", "otp_codes"),
		},

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		OTPTTL:          time.Duration(getEnvInt("OTP_TTL_MINUTES", 5)) * time.Minute,
		OTPDemoFallback: getEnvBool("OTP_DEMO_FALLBACK", appEnv != envProduction),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Trading Journal"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPTLS:      getEnvBool("SMTP_TLS", true),

		SNSEnabled: getEnvBool("SNS_ENABLED", false),
		SNSRegion:  getEnv("SNS_REGION", "us-east-1"),

		RedisURL:       getEnv("REDIS_URL", ""),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == envProduction
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreDynamo, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver))
	}
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY_DAYS must be positive"))
	}
	if c.OTPTTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL_MINUTES must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
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
