package config

import (
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
	Port        string
	Environment string

	AdminAPIToken string
	AuthJWTSecret string

	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	// RedisAddr enables the Redis-backed lease lock when set; empty falls
	// back to the in-process lock (single-node deployments).
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Dispatch tuning
	ChannelTimeout time.Duration
	StuckAfter     time.Duration

	// Email (SMTP relay)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPBCC      []string

	// SMS gateway (deployment safety: disabled by default, allow-list gated)
	SMSGatewayURL string
	SMSAPIKey     string
	SMSSender     string
	SMSEnabled    bool
	SMSAllowList  []string
	SMSRatePerMin int

	// Chat webhook
	ChatWebhookURL string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "sub010-backend"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Port:        getenv("PORT", "8080"),
		Environment: getenv("ENVIRONMENT", "development"),

		AdminAPIToken: strings.TrimSpace(getenv("ADMIN_API_TOKEN", "")),
		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),

		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "sub010"),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        getenv("DB_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DB_SSL_MODE", "disable"),
		DBMaxIdleConn:     10,
		DBMaxOpenConn:     100,
		DBConnMaxLifetime: 3600,
		DBConnMaxIdleTime: 60,

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
		RedisDB:       getenvInt("REDIS_DB", 0),

		ChannelTimeout: getenvDuration("DISPATCH_CHANNEL_TIMEOUT", 5*time.Second),
		StuckAfter:     getenvDuration("DISPATCH_STUCK_AFTER", 10*time.Minute),

		SMTPHost:     getenv("SMTP_HOST", "localhost"),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", "no-reply@sub010.shop"),
		SMTPBCC:      parseList(getenv("SMTP_BCC", "")),

		SMSGatewayURL: strings.TrimSpace(getenv("SMS_GATEWAY_URL", "")),
		SMSAPIKey:     strings.TrimSpace(getenv("SMS_API_KEY", "")),
		SMSSender:     getenv("SMS_SENDER", ""),
		SMSEnabled:    getenvBool("SMS_ENABLED", false),
		SMSAllowList:  parseList(getenv("SMS_ALLOW_LIST", "")),
		SMSRatePerMin: getenvInt("SMS_RATE_PER_MIN", 60),

		ChatWebhookURL: strings.TrimSpace(getenv("CHAT_WEBHOOK_URL", "")),
	}

	return &cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
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

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
