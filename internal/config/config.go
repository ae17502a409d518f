package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	SessionDuration time.Duration

	RedisAddr     string
	RedisPassword string
	WizardTTL     time.Duration

	AppBaseURL   string
	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	JWTSecret  string
	CSRFSecret string

	PaymentProvider string
	PaymentAPIURL   string
	PaymentAPIToken string
	PaymentCurrency string

	RegistrationYear int

	LogLevel string
	Debug    bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./leaguereg.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		DBMaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		SessionDuration: getDuration("SESSION_DURATION", 24*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		WizardTTL:     getDuration("WIZARD_TTL", 2*time.Hour),

		AppBaseURL:   strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		AWSRegion:    getEnv("AWS_REGION", "us-west-2"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "League Registration"),

		JWTSecret:  getEnv("JWT_SECRET", "change-me"),
		CSRFSecret: getEnv("CSRF_SECRET", "change-me"),

		PaymentProvider: getEnv("PAYMENT_PROVIDER", "ledger"),
		PaymentAPIURL:   strings.TrimRight(getEnv("PAYMENT_API_URL", ""), "/"),
		PaymentAPIToken: getEnv("PAYMENT_API_TOKEN", ""),
		PaymentCurrency: getEnv("PAYMENT_CURRENCY", "USD"),

		RegistrationYear: getInt("REGISTRATION_YEAR", time.Now().Year()),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		Debug:    getBool("DEBUG", false),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
