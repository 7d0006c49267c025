package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	GeminiAPIKey string
	GeminiModel  string

	GoogleCredentialsFile string
	CalendarID            string

	ClinicConfigFile      string
	ClinicTimezone        string
	SlotDurationMinutes   int
	BusinessHoursStart    int
	BusinessHoursEnd      int
	AvailabilityDaysAhead int

	MaxConversationTurns int
	ConversationTTL      time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		CalendarID:            getEnv("CALENDAR_ID", "primary"),

		ClinicConfigFile:      getEnv("CLINIC_CONFIG_FILE", ""),
		ClinicTimezone:        getEnv("CLINIC_TIMEZONE", "Asia/Hong_Kong"),
		SlotDurationMinutes:   getEnvAsInt("SLOT_DURATION_MINUTES", 60),
		BusinessHoursStart:    getEnvAsInt("BUSINESS_HOURS_START", 9),
		BusinessHoursEnd:      getEnvAsInt("BUSINESS_HOURS_END", 18),
		AvailabilityDaysAhead: getEnvAsInt("AVAILABILITY_DAYS_AHEAD", 7),

		MaxConversationTurns: getEnvAsInt("MAX_CONVERSATION_TURNS", 20),
		ConversationTTL:      getEnvAsDuration("CONVERSATION_TTL", 24*time.Hour),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
