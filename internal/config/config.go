package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Session persistence
	SessionBackend string // "dynamodb", "redis", or "memory"
	SessionsTable  string
	SessionTTL     time.Duration

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// LLM provider selection
	LLMProvider    string // "bedrock" or "gemini"
	BedrockModelID string
	GeminiAPIKey   string
	GeminiModelID  string

	// Per-call deadlines for external providers
	ExtractTimeout  time.Duration
	ClassifyTimeout time.Duration
	ModerateTimeout time.Duration

	// Redis (transcripts, optional session backend)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Postgres conversation log (optional)
	DatabaseURL string

	// Hand-off targets for completed requirements (optional)
	HandoffBucket   string
	HandoffQueueURL string

	// Admin endpoints
	AdminJWTSecret string

	TranscriptMaxMessages int64

	// HTTP edge
	CORSAllowedOrigins []string
	TurnRateLimit      float64
	TurnRateBurst      int
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SessionBackend: strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", "dynamodb"))),
		SessionsTable:  getEnv("SESSIONS_TABLE", "travel_sessions"),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		LLMProvider:    strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "bedrock"))),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		ExtractTimeout:  getEnvAsDuration("EXTRACT_TIMEOUT", 8*time.Second),
		ClassifyTimeout: getEnvAsDuration("CLASSIFY_TIMEOUT", 4*time.Second),
		ModerateTimeout: getEnvAsDuration("MODERATE_TIMEOUT", 4*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		HandoffBucket:   getEnv("HANDOFF_BUCKET", ""),
		HandoffQueueURL: getEnv("HANDOFF_QUEUE_URL", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		TranscriptMaxMessages: int64(getEnvAsInt("TRANSCRIPT_MAX_MESSAGES", 250)),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),
		TurnRateLimit:      getEnvAsFloat("TURN_RATE_LIMIT", 5),
		TurnRateBurst:      getEnvAsInt("TURN_RATE_BURST", 10),
	}
}

func splitAndTrim(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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
