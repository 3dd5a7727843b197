package config

import (
	"os"
	"strconv"
	"time"
)

// Config is built once at process start and passed into each component
// constructor. There is no ambient global settings object.
type Config struct {
	Environment string `json:"environment"`
	ServerPort  int    `json:"server_port"`

	// Meta / Instagram platform
	MetaAppID              string `json:"meta_app_id"`
	MetaAppSecret          string `json:"-"`
	MetaWebhookVerifyToken string `json:"-"`
	OAuthRedirectURI       string `json:"oauth_redirect_uri"`

	// OpenAI
	OpenAIAPIKey      string  `json:"-"`
	OpenAIModel       string  `json:"openai_model"`
	OpenAIMaxTokens   int     `json:"openai_max_tokens"`
	OpenAITemperature float64 `json:"openai_temperature"`
	DefaultAIResponse string  `json:"default_ai_response"`

	// Session tokens
	JWTSecretKey       string `json:"-"`
	JWTExpirationHours int    `json:"jwt_expiration_hours"`

	// Cost control
	GlobalRateLimit int `json:"global_rate_limit"`

	// Background processing
	WebhookQueueSize   int `json:"webhook_queue_size"`
	WebhookWorkerCount int `json:"webhook_worker_count"`
}

const (
	// ExternalCallTimeout bounds every OpenAI and Graph API call.
	ExternalCallTimeout = 10 * time.Second
)

// IsProduction reports whether webhook signature verification is enforced.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from the environment. Missing critical values are
// reported by Validate rather than failing here, so a dev instance can boot
// without a full set of platform credentials.
func Load() (*Config, error) {
	return &Config{
		Environment: getEnvWithDefault("APP_ENV", "development"),
		ServerPort:  getEnvIntWithDefault("SERVER_PORT", 8000),

		MetaAppID:              os.Getenv("META_APP_ID"),
		MetaAppSecret:          os.Getenv("META_APP_SECRET"),
		MetaWebhookVerifyToken: getEnvWithDefault("META_WEBHOOK_VERIFY_TOKEN", "igshop_v2_webhook"),
		OAuthRedirectURI:       getEnvWithDefault("OAUTH_REDIRECT_URI", "https://localhost:3000/auth/callback"),

		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnvWithDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIMaxTokens:   getEnvIntWithDefault("OPENAI_MAX_TOKENS", 1500),
		OpenAITemperature: getEnvFloatWithDefault("OPENAI_TEMPERATURE", 0.7),
		DefaultAIResponse: getEnvWithDefault("DEFAULT_AI_RESPONSE",
			"I'm sorry, I'm currently unavailable. Please try again later."),

		JWTSecretKey:       getEnvWithDefault("JWT_SECRET_KEY", "ig-shop-agent-v2-session"),
		JWTExpirationHours: getEnvIntWithDefault("JWT_EXPIRATION_HOURS", 24*7),

		GlobalRateLimit: getEnvIntWithDefault("GLOBAL_RATE_LIMIT", 100),

		WebhookQueueSize:   getEnvIntWithDefault("WEBHOOK_QUEUE_SIZE", 256),
		WebhookWorkerCount: getEnvIntWithDefault("WEBHOOK_WORKER_COUNT", 4),
	}, nil
}

// Validate returns the names of unset critical settings. The caller decides
// whether to warn or abort; by default the service warns and keeps running.
func (c *Config) Validate() []string {
	var missing []string
	critical := []struct {
		name  string
		value string
	}{
		{"OPENAI_API_KEY", c.OpenAIAPIKey},
		{"META_APP_ID", c.MetaAppID},
		{"META_APP_SECRET", c.MetaAppSecret},
	}
	for _, s := range critical {
		if s.value == "" {
			missing = append(missing, s.name)
		}
	}
	return missing
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
