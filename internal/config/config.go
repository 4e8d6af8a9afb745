package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"excelytics/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `validate:"required"`
	Auth     AuthConfig     `validate:"required"`
	Upload   UploadConfig   `validate:"required"`
	AI       AIConfig       `validate:"required"`
	Insight  InsightConfig  `validate:"required"`
	Redis    RedisConfig
	Server   ServerConfig `validate:"required"`
	Log      LogConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string `validate:"required,oneof=postgres sqlite3"`
	URL    string `validate:"required"`
}

// AuthConfig holds token and bootstrap admin settings
type AuthConfig struct {
	JWTSecret     string        `validate:"required,min=32"`
	TokenTTL      time.Duration `validate:"gt=0"`
	AdminEmail    string        `validate:"omitempty,email"`
	AdminPassword string        `validate:"required_with=AdminEmail"`
}

// UploadConfig holds upload gate settings
type UploadConfig struct {
	MaxBytes int64 `validate:"gt=0"`
	TmpDir   string
}

// AIConfig holds AI/LLM related settings. An empty key leaves insights
// unavailable without failing startup.
type AIConfig struct {
	OpenAIKey   string
	BaseURL     string        `validate:"required,url"`
	OpenAIModel string        `validate:"required"`
	Timeout     time.Duration `validate:"gt=0"`
	MaxTokens   int           `validate:"gt=0"`
	Temperature float64       `validate:"gte=0,lte=2"`
	PromptsDir  string
}

// InsightConfig holds insight generation limits
type InsightConfig struct {
	SampleRows     int           `validate:"gt=0"`
	MaxConcurrency int           `validate:"gt=0"`
	CacheTTL       time.Duration `validate:"gte=0"`
}

// RedisConfig holds the optional insight cache backend
type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string `validate:"required,numeric"`
	GinMode        string `validate:"omitempty,oneof=debug release test"`
	AllowedOrigins []string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `validate:"omitempty,oneof=trace debug info warn error fatal"`
	Format string `validate:"omitempty,oneof=json console"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: *loadDatabaseConfig(),
		Auth:     *loadAuthConfig(),
		Upload:   *loadUploadConfig(),
		AI:       *loadAIConfig(),
		Insight:  *loadInsightConfig(),
		Redis:    *loadRedisConfig(),
		Server:   *loadServerConfig(),
		Log:      *loadLogConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
		URL:    os.Getenv("DATABASE_URL"),
	}
}

func loadAuthConfig() *AuthConfig {
	return &AuthConfig{
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      getEnvDurationOrDefault("JWT_TTL", 24*time.Hour),
		AdminEmail:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

func loadUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxBytes: int64(getEnvIntOrDefault("UPLOAD_MAX_BYTES", 10<<20)),
		TmpDir:   getEnvOrDefault("UPLOAD_TMP_DIR", os.TempDir()),
	}
}

func loadAIConfig() *AIConfig {
	return &AIConfig{
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		BaseURL:     getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel: getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		Timeout:     getEnvDurationOrDefault("LLM_TIMEOUT", 20*time.Second),
		MaxTokens:   getEnvIntOrDefault("LLM_MAX_TOKENS", 800),
		Temperature: getEnvFloatOrDefault("LLM_TEMPERATURE", 0.3),
		PromptsDir:  os.Getenv("PROMPTS_DIR"),
	}
}

func loadInsightConfig() *InsightConfig {
	return &InsightConfig{
		SampleRows:     getEnvIntOrDefault("INSIGHT_SAMPLE_ROWS", 50),
		MaxConcurrency: getEnvIntOrDefault("INSIGHT_MAX_CONCURRENCY", 4),
		CacheTTL:       getEnvDurationOrDefault("INSIGHT_CACHE_TTL", time.Hour),
	}
}

func loadRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvIntOrDefault("REDIS_DB", 0),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		AllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}
}

func loadLogConfig() *LogConfig {
	return &LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
	}
}

var validate = validator.New()

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if config.Auth.JWTSecret == "" {
		return errors.ConfigInvalid("JWT_SECRET is required")
	}
	if err := validate.Struct(config); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return errors.ConfigInvalid("invalid " + fe.Namespace() + ": failed " + fe.Tag() + " check")
		}
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
