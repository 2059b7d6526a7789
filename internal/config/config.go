package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var supportedProviders = []string{"gemini", "openai"}

// Config is the service configuration, read from the environment with an optional config file
type Config struct {
	Provider  string
	Port      string
	LogPretty bool

	Database DatabaseConfig

	GenerationMaxAttempts int
	StageTimeout          time.Duration
	ReportTimeout         time.Duration

	PromptCacheTTL     time.Duration
	PromptCacheBackend string
	RedisAddr          string

	RabbitMQURL   string
	RabbitMQQueue string

	JWTSecret string
	TokenTTL  time.Duration

	GuardrailStrikeLimit int
	EndIntentKeywords    []string

	SessionIdleTimeout time.Duration
	SweepSchedule      string
	BackfillBatchSize  int

	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

// DSN is the postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

var defaults = map[string]any{
	"AI_PROVIDER":             "gemini",
	"PORT":                    "8080",
	"LOG_PRETTY":              false,
	"POSTGRES_HOST":           "localhost",
	"POSTGRES_USER":           "postgres",
	"POSTGRES_PASSWORD":       "postgres",
	"POSTGRES_DB":             "postgres",
	"POSTGRES_PORT":           "5432",
	"POSTGRES_SSLMODE":        "disable",
	"GENERATION_MAX_ATTEMPTS": 3,
	"STAGE_TIMEOUT":           "45s",
	"REPORT_TIMEOUT":          "60s",
	"PROMPT_CACHE_TTL":        "5m",
	"PROMPT_CACHE_BACKEND":    "memory",
	"REDIS_ADDR":              "localhost:6379",
	"RABBITMQ_URL":            "",
	"RABBITMQ_QUEUE":          "interview-events",
	"JWT_SECRET":              "",
	"TOKEN_TTL":               "4h",
	"GUARDRAIL_STRIKE_LIMIT":  3,
	"END_INTENT_KEYWORDS":     "",
	"SESSION_IDLE_TIMEOUT":    "2h",
	"SWEEP_SCHEDULE":          "*/10 * * * *",
	"BACKFILL_BATCH_SIZE":     20,
	"ALLOWED_ORIGINS":         "http://localhost:5173",
}

// LoadConfig reads .env (when present), an optional config file named by CONFIG_FILE and the
// environment, in increasing order of precedence
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	config := &Config{
		Provider:  strings.ToLower(strings.TrimSpace(v.GetString("AI_PROVIDER"))),
		Port:      v.GetString("PORT"),
		LogPretty: v.GetBool("LOG_PRETTY"),
		Database: DatabaseConfig{
			Host:     v.GetString("POSTGRES_HOST"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			Name:     v.GetString("POSTGRES_DB"),
			Port:     v.GetString("POSTGRES_PORT"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		},
		GenerationMaxAttempts: v.GetInt("GENERATION_MAX_ATTEMPTS"),
		StageTimeout:          v.GetDuration("STAGE_TIMEOUT"),
		ReportTimeout:         v.GetDuration("REPORT_TIMEOUT"),
		PromptCacheTTL:        v.GetDuration("PROMPT_CACHE_TTL"),
		PromptCacheBackend:    strings.ToLower(v.GetString("PROMPT_CACHE_BACKEND")),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RabbitMQURL:           v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:         v.GetString("RABBITMQ_QUEUE"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		TokenTTL:              v.GetDuration("TOKEN_TTL"),
		GuardrailStrikeLimit:  v.GetInt("GUARDRAIL_STRIKE_LIMIT"),
		EndIntentKeywords:     splitList(v.GetString("END_INTENT_KEYWORDS"), ";"),
		SessionIdleTimeout:    v.GetDuration("SESSION_IDLE_TIMEOUT"),
		SweepSchedule:         v.GetString("SWEEP_SCHEDULE"),
		BackfillBatchSize:     v.GetInt("BACKFILL_BATCH_SIZE"),
		AllowedOrigins:        splitList(v.GetString("ALLOWED_ORIGINS"), ","),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	var errs []error
	if !contains(supportedProviders, config.Provider) {
		errs = append(errs, fmt.Errorf("unsupported AI provider: %s. Currently supported: %s",
			config.Provider, strings.Join(supportedProviders, ", ")))
	}
	if config.GenerationMaxAttempts < 1 {
		errs = append(errs, errors.New("GENERATION_MAX_ATTEMPTS must be at least 1"))
	}
	if config.StageTimeout <= 0 || config.ReportTimeout <= 0 {
		errs = append(errs, errors.New("STAGE_TIMEOUT and REPORT_TIMEOUT must be positive durations"))
	}
	switch config.PromptCacheBackend {
	case "memory", "redis", "none":
	default:
		errs = append(errs, fmt.Errorf("unsupported PROMPT_CACHE_BACKEND: %s", config.PromptCacheBackend))
	}
	if config.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if config.GuardrailStrikeLimit < 1 {
		errs = append(errs, errors.New("GUARDRAIL_STRIKE_LIMIT must be at least 1"))
	}
	if config.SessionIdleTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must be a positive duration"))
	}
	// provider credentials are checked by the provider's own config
	return errors.Join(errs...)
}

// splitList splits a separated env value, dropping blanks. An empty value yields nil.
func splitList(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
