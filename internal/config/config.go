package config

import (
	"fmt"
	"os"
	"strconv"

	"kontocheck/internal/logger"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	// LLM endpoint (any OpenAI-compatible server, e.g. Ollama with /v1)
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float32
	LLMMaxRetries  int
	LLMMaxTextLen  int

	// Result persistence
	ResultsDB string // optional SQLite path, empty disables the store

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from environment variables, applying defaults
// that match a local Ollama setup.
func Load() (*Config, error) {
	config := &Config{
		LLMBaseURL:     getEnv("LLM_BASE_URL", "http://localhost:11434/v1"),
		LLMAPIKey:      getEnv("LLM_API_KEY", "ollama"),
		LLMModel:       getEnv("LLM_MODEL", "qwen3:8b"),
		LLMTemperature: getFloatEnv("LLM_TEMPERATURE", 0.1),
		LLMMaxRetries:  getIntEnv("LLM_MAX_RETRIES", 3),
		LLMMaxTextLen:  getIntEnv("LLM_MAX_TEXT_LEN", 20000),
		ResultsDB:      getEnv("RESULTS_DB", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:  getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:      getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.LLMBaseURL == "" {
		return fmt.Errorf("LLM_BASE_URL must not be empty")
	}
	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL must not be empty")
	}
	if c.LLMMaxRetries <= 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must be positive")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return defaultValue
}
