// Package config loads the assistant's configuration from environment
// variables. The binaries load a .env file first (godotenv) so local setups
// mirror production env wiring.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every tunable of the session/state core.
type Config struct {
	// AppName and UserID form the default session key for the single-user
	// binaries.
	AppName string
	UserID  string

	// DataDir holds the SQLite database.
	DataDir string

	// HistoryWindow is the conversation retention window in turns.
	HistoryWindow int

	// StoreRetryAttempts and StoreRetryBackoff bound the persistent
	// store's transient-failure retries.
	StoreRetryAttempts int
	StoreRetryBackoff  time.Duration

	// Context budget for the inference prompt.
	ContextMaxChars    int
	ContextListLimit   int
	ContextRecentTurns int

	AI AIConfig
}

// AIConfig holds the inference engine settings.
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float32
	MaxTokens   *int
	Timeout     time.Duration
}

// Enabled reports whether the inference engine can be constructed.
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	home, _ := os.UserHomeDir()

	historyWindow, err := parseIntEnv("TASKPILOT_HISTORY_WINDOW", 20)
	if err != nil {
		return nil, err
	}
	retryAttempts, err := parseIntEnv("TASKPILOT_STORE_RETRY_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	retryBackoffMS, err := parseIntEnv("TASKPILOT_STORE_RETRY_BACKOFF_MS", 50)
	if err != nil {
		return nil, err
	}
	maxChars, err := parseIntEnv("TASKPILOT_CONTEXT_MAX_CHARS", 4000)
	if err != nil {
		return nil, err
	}
	listLimit, err := parseIntEnv("TASKPILOT_CONTEXT_LIST_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	recentTurns, err := parseIntEnv("TASKPILOT_CONTEXT_RECENT_TURNS", 5)
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		AppName:            getEnvOrDefault("TASKPILOT_APP_NAME", "Project Management Assistant"),
		UserID:             getEnvOrDefault("TASKPILOT_USER_ID", "project_manager_user"),
		DataDir:            getEnvOrDefault("TASKPILOT_DATA_DIR", filepath.Join(home, ".taskpilot")),
		HistoryWindow:      historyWindow,
		StoreRetryAttempts: retryAttempts,
		StoreRetryBackoff:  time.Duration(retryBackoffMS) * time.Millisecond,
		ContextMaxChars:    maxChars,
		ContextListLimit:   listLimit,
		ContextRecentTurns: recentTurns,
		AI:                 ai,
	}, nil
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloat32Env("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	timeoutSec, err := parseIntEnv("ARK_TIMEOUT_SECONDS", 60)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Timeout:     time.Duration(timeoutSec) * time.Second,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	result := float32(val)
	return &result, nil
}
