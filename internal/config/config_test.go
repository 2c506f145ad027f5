package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"TASKPILOT_APP_NAME", "TASKPILOT_USER_ID", "TASKPILOT_DATA_DIR",
		"TASKPILOT_HISTORY_WINDOW", "TASKPILOT_STORE_RETRY_ATTEMPTS",
		"TASKPILOT_STORE_RETRY_BACKOFF_MS", "TASKPILOT_CONTEXT_MAX_CHARS",
		"TASKPILOT_CONTEXT_LIST_LIMIT", "TASKPILOT_CONTEXT_RECENT_TURNS",
		"ARK_API_KEY", "ARK_MODEL", "ARK_BASE_URL",
		"ARK_TEMPERATURE", "ARK_MAX_TOKENS", "ARK_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Project Management Assistant", cfg.AppName)
	assert.Equal(t, "project_manager_user", cfg.UserID)
	assert.Contains(t, cfg.DataDir, ".taskpilot")
	assert.Equal(t, 20, cfg.HistoryWindow)
	assert.Equal(t, 3, cfg.StoreRetryAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.StoreRetryBackoff)
	assert.Equal(t, 4000, cfg.ContextMaxChars)
	assert.Equal(t, 10, cfg.ContextListLimit)
	assert.Equal(t, 5, cfg.ContextRecentTurns)

	assert.False(t, cfg.AI.Enabled())
	assert.Equal(t, "https://ark.cn-beijing.volces.com/api/v3", cfg.AI.BaseURL)
	assert.Nil(t, cfg.AI.Temperature)
	assert.Nil(t, cfg.AI.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TASKPILOT_APP_NAME", "custom-app")
	t.Setenv("TASKPILOT_USER_ID", "alice")
	t.Setenv("TASKPILOT_DATA_DIR", "/tmp/taskpilot-test")
	t.Setenv("TASKPILOT_HISTORY_WINDOW", "40")
	t.Setenv("TASKPILOT_STORE_RETRY_BACKOFF_MS", "200")
	t.Setenv("ARK_API_KEY", "sk-test")
	t.Setenv("ARK_MODEL", "some-model")
	t.Setenv("ARK_TEMPERATURE", "0.7")
	t.Setenv("ARK_MAX_TOKENS", "2048")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "custom-app", cfg.AppName)
	assert.Equal(t, "alice", cfg.UserID)
	assert.Equal(t, "/tmp/taskpilot-test", cfg.DataDir)
	assert.Equal(t, 40, cfg.HistoryWindow)
	assert.Equal(t, 200*time.Millisecond, cfg.StoreRetryBackoff)

	assert.True(t, cfg.AI.Enabled())
	require.NotNil(t, cfg.AI.Temperature)
	assert.InDelta(t, 0.7, float64(*cfg.AI.Temperature), 0.0001)
	require.NotNil(t, cfg.AI.MaxTokens)
	assert.Equal(t, 2048, *cfg.AI.MaxTokens)
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("TASKPILOT_HISTORY_WINDOW", "twenty")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsMalformedAINumbers(t *testing.T) {
	t.Setenv("TASKPILOT_HISTORY_WINDOW", "")
	t.Setenv("ARK_TEMPERATURE", "hot")
	_, err := Load()
	assert.Error(t, err)
}
