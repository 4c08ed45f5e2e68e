package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetAutomationConfig_Defaults(t *testing.T) {
	cfg := GetAutomationConfig()

	assert.True(t, cfg.Headless)
	assert.Equal(t, 30*time.Second, cfg.TimeBudget)
	assert.Equal(t, 15*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, 2, cfg.FillRetries)
	assert.Equal(t, 0.5, cfg.ConfidenceThreshold)
	assert.Equal(t, 1500*time.Millisecond, cfg.UploadSettle)
}

func TestGetAutomationConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HEADLESS", "false")
	t.Setenv("TIME_BUDGET_SECONDS", "45")
	t.Setenv("FILL_RETRIES", "3")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.7")
	t.Setenv("UPLOAD_SETTLE_MS", "500")

	cfg := GetAutomationConfig()

	assert.False(t, cfg.Headless)
	assert.Equal(t, 45*time.Second, cfg.TimeBudget)
	assert.Equal(t, 3, cfg.FillRetries)
	assert.Equal(t, 0.7, cfg.ConfidenceThreshold)
	assert.Equal(t, 500*time.Millisecond, cfg.UploadSettle)
}

func TestGetAutomationConfig_IgnoresGarbage(t *testing.T) {
	t.Setenv("TIME_BUDGET_SECONDS", "not-a-number")
	t.Setenv("CONFIDENCE_THRESHOLD", "high")

	cfg := GetAutomationConfig()

	assert.Equal(t, 30*time.Second, cfg.TimeBudget)
	assert.Equal(t, 0.5, cfg.ConfidenceThreshold)
}

func TestGetAppConfig(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg := GetAppConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
}
