package config

import (
	"os"
	"strconv"
	"time"
)

// AutomationConfig holds the policy knobs of the application engine. The
// confidence threshold and retry counts are tuning constants per ATS family;
// the defaults here are the generic baseline.
type AutomationConfig struct {
	Headless            bool
	TimeBudget          time.Duration // whole-run budget, navigation included
	NavigationTimeout   time.Duration
	FillRetries         int
	ConfidenceThreshold float64
	UploadSettle        time.Duration // fixed settle wait for resume uploads
	ConfirmWait         time.Duration // post-click confirmation wait
}

type AppConfig struct {
	Port        string
	Environment string
	Automation  AutomationConfig
}

func GetAutomationConfig() AutomationConfig {
	return AutomationConfig{
		Headless:            getEnvBool("HEADLESS", true),
		TimeBudget:          getEnvSeconds("TIME_BUDGET_SECONDS", 30*time.Second),
		NavigationTimeout:   getEnvSeconds("NAVIGATION_TIMEOUT_SECONDS", 15*time.Second),
		FillRetries:         getEnvInt("FILL_RETRIES", 2),
		ConfidenceThreshold: getEnvFloat("CONFIDENCE_THRESHOLD", 0.5),
		UploadSettle:        getEnvMillis("UPLOAD_SETTLE_MS", 1500*time.Millisecond),
		ConfirmWait:         getEnvMillis("CONFIRM_WAIT_MS", 6000*time.Millisecond),
	}
}

func GetAppConfig() AppConfig {
	return AppConfig{
		Port:        getEnv("PORT", "8081"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Automation:  GetAutomationConfig(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return defaultValue
}
