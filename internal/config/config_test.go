package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithEnv(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	return Load()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadWithEnv(t, nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 5, cfg.QueueMaxAttempts)
	assert.Equal(t, "1", cfg.CacheVersion)
	assert.Equal(t, int64(50*1024*1024), cfg.CacheBudgetBytes)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"TASKDESK_ADDR":               ":9999",
		"TASKDESK_QUEUE_MAX_ATTEMPTS": "3",
		"TASKDESK_SERVICE_KEY":        "svc-secret",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 3, cfg.QueueMaxAttempts)
	assert.Equal(t, "svc-secret", cfg.ServiceKey)
}

func TestValidate_ReportsAllMissingKeys(t *testing.T) {
	cfg := &Config{QueueMaxAttempts: 5, CacheBudgetBytes: 1024}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TASKDESK_APP_BASE_URL")
	assert.Contains(t, err.Error(), "TASKDESK_PUBLIC_KEY")
	assert.Contains(t, err.Error(), "TASKDESK_SERVICE_KEY")
}

func TestValidate_EmailFromRequiredWithAPIKey(t *testing.T) {
	cfg := &Config{
		AppBaseURL:       "https://app.example.com",
		PublicKey:        "pub",
		ServiceKey:       "svc",
		EmailAPIKey:      "re_123",
		QueueMaxAttempts: 5,
		CacheBudgetBytes: 1024,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TASKDESK_EMAIL_FROM")

	cfg.EmailFrom = "noreply@example.com"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingEmailKeyIsNotAnError(t *testing.T) {
	// Delivery is skipped downstream; startup proceeds.
	cfg := &Config{
		AppBaseURL:       "https://app.example.com",
		PublicKey:        "pub",
		ServiceKey:       "svc",
		QueueMaxAttempts: 5,
		CacheBudgetBytes: 1024,
	}
	assert.NoError(t, cfg.Validate())
}
