package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration, sourced from TASKDESK_* environment
// variables. Required keys have no fallback: a missing credential is a
// startup error, never a silent default.
type Config struct {
	// DBPath is the SQLite database location.
	DBPath string `mapstructure:"db"`

	// Addr is the HTTP listen address.
	Addr string `mapstructure:"addr"`

	// AppBaseURL is the public application base URL used in email links.
	AppBaseURL string `mapstructure:"app_base_url"`

	// PublicKey is the public-tier API credential handed to clients.
	PublicKey string `mapstructure:"public_key"`

	// ServiceKey is the pre-shared service credential accepted by the
	// notification event consumer.
	ServiceKey string `mapstructure:"service_key"`

	// EmailAPIKey is the email-provider credential. May be empty: the
	// dispatcher then skips delivery instead of failing, since notification
	// persistence already succeeded upstream.
	EmailAPIKey string `mapstructure:"email_api_key"`

	// EmailFrom is the sender address. Required whenever EmailAPIKey is set.
	EmailFrom string `mapstructure:"email_from"`

	// EmailEndpoint is the provider API base URL.
	EmailEndpoint string `mapstructure:"email_endpoint"`

	// QueueMaxAttempts bounds automatic retries per queued operation.
	QueueMaxAttempts int `mapstructure:"queue_max_attempts"`

	// QueueDrainSeconds is the periodic drain interval while online.
	QueueDrainSeconds int `mapstructure:"queue_drain_seconds"`

	// CacheVersion tags cache bucket names; bumped on deploy.
	CacheVersion string `mapstructure:"cache_version"`

	// CacheBudgetBytes is the total byte ceiling across all cache buckets.
	CacheBudgetBytes int64 `mapstructure:"cache_budget_bytes"`

	// LogJSON forces JSON log output regardless of terminal detection.
	LogJSON bool `mapstructure:"log_json"`

	// APITokens provisions bearer tokens as comma-separated token:userID
	// pairs. The real identity provider is external; this covers
	// deployments that front the API directly.
	APITokens string `mapstructure:"api_tokens"`
}

// TokenTable parses APITokens into a token-to-user map.
func (c *Config) TokenTable() map[string]string {
	table := make(map[string]string)
	for _, pair := range strings.Split(c.APITokens, ",") {
		token, userID, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || userID == "" {
			continue
		}
		table[token] = userID
	}
	return table
}

// Load reads configuration from the environment, falling back to defaults
// for any unset optional values.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("taskdesk")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db", defaultDBPath())
	v.SetDefault("addr", ":8080")
	v.SetDefault("email_endpoint", "https://api.resend.com")
	v.SetDefault("queue_max_attempts", 5)
	v.SetDefault("queue_drain_seconds", 30)
	v.SetDefault("cache_version", "1")
	v.SetDefault("cache_budget_bytes", int64(50*1024*1024))
	v.SetDefault("log_json", false)

	// AutomaticEnv alone does not surface env-only keys through Unmarshal;
	// bind each key explicitly.
	for _, key := range []string{
		"db", "addr", "app_base_url", "public_key", "service_key",
		"email_api_key", "email_from", "email_endpoint",
		"queue_max_attempts", "queue_drain_seconds",
		"cache_version", "cache_budget_bytes", "log_json", "api_tokens",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env key %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Validate checks required keys and reports every missing one at once.
func (c *Config) Validate() error {
	var missing []string
	if c.AppBaseURL == "" {
		missing = append(missing, "TASKDESK_APP_BASE_URL")
	}
	if c.PublicKey == "" {
		missing = append(missing, "TASKDESK_PUBLIC_KEY")
	}
	if c.ServiceKey == "" {
		missing = append(missing, "TASKDESK_SERVICE_KEY")
	}
	if c.EmailAPIKey != "" && c.EmailFrom == "" {
		missing = append(missing, "TASKDESK_EMAIL_FROM")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.QueueMaxAttempts < 1 {
		return fmt.Errorf("queue_max_attempts must be at least 1, got %d", c.QueueMaxAttempts)
	}
	if c.CacheBudgetBytes <= 0 {
		return fmt.Errorf("cache_budget_bytes must be positive, got %d", c.CacheBudgetBytes)
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "taskdesk.db"
	}
	return filepath.Join(home, ".taskdesk", "taskdesk.db")
}
