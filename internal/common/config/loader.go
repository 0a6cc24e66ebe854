// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultStorageSecret is the development fallback for session signing. A
// production environment must override it.
const DefaultStorageSecret = "change_this_secret_to_another_very_secret_secret"

// Load reads configuration from the environment, with an optional .env file
// discovered from the working directory upward.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvAliases(v)
	applyDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandEnvVars(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindEnvAliases maps the flat environment names documented for the service
// onto the nested config keys.
func bindEnvAliases(v *viper.Viper) {
	aliases := map[string][]string{
		"server.api_url":           {"API_URL"},
		"server.port":              {"PORT", "SERVER_PORT"},
		"server.metrics_port":      {"METRICS_PORT"},
		"auth.oidc.issuer_url":     {"OIDC_ISSUER_URL"},
		"auth.oidc.client_id":      {"OIDC_CLIENT_ID"},
		"auth.oidc.client_secret":  {"OIDC_CLIENT_SECRET"},
		"auth.oidc.redirect_url":   {"OIDC_REDIRECT_URL"},
		"auth.oidc.login_route":    {"OIDC_APP_LOGIN_ROUTE"},
		"auth.oidc.logout_route":   {"OIDC_APP_LOGOUT_ROUTE"},
		"auth.oidc.refresh_route":  {"OIDC_APP_REFRESH_ROUTE"},
		"session.storage_secret":   {"STORAGE_SECRET"},
		"session.redis_url":        {"SCRIBE_REDIS_URL", "NICEGUI_REDIS_URL"},
		"session.max_age_seconds":  {"SESSION_MAX_AGE"},
		"database.postgres.host":   {"POSTGRES_HOST"},
		"database.postgres.port":   {"POSTGRES_PORT"},
		"database.postgres.user":   {"POSTGRES_USER"},
		"database.postgres.password": {"POSTGRES_PASSWORD"},
		"database.postgres.database": {"POSTGRES_DB"},
		"database.redis.address":   {"REDIS_ADDRESS"},
		"database.redis.password":  {"REDIS_PASSWORD"},
		"search.addresses":         {"ELASTICSEARCH_ADDRESSES"},
		"search.index":             {"ELASTICSEARCH_INDEX"},
		"inference.upstream_url":   {"INFERENCE_UPSTREAM_URL"},
		"aws.region":               {"AWS_REGION"},
		"aws.sender_email":         {"SES_SENDER_EMAIL"},
		"logging.level":            {"LOG_LEVEL"},
		"logging.format":           {"LOG_FORMAT"},
		"app.environment":          {"APP_ENV"},
	}
	for key, envs := range aliases {
		args := append([]string{key}, envs...)
		_ = v.BindEnv(args...)
	}
}

// loadEnvFile loads the first .env found walking from the working directory
// to the project root. Missing files are not an error.
func loadEnvFile() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			_ = godotenv.Load(candidate)
			return
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "scribe-api")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.port", 8888)
	v.SetDefault("server.metrics_port", 8080)
	v.SetDefault("server.api_url", "http://localhost:8888")

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "scribe")
	v.SetDefault("database.postgres.database", "scribe")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_connections", 25)
	v.SetDefault("database.postgres.max_idle", 5)

	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("auth.oidc.login_route", "/login")
	v.SetDefault("auth.oidc.logout_route", "/logout")
	v.SetDefault("auth.oidc.refresh_route", "/refresh")

	v.SetDefault("session.storage_secret", DefaultStorageSecret)
	v.SetDefault("session.max_age_seconds", 3600)

	v.SetDefault("search.index", "scribe-transcripts")

	v.SetDefault("inference.timeout_seconds", 600)

	v.SetDefault("aws.region", "eu-north-1")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("quota.block_minutes", 4000)
}

// expandEnvVars resolves ${VAR} references left in string values.
func expandEnvVars(cfg *Config) {
	expand := func(s *string) {
		if strings.Contains(*s, "${") {
			*s = os.ExpandEnv(*s)
		}
	}
	expand(&cfg.Server.APIURL)
	expand(&cfg.Database.Postgres.Host)
	expand(&cfg.Database.Postgres.Password)
	expand(&cfg.Database.Redis.Address)
	expand(&cfg.Session.RedisURL)
	expand(&cfg.Auth.OIDC.IssuerURL)
	expand(&cfg.Auth.OIDC.ClientSecret)
	expand(&cfg.Inference.UpstreamURL)
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("postgres host is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("postgres user is required")
	}
	if cfg.Session.MaxAgeSeconds <= 0 {
		return fmt.Errorf("session max age must be positive")
	}
	if cfg.Quota.BlockMinutes <= 0 {
		return fmt.Errorf("quota block size must be positive")
	}
	if cfg.App.Environment == "production" && cfg.Session.StorageSecret == DefaultStorageSecret {
		return fmt.Errorf("storage secret must be changed for production")
	}
	return nil
}
