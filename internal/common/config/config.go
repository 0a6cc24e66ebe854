// internal/common/config/config.go
package config

import "fmt"

// Config is the root configuration tree loaded from environment and .env files.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Session   SessionConfig   `mapstructure:"session"`
	Search    SearchConfig    `mapstructure:"search"`
	Inference InferenceConfig `mapstructure:"inference"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Quota     QuotaConfig     `mapstructure:"quota"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	APIURL      string `mapstructure:"api_url"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
}

// GetDSN builds the lib/pq connection string.
func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig carries the OIDC relying-party settings. The route fields are the
// application paths the browser is sent to for login, logout and token refresh.
type AuthConfig struct {
	OIDC OIDCConfig `mapstructure:"oidc"`
}

type OIDCConfig struct {
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
	LoginRoute   string `mapstructure:"login_route"`
	LogoutRoute  string `mapstructure:"logout_route"`
	RefreshRoute string `mapstructure:"refresh_route"`
}

// SessionConfig controls the browser session store. An empty RedisURL selects
// the in-process store.
type SessionConfig struct {
	StorageSecret string `mapstructure:"storage_secret"`
	RedisURL      string `mapstructure:"redis_url"`
	MaxAgeSeconds int    `mapstructure:"max_age_seconds"`
}

type SearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type InferenceConfig struct {
	UpstreamURL    string `mapstructure:"upstream_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type AWSConfig struct {
	Region      string `mapstructure:"region"`
	SenderEmail string `mapstructure:"sender_email"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// QuotaConfig holds billing constants. BlockMinutes is the size of one
// purchased block of transcription time.
type QuotaConfig struct {
	BlockMinutes int `mapstructure:"block_minutes"`
}
