// internal/common/config/loader_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.Port)
	assert.Equal(t, 8080, cfg.Server.MetricsPort)
	assert.Equal(t, "/login", cfg.Auth.OIDC.LoginRoute)
	assert.Equal(t, "/logout", cfg.Auth.OIDC.LogoutRoute)
	assert.Equal(t, "/refresh", cfg.Auth.OIDC.RefreshRoute)
	assert.Equal(t, DefaultStorageSecret, cfg.Session.StorageSecret)
	assert.Equal(t, 3600, cfg.Session.MaxAgeSeconds)
	assert.Equal(t, 4000, cfg.Quota.BlockMinutes)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "scribe-transcripts", cfg.Search.Index)
}

func TestLoadEnvAliases(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("OIDC_APP_LOGIN_ROUTE", "/signin")
	t.Setenv("STORAGE_SECRET", "another-secret-entirely")
	t.Setenv("NICEGUI_REDIS_URL", "redis://sessions:6379/1")
	t.Setenv("POSTGRES_HOST", "db.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/signin", cfg.Auth.OIDC.LoginRoute)
	assert.Equal(t, "another-secret-entirely", cfg.Session.StorageSecret)
	assert.Equal(t, "redis://sessions:6379/1", cfg.Session.RedisURL)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("DB_SECRET", "hunter2")
	t.Setenv("POSTGRES_PASSWORD", "${DB_SECRET}")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Database.Postgres.Password)
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage secret")
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("PORT", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "localhost", Port: 5432, User: "scribe",
		Password: "pw", Database: "scribe", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=scribe password=pw dbname=scribe sslmode=disable",
		cfg.GetDSN())
}
