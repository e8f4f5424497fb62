package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

// isolate clears every variable Load reads and moves into an empty dir so
// no stray .env is picked up.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"POSTGRES_URL", "PORT", "PRICE_UPDATE_INTERVAL",
		"STOCKTRACKER_PORT", "STOCKTRACKER_ALLOWED_ORIGINS", "STOCKTRACKER_API_KEY",
		"STOCKTRACKER_DB_DRIVER", "STOCKTRACKER_DB_DSN",
		"STOCKTRACKER_REDIS_ADDR", "STOCKTRACKER_REDIS_PASSWORD", "STOCKTRACKER_REDIS_DB",
		"STOCKTRACKER_QUOTES_URL", "ALPHAVANTAGE_API_KEY", "STOCKTRACKER_QUOTES_API_KEY",
		"STOCKTRACKER_PRICE_UPDATE_INTERVAL", "STOCKTRACKER_API_URL", "STOCKTRACKER_API_TOKEN",
		"STOCKTRACKER_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8083", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3600, cfg.Quotes.UpdateInterval)
}

func TestLoad_TOML(t *testing.T) {
	isolate(t)
	p := writeFile(t, "stocktracker.toml", `
log_level = "debug"

[server]
port = "9000"
allowed_origins = ["*"]

[database]
driver = "sqlite3"
dsn = "file:tracker.db"

[quotes]
api_key = "demo"
update_interval = 60
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "demo", cfg.Quotes.APIKey)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns, "unset keys keep their defaults")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, logrus.DebugLevel, cfg.NewLogger().GetLevel())
	assert.Equal(t, int64(60), int64(cfg.PriceUpdateInterval().Seconds()))
}

func TestLoad_YAML(t *testing.T) {
	isolate(t)
	p := writeFile(t, "stocktracker.yaml", `
client:
  base_url: http://tracker.internal:8083
  token: abc
redis:
  addr: localhost:6379
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "http://tracker.internal:8083", cfg.Client.BaseURL)
	assert.Equal(t, "abc", cfg.Client.Token)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_UnknownFormat(t *testing.T) {
	_, err := Load(writeFile(t, "cfg.ini", "x=1"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("POSTGRES_URL", "postgres://legacy")
	t.Setenv("PORT", "7000")
	t.Setenv("STOCKTRACKER_PORT", "7001")
	t.Setenv("PRICE_UPDATE_INTERVAL", "120")
	t.Setenv("STOCKTRACKER_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("ALPHAVANTAGE_API_KEY", "av-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://legacy", cfg.Database.DSN)
	assert.Equal(t, "7001", cfg.Server.Port)
	assert.Equal(t, 120, cfg.Quotes.UpdateInterval)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "av-key", cfg.Quotes.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	// godotenv does not override variables that are already set, even empty
	os.Unsetenv("STOCKTRACKER_API_TOKEN")
	require.NoError(t, os.WriteFile(".env", []byte("STOCKTRACKER_API_TOKEN=from-dotenv\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Client.Token)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	assert.Error(t, cfg.Validate(), "dsn is required")

	cfg.Database.DSN = "postgres://x"
	assert.NoError(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Database.DSN = "x"
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())
}
