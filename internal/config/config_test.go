package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScoringWeights_DefaultsWhenNoFile(t *testing.T) {
	weights, err := LoadScoringWeights("")
	require.NoError(t, err)
	assert.Equal(t, DefaultScoringWeights(), weights)
}

func TestLoadScoringWeights_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chat_count: 0.5\nbrand_match: 1\n"), 0o600))

	weights, err := LoadScoringWeights(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, weights.ChatCount)
	assert.Equal(t, 1.0, weights.BrandMatch)
	assert.Equal(t, 0.05, weights.Views, "unset keys keep their defaults")
	assert.Equal(t, 2.0, weights.CategoryMatch)
}

func TestLoadScoringWeights_RejectsNegative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte("views: -1\n"), 0o600))

	_, err := LoadScoringWeights(path)
	assert.Error(t, err)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DISCOVERY_PAGE_SIZE", "10")
	t.Setenv("DISCOVERY_STORE_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RANKING_WEIGHTS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Discovery.PageSize)
	assert.Equal(t, 2*time.Second, cfg.Discovery.StoreTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment: "development",
			Database:    DatabaseConfig{Driver: "postgres"},
			JWT:         JWTConfig{SecretKey: defaultJWTSecret},
			Discovery: DiscoveryConfig{
				PageSize:        20,
				MaxPageSize:     100,
				LookupBatchSize: 50,
				StoreTimeout:    time.Second,
				Weights:         DefaultScoringWeights(),
			},
		}
	}

	assert.NoError(t, base().Validate())

	prod := base()
	prod.Environment = "production"
	assert.Error(t, prod.Validate(), "default JWT secret is rejected in production")

	driver := base()
	driver.Database.Driver = "mysql"
	assert.Error(t, driver.Validate())

	pages := base()
	pages.Discovery.MaxPageSize = 5
	assert.Error(t, pages.Validate())
}

func TestDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", Database: "m", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=m sslmode=disable", pg.DSN())

	lite := DatabaseConfig{Driver: "sqlite", Path: "file::memory:"}
	assert.Equal(t, "file::memory:", lite.DSN())
}
