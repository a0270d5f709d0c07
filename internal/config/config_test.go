package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "PORT", "JWT_SECRET", "STORE_DRIVER", "MONGODB_URI", "MONGODB_DATABASE",
		"DB_PATH", "LOG_LEVEL", "CORS_ORIGINS", "ADMIN_EMAIL", "ADMIN_PASSWORD",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "expenses.db", cfg.DBPath)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, DevJWTSecret, cfg.JWTSecret)
	assert.True(t, cfg.UsingDevSecret)
}

func TestLoadMongoFromURI(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, http://localhost:3001,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "expense_manager", cfg.MongoDatabase)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.False(t, cfg.UsingDevSecret)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.CORSOrigins)
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.UsingDevSecret)
}

func TestLoadRejectsBadDriver(t *testing.T) {
	clearEnv(t)

	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load()
	assert.ErrorContains(t, err, "unknown STORE_DRIVER")

	t.Setenv("STORE_DRIVER", DriverMongo)
	_, err = Load()
	assert.ErrorContains(t, err, "MONGODB_URI")
}
