package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "clinote_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "clinote_test", cfg.MongoDB.Database)
	require.Equal(t, "localhost", cfg.Redis.Host)
	require.Equal(t, "6379", cfg.Redis.Port)
	require.Equal(t, 3, cfg.AI.RetryAttempts)
	require.Equal(t, 2*time.Second, cfg.AI.RetryDelay)
	require.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	require.False(t, cfg.Server.IsProduction())
}

func TestLoadConfig_RequiresMongoURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestServerConfig_IsProduction(t *testing.T) {
	require.True(t, ServerConfig{Environment: "Production"}.IsProduction())
	require.False(t, ServerConfig{Environment: "staging"}.IsProduction())
}
