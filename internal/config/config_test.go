package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 720*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, "GET", cfg.RobokassaCallbackMethod)
	assert.True(t, cfg.RobokassaTestMode)
	assert.False(t, cfg.SecureCookies())
	assert.Equal(t, "production", cfg.Environment)
	assert.False(t, cfg.DebugRoutes)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	require.NoError(t, os.Unsetenv("SESSION_SECRET"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownCallbackMethod(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("ROBOKASSA_CALLBACK_METHOD", "put")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadNormalisesCallbackMethod(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("ROBOKASSA_CALLBACK_METHOD", "post")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CLIENT_ORIGIN", "https://collab.example.com")
	t.Setenv("TRUSTED_PROXIES", "10.1.0.1,10.1.0.2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "POST", cfg.RobokassaCallbackMethod)
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
	assert.True(t, cfg.SecureCookies())
	assert.Equal(t, []string{"10.1.0.1", "10.1.0.2"}, cfg.TrustedProxies)
}
