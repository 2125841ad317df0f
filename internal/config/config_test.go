package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "15m", cfg.JWTAccessExpiry)
	assert.Equal(t, "168h", cfg.JWTRefreshExpiry)
	assert.False(t, cfg.CookieSecure)
}

func TestLoad_Development_AcceptsDefaultSecrets(t *testing.T) {
	setEnvs(t, map[string]string{"ENVIRONMENT": "development"})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, defaultSecret, cfg.JWTAccessSecret)
}

func TestLoad_Production_RejectsDefaultSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":        "production",
		"JWT_REFRESH_SECRET": strings.Repeat("r", 32),
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET must be explicitly set")
}

func TestLoad_Production_RejectsShortSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":        "production",
		"JWT_ACCESS_SECRET":  "short",
		"JWT_REFRESH_SECRET": strings.Repeat("r", 32),
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoad_Production_RejectsSharedSecret(t *testing.T) {
	secret := strings.Repeat("s", 32)
	setEnvs(t, map[string]string{
		"ENVIRONMENT":        "production",
		"JWT_ACCESS_SECRET":  secret,
		"JWT_REFRESH_SECRET": secret,
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestLoad_Production_AcceptsStrongSecrets(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":        "production",
		"JWT_ACCESS_SECRET":  strings.Repeat("a", 32),
		"JWT_REFRESH_SECRET": strings.Repeat("r", 32),
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoad_InvalidPort(t *testing.T) {
	setEnvs(t, map[string]string{"HTTP_PORT": "70000"})

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
}
