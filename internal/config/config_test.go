package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AZURE_TENANT_ID", "tenant-123")
	t.Setenv("AZURE_CLIENT_ID", "client-456")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tenant-123", cfg.TenantID)
	assert.Equal(t, "client-456", cfg.ClientID)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.SkipTokenVerification)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AZURE_TENANT_ID", "tenant-123")
	t.Setenv("AZURE_CLIENT_ID", "client-456")
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://other.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://app.example.com", "https://other.example.com"}, cfg.AllowedOrigins)
}

func TestLoadRequiresIdentityProvider(t *testing.T) {
	t.Setenv("AZURE_TENANT_ID", "")
	t.Setenv("AZURE_CLIENT_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZURE_TENANT_ID")
}

func TestLoadSkipVerificationRelaxesRequirements(t *testing.T) {
	t.Setenv("AZURE_TENANT_ID", "")
	t.Setenv("AZURE_CLIENT_ID", "")
	t.Setenv("SKIP_TOKEN_VERIFICATION", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.SkipTokenVerification)
}

func TestProviderURLs(t *testing.T) {
	cfg := &Config{TenantID: "tenant-123"}

	assert.Equal(t, "https://login.microsoftonline.com/tenant-123/discovery/v2.0/keys", cfg.JWKSURL())
	assert.Equal(t, "https://login.microsoftonline.com/tenant-123/v2.0", cfg.Issuer())
	assert.Equal(t, "https://sts.windows.net/tenant-123/", cfg.IssuerV1())
}
