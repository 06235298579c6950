package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the service reads from its environment.
type Config struct {
	TenantID              string
	ClientID              string
	Port                  string
	AllowedOrigins        []string
	SkipTokenVerification bool
	LogLevel              string
	LogFile               string

	// JWKSEndpoint overrides the derived signing-key URL. Mainly for
	// air-gapped setups and tests.
	JWKSEndpoint string
}

// Load reads configuration from an optional .env file with environment
// variables taking precedence. Tenant and client IDs are mandatory unless
// token verification is switched off for local development.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No .env file is fine when the environment carries everything.
	}

	cfg := &Config{
		TenantID:              v.GetString("AZURE_TENANT_ID"),
		ClientID:              v.GetString("AZURE_CLIENT_ID"),
		Port:                  v.GetString("PORT"),
		SkipTokenVerification: v.GetBool("SKIP_TOKEN_VERIFICATION"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogFile:               v.GetString("LOG_FILE"),
		JWKSEndpoint:          v.GetString("JWKS_URL"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	origins := v.GetString("ALLOWED_ORIGINS")
	if origins == "" {
		origins = "*"
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if !cfg.SkipTokenVerification {
		if cfg.TenantID == "" {
			return nil, fmt.Errorf("AZURE_TENANT_ID is required (set in .env or environment)")
		}
		if cfg.ClientID == "" {
			return nil, fmt.Errorf("AZURE_CLIENT_ID is required (set in .env or environment)")
		}
	}

	return cfg, nil
}

// JWKSURL returns the identity provider's signing-key endpoint.
func (c *Config) JWKSURL() string {
	if c.JWKSEndpoint != "" {
		return c.JWKSEndpoint
	}
	return fmt.Sprintf("https://login.microsoftonline.com/%s/discovery/v2.0/keys", c.TenantID)
}

// Issuer returns the expected v2.0 token issuer.
func (c *Config) Issuer() string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", c.TenantID)
}

// IssuerV1 returns the legacy v1.0 issuer, which some tenant tokens still carry.
func (c *Config) IssuerV1() string {
	return fmt.Sprintf("https://sts.windows.net/%s/", c.TenantID)
}
