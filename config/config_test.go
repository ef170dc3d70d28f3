package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/yellowair")
	t.Setenv("JWT_SECRET", "a-long-enough-secret-value")
	t.Setenv("ADMIN_EMAILS", "ops@x.com,root@x.com")
	t.Setenv("PROXY_TIMEOUT", "3s")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.4")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":3001", cfg.HTTPServer.Address)
	assert.Equal(t, "postgres://localhost/yellowair", cfg.DB.URL)
	assert.Equal(t, []string{"ops@x.com", "root@x.com"}, cfg.Auth.AdminEmails)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 3*time.Second, cfg.Proxy.Timeout)
	assert.Equal(t, "role", cfg.Auth.AdminPolicy)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.4"}, cfg.HTTPServer.TrustedProxies)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `env: prod
http_server:
  address: ":9000"
db:
  url: "postgres://db/yellowair"
auth:
  jwt_secret: "file-secret-0123456789"
  admin_policy: legacy
proxy:
  api_base_url: "http://api:3001"
  max_retries: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, ":9000", cfg.HTTPServer.Address)
	assert.Empty(t, cfg.HTTPServer.TrustedProxies)
	assert.Equal(t, "legacy", cfg.Auth.AdminPolicy)
	assert.Equal(t, uint64(2), cfg.Proxy.MaxRetries)
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.ValidateGateway())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate_Secret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr error
	}{
		{"missing", "", ErrMissingSecret},
		{"legacy default", "yellow-airlines-secret-key", ErrInsecureSecret},
		{"too short", "short", ErrInsecureSecret},
		{"ok", "a-long-enough-secret-value", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{DB: DB{URL: "postgres://x"}, Auth: Auth{JWTSecret: tc.secret}}
			err := cfg.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidate_Database(t *testing.T) {
	cfg := &Config{Auth: Auth{JWTSecret: "a-long-enough-secret-value"}}
	assert.ErrorIs(t, cfg.Validate(), ErrMissingDatabase)
}

func TestValidateGateway(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.ValidateGateway(), ErrMissingAPIBase)
}

func TestLoadFeatures(t *testing.T) {
	t.Setenv("REGISTRATION_ENABLED", "false")
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("METRICS_ENABLED", "")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	f := LoadFeatures()
	assert.False(t, f.RegistrationEnabled)
	assert.True(t, f.EmailEnabled)
	assert.True(t, f.MetricsEnabled)
	assert.False(t, f.RateLimitEnabled)
}
