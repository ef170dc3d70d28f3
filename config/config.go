package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	// legacySecret is the value older deployments shipped as a fallback.
	legacySecret    = "yellow-airlines-secret-key"
	minSecretLength = 16
)

var (
	ErrMissingSecret   = errors.New("JWT_SECRET is not set")
	ErrInsecureSecret  = errors.New("JWT_SECRET is insecure")
	ErrMissingDatabase = errors.New("DATABASE_URL is not set")
	ErrMissingAPIBase  = errors.New("API_BASE_URL is not set")
)

type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"local"`
	DataVersion string `yaml:"data_version" env:"DATA_VERSION" env-default:"1"`
	HTTPServer  `yaml:"http_server"`
	DB          `yaml:"db"`
	Auth        `yaml:"auth"`
	Mail        `yaml:"mail"`
	Proxy       `yaml:"proxy"`
	RateLimit   `yaml:"rate_limit"`
}

type HTTPServer struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":3001"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
	// TrustedProxies lists the addresses (IPs or CIDRs) allowed to set
	// X-Forwarded-For. Empty trusts nobody and uses the peer address.
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:","`
}

type DB struct {
	URL           string `yaml:"url" env:"DATABASE_URL"`
	MaxOpenConns  int    `yaml:"max_open_conns" env-default:"10"`
	RunMigrations bool   `yaml:"run_migrations" env:"RUN_MIGRATIONS" env-default:"true"`
}

type Auth struct {
	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"168h"`
	AdminPolicy  string        `yaml:"admin_policy" env:"ADMIN_POLICY" env-default:"role"`
	AdminEmails  []string      `yaml:"admin_emails" env:"ADMIN_EMAILS" env-separator:","`
	CookieSecure bool          `yaml:"cookie_secure" env:"COOKIE_SECURE"`
	ResetTTL     time.Duration `yaml:"reset_ttl" env-default:"24h"`
}

type Mail struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
	From           string `yaml:"from" env:"MAIL_FROM" env-default:"no-reply@yellowairlines.example"`
	FromName       string `yaml:"from_name" env:"MAIL_FROM_NAME" env-default:"Yellow Airlines"`
	AppURL         string `yaml:"app_url" env:"APP_URL" env-default:"http://localhost:3000"`
	SlackWebhook   string `yaml:"slack_webhook" env:"SLACK_WEBHOOK_URL"`
}

type Proxy struct {
	Address      string        `yaml:"address" env:"GATEWAY_ADDRESS" env-default:":3000"`
	APIBaseURL   string        `yaml:"api_base_url" env:"API_BASE_URL"`
	Timeout      time.Duration `yaml:"timeout" env:"PROXY_TIMEOUT" env-default:"10s"`
	MaxRetries   uint64        `yaml:"max_retries" env:"PROXY_MAX_RETRIES" env-default:"0"`
	RetryBackoff time.Duration `yaml:"retry_backoff" env:"PROXY_RETRY_BACKOFF" env-default:"200ms"`
}

type RateLimit struct {
	RequestsPerSecond int `yaml:"requests_per_second" env:"RATE_LIMIT_RPS" env-default:"5"`
	Burst             int `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// LoadConfig reads the YAML file at configPath (if any) and overlays
// environment variables.
func LoadConfig(configPath string) (*Config, error) {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the API server cannot start without.
func (c *Config) Validate() error {
	if c.DB.URL == "" {
		return ErrMissingDatabase
	}
	return c.Auth.validateSecret()
}

// ValidateGateway checks the settings the public gateway needs.
func (c *Config) ValidateGateway() error {
	if c.Proxy.APIBaseURL == "" {
		return ErrMissingAPIBase
	}
	return nil
}

func (a Auth) validateSecret() error {
	switch {
	case a.JWTSecret == "":
		return ErrMissingSecret
	case a.JWTSecret == legacySecret:
		return fmt.Errorf("%w: the legacy default must be replaced", ErrInsecureSecret)
	case len(a.JWTSecret) < minSecretLength:
		return fmt.Errorf("%w: must be at least %d bytes", ErrInsecureSecret, minSecretLength)
	}
	return nil
}
