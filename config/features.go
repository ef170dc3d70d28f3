package config

import "os"

type Features struct {
	RegistrationEnabled bool
	EmailEnabled        bool
	MetricsEnabled      bool
	RateLimitEnabled    bool
}

// LoadFeatures reads feature flags from the environment. Registration,
// metrics and rate limiting are on unless explicitly disabled; email needs
// to be switched on.
func LoadFeatures() Features {
	return Features{
		RegistrationEnabled: os.Getenv("REGISTRATION_ENABLED") != "false",
		EmailEnabled:        os.Getenv("EMAIL_ENABLED") == "true",
		MetricsEnabled:      os.Getenv("METRICS_ENABLED") != "false",
		RateLimitEnabled:    os.Getenv("RATE_LIMIT_ENABLED") != "false",
	}
}
