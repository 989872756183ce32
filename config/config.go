package config

import (
	"github.com/caarlos0/env/v11"
	extErrors "github.com/pkg/errors"
)

// EnvProduction is the ENV value selecting production behavior
const EnvProduction = "production"

// DefaultCheckoutBase is the fixed production host for checkout redirect
// targets. Generated links fall back to it so they are never accidentally
// pointed at a non-production host.
const DefaultCheckoutBase = "https://app.scribeworks.io"

// Config carries the environment-provided settings for the API process.
// Secrets are opaque; missing backend credentials degrade the backend handle
// instead of failing here (see the backend package).
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`

	ListenAddr  string   `env:"LISTEN_ADDR" envDefault:":8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	StripeSecretKey          string `env:"STRIPE_SECRET_KEY"`
	StripePricePremium       string `env:"STRIPE_PRICE_PREMIUM"`
	StripePricePremiumYearly string `env:"STRIPE_PRICE_PREMIUM_YEARLY"`

	GoogleProjectID       string `env:"GOOGLE_PROJECT_ID"`
	GoogleCredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	CheckoutBaseURL string `env:"CHECKOUT_BASE_URL"`
}

// Load parses the Config from the process environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, extErrors.Wrap(err, "Cannot parse configurations from environment")
	}
	return cfg, nil
}

// Production reports whether the process runs in production mode
func (c Config) Production() bool {
	return c.Environment == EnvProduction
}

// RedirectBase returns the base URL for checkout redirect targets. The
// override is honored only outside production; production always redirects
// to the fixed domain.
func (c Config) RedirectBase() string {
	if !c.Production() && len(c.CheckoutBaseURL) > 0 {
		return c.CheckoutBaseURL
	}
	return DefaultCheckoutBase
}
