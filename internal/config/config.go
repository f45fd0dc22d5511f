package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	DBPath      string `env:"CRM_DB" envDefault:"crm.db"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	UserMapping string `env:"USERMAPPING"`
	MetricsFile string `env:"CRM_METRICS_FILE"`
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// UserMapping maps a user name in the source CRM to the email address of
// the user account it becomes.
type UserMapping map[string]string

var (
	// ErrMissingUserMapping is returned when USERMAPPING is not set.
	ErrMissingUserMapping = errors.New("USERMAPPING is not set")

	// ErrMalformedUserMapping is returned when a USERMAPPING pair has no ':'.
	ErrMalformedUserMapping = errors.New("malformed USERMAPPING")
)

// ParseUserMapping parses "name:email;name:email". Names are kept exactly as
// written since they are matched against CSV values verbatim. Empty pairs,
// such as the one after a trailing ';', are ignored.
func ParseUserMapping(s string) (UserMapping, error) {
	if s == "" {
		return nil, ErrMissingUserMapping
	}

	m := make(UserMapping)
	for i, pair := range strings.Split(s, ";") {
		if pair == "" {
			continue
		}
		name, email, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("%w: pair %d %q has no ':'", ErrMalformedUserMapping, i+1, pair)
		}
		m[name] = email
	}
	return m, nil
}
