package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// Option configures a single Load call.
type Option func(*loadConfig)

type loadConfig struct {
	prefix   string
	envFiles []string
}

// WithPrefix prepends prefix to every env tag of the parsed struct.
//
// Example:
//
//	var cfg relay.Config
//	err := config.Load(&cfg, config.WithPrefix("MULTICAST_RELAY_"))
func WithPrefix(prefix string) Option {
	return func(c *loadConfig) {
		c.prefix = prefix
	}
}

// WithEnvFiles loads the given .env files before parsing.
// Variables already present in the process environment are not overridden.
func WithEnvFiles(files ...string) Option {
	return func(c *loadConfig) {
		c.envFiles = append(c.envFiles, files...)
	}
}

// Load parses environment variables into v using its `env` field tags.
// The default .env file in the working directory is loaded once per process if it exists.
//
// Example:
//
//	var cfg multicast.Config
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T, opts ...Option) error {
	defaultEnvLoaded.Do(func() {
		// The default .env file is optional.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	cfg := &loadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.envFiles) > 0 {
		if err := godotenv.Load(cfg.envFiles...); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}

	if err := env.ParseWithOptions(v, env.Options{Prefix: cfg.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
