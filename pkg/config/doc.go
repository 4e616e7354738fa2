// Package config loads struct configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
// the default `.env` file is read once per process when present, then the
// environment is parsed into the target struct using `env` and `envDefault`
// field tags.
//
// # Usage
//
//	type LoopConfig struct {
//	    ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
//	}
//
//	var cfg LoopConfig
//	if err := config.Load(&cfg, config.WithPrefix("MULTICAST_")); err != nil {
//	    log.Fatal(err)
//	}
//
// Every call parses the environment again; callers that need a value for the
// whole process keep the struct themselves.
//
// # Errors
//
//   - `ErrParsingConfig`  – env vars could not be parsed into the struct.
//   - `ErrLoadingEnvFile` – a file passed with WithEnvFiles could not be read.
//   - `ErrNilPointer`     – nil pointer passed to Load/MustLoad.
package config
