package multicast

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/multicast/pkg/config"
	"github.com/dmitrymomot/multicast/pkg/logger"
)

// Config holds the environment-driven hub settings.
type Config struct {
	MaxBackground       int64         `env:"MULTICAST_MAX_BACKGROUND" envDefault:"0"`          // MaxBackground bounds concurrent Background calls; 0 means unbounded.
	LoopShutdownTimeout time.Duration `env:"MULTICAST_LOOP_SHUTDOWN_TIMEOUT" envDefault:"30s"` // LoopShutdownTimeout is how long the serial loop drains on stop.
	LogLevel            string        `env:"MULTICAST_LOG_LEVEL" envDefault:"info"`            // LogLevel is one of debug, info, warn, error.
	LogFormat           string        `env:"MULTICAST_LOG_FORMAT" envDefault:"json"`           // LogFormat is json or text.
	Environment         string        `env:"MULTICAST_ENV" envDefault:"production"`            // Environment selects logger defaults.
	Service             string        `env:"MULTICAST_SERVICE" envDefault:"multicast"`         // Service is attached to every log record.
}

// LoadConfig reads Config from the environment (and the default .env file).
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Logger builds the logger described by the config. LogLevel and LogFormat
// override the environment defaults.
func (c Config) Logger() (*slog.Logger, error) {
	opts := []logger.Option{logger.WithEnvironment(c.Environment, c.Service)}

	if c.LogLevel != "" {
		level, err := logger.ParseLevel(c.LogLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, logger.WithLevel(level))
	}
	switch f := logger.Format(c.LogFormat); f {
	case "":
	case logger.FormatJSON, logger.FormatText:
		opts = append(opts, logger.WithFormat(f))
	default:
		return nil, fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return logger.New(opts...), nil
}

// NewFromConfig creates a hub and a serial loop from cfg, with the loop already
// handed to the hub for MainLoop calls. The caller runs the loop, e.g. with
// errgroup: g.Go(loop.Run(ctx)). Options are applied after the config ones.
func NewFromConfig(cfg Config, opts ...Option) (*Hub, *SerialLoop, error) {
	log, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}

	loop := NewSerialLoop(
		WithLoopShutdownTimeout(cfg.LoopShutdownTimeout),
		WithLoopLogger(log.With(logger.Component("serial_loop"))),
	)

	hubOpts := []Option{
		WithLogger(log.With(logger.Component("hub"))),
		WithMaxBackground(cfg.MaxBackground),
		WithExecutor(loop),
	}
	return New(append(hubOpts, opts...)...), loop, nil
}
