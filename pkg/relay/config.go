package relay

import (
	"time"

	"github.com/dmitrymomot/multicast/pkg/config"
)

// EnvPrefix is prepended to every Config env tag.
const EnvPrefix = "MULTICAST_RELAY_"

type Config struct {
	RedisURL       string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // RedisURL is the URL of the server, e.g. "redis://:password@localhost:6379/0".
	Channel        string        `env:"CHANNEL" envDefault:"multicast"`                           // Channel is the pub/sub channel shared by every node.
	RetryAttempts  int           `env:"RETRY_ATTEMPTS" envDefault:"3"`                            // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"RETRY_INTERVAL" envDefault:"5s"`                           // RetryInterval is the delay between connection attempts.
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"30s"`                         // ConnectTimeout bounds the whole connection phase.
	PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"5s"`                          // PublishTimeout bounds a single publish.
}

// LoadConfig reads Config from MULTICAST_RELAY_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg, config.WithPrefix(EnvPrefix)); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
