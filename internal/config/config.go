package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel            string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	TCPPort             string        `yaml:"tcp-port" env:"TCP_PORT" env-default:"5555"`
	WebSocketPort       string        `yaml:"websocket-port" env:"WEBSOCKET_PORT" env-default:""`
	HTTPPort            string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	ReadTimeout         time.Duration `yaml:"read-timeout" env:"READ_TIMEOUT" env-default:"0s"`
	AnnouncePlayerCount bool          `yaml:"announce-player-count" env:"ANNOUNCE_PLAYER_COUNT" env-default:"false"`
	Redis               Redis         `yaml:"redis"`
}

type Redis struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	MatchTTL time.Duration `yaml:"match-ttl" env:"REDIS_MATCH_TTL" env-default:"1h"`
}

// MustLoad - load all configurations in config.yml file, falling back to the
// environment when the file does not exist.
func MustLoad(path string) *Config {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		err = cleanenv.ReadConfig(path, config)
	case errors.Is(err, fs.ErrNotExist):
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
