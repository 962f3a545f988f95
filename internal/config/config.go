package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Server struct {
	Address        string        `yaml:"address" env:"TEAMTRACK_ADDRESS" env-default:":8080"`
	DBPath         string        `yaml:"db_path" env:"TEAMTRACK_DB_PATH"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"TEAMTRACK_REQUEST_TIMEOUT" env-default:"5s"`
}

type Client struct {
	BaseURL string        `yaml:"base_url" env:"TEAMTRACK_URL" env-default:"http://localhost:8080"`
	UserID  int64         `yaml:"user_id" env:"TEAMTRACK_USER_ID"`
	Timeout time.Duration `yaml:"timeout" env:"TEAMTRACK_CLIENT_TIMEOUT" env-default:"10s"`
}

type Config struct {
	LogLevel string `yaml:"log_level" env:"TEAMTRACK_LOG_LEVEL" env-default:"INFO"`
	Server   Server `yaml:"server"`
	Client   Client `yaml:"client"`
}

// Load reads the YAML file at path, with environment variables taking
// precedence. A missing file falls back to the environment alone.
func Load(path string) (Config, error) {
	var cfg Config

	// no file: environment only
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("cannot read env: %w", err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				return cfg, fmt.Errorf("cannot read env: %w", err)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("cannot read config %q: %w", path, err)
	}

	return cfg, nil
}
