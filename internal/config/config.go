// Package config loads the settings of the milesight command from a file
// and the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog/log"

	milesight "github.com/corgan2222/milesight-gateway-api"
)

type (
	Config struct {
		Gateway GatewayConfig `yaml:"gateway" json:"gateway"`
		Log     LogConfig     `yaml:"log" json:"log"`
		Export  ExportConfig  `yaml:"export" json:"export"`
		NATS    NATSConfig    `yaml:"nats" json:"nats"`
	}

	GatewayConfig struct {
		BaseURL   string `yaml:"base_url" json:"base_url" env:"BASE_URL"`
		Port      int    `yaml:"port" json:"port" env:"PORT" env-default:"443"`
		Username  string `yaml:"username" json:"username" env:"USERNAME"`
		Password  string `yaml:"password" json:"password" env:"PASSWORD"`
		SecretKey string `yaml:"secret_key" json:"secret_key" env:"SECRET_KEY"`
		IV        string `yaml:"iv" json:"iv" env:"IV"`
	}

	LogConfig struct {
		Level string `yaml:"level" json:"level" env:"LOG_LEVEL" env-default:"info"`
	}

	ExportConfig struct {
		Dir    string `yaml:"dir" json:"dir" env:"EXPORT_DIR" env-default:"export"`
		Format string `yaml:"format" json:"format" env:"EXPORT_FORMAT" env-default:"json"`
	}

	NATSConfig struct {
		URL     string `yaml:"url" json:"url" env:"NATS_URL"`
		Subject string `yaml:"subject" json:"subject" env:"NATS_SUBJECT" env-default:"milesight"`
	}
)

// Load reads path (.env, .yaml or .json) and then the environment, which
// takes precedence. An empty path reads the environment only.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		log.Debug().Msg("reading config from env")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
		return cfg, nil
	}

	log.Debug().Str("path", path).Msg("reading config")
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every missing or malformed gateway setting.
func (c Config) Validate() error {
	var errs []error

	g := c.Gateway
	if g.BaseURL == "" {
		errs = append(errs, errors.New("BASE_URL is required"))
	}
	if g.Port < 0 || g.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", g.Port))
	}
	if g.Username == "" {
		errs = append(errs, errors.New("USERNAME is required"))
	}
	if g.Password == "" {
		errs = append(errs, errors.New("PASSWORD is required"))
	}
	if _, err := milesight.NewCipher([]byte(g.SecretKey), []byte(g.IV)); err != nil {
		errs = append(errs, fmt.Errorf("SECRET_KEY/IV: %w", err))
	}

	return errors.Join(errs...)
}

// Credentials returns the login details for [milesight.New].
func (g GatewayConfig) Credentials() milesight.Credentials {
	return milesight.Credentials{
		Username: g.Username,
		Password: g.Password,
		Key:      []byte(g.SecretKey),
		IV:       []byte(g.IV),
	}
}
