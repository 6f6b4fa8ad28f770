package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Email   EmailConfig   `yaml:"email"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type EmailConfig struct {
	// MandatoryCc is the compliance address copied on every real send.
	// It is enforced regardless of whatever sender settings are stored.
	MandatoryCc       string `yaml:"mandatory_cc"`
	DefaultSenderName string `yaml:"default_sender_name"`
}

type StorageConfig struct {
	StatePath   string `yaml:"state_path"`
	HistoryPath string `yaml:"history_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8088"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Email.MandatoryCc == "" {
		cfg.Email.MandatoryCc = "consultoria@atlasinovacoes.com.br"
	}
	if cfg.Email.DefaultSenderName == "" {
		cfg.Email.DefaultSenderName = "Portal Performance"
	}
	if cfg.Storage.StatePath == "" {
		cfg.Storage.StatePath = "/var/lib/portalperf/state.db"
	}
	if cfg.Storage.HistoryPath == "" {
		cfg.Storage.HistoryPath = "/var/lib/portalperf/history.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if !strings.HasPrefix(cfg.Backend.BaseURL, "http://") && !strings.HasPrefix(cfg.Backend.BaseURL, "https://") {
		return fmt.Errorf("backend.base_url must be an http(s) URL")
	}
	if !strings.Contains(cfg.Email.MandatoryCc, "@") {
		return fmt.Errorf("email.mandatory_cc must be a valid email address")
	}
	return nil
}
