package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	RPC struct {
		URL  string `yaml:"url"`
		User string `yaml:"user"`
		Pass string `yaml:"pass"`
	} `yaml:"rpc"`
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Explorer struct {
		Window              int  `yaml:"window"`
		WSEnabled           bool `yaml:"ws_enabled"`
		PollIntervalSeconds int  `yaml:"poll_interval_seconds"`
	} `yaml:"explorer"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Explorer.Window == 0 {
		cfg.Explorer.Window = 10
	}
	if cfg.Explorer.PollIntervalSeconds == 0 {
		cfg.Explorer.PollIntervalSeconds = 15
	}

	if cfg.RPC.URL == "" {
		return nil, errors.New("rpc.url is required")
	}
	if cfg.RPC.User == "" || cfg.RPC.Pass == "" {
		return nil, errors.New("rpc credentials are required")
	}
	if cfg.Server.Host == "" {
		return nil, errors.New("server.host is required")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, errors.New("server.port is out of range")
	}
	if cfg.Explorer.Window < 1 {
		return nil, errors.New("explorer.window must be positive")
	}
	return &cfg, nil
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.RPC.URL = v
	}
	if v := os.Getenv("RPC_USER"); v != "" {
		cfg.RPC.User = v
	}
	if v := os.Getenv("RPC_PASS"); v != "" {
		cfg.RPC.Pass = v
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Port = atoiOr(cfg.Server.Port, v)
	}
	if v := os.Getenv("EXPLORER_WINDOW"); v != "" {
		cfg.Explorer.Window = atoiOr(cfg.Explorer.Window, v)
	}
	if v := os.Getenv("EXPLORER_WS_ENABLED"); v != "" {
		cfg.Explorer.WSEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("EXPLORER_POLL_INTERVAL_SECONDS"); v != "" {
		cfg.Explorer.PollIntervalSeconds = atoiOr(cfg.Explorer.PollIntervalSeconds, v)
	}
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
