package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type config struct {
	Server      string        `mapstructure:"server"`
	Token       string        `mapstructure:"token"`
	Device      string        `mapstructure:"device"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	Concurrency int           `mapstructure:"concurrency"`
}

// loadConfig merges flags, EVENTLENS_GUEST_* env vars and an optional YAML file, in that order.
func loadConfig(path string, flags *pflag.FlagSet) (config, error) {
	v := viper.New()
	v.SetEnvPrefix("eventlens_guest")
	v.AutomaticEnv()
	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("timeout", "30s")
	v.SetDefault("retries", 3)
	v.SetDefault("concurrency", 1)

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}
	for _, name := range []string{"server", "token", "device", "timeout", "retries", "concurrency"} {
		if flag := flags.Lookup(name); flag != nil {
			if err := v.BindPFlag(name, flag); err != nil {
				return config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Server = strings.TrimRight(strings.TrimSpace(cfg.Server), "/")
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.Device = strings.TrimSpace(cfg.Device)

	if cfg.Server == "" {
		return config{}, fmt.Errorf("server url is required")
	}
	if cfg.Token == "" {
		return config{}, fmt.Errorf("share token is required (--token or EVENTLENS_GUEST_TOKEN)")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}
