// Package config loads the optional client configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Session   SessionConfig   `yaml:"session"`
}

type ServerConfig struct {
	URL string `yaml:"url"`
}

type ReconnectConfig struct {
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	RejoinWait time.Duration `yaml:"rejoin_wait"`
}

// UnmarshalYAML accepts Go duration strings ("500ms", "30s"). Fields
// missing from the file keep their previous values.
func (r *ReconnectConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BaseDelay  string `yaml:"base_delay"`
		MaxDelay   string `yaml:"max_delay"`
		RejoinWait string `yaml:"rejoin_wait"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	set := func(dst *time.Duration, s, field string) error {
		if s == "" {
			return nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("reconnect.%s: %w", field, err)
		}
		*dst = d
		return nil
	}
	if err := set(&r.BaseDelay, raw.BaseDelay, "base_delay"); err != nil {
		return err
	}
	if err := set(&r.MaxDelay, raw.MaxDelay, "max_delay"); err != nil {
		return err
	}
	return set(&r.RejoinWait, raw.RejoinWait, "rejoin_wait")
}

type SessionConfig struct {
	Persist  bool   `yaml:"persist"`
	StateDir string `yaml:"state_dir"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "ws://127.0.0.1:5000/ws",
		},
		Reconnect: ReconnectConfig{
			BaseDelay:  time.Second,
			MaxDelay:   30 * time.Second,
			RejoinWait: 5 * time.Second,
		},
		Session: SessionConfig{
			Persist: true,
		},
	}
}

// Load reads a config file, filling unset fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	return cfg, err
}
