// Package config loads the remindd daemon configuration from built-in
// defaults, an optional YAML file and REMINDD_-prefixed environment
// variables, in that precedence order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/remindd/remindd/pkg/remindlib"
)

// Notifier backend selectors.
const (
	NotifierAuto = "auto"
	NotifierDBus = "dbus"
	NotifierLog  = "log"
)

type RPCConfig struct {
	// Addr is the TCP address the JSON-RPC server listens on.
	Addr string `koanf:"addr"`
}

type HTTPConfig struct {
	// Addr is the TCP address of the websocket event endpoint.
	Addr string `koanf:"addr"`
}

type AlarmsConfig struct {
	// Exact gates exact alarm scheduling; when false every registration
	// is refused and reminders stay unscheduled.
	Exact bool `koanf:"exact"`
}

type FetchConfig struct {
	// Timeout bounds a whole sound download, in seconds. Zero disables.
	Timeout int `koanf:"timeout"`
	// ThrottleMs is the minimum gap between persisted progress updates.
	ThrottleMs int `koanf:"throttle_ms"`
}

type LogConfig struct {
	// File receives the daemon log; empty means stderr.
	File string `koanf:"file"`
}

type Config struct {
	// DataDir holds the database, timer registrations and fetched sounds.
	DataDir  string       `koanf:"data_dir"`
	RPC      RPCConfig    `koanf:"rpc"`
	HTTP     HTTPConfig   `koanf:"http"`
	Alarms   AlarmsConfig `koanf:"alarms"`
	Fetch    FetchConfig  `koanf:"fetch"`
	Notifier string       `koanf:"notifier"`
	Log      LogConfig    `koanf:"log"`
}

// FetchTimeout returns the fetch timeout as a duration, zero when disabled.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.Timeout) * time.Second
}

// FetchThrottle returns the progress throttle as a duration.
func (c *Config) FetchThrottle() time.Duration {
	return time.Duration(c.Fetch.ThrottleMs) * time.Millisecond
}

// DBPath is the sqlite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "remind.db")
}

// TimerPath is the persisted timer registration file.
func (c *Config) TimerPath() string {
	return filepath.Join(c.DataDir, "timers.gob")
}

// SoundDir is where fetched notification sounds land.
func (c *Config) SoundDir() string {
	return filepath.Join(c.DataDir, "sounds")
}

// DefaultPath is the conventional config file location.
func DefaultPath() string {
	return filepath.Join(remindlib.ConfigDir, "config.yaml")
}

// Load reads the configuration. A missing file at configPath is not an
// error; the defaults and environment still apply. Environment variables
// use the REMINDD_ prefix with double underscores for nesting, e.g.
// REMINDD_RPC__ADDR sets rpc.addr.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("config: %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("REMINDD_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "REMINDD_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = remindlib.ConfigDir
	}
	return &cfg, nil
}
