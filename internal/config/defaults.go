package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

// DefaultConfig returns the built-in configuration. Paths left empty are
// resolved against the config directory at load time.
func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"data_dir": "",
		"rpc": map[string]interface{}{
			"addr": "127.0.0.1:4600",
		},
		"http": map[string]interface{}{
			"addr": "127.0.0.1:4601",
		},
		"alarms": map[string]interface{}{
			"exact": true,
		},
		"fetch": map[string]interface{}{
			"timeout":     120, // seconds
			"throttle_ms": 200,
		},
		"notifier": "auto",
		"log": map[string]interface{}{
			"file": "",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
