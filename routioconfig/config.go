// Package routioconfig holds the client runtime's optional tuning knobs:
// the router itself takes no config file or environment variable (§6's
// explicit Non-goal), but an embedding application may still want to load
// buffer sizing, reconnect backoff, and dial parameters from a JSON blob
// instead of hand-building client.Options and retry.Config. This adapts
// config/config.go's SafeConfig clone-and-validate pattern to that much
// smaller surface.
package routioconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lukacu/routio/client"
	"github.com/lukacu/routio/pkg/retry"
)

// Config is the client runtime's tunable knobs. The zero value is invalid;
// use Default or LoadFile, or call Validate before use.
type Config struct {
	Network       string        `json:"network"` // "unix" or "tcp"
	DialTimeout   time.Duration `json:"dial_timeout"`
	QueueCapacity int           `json:"queue_capacity"`
	Lossy         bool          `json:"lossy"`

	ReconnectMaxAttempts  int           `json:"reconnect_max_attempts"`
	ReconnectInitialDelay time.Duration `json:"reconnect_initial_delay"`
	ReconnectMaxDelay     time.Duration `json:"reconnect_max_delay"`
	ReconnectMultiplier   float64       `json:"reconnect_multiplier"`
}

// Default returns the same defaults client.Options.withDefaults and
// retry.DefaultConfig apply, spelled out so a caller can start from them
// and override only what they need.
func Default() Config {
	return Config{
		Network:               "unix",
		DialTimeout:           5 * time.Second,
		QueueCapacity:         256,
		Lossy:                 false,
		ReconnectMaxAttempts:  3,
		ReconnectInitialDelay: 100 * time.Millisecond,
		ReconnectMaxDelay:     5 * time.Second,
		ReconnectMultiplier:   2.0,
	}
}

// Validate rejects a config that would produce a client unable to connect
// or back off sensibly.
func (c Config) Validate() error {
	if c.Network != "unix" && c.Network != "tcp" {
		return fmt.Errorf("network must be \"unix\" or \"tcp\", got %q", c.Network)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial_timeout must be positive")
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue_capacity must be positive")
	}
	if c.ReconnectMaxAttempts < 0 {
		return fmt.Errorf("reconnect_max_attempts must not be negative")
	}
	if c.ReconnectMaxAttempts > 0 {
		if c.ReconnectInitialDelay <= 0 {
			return fmt.Errorf("reconnect_initial_delay must be positive when retries are enabled")
		}
		if c.ReconnectMaxDelay < c.ReconnectInitialDelay {
			return fmt.Errorf("reconnect_max_delay must be at least reconnect_initial_delay")
		}
		if c.ReconnectMultiplier < 1 {
			return fmt.Errorf("reconnect_multiplier must be at least 1")
		}
	}
	return nil
}

// Clone returns a deep copy via JSON round-trip, the same defensive pattern
// SafeConfig.Get uses to hand callers a copy they cannot mutate the live
// config through.
func (c Config) Clone() Config {
	data, err := json.Marshal(c)
	if err != nil {
		return c
	}
	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		return c
	}
	return clone
}

// ClientOptions projects the tuning knobs onto client.Options.
func (c Config) ClientOptions() client.Options {
	return client.Options{
		Network:       c.Network,
		DialTimeout:   c.DialTimeout,
		QueueCapacity: c.QueueCapacity,
		Lossy:         c.Lossy,
	}
}

// RetryConfig projects the reconnect knobs onto retry.Config.
func (c Config) RetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  c.ReconnectMaxAttempts,
		InitialDelay: c.ReconnectInitialDelay,
		MaxDelay:     c.ReconnectMaxDelay,
		Multiplier:   c.ReconnectMultiplier,
		AddJitter:    true,
	}
}

// LoadFile reads and validates a Config from a JSON file, applying Default
// to any field the file omits (since a zero Duration or zero QueueCapacity
// would otherwise fail Validate).
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// SafeConfig provides thread-safe access to a Config that may be swapped
// out at runtime, e.g. by a control-plane reload, mirroring
// config.SafeConfig's Get/Update contract.
type SafeConfig struct {
	mu     sync.RWMutex
	config Config
}

// NewSafeConfig wraps cfg for concurrent access.
func NewSafeConfig(cfg Config) *SafeConfig {
	return &SafeConfig{config: cfg}
}

// Get returns a copy of the current config.
func (sc *SafeConfig) Get() Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update validates cfg and, if valid, replaces the stored config.
func (sc *SafeConfig) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}
