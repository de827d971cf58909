// Package config defines the typed, immutable process configuration
// value for pacsd: AE title, listen port, storage roots, tier policy,
// and query timeouts. Decoding a raw map[string]any (as produced by a
// cobra/viper flag and env loader) into this type is this package's
// only job; the loader itself is an external collaborator.
package config

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// TierPolicy names which HSM backend a newly stored instance lands on
// and when the migration service should move it to the next tier.
type TierPolicy struct {
	HotTier  string        `mapstructure:"hot_tier"`
	ColdTier string        `mapstructure:"cold_tier"`
	MoveAfter time.Duration `mapstructure:"move_after"`
}

// Config is the fully-resolved, immutable process configuration. Once
// built by Load, a Config value is never mutated — components that need
// a different value construct a new Config rather than writing through
// a shared one, per this module's "immutable config over mutable
// globals" design rule.
type Config struct {
	AETitle             string        `mapstructure:"ae_title"`
	ListenPort          int           `mapstructure:"listen_port"`
	CatalogDBPath       string        `mapstructure:"catalog_db_path"`
	StorageRoot         string        `mapstructure:"storage_root"`
	WorklistPath        string        `mapstructure:"worklist_path"`
	Tier                TierPolicy    `mapstructure:"tier"`
	QueryTimeout        time.Duration `mapstructure:"query_timeout"`
	MaxConcurrentQueries int          `mapstructure:"max_concurrent_queries"`
	MoveDestinations    map[string]string `mapstructure:"move_destinations"`
}

// defaults is applied before the caller's raw values, so an absent key
// in raw falls back to a sane value rather than a zero one.
func defaults() Config {
	return Config{
		AETitle:              "PACSD",
		ListenPort:           11112,
		CatalogDBPath:        "pacsd.sqlite",
		StorageRoot:          "./pacsd-storage",
		WorklistPath:         "./pacsd-worklist.json",
		QueryTimeout:         30 * time.Second,
		MaxConcurrentQueries: 4,
	}
}

// MustDefaults returns the zero-input Config, for callers (flag
// definitions) that need a default value without going through Load.
func MustDefaults() Config {
	return defaults()
}

// Load decodes raw (typically produced by viper.AllSettings() or an
// equivalent cobra/env loader) into a validated Config.
func Load(raw map[string]any) (Config, error) {
	cfg := defaults()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return Config{}, fmt.Errorf("config: build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.AETitle == "" {
		return fmt.Errorf("config: ae_title must not be empty")
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("config: listen_port %d out of range", c.ListenPort)
	}
	if c.MaxConcurrentQueries <= 0 {
		return fmt.Errorf("config: max_concurrent_queries must be positive")
	}
	return nil
}
