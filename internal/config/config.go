package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.huddle/config.toml.
type Config struct {
	DefaultProfile string    `toml:"default_profile"`
	MetricsAddr    string    `toml:"metrics_addr,omitempty"`
	CatalogPath    string    `toml:"catalog_path,omitempty"`
	Identity       Identity  `toml:"identity"`
	Bootstrap      Bootstrap `toml:"bootstrap"`
}

// Identity is the current user, used to tag outgoing messages.
type Identity struct {
	ID     string `toml:"id"`
	Name   string `toml:"name"`
	Avatar string `toml:"avatar"`
}

// Bootstrap lists the demonstration conversations every profile starts
// joined to, and the placeholder preview they get when first listed.
type Bootstrap struct {
	Conversations []string `toml:"conversations"`
	Placeholders  []string `toml:"placeholders"`
	UnreadMin     int      `toml:"unread_min"`
	UnreadMax     int      `toml:"unread_max"`
	MaxAge        Duration `toml:"max_age"`
}

// Duration is a time.Duration written as "72h" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DefaultProfile: "main",
		Identity: Identity{
			ID:     "me",
			Name:   "You",
			Avatar: "🙂",
		},
		Bootstrap: Bootstrap{
			Conversations: []string{"evt-welcome", "evt-playground"},
			Placeholders: []string{
				"Looking forward to it!",
				"See everyone there 👋",
				"Can someone bring extra water?",
				"Thanks for organizing!",
			},
			UnreadMin: 0,
			UnreadMax: 3,
			MaxAge:    Duration{72 * time.Hour},
		},
	}
}

// Load reads config from the given path on top of Default. Returns an error
// if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
