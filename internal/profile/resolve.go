package profile

import (
	"fmt"
	"regexp"

	"github.com/matheus3301/huddle/internal/config"
)

const DefaultName = "main"

var nameRegexp = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName checks that name is usable as a directory name.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid profile name %q: must match ^[a-z0-9_-]{1,64}$", name)
	}
	return nil
}

// Resolve picks the active profile: the --profile flag, then
// default_profile from config.toml, then "main".
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultProfile != "" {
		return cfg.DefaultProfile
	}
	return DefaultName
}

// LoadConfig reads config.toml, falling back to defaults when it is absent.
// An empty catalog path is pointed at CatalogPath.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ConfigPath())
	if err != nil {
		return nil, err
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = CatalogPath()
	}
	return cfg, nil
}
