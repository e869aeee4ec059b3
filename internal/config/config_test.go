package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "school"
	cfg.Identity.Name = "Robin"
	cfg.Bootstrap.MaxAge = Duration{36 * time.Hour}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "school" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "school")
	}
	if loaded.Identity.Name != "Robin" {
		t.Errorf("Identity.Name = %q, want Robin", loaded.Identity.Name)
	}
	if loaded.Bootstrap.MaxAge.Duration != 36*time.Hour {
		t.Errorf("MaxAge = %v, want 36h", loaded.Bootstrap.MaxAge)
	}
}

func TestLoadKeepsDefaultsForUnsetKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "default_profile = \"work\"\n\n[bootstrap]\nconversations = [\"evt-9\"]\nmax_age = \"2h\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want work", cfg.DefaultProfile)
	}
	if len(cfg.Bootstrap.Conversations) != 1 || cfg.Bootstrap.Conversations[0] != "evt-9" {
		t.Errorf("Conversations = %v, want [evt-9]", cfg.Bootstrap.Conversations)
	}
	if cfg.Bootstrap.MaxAge.Duration != 2*time.Hour {
		t.Errorf("MaxAge = %v, want 2h", cfg.Bootstrap.MaxAge)
	}
	if cfg.Identity.Avatar != Default().Identity.Avatar {
		t.Errorf("Identity.Avatar = %q, want default", cfg.Identity.Avatar)
	}
	if len(cfg.Bootstrap.Placeholders) == 0 {
		t.Error("Placeholders lost their default")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}

	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.DefaultProfile != "main" {
		t.Errorf("DefaultProfile = %q, want main", cfg.DefaultProfile)
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[bootstrap]\nmax_age = \"soon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Error("expected error for unparseable max_age")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
