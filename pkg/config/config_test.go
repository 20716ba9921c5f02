package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	if cfg.Listen != "localhost:8811" {
		t.Errorf("Expected default listen address, got %q", cfg.Listen)
	}
	if !cfg.Search.Titles || !cfg.Search.Descriptions || cfg.Search.PDF {
		t.Errorf("Unexpected default search stages: %+v", cfg.Search)
	}
	if cfg.Search.SortBy != "relevance" || cfg.Search.MaxResults != 100 {
		t.Errorf("Unexpected default search knobs: %+v", cfg.Search)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := `
data_dir = "` + dir + `"
listen = "127.0.0.1:9999"

[search]
titles = true
pdf = true
sort_by = "year"
max_results = 250
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DataDir != dir {
		t.Errorf("Expected data dir %q, got %q", dir, cfg.DataDir)
	}
	if cfg.Listen != "127.0.0.1:9999" {
		t.Errorf("Expected overridden listen address, got %q", cfg.Listen)
	}
	if !cfg.Search.Titles || cfg.Search.Descriptions || !cfg.Search.PDF {
		t.Errorf("Unexpected search stages: %+v", cfg.Search)
	}
	if cfg.Search.SortBy != "year" || cfg.Search.MaxResults != 250 {
		t.Errorf("Unexpected search knobs: %+v", cfg.Search)
	}
}

func TestConfigPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data/libris"}
	if got := cfg.DatabasePath(); got != "/data/libris/libris.db" {
		t.Errorf("Unexpected database path %q", got)
	}
	if got := cfg.AssetsDir(); got != "/data/libris/assets" {
		t.Errorf("Unexpected assets dir %q", got)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sub", "config.toml")

	original := &Config{
		DataDir: dir,
		Listen:  "localhost:7777",
		Search:  SearchDefaults{Titles: true, SortBy: "title", MaxResults: 50},
	}
	if err := original.SaveConfig(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if loaded.Listen != original.Listen || loaded.Search.SortBy != "title" || loaded.Search.MaxResults != 50 {
		t.Errorf("Round-trip mismatch: %+v", loaded)
	}
}

func TestSaveTemplateConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	cfg := &Config{DataDir: dir}
	if err := cfg.SaveTemplateConfig(configPath); err != nil {
		t.Fatalf("Failed to save template: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read template: %v", err)
	}
	if !strings.Contains(string(data), dir) {
		t.Errorf("Expected data dir placeholder to be replaced with %q", dir)
	}

	// The template must itself be loadable.
	if _, err := LoadConfig(configPath); err != nil {
		t.Errorf("Template config does not parse: %v", err)
	}
}
