package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// Config holds the persisted configuration for libris. The search section
// only supplies defaults for building search requests; the engine itself
// has no knowledge of where preferences live.
type Config struct {
	// DataDir contains the SQLite database and the assets/ directory.
	DataDir string `toml:"data_dir"`

	// Listen is the address the API server binds to.
	Listen string `toml:"listen,omitempty"`

	Search SearchDefaults `toml:"search"`
}

// SearchDefaults are the default knobs for a search request. The UI/CLI
// layer reads them when the caller does not specify its own.
type SearchDefaults struct {
	Titles       bool   `toml:"titles"`
	Descriptions bool   `toml:"descriptions"`
	PDF          bool   `toml:"pdf"`
	SortBy       string `toml:"sort_by"`
	MaxResults   int    `toml:"max_results"`
}

// DefaultSearch returns the search defaults used when the config file has
// no [search] section.
func DefaultSearch() SearchDefaults {
	return SearchDefaults{
		Titles:       true,
		Descriptions: true,
		PDF:          false,
		SortBy:       "relevance",
		MaxResults:   100,
	}
}

func GetDefaultConfig() (*Config, error) {
	dataDir, err := GetDefaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("getting default data directory: %w", err)
	}
	return &Config{
		DataDir: dataDir,
		Listen:  "localhost:8811",
		Search:  DefaultSearch(),
	}, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.DataDir == "" {
		dataDir, err := GetDefaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("getting default data directory: %w", err)
		}
		config.DataDir = dataDir
	}

	if config.Listen == "" {
		config.Listen = "localhost:8811"
	}

	defaults := DefaultSearch()
	if config.Search.SortBy == "" {
		config.Search.SortBy = defaults.SortBy
	}
	if config.Search.MaxResults == 0 {
		config.Search.MaxResults = defaults.MaxResults
	}
	if !config.Search.Titles && !config.Search.Descriptions && !config.Search.PDF {
		config.Search.Titles = defaults.Titles
		config.Search.Descriptions = defaults.Descriptions
		config.Search.PDF = defaults.PDF
	}

	return &config, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the commented sample config with the data_dir
// placeholder replaced by the actual default path.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	dataDir := c.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = GetDefaultDataDir()
		if err != nil {
			return fmt.Errorf("getting default data directory: %w", err)
		}
	}

	template := strings.Replace(configTemplate, "/home/user/.local/share/libris", dataDir, 1)
	return os.WriteFile(configPath, []byte(template), 0644)
}

// DatabasePath returns the path of the catalog database inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "libris.db")
}

// AssetsDir returns the directory holding per-publication asset folders.
func (c *Config) AssetsDir() string {
	return filepath.Join(c.DataDir, "assets")
}

// GetDefaultDataDir returns the default data directory for the database and
// publication assets.
func GetDefaultDataDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	librisDir := filepath.Join(dataDir, "libris")

	if err := os.MkdirAll(librisDir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", librisDir, err)
	}

	return librisDir, nil
}

// GetConfigDir returns the configuration directory for libris
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	librisConfigDir := filepath.Join(configDir, "libris")

	if err := os.MkdirAll(librisConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", librisConfigDir, err)
	}

	return librisConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
