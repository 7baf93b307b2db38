package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KalleV/WSAddonUpdater/internal/catalog"
	"github.com/KalleV/WSAddonUpdater/internal/updater"
)

var (
	ErrInstallDirNotSet   = errors.New("install directory is not configured: run 'wsaddon dir <path>' or pass --dir")
	ErrInstallDirNotFound = errors.New("install directory does not exist")
)

// Default log rotation settings
const (
	DefaultLogMaxSizeMB  = 5
	DefaultLogMaxBackups = 3
)

// Config represents the application settings
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

// CatalogConfig locates the remote catalog
type CatalogConfig struct {
	SearchURL      string        `yaml:"search_url"`
	ProjectURL     string        `yaml:"project_url"`
	GameSegment    string        `yaml:"game_segment"`
	DownloadSuffix string        `yaml:"download_suffix"`
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent,omitempty"`
}

// StoreConfig locates the local state files
type StoreConfig struct {
	Path    string `yaml:"path"`    // addon records and install directory (JSON)
	Aliases string `yaml:"aliases"` // manual search terms (TOML)
}

// LogConfig holds error log settings
type LogConfig struct {
	File       string `yaml:"file,omitempty"` // defaults to the XDG state directory
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// ConfigDir returns the wsaddon configuration directory
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	// Check XDG_CONFIG_HOME first, fallback to ~/.config
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "wsaddon"), nil
}

// ConfigPaths returns all possible settings file paths in priority order
// 1. ~/.config/wsaddon/settings.yaml (XDG standard - priority)
// 2. ~/.wsaddon/settings.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}

	return []string{
		filepath.Join(dir, "settings.yaml"),
		filepath.Join(home, ".wsaddon", "settings.yaml"),
	}, nil
}

// DefaultConfigPath returns the default settings file path (XDG standard)
func DefaultConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// FindConfigPath returns the first existing settings file path
// Returns the default path if no settings file exists yet
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return paths[0], nil
}

// Default returns the settings used when no file exists
func Default() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}

	return &Config{
		Catalog: CatalogConfig{
			SearchURL:      catalog.DefaultSearchURL,
			ProjectURL:     catalog.DefaultProjectURL,
			GameSegment:    catalog.DefaultGameSegment,
			DownloadSuffix: updater.DefaultDownloadSuffix,
			Timeout:        catalog.DefaultTimeout,
		},
		Store: StoreConfig{
			Path:    filepath.Join(dir, "config.json"),
			Aliases: filepath.Join(dir, "aliases.toml"),
		},
		Log: LogConfig{
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
		},
	}, nil
}

// Load reads settings from the first available settings file
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads settings from a specific file path.
// A missing file is created with defaults; missing keys take default values.
func LoadFrom(path string) (*Config, error) {
	defaults, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if saveErr := defaults.SaveTo(path); saveErr != nil {
				return nil, saveErr
			}
			return defaults, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults(defaults)
	return &cfg, nil
}

// applyDefaults fills zero-valued settings from defaults
func (c *Config) applyDefaults(d *Config) {
	setString(&c.Catalog.SearchURL, d.Catalog.SearchURL)
	setString(&c.Catalog.ProjectURL, d.Catalog.ProjectURL)
	setString(&c.Catalog.GameSegment, d.Catalog.GameSegment)
	setString(&c.Catalog.DownloadSuffix, d.Catalog.DownloadSuffix)
	setString(&c.Store.Path, d.Store.Path)
	setString(&c.Store.Aliases, d.Store.Aliases)

	if c.Catalog.Timeout <= 0 {
		c.Catalog.Timeout = d.Catalog.Timeout
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = d.Log.MaxSizeMB
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = d.Log.MaxBackups
	}
}

func setString(field *string, fallback string) {
	if strings.TrimSpace(*field) == "" {
		*field = fallback
	}
}

// Save writes settings to the default settings file
func (c *Config) Save() error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes settings to a specific file path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// StorePath returns the expanded path of the addon store
func (c *Config) StorePath() (string, error) {
	return ExpandPath(c.Store.Path)
}

// AliasesPath returns the expanded path of the aliases file
func (c *Config) AliasesPath() (string, error) {
	return ExpandPath(c.Store.Aliases)
}

// ExpandPath expands a leading ~ to the home directory
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// ValidateInstallDir expands dir and checks that it is an existing directory
func ValidateInstallDir(dir string) (string, error) {
	if dir == "" {
		return "", ErrInstallDirNotSet
	}

	path, err := ExpandPath(dir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrInstallDirNotFound
		}
		return "", err
	}
	if !info.IsDir() {
		return "", ErrInstallDirNotFound
	}

	return filepath.Abs(path)
}
