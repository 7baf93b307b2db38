package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/KalleV/WSAddonUpdater/internal/catalog"
	"github.com/KalleV/WSAddonUpdater/internal/updater"
)

// genValidPath generates valid path strings (alphanumeric with slashes)
func genValidPath() gopter.Gen {
	return gen.RegexMatch(`^/[a-z][a-z0-9/]{0,20}$`)
}

// genValidURL generates catalog-like URLs
func genValidURL() gopter.Gen {
	return gen.RegexMatch(`^https?://[a-z]{3,10}\.com/[a-z\-]{1,12}$`)
}

// genConfig generates fully populated Config structs
func genConfig() gopter.Gen {
	return gopter.CombineGens(
		genValidURL(),
		genValidURL(),
		genValidPath(),
		genValidPath(),
		gen.IntRange(1, 120),
		gen.IntRange(1, 50),
	).Map(func(values []interface{}) *Config {
		return &Config{
			Catalog: CatalogConfig{
				SearchURL:      values[0].(string),
				ProjectURL:     values[1].(string),
				GameSegment:    catalog.DefaultGameSegment,
				DownloadSuffix: updater.DefaultDownloadSuffix,
				Timeout:        time.Duration(values[4].(int)) * time.Second,
			},
			Store: StoreConfig{
				Path:    values[2].(string),
				Aliases: values[3].(string),
			},
			Log: LogConfig{
				MaxSizeMB:  values[5].(int),
				MaxBackups: DefaultLogMaxBackups,
			},
		}
	})
}

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return home
}

// TestConfigRoundTrip tests that saved settings load back unchanged
func TestConfigRoundTrip(t *testing.T) {
	withHome(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Save then Load preserves settings", prop.ForAll(
		func(cfg *Config) bool {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if err := cfg.SaveTo(path); err != nil {
				t.Logf("SaveTo failed: %v", err)
				return false
			}

			loaded, err := LoadFrom(path)
			if err != nil {
				t.Logf("LoadFrom failed: %v", err)
				return false
			}
			return reflect.DeepEqual(cfg, loaded)
		},
		genConfig(),
	))

	properties.TestingRun(t)
}

func TestMissingConfigFileCreatesDefault(t *testing.T) {
	home := withHome(t)
	path := filepath.Join(home, ".config", "wsaddon", "settings.yaml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default settings file to be created: %v", err)
	}

	if cfg.Catalog.Timeout != catalog.DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Catalog.Timeout, catalog.DefaultTimeout)
	}
	wantStore := filepath.Join(home, ".config", "wsaddon", "config.json")
	if cfg.Store.Path != wantStore {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, wantStore)
	}
}

func TestPartialConfigTakesDefaults(t *testing.T) {
	withHome(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
catalog:
  timeout: 3s
  search_url: http://mirror.test/search
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Catalog.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Catalog.Timeout)
	}
	if cfg.Catalog.SearchURL != "http://mirror.test/search" {
		t.Errorf("SearchURL = %q", cfg.Catalog.SearchURL)
	}
	if cfg.Catalog.ProjectURL != catalog.DefaultProjectURL || cfg.Catalog.DownloadSuffix != updater.DefaultDownloadSuffix {
		t.Errorf("missing keys should take defaults: %+v", cfg.Catalog)
	}
	if cfg.Log.MaxSizeMB != DefaultLogMaxSizeMB {
		t.Errorf("MaxSizeMB = %d", cfg.Log.MaxSizeMB)
	}
}

// TestDefaultCatalogMatchesClients tests that the default settings drive
// the catalog and installer exactly like their zero configuration
func TestDefaultCatalogMatchesClients(t *testing.T) {
	withHome(t)

	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	endpoints := catalog.Endpoints{
		SearchURL:   cfg.Catalog.SearchURL,
		ProjectURL:  cfg.Catalog.ProjectURL,
		GameSegment: cfg.Catalog.GameSegment,
	}
	if endpoints != catalog.DefaultEndpoints() {
		t.Errorf("endpoints = %+v, want %+v", endpoints, catalog.DefaultEndpoints())
	}
	if cfg.Catalog.Timeout != catalog.NewHTTPClient().Config().Timeout {
		t.Errorf("Timeout = %v, want the client default", cfg.Catalog.Timeout)
	}
	if cfg.Catalog.DownloadSuffix != updater.DefaultDownloadSuffix {
		t.Errorf("DownloadSuffix = %q", cfg.Catalog.DownloadSuffix)
	}
}

func TestFindConfigPathPrefersXDG(t *testing.T) {
	home := withHome(t)

	legacy := filepath.Join(home, ".wsaddon", "settings.yaml")
	if err := os.MkdirAll(filepath.Dir(legacy), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(legacy, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := FindConfigPath()
	if err != nil || path != legacy {
		t.Errorf("only legacy exists: got %q, %v", path, err)
	}

	xdg, _ := DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(xdg), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(xdg, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	path, err = FindConfigPath()
	if err != nil || path != xdg {
		t.Errorf("both exist: got %q, want %q", path, xdg)
	}
}

func TestValidateInstallDir(t *testing.T) {
	home := withHome(t)
	addons := filepath.Join(home, "Addons")
	if err := os.Mkdir(addons, 0755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(home, "file.txt")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateInstallDir(""); !errors.Is(err, ErrInstallDirNotSet) {
		t.Errorf("empty: got %v", err)
	}
	if _, err := ValidateInstallDir(filepath.Join(home, "missing")); !errors.Is(err, ErrInstallDirNotFound) {
		t.Errorf("missing: got %v", err)
	}
	if _, err := ValidateInstallDir(file); !errors.Is(err, ErrInstallDirNotFound) {
		t.Errorf("file: got %v", err)
	}

	got, err := ValidateInstallDir("~/Addons")
	if err != nil || got != addons {
		t.Errorf("ValidateInstallDir(~/Addons) = %q, %v; want %q", got, err, addons)
	}
}
