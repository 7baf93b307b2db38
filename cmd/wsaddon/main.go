package main

import (
	"fmt"
	"os"

	"github.com/KalleV/WSAddonUpdater/internal/common/config"
	"github.com/KalleV/WSAddonUpdater/internal/common/logger"
	"github.com/KalleV/WSAddonUpdater/internal/common/output"
	"github.com/KalleV/WSAddonUpdater/internal/store"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "wsaddon",
	Short: "WildStar addon updater",
	Long: `Keep the addons in a WildStar addon directory up to date.

Every addon folder is matched against the online catalog; addons with a newer
release are downloaded and extracted over the local copy.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Configure logging based on flags
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// loadState reads the settings, starts the error log and opens the store.
func loadState() (*config.Config, *store.Store) {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}

	if err := enableErrorLog(cfg.Log); err != nil {
		logger.Warn("error log disabled: %v", err)
	}

	storePath, err := cfg.StorePath()
	if err != nil {
		logger.Error("resolving store path: %v", err)
		os.Exit(1)
	}

	return cfg, store.Open(storePath)
}

func enableErrorLog(cfg config.LogConfig) error {
	opts := logger.FileOptions{MaxSizeMB: cfg.MaxSizeMB, MaxBackups: cfg.MaxBackups}
	if cfg.File == "" {
		return logger.Default().EnableFileLogging(opts)
	}

	path, err := config.ExpandPath(cfg.File)
	if err != nil {
		return err
	}
	return logger.Default().EnableFileLoggingAt(path, opts)
}

// installDir returns the validated install directory: override when set,
// otherwise the one saved in the store.
func installDir(s *store.Store, override string) string {
	dir := override
	if dir == "" {
		dir = s.InstallDirectory()
	}

	path, err := config.ValidateInstallDir(dir)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	return path
}

func main() {
	err := rootCmd.Execute()
	logger.Default().Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
