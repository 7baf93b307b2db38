package main

import (
	"fmt"
	"io"
	"os"

	"github.com/KalleV/WSAddonUpdater/internal/common/logger"
	"github.com/KalleV/WSAddonUpdater/internal/common/output"
	"github.com/KalleV/WSAddonUpdater/internal/store"
	"github.com/KalleV/WSAddonUpdater/internal/updater"
	"github.com/spf13/cobra"
)

var (
	// pruneDir overrides the saved install directory
	pruneDir string
	// pruneDryRun lists stale records without removing them
	pruneDryRun bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Forget records of addons that are no longer installed",
	Long: `Remove stored records that no folder in the install directory refers to.

A record is kept when a folder has its name or was installed from it, so
addons whose folder differs from the catalog name survive pruning.`,
	Args: cobra.NoArgs,
	Run:  runPrune,
}

func init() {
	pruneCmd.Flags().StringVar(&pruneDir, "dir", "", "Install directory to compare against")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Show what would be removed")

	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) {
	_, s := loadState()
	dir := installDir(s, pruneDir)

	names, err := updater.ListInstalledAddons(dir)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if pruneDryRun {
		for _, name := range s.Stale(names) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", output.FormatStatus(output.StatusPruned), output.FormatAddon(name))
		}
		return
	}

	pruneStale(cmd.OutOrStdout(), s, names)
}

// pruneStale removes every record not named in keep and prints the removed names.
func pruneStale(w io.Writer, s *store.Store, keep []string) {
	removed, err := s.Prune(keep)
	if err != nil {
		logger.Error("pruning records: %v", err)
		os.Exit(1)
	}

	if len(removed) == 0 {
		logger.Info("No stale records")
		return
	}
	for _, name := range removed {
		fmt.Fprintf(w, "%s %s\n", output.FormatStatus(output.StatusPruned), output.FormatAddon(name))
	}
}
