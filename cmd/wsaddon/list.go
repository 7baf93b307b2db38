package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/KalleV/WSAddonUpdater/internal/common/logger"
	"github.com/KalleV/WSAddonUpdater/internal/common/output"
	"github.com/KalleV/WSAddonUpdater/internal/store"
	"github.com/KalleV/WSAddonUpdater/internal/updater"
	"github.com/spf13/cobra"
)

// listDir overrides the saved install directory
var listDir string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed addons and their tracked releases",
	Long: `List the addon folders in the install directory with the catalog record
kept for each one. Records without a folder are listed as missing.`,
	Args: cobra.NoArgs,
	Run:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listDir, "dir", "", "Install directory to list")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) {
	_, s := loadState()
	dir := installDir(s, listDir)

	names, err := updater.ListInstalledAddons(dir)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	printListing(cmd.OutOrStdout(), s, names)
}

func printListing(w io.Writer, s *store.Store, names []string) {
	if len(names) == 0 && s.Len() == 0 {
		logger.Info("No addons installed")
		return
	}

	output.Header.Fprintln(w, "Installed Addons")
	fmt.Fprintln(w)

	for _, name := range names {
		rec, ok := s.Lookup(name)
		if !ok {
			fmt.Fprintf(w, "  %s %s\n", output.FormatStatus(output.StatusUntracked), output.FormatAddon(name))
			continue
		}
		fmt.Fprintf(w, "  %s %s  %s  %s\n",
			output.FormatStatus(output.StatusTracked),
			output.FormatAddon(name),
			output.Sprintf(output.Dim, "%s", rec.Released().UTC().Format(time.DateOnly)),
			rec.URL)
	}

	stale := s.Stale(names)
	if len(stale) == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, name := range stale {
		fmt.Fprintf(w, "  %s %s\n", output.FormatStatus(output.StatusMissing), output.FormatAddon(name))
	}
	fmt.Fprintln(w, output.Sprintf(output.Dim, "Run 'wsaddon prune' to forget records without a folder"))
}
