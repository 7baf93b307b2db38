package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KalleV/WSAddonUpdater/internal/catalog"
	"github.com/KalleV/WSAddonUpdater/internal/common/config"
	"github.com/KalleV/WSAddonUpdater/internal/common/logger"
	"github.com/KalleV/WSAddonUpdater/internal/common/output"
	"github.com/KalleV/WSAddonUpdater/internal/store"
	"github.com/KalleV/WSAddonUpdater/internal/updater"
	"github.com/spf13/cobra"
)

// pollInterval is how often a running update is checked for progress
const pollInterval = 100 * time.Millisecond

// MissingReportHeader introduces the addons that could not be updated
const MissingReportHeader = "Unable to find updates for the following addons:"

var (
	// updateDir overrides the saved install directory for one run
	updateDir string
	// updatePrune removes records of addons that are no longer installed
	updatePrune bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update every installed addon",
	Long: `Search the catalog for every addon folder in the install directory and
install the ones with a newer release.

Addons that cannot be found are listed at the end. Names that never match
the catalog can be given a search term in aliases.toml:

  [aliases]
  TBGO = "TB-Graphics Options"

Examples:
  wsaddon update
  wsaddon update --dir ~/Games/WildStar/Addons
  wsaddon update --prune`,
	Args: cobra.NoArgs,
	Run:  runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateDir, "dir", "", "Install directory for this run")
	updateCmd.Flags().BoolVar(&updatePrune, "prune", false, "Remove records of addons that are no longer installed")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	cfg, s := loadState()
	dir := installDir(s, updateDir)

	names, err := updater.ListInstalledAddons(dir)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	if len(names) == 0 {
		logger.Info("No addons installed in %s", dir)
		return
	}

	aliases := loadAliases(cfg)
	pipeline := newPipeline(cfg, s, aliases, dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := watchRun(pipeline.Start(ctx, names), cmd.OutOrStdout())

	if updatePrune && !report.Cancelled {
		pruneStale(cmd.OutOrStdout(), s, report.Tracked(names))
	}

	if report.Cancelled || len(report.Failed) > 0 {
		os.Exit(1)
	}
}

func loadAliases(cfg *config.Config) catalog.Aliases {
	path, err := cfg.AliasesPath()
	if err != nil {
		logger.Warn("resolving aliases path: %v", err)
		return catalog.Aliases{}
	}

	aliases, err := catalog.LoadAliases(path)
	if err != nil {
		logger.Warn("ignoring aliases: %v", err)
		return catalog.Aliases{}
	}
	return aliases
}

// newPipeline wires the catalog client, resolver and installer from settings.
func newPipeline(cfg *config.Config, s *store.Store, aliases catalog.Aliases, dir string) *updater.Pipeline {
	clientConfig := catalog.DefaultClientConfig()
	clientConfig.Timeout = cfg.Catalog.Timeout
	if cfg.Catalog.UserAgent != "" {
		clientConfig.UserAgent = cfg.Catalog.UserAgent
	}
	client := catalog.NewHTTPClientWithConfig(clientConfig)

	endpoints := catalog.Endpoints{
		SearchURL:   cfg.Catalog.SearchURL,
		ProjectURL:  cfg.Catalog.ProjectURL,
		GameSegment: cfg.Catalog.GameSegment,
	}
	resolvers := func(warn catalog.WarnFunc) updater.Resolver {
		return catalog.NewResolver(client,
			catalog.WithEndpoints(endpoints),
			catalog.WithAliases(aliases),
			catalog.WithWarnFunc(warn))
	}

	installer := updater.NewInstaller(client, s, dir, updater.WithDownloadSuffix(cfg.Catalog.DownloadSuffix))
	return updater.NewPipeline(resolvers, s, installer, dir)
}

// watchRun prints progress until run finishes, then prints the report.
func watchRun(run *updater.Run, w io.Writer) updater.Report {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			printProgress(w, run.DrainProgress())
		case <-run.Done():
			printProgress(w, run.DrainProgress())
			report := run.Wait()
			printReport(w, report, run.DrainWarnings())
			return report
		}
	}
}

func printProgress(w io.Writer, events []updater.ProgressEvent) {
	for _, event := range events {
		fmt.Fprintln(w, output.Progress(event.Done, event.Total, event.Message))
	}
}

func printReport(w io.Writer, report updater.Report, warnings []updater.WarningEvent) {
	logger.Debug("run %s: searched %d, queued %d", report.RunID, report.Searched, len(report.Queued))

	fmt.Fprintln(w)
	if report.Cancelled {
		fmt.Fprintln(w, output.Sprintf(output.Warning, "Update cancelled"))
	}

	for _, name := range report.Installed {
		fmt.Fprintf(w, "%s %s\n", output.FormatStatus(output.StatusInstalled), output.FormatAddon(name))
	}
	if len(report.Installed) == 0 && len(report.Failed) == 0 && !report.Cancelled {
		fmt.Fprintln(w, output.Sprintf(output.Success, "All addons are up to date"))
	}

	if len(warnings) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, output.Sprintf(output.Header, MissingReportHeader))
	for _, warning := range warnings {
		status := output.StatusMissing
		if warning.Err != nil && !errors.Is(warning.Err, catalog.ErrNotFound) {
			status = output.StatusFailed
		}
		fmt.Fprintf(w, "%s %s\n", output.FormatStatus(status), warning.Message)
	}
}
