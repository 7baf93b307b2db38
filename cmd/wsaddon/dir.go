package main

import (
	"fmt"
	"os"

	"github.com/KalleV/WSAddonUpdater/internal/common/config"
	"github.com/KalleV/WSAddonUpdater/internal/common/logger"
	"github.com/KalleV/WSAddonUpdater/internal/common/output"
	"github.com/spf13/cobra"
)

var dirCmd = &cobra.Command{
	Use:   "dir [path]",
	Short: "Show or set the addon install directory",
	Long: `Show the addon install directory, or set it when a path is given.

The path must be an existing directory, usually the Addons folder of the
WildStar installation.

Examples:
  wsaddon dir
  wsaddon dir ~/Games/WildStar/Addons`,
	Args: cobra.MaximumNArgs(1),
	Run:  runDir,
}

func init() {
	rootCmd.AddCommand(dirCmd)
}

func runDir(cmd *cobra.Command, args []string) {
	_, s := loadState()

	if len(args) == 0 {
		dir := s.InstallDirectory()
		if dir == "" {
			logger.Error("%v", config.ErrInstallDirNotSet)
			os.Exit(1)
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return
	}

	path, err := config.ValidateInstallDir(args[0])
	if err != nil {
		logger.Error("%s: %v", args[0], err)
		os.Exit(1)
	}

	if err := s.SetInstallDirectory(path); err != nil {
		logger.Error("saving install directory: %v", err)
		os.Exit(1)
	}
	output.PrintSuccess("Install directory set to %s", path)
}
