package main

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for wsaddon.

To load completions:

Bash:
  $ source <(wsaddon completion bash)
  # To load completions for each session, execute once:
  $ wsaddon completion bash > /etc/bash_completion.d/wsaddon

Zsh:
  $ wsaddon completion zsh > "${fpath[1]}/_wsaddon"
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ wsaddon completion fish > ~/.config/fish/completions/wsaddon.fish

PowerShell:
  PS> wsaddon completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
