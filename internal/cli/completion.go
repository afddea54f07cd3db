package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for atomtree.

To load completions:

Bash:
  $ source <(atomtree completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ atomtree completion bash > /etc/bash_completion.d/atomtree
  # macOS:
  $ atomtree completion bash > $(brew --prefix)/etc/bash_completion.d/atomtree

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ atomtree completion zsh > "${fpath[1]}/_atomtree"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ atomtree completion fish | source

  # To load completions for each session, execute once:
  $ atomtree completion fish > ~/.config/fish/completions/atomtree.fish

PowerShell:
  PS> atomtree completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> atomtree completion powershell > atomtree.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
}
