package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for bayesaudit.

Completions cover every command and flag: audit (with --resume, --watch and
the source flags), rank, tiebreak (--resolve, --kind), checkpoint
list/delete/clear/path and serve. Flags taking a file, such as --config and
--ballots, complete file names.

To load completions:

Bash:
  $ source <(bayesaudit completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ bayesaudit completion bash > /etc/bash_completion.d/bayesaudit
  # macOS:
  $ bayesaudit completion bash > $(brew --prefix)/etc/bash_completion.d/bayesaudit

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ bayesaudit completion zsh > "${fpath[1]}/_bayesaudit"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ bayesaudit completion fish | source

  # To load completions for each session, execute once:
  $ bayesaudit completion fish > ~/.config/fish/completions/bayesaudit.fish

PowerShell:
  PS> bayesaudit completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> bayesaudit completion powershell > bayesaudit.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// fixedCompletion completes a flag from a fixed set of values.
func fixedCompletion(values ...string) cobra.CompletionFunc {
	return func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
