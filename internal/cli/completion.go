package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for railgen.

To load completions:

Bash:
  $ source <(railgen completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ railgen completion bash > /etc/bash_completion.d/railgen
  # macOS:
  $ railgen completion bash > $(brew --prefix)/etc/bash_completion.d/railgen

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ railgen completion zsh > "${fpath[1]}/_railgen"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ railgen completion fish | source

  # To load completions for each session, execute once:
  $ railgen completion fish > ~/.config/fish/completions/railgen.fish

PowerShell:
  PS> railgen completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> railgen completion powershell > railgen.ps1
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

// completeMapIDs completes the IDs of stored maps, skipping IDs already on
// the command line. Each candidate is described by its size, city count and
// seed.
func (c *CLI) completeMapIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer st.Close()

	summaries, err := st.List(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, s := range summaries {
		if !strings.HasPrefix(s.ID, toComplete) || slices.Contains(args, s.ID) {
			continue
		}
		out = append(out, fmt.Sprintf("%s\t%dx%d, %d cities, seed %d", s.ID, s.Width, s.Height, s.Cities, s.Seed))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeMapRef completes the single map argument of render, schedule and
// view: stored IDs with --stored, JSON files otherwise.
func (c *CLI) completeMapRef(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if stored, _ := cmd.Flags().GetBool("stored"); stored {
		return c.completeMapIDs(cmd, args, toComplete)
	}
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}
