package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sherafyk/vectorize-svc/pkg/trace"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// completionCommand prints a completion script for the requested shell.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script. Besides subcommands and flags it
completes --turnpolicy values and image files for trace and tune.

  $ source <(vectorize completion bash)
  $ vectorize completion zsh > "${fpath[1]}/_vectorize"
  $ vectorize completion fish | source`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}
}

// imageExtensions are offered when completing an image argument.
var imageExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp"}

// completeImage completes the single image argument of trace and tune.
func completeImage(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return imageExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// completeTurnPolicy lists the turn policy names.
func completeTurnPolicy(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(trace.TurnPolicies))
	for i, p := range trace.TurnPolicies {
		names[i] = string(p)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
