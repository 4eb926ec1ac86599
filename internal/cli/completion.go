package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// completionGenerators maps each supported shell to its cobra generator.
var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for flowchart.

Completions include diagram types for "flowchart examples".`,
		Example: `  source <(flowchart completion bash)
  flowchart completion zsh > "${fpath[1]}/_flowchart"
  flowchart completion fish > ~/.config/fish/completions/flowchart.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}
