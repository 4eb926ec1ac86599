package cli

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hanhandi-git/flowchartRenderer/pkg/examples"
)

// examplesCommand creates the examples command, which prints starter
// documents for each diagram type.
func (c *CLI) examplesCommand() *cobra.Command {
	var output string
	var list bool

	cmd := &cobra.Command{
		Use:   "examples [type]",
		Short: "Print a starter document for a diagram type",
		Long: `Examples prints the starter document for a diagram type: flowchart, sequence, class,
state, er, gantt, pie or graphviz.

Without a type, an interactive picker opens when running in a terminal.`,
		Example: `  flowchart examples graphviz -o graph.dot
  flowchart examples --list`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var names []string
			for _, ex := range examples.All() {
				names = append(names, string(ex.Type))
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if list {
				fmt.Fprintln(stdout, exampleTable(examples.All(), -1).Render())
				return nil
			}

			var ex examples.Example
			switch {
			case len(args) == 1:
				var err error
				if ex, err = examples.Lookup(args[0]); err != nil {
					return err
				}
			case isTerminal(stdout):
				selected, err := pickExample()
				if err != nil || selected == nil {
					return err
				}
				ex = *selected
			default:
				ex = examples.Default()
			}

			if err := writeOutput(output, stdout, []byte(ex.Source)); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Wrote %s example", ex.Title)
				printFile(output)
				printNextStep("Render it", fmt.Sprintf("%s render %s", appName, output))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list available examples")

	return cmd
}

// pickExample runs the interactive picker. It returns nil when the user quits.
func pickExample() (*examples.Example, error) {
	final, err := tea.NewProgram(NewExampleListModel(examples.All())).Run()
	if err != nil {
		return nil, err
	}
	return final.(ExampleListModel).Selected, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
