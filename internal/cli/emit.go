package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect"
)

// emitCommand creates the emit command, which writes a JSON node graph as
// diagram text.
func (c *CLI) emitCommand() *cobra.Command {
	var dialectName, output string

	cmd := &cobra.Command{
		Use:   "emit [graph.json]",
		Short: "Write a JSON node graph as flowchart or DOT text",
		Example: `  flowchart emit graph.json --dialect dot -o graph.dot
  flowchart extract a.mmd | flowchart emit - -d flowchart`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := diagram.ParseDialect(dialectName)
			if err != nil {
				return err
			}
			return runEmit(cmd.Context(), args[0], d, output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&dialectName, "dialect", "d", string(diagram.Flowchart), "target dialect: flowchart, dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func runEmit(ctx context.Context, input string, d diagram.Dialect, output string, stdout io.Writer) error {
	logger := loggerFromContext(ctx)

	var g *diagram.Graph
	var err error
	if input == "-" {
		g, err = diagram.ReadJSON(os.Stdin)
	} else {
		g, err = diagram.ImportJSON(input)
	}
	if err != nil {
		return err
	}

	text, err := dialect.Emit(g, d)
	if err != nil {
		return err
	}
	logger.Debugf("Emitted %d nodes as %s", len(g.Nodes), d)
	return writeOutput(output, stdout, []byte(text))
}
