package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect"
)

// convertCommand creates the convert command, which translates a diagram
// between dialects through its node graph.
func (c *CLI) convertCommand() *cobra.Command {
	var from, to, output string

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a diagram between the flowchart and DOT dialects",
		Long: `Convert extracts the node graph of a diagram and writes it in the other dialect.

Only what the node graph can represent survives: node labels, the four node kinds
and edges with their labels. Styling and layout directives are dropped.`,
		Example: `  flowchart convert process.mmd --to dot
  flowchart convert graph.dot -o graph.mmd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), args[0], from, to, output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source dialect (default: from extension)")
	cmd.Flags().StringVar(&to, "to", "", "target dialect (default: from output extension, else the other dialect)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func runConvert(ctx context.Context, input, from, to, output string, stdout io.Writer) error {
	logger := loggerFromContext(ctx)

	src, err := resolveDialect(from, input)
	if err != nil {
		return err
	}
	dst, err := targetDialect(src, to, output)
	if err != nil {
		return err
	}
	data, err := readInput(input)
	if err != nil {
		return err
	}

	text, diags, err := dialect.Convert(string(data), src, dst)
	if err != nil {
		return err
	}
	reportDiagnostics(ctx, input, diags)
	logger.Debugf("Converted %s to %s", src, dst)

	if err := writeOutput(output, stdout, []byte(text)); err != nil {
		return err
	}
	if output != "" {
		logger.Infof("Generated %s", output)
	}
	return nil
}

// targetDialect picks the conversion target: the --to flag, the output
// file extension, or otherwise the dialect that is not src.
func targetDialect(src diagram.Dialect, to, output string) (diagram.Dialect, error) {
	if to != "" {
		return diagram.ParseDialect(to)
	}
	if d, ok := diagram.DialectFromPath(output); ok {
		return d, nil
	}
	for _, d := range diagram.Dialects() {
		if d != src {
			return d, nil
		}
	}
	return "", fmt.Errorf("no target dialect for %s", src)
}
