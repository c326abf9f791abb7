package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/anchorlay/pkg/pipeline"
)

// treeCommand creates the tree command for node hierarchy diagrams.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		rawDOT  bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "tree [scene]",
		Short: "Draw the node hierarchy of a scene",
		Long: `Draw the node hierarchy of a scene.

Every node becomes a box linked to its parent; invisible nodes are dashed.
The diagram is laid out by Graphviz and written as SVG, or as DOT source
with --dot. --detailed adds each node's resolved size, center and em.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: sceneArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			opts.Formats = []string{pipeline.FormatTree}
			if rawDOT {
				opts.Formats = []string{pipeline.FormatDOT}
			}
			return c.runTree(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file ("-" for stdout, default: <scene>.tree.svg)`)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&rawDOT, "dot", false, "write DOT source instead of SVG")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show resolved geometry in node labels")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "viewport width in pixels (default: scene width)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "viewport height in pixels (default: scene height)")

	return cmd
}

func (c *CLI) runTree(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinner(ctx, "Drawing node tree...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Drawing failed")
		return err
	}
	spinner.Stop()

	format := opts.Formats[0]
	path := outputPath(output, opts.Path, format, true)
	if err := writeFile(path, result.Artifacts[format]); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	if path != "-" {
		printSuccess("Drew %d nodes", result.Stats.Emitted)
		printFile(path)
	}
	return nil
}
