package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/anchorlay/pkg/pipeline"
)

// resolveCommand creates the resolve command, which runs the full
// load, resolve and render pipeline.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
		quiet      bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "resolve [scene]",
		Short: "Resolve a scene into a frame of world transforms",
		Long: `Resolve a scene into a frame of world transforms.

The scene (TOML or JSON) is resolved against its viewport and written in the
requested formats: json (the frame), svg (a drawing of every node), dot (the
node hierarchy) or tree (the hierarchy rendered by Graphviz).

With a single format, -o names the output file and "-" writes to stdout.
With several formats, -o is a base path and each format gets its extension.

Frames and artifacts are cached locally; --no-cache disables the cache.`,
		Example: `  anchorlay resolve ui.toml
  anchorlay resolve ui.toml -f svg,json --width 1920 --height 1080
  anchorlay resolve ui.json -f json -o - | jq '.nodes[0]'`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: sceneArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := pipeline.ValidateMeasure(opts.Measure); err != nil {
				return err
			}
			opts.Path = args[0]
			return c.runResolve(cmd.Context(), opts, output, noCache, quiet)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file (single format, "-" for stdout) or base path (multiple)`)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "resolve again even when a cached frame exists")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the summary")

	// Resolution flags
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "viewport width in pixels (default: scene width)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "viewport height in pixels (default: scene height)")
	cmd.Flags().Float64Var(&opts.Rem, "rem", 0, "root font size in pixels (default: scene rem)")
	cmd.Flags().StringVar(&opts.Measure, "measure", opts.Measure, "text measurement: text (default), cells, none")
	cmd.Flags().BoolVar(&opts.Wrap, "wrap", false, "wrap measured text to the available width")

	// Render flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), svg, dot, tree (comma-separated)")
	cmd.Flags().BoolVar(&opts.Labels, "labels", opts.Labels, "draw node names in svg output")
	cmd.Flags().BoolVar(&opts.Hidden, "hidden", false, "outline invisible nodes in svg output")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show sizes and positions in dot and tree output")

	return cmd
}

// runResolve executes the pipeline and writes every artifact.
func (c *CLI) runResolve(ctx context.Context, opts pipeline.Options, output string, noCache, quiet bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinner(ctx, fmt.Sprintf("Resolving %s...", opts.Path))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Resolution failed")
		return err
	}
	spinner.Stop()

	single := len(opts.Formats) == 1
	var written []string
	for _, format := range opts.Formats {
		path := outputPath(output, opts.Path, format, single)
		if err := writeFile(path, result.Artifacts[format]); err != nil {
			return fmt.Errorf("write %s: %w", format, err)
		}
		if path != "-" {
			written = append(written, path)
		}
	}

	if quiet || len(written) == 0 {
		return nil
	}
	printSuccess("Resolved %s", opts.Path)
	printStats(result.Stats.Emitted, result.Stats.Diagnostics, result.Stats.Skipped, result.CacheInfo.FrameHit)
	for _, path := range written {
		printFile(path)
	}
	writeDiagnostics(os.Stdout, result.Frame)
	return nil
}

// writeFile writes data to path, or to stdout for "-".
func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
