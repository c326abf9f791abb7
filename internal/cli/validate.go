package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/anchorlay/pkg/errors"
	"github.com/matzehuels/anchorlay/pkg/pipeline"
	"github.com/matzehuels/anchorlay/pkg/resolve"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var strict bool
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "validate [scene]",
		Short: "Check a scene for structural and layout errors",
		Long: `Check a scene for structural and layout errors.

The scene is parsed, its tree is checked for cycles and dangling links and a
full pass is run. Subtrees with invalid layout strategies are reported and
fail validation. Diagnostics (non-finite values, unavailable measurements,
grid overflow) are listed; with --strict they fail validation too.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: sceneArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			opts.Logger = c.Logger
			return runValidate(cmd.Context(), opts, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat diagnostics as errors")
	cmd.Flags().StringVar(&opts.Measure, "measure", opts.Measure, "text measurement: text (default), cells, none")

	return cmd
}

// runValidate resolves the scene once without caching and reports what it found.
func runValidate(ctx context.Context, opts pipeline.Options, strict bool) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	sc, _, err := pipeline.Load(ctx, opts)
	if err != nil {
		printError("%s", errors.UserMessage(err))
		return err
	}
	if err := sc.Tree.Validate(); err != nil {
		printError("invalid tree: %v", err)
		return errors.Wrap(errors.ErrCodeInvalidTree, err, "validate %s", opts.Path)
	}

	frame, pass, err := pipeline.Resolve(ctx, resolve.New(logger), sc, opts)
	if err != nil {
		printError("%s", errors.UserMessage(err))
		return err
	}
	prog.done(fmt.Sprintf("Validated %d nodes", sc.Tree.Len()))

	printKeyValue("scene", opts.Path)
	printKeyValue("viewport", fmt.Sprintf("%g x %g", sc.Viewport.X, sc.Viewport.Y))
	printKeyValue("nodes", fmt.Sprintf("%d of %d resolved", pass.Emitted, sc.Tree.Len()))
	writeDiagnostics(os.Stdout, frame)

	switch {
	case len(pass.Skipped) > 0:
		printError("%d subtree(s) have invalid layouts", len(pass.Skipped))
		return errors.New(errors.ErrCodeInvalidLayout, "%s: %d invalid subtree(s)", opts.Path, len(pass.Skipped))
	case strict && len(pass.Diagnostics) > 0:
		printError("%d diagnostic(s)", len(pass.Diagnostics))
		return errors.New(errors.ErrCodeInvalidScene, "%s: %d diagnostic(s)", opts.Path, len(pass.Diagnostics))
	case len(pass.Diagnostics) > 0:
		printWarning("Valid with %d diagnostic(s)", len(pass.Diagnostics))
	default:
		printSuccess("Scene is valid")
		printNextStep("Resolve it", fmt.Sprintf("%s resolve %s -f svg", appName, opts.Path))
	}
	return nil
}
