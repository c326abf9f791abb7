package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/anchorlay/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The persistent pre-run attaches the CLI logger to the command context so
// helpers that only see a context can log through loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Anchorlay resolves anchor-offset layout trees into world transforms",
		Long: `Anchorlay resolves trees of anchored rectangles into world-space transforms.

Scenes are TOML or JSON files describing nested nodes with anchors, offsets,
unit-typed sizes and layout strategies (stacks, spans, grids, paragraphs).
Resolved frames can be written as JSON, drawn as SVG or explored interactively.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
