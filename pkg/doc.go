// Package pkg provides the core libraries of anchorlay, an anchor-offset
// layout engine for 2D user interfaces.
//
// # Overview
//
// anchorlay places every node of a UI hierarchy by an anchor into its
// parent, an offset, a pivot and a size. Sizes may be fixed, relative to the
// parent, em based or content driven. A parent can hand its children to a
// layout strategy (stacks, spans, grids, paragraphs) instead of free
// placement. One pass resolves the whole tree into world transforms.
//
// The typical data flow:
//
//	Scene file (TOML or JSON)
//	         ↓
//	    [scene] package (parse into a node tree)
//	         ↓
//	    [resolve] package (measure, arrange, place)
//	         ↓
//	    [sink] package (collect transforms into a frame)
//	         ↓
//	    JSON/SVG/DOT output
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/anchorlay/pkg/resolve"
//	    "github.com/matzehuels/anchorlay/pkg/scene"
//	    "github.com/matzehuels/anchorlay/pkg/sink"
//	)
//
//	sc, _ := scene.Load("hud.toml")
//	out := sink.NewCollector()
//	res, _ := resolve.New(nil).Resolve(ctx, sc.Tree, sc.Measurer(), sc.Context(), out)
//	frame := sink.NewFrame(sc.Context(), out.Transforms(), res)
//	svg := sink.RenderSVG(frame, sink.WithLabels())
//
// # Main Packages
//
// ## Core
//
// [geom] - Vectors, rectangles and affine transforms in y-down screen space.
//
// [units] - Length values (px, %, em, rem) and their parsing.
//
// [anchor] - Named and numeric anchors, pivots and the anchor-offset
// placement rule.
//
// [layout] - Size dimensions and child layout strategies.
//
// [tree] - The node hierarchy with per-node attributes, dirty tracking and
// structural validation.
//
// [resolve] - The resolver that turns a tree into world transforms, plus the
// [resolve.Scheduler] that coalesces viewport, font and node changes into
// passes.
//
// [measure] - Text measurement against a bitmap font face or terminal cells.
//
// ## Input and Output
//
// [scene] - TOML and JSON scene files.
//
// [sink] - Transform collectors, serializable frames and JSON, SVG and DOT
// renderers.
//
// ## Infrastructure
//
// [pipeline] - Load, resolve and render with caching, shared by the CLI and
// the HTTP server.
//
// [cache] - Frame and artifact caches backed by files, Redis or nothing.
//
// [observability] - Hooks for resolve passes and HTTP requests.
//
// [errors] - Coded errors with user-facing messages.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/resolve/...            # Specific package
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/geom
// [units]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/units
// [anchor]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/anchor
// [layout]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/layout
// [tree]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/tree
// [resolve]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/resolve
// [measure]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/measure
// [scene]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/scene
// [sink]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/anchorlay/pkg/buildinfo
package pkg
