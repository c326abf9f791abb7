package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/anchorlay/pkg/observability"
	"github.com/matzehuels/anchorlay/pkg/sink"
	"github.com/matzehuels/anchorlay/pkg/tree"
)

// Render generates output artifacts in the requested formats. texts are
// drawn into SVG output and may be nil.
func Render(ctx context.Context, f sink.Frame, texts map[tree.NodeID]string, opts Options) (map[string][]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := render(ctx, f, texts, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func render(ctx context.Context, f sink.Frame, texts map[tree.NodeID]string, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = sink.RenderJSON(f)
		case FormatSVG:
			data = sink.RenderSVG(f, buildSVGOptions(texts, opts)...)
		case FormatDOT:
			data = []byte(sink.ToDOT(f, sink.DOTOptions{Detailed: opts.Detailed}))
		case FormatTree:
			data, err = sink.RenderDOT(ctx, sink.ToDOT(f, sink.DOTOptions{Detailed: opts.Detailed}))
		default:
			err = fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func buildSVGOptions(texts map[tree.NodeID]string, opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.Labels {
		svgOpts = append(svgOpts, sink.WithLabels())
	}
	if len(texts) > 0 {
		svgOpts = append(svgOpts, sink.WithTexts(texts))
	}
	if opts.Hidden {
		svgOpts = append(svgOpts, sink.WithHidden())
	}
	return svgOpts
}
