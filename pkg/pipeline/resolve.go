package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/measure"
	"github.com/matzehuels/anchorlay/pkg/resolve"
	"github.com/matzehuels/anchorlay/pkg/scene"
	"github.com/matzehuels/anchorlay/pkg/sink"
)

// Measurer returns the measurement provider opts selects for sc. It is
// nil for MeasureNone.
func Measurer(sc *scene.Scene, opts Options) resolve.Measurer {
	switch opts.Measure {
	case MeasureNone:
		return nil
	case MeasureCells:
		return measure.NewCells(sc.Texts, geom.V(DefaultCellSize, 2*DefaultCellSize))
	}
	return sc.Measurer(measure.WithWrap(opts.Wrap))
}

// Resolve runs one pass over sc with r and collects the frame.
func Resolve(ctx context.Context, r *resolve.Resolver, sc *scene.Scene, opts Options) (sink.Frame, *resolve.Result, error) {
	rc := sc.Context()
	c := sink.NewCollector()
	res, err := r.Resolve(ctx, sc.Tree, Measurer(sc, opts), rc, c)
	if err != nil {
		return sink.Frame{}, nil, fmt.Errorf("resolve: %w", err)
	}
	return sink.NewFrame(rc, c.Transforms(), res), res, nil
}
