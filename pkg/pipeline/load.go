package pipeline

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/matzehuels/anchorlay/pkg/errors"
	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/observability"
	"github.com/matzehuels/anchorlay/pkg/scene"
)

// Load reads the scene named by opts and applies the viewport and root em
// overrides. It returns the raw document alongside the scene for hashing.
func Load(ctx context.Context, opts Options) (*scene.Scene, []byte, error) {
	source := opts.Source()
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	sc, data, err := load(opts)
	nodes := 0
	if sc != nil {
		nodes = sc.Tree.Len()
	}
	hooks.OnLoadComplete(ctx, source, nodes, time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	applyOverrides(sc, opts)
	return sc, data, nil
}

func load(opts Options) (*scene.Scene, []byte, error) {
	data := opts.Scene
	format := opts.SceneFormat
	if opts.Path != "" {
		var err error
		if format == "" {
			if format, err = scene.FormatFromPath(opts.Path); err != nil {
				return nil, nil, err
			}
		}
		if data, err = os.ReadFile(opts.Path); err != nil {
			if os.IsNotExist(err) {
				return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene %s", opts.Path)
			}
			return nil, nil, err
		}
	}
	if format == "" {
		format = scene.DetectFormat(data)
	}
	sc, err := scene.Read(bytes.NewReader(data), format)
	if err != nil {
		return nil, nil, err
	}
	return sc, data, nil
}

func applyOverrides(sc *scene.Scene, opts Options) {
	if opts.Width > 0 {
		sc.Viewport = geom.V(opts.Width, sc.Viewport.Y)
	}
	if opts.Height > 0 {
		sc.Viewport = geom.V(sc.Viewport.X, opts.Height)
	}
	if opts.Rem > 0 {
		sc.Rem = opts.Rem
	}
}
