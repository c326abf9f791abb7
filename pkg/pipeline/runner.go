package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/anchorlay/pkg/cache"
	"github.com/matzehuels/anchorlay/pkg/observability"
	"github.com/matzehuels/anchorlay/pkg/resolve"
	"github.com/matzehuels/anchorlay/pkg/scene"
	"github.com/matzehuels/anchorlay/pkg/sink"
	"github.com/matzehuels/anchorlay/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner keeps no pipeline results. Its resolver serializes passes,
// so goroutines sharing a Runner resolve one scene at a time.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Resolver *resolve.Resolver
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		Resolver: resolve.New(logger),
	}
}

// Execute runs the complete load → resolve → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	sc, raw, err := Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Scene = sc
	result.SceneHash = cache.Hash(raw)
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = sc.Tree.Len()

	r.Logger.Info("loaded scene",
		"source", opts.Source(),
		"nodes", result.Stats.NodeCount,
		"viewport", fmt.Sprintf("%gx%g", sc.Viewport.X, sc.Viewport.Y),
		"duration", result.Stats.LoadTime)

	// Stage 2: Resolve
	resolveStart := time.Now()
	frame, pass, frameHit, err := r.ResolveWithCacheInfo(ctx, sc, result.SceneHash, opts)
	if err != nil {
		return nil, err
	}
	result.Frame = frame
	result.Pass = pass
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.Stats.Emitted = len(frame.Nodes)
	result.Stats.Diagnostics = len(frame.Diagnostics)
	result.Stats.Skipped = len(frame.Skipped)
	result.CacheInfo.FrameHit = frameHit

	r.Logger.Info("resolved frame",
		"nodes", result.Stats.Emitted,
		"diagnostics", result.Stats.Diagnostics,
		"cached", frameHit,
		"duration", result.Stats.ResolveTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, frame, result.SceneHash, sc.Texts, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ResolveWithCacheInfo resolves sc with caching and returns cache hit info.
// sceneHash identifies the scene document; pass is nil on a cache hit.
func (r *Runner) ResolveWithCacheInfo(ctx context.Context, sc *scene.Scene, sceneHash string, opts Options) (frame sink.Frame, pass *resolve.Result, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForResolve(); err != nil {
		return sink.Frame{}, nil, false, err
	}

	cacheKey := r.Keyer.FrameKey(sceneHash, opts.FrameKeyOpts(sc))
	hooks := observability.Cache()

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			if f, err := sink.ReadJSON(data); err == nil {
				hooks.OnCacheHit(ctx, "frame")
				return f, nil, true, nil
			}
			// If deserialization fails, fall through to resolve
		} else if err != nil {
			r.Logger.Warn("frame cache read failed", "error", err)
		}
		hooks.OnCacheMiss(ctx, "frame")
	}

	frame, pass, err = Resolve(ctx, r.resolver(), sc, opts)
	if err != nil {
		return sink.Frame{}, nil, false, err
	}
	for _, d := range pass.Diagnostics {
		opts.Logger.Debug("diagnostic", "node", d.Node, "code", d.Code, "message", d.Message)
	}
	for _, e := range pass.Skipped {
		opts.Logger.Warn("skipped subtree", "error", e)
	}

	// Cache the result
	if data, err := sink.RenderJSON(frame); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLFrame); err == nil {
			hooks.OnCacheSet(ctx, "frame", len(data))
		}
	}

	return frame, pass, false, nil
}

// Resolve is a convenience wrapper that calls ResolveWithCacheInfo and discards the cache hit info.
func (r *Runner) Resolve(ctx context.Context, sc *scene.Scene, sceneHash string, opts Options) (sink.Frame, error) {
	f, _, _, err := r.ResolveWithCacheInfo(ctx, sc, sceneHash, opts)
	return f, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, f sink.Frame, sceneHash string, texts map[tree.NodeID]string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	// The pass id differs between equal frames.
	keyed := f
	keyed.PassID = ""
	frameData, err := sink.RenderJSON(keyed)
	if err != nil {
		return nil, false, fmt.Errorf("serialize frame for cache key: %w", err)
	}
	frameHash := cache.Hash(append(frameData, sceneHash...))
	hooks := observability.Cache()

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(frameHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, cacheKey)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		hooks.OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	hooks.OnCacheMiss(ctx, "artifact")

	rendered, err := Render(ctx, f, texts, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(frameHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) resolver() *resolve.Resolver {
	if r.Resolver == nil {
		r.Resolver = resolve.New(r.Logger)
	}
	return r.Resolver
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
