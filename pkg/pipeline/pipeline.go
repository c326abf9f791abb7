// Package pipeline provides the scene pipeline shared by the CLI and the
// HTTP server.
//
// The pipeline has three stages:
//
//  1. Load: Read a scene file or request body into a tree
//  2. Resolve: Run a layout pass and collect the frame
//  3. Render: Encode the frame as JSON, SVG, DOT or a Graphviz tree diagram
//
// Each stage can be run on its own. Resolved frames and rendered artifacts
// are cached by content hash, so an unchanged scene with unchanged options
// never runs a pass twice.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "ui.toml",
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/anchorlay/pkg/cache"
	"github.com/matzehuels/anchorlay/pkg/errors"
	"github.com/matzehuels/anchorlay/pkg/resolve"
	"github.com/matzehuels/anchorlay/pkg/scene"
	"github.com/matzehuels/anchorlay/pkg/sink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	// FormatTree is the node hierarchy rendered to SVG by Graphviz.
	FormatTree = "tree"
)

// Measurement providers for Copied nodes.
const (
	MeasureText  = "text"
	MeasureCells = "cells"
	MeasureNone  = "none"
)

// DefaultFormat is the output format used when none is requested.
const DefaultFormat = FormatJSON

// DefaultMeasure is the measurement provider used when none is requested.
const DefaultMeasure = MeasureText

// DefaultCellSize is the pixel size of one terminal cell for MeasureCells.
const DefaultCellSize = 8.0

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatSVG:  true,
	FormatDOT:  true,
	FormatTree: true,
}

// ValidMeasures is the set of supported measurement providers.
var ValidMeasures = map[string]bool{
	MeasureText:  true,
	MeasureCells: true,
	MeasureNone:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the scene pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Path names a scene file; otherwise Scene holds the
	// document itself.
	Path        string `json:"path,omitempty"`
	Scene       []byte `json:"-"`
	SceneFormat string `json:"scene_format,omitempty"`

	// Resolve options. Zero values keep the scene header.
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
	Rem     float64 `json:"rem,omitempty"`
	Measure string  `json:"measure,omitempty"`
	Wrap    bool    `json:"wrap,omitempty"`
	Refresh bool    `json:"refresh,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Labels   bool     `json:"labels,omitempty"`
	Hidden   bool     `json:"hidden,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scene is the loaded scene.
	Scene *scene.Scene

	// SceneHash is the content hash of the scene document.
	SceneHash string

	// Frame is the resolved frame.
	Frame sink.Frame

	// Pass summarizes the resolution pass. It is nil when the frame came
	// from the cache.
	Pass *resolve.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	Emitted     int
	Diagnostics int
	Skipped     int
	LoadTime    time.Duration
	ResolveTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	FrameHit  bool // Whether the frame came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, svg, dot, tree)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMeasure checks that a measurement provider name is valid.
func ValidateMeasure(m string) error {
	if !ValidMeasures[m] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid measure: %q (must be one of: text, cells, none)", m)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForResolve(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that a scene source is given.
func (o *Options) ValidateForLoad() error {
	if o.Path == "" && len(o.Scene) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scene path or scene data is required")
	}
	if o.SceneFormat != "" {
		if err := errors.ValidateFormat(o.SceneFormat, scene.FormatTOML, scene.FormatJSON); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// SetResolveDefaults sets default values for resolution.
func (o *Options) SetResolveDefaults() {
	if o.Measure == "" {
		o.Measure = DefaultMeasure
	}
	o.setLogger()
}

// ValidateForResolve validates and sets defaults for resolution.
func (o *Options) ValidateForResolve() error {
	o.SetResolveDefaults()
	for _, v := range []float64{o.Width, o.Height, o.Rem} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeInvalidInput, "width, height and rem must be finite and non-negative")
		}
	}
	return ValidateMeasure(o.Measure)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// Source names the scene for logs and hooks.
func (o *Options) Source() string {
	if o.Path != "" {
		return o.Path
	}
	return fmt.Sprintf("<%d bytes>", len(o.Scene))
}

// FrameKeyOpts returns cache key options for the frame of sc.
func (o *Options) FrameKeyOpts(sc *scene.Scene) cache.FrameKeyOpts {
	measure := o.Measure
	if o.Wrap {
		measure += "+wrap"
	}
	return cache.FrameKeyOpts{
		Width:   sc.Viewport.X,
		Height:  sc.Viewport.Y,
		Rem:     sc.Rem,
		Measure: measure,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Labels:   o.Labels,
		Hidden:   o.Hidden,
		Detailed: o.Detailed,
	}
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
