// Package scene reads scene description files into a layout tree.
//
// A scene is a TOML or JSON document with a [scene] header and a list of
// nested nodes:
//
//	[scene]
//	width = 800
//	height = 600
//	rem = 16
//
//	[[node]]
//	name = "toolbar"
//	anchor = "top_center"
//	size = ["100%", "48px"]
//	layout = { kind = "hstack", spacing = 8, padding = 4 }
//
//	  [[node.children]]
//	  name = "title"
//	  text = "Untitled"
//	  font_size = "1.25rem"
//
// Lengths accept every literal [units.Parse] understands. Anchors are
// canonical names ("top_left") or "x,y" fractions. Rotation is in degrees.
//
// A node's dimension is inferred when it is not named: an aspect table
// gives an aspect-locked size, a size gives an owned size, text gives a
// measured size and a layout without size gives a content-sized node.
package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/anchorlay/pkg/errors"
	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/layout"
	"github.com/matzehuels/anchorlay/pkg/measure"
	"github.com/matzehuels/anchorlay/pkg/resolve"
	"github.com/matzehuels/anchorlay/pkg/tree"
	"github.com/matzehuels/anchorlay/pkg/units"
)

// Scene formats.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Default viewport used when the header leaves it out.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Scene is a loaded scene.
type Scene struct {
	Tree     *tree.Tree
	Viewport geom.Vec2
	Rem      float64
	// Texts holds the text of every node that has one.
	Texts map[tree.NodeID]string
}

// Context returns the scene's resolution context.
func (s *Scene) Context() resolve.StaticContext {
	return resolve.StaticContext{Size: s.Viewport, Rem: s.Rem}
}

// Measurer returns a text measurer for the scene's texts at the em size
// each node resolves to.
func (s *Scene) Measurer(opts ...measure.TextOption) *measure.Text {
	return measure.NewText(s.Texts, measure.Ems(s.Tree, s.Rem), opts...)
}

type file struct {
	Scene header `toml:"scene" json:"scene"`
	Nodes []node `toml:"node" json:"nodes"`
}

type header struct {
	Width  float64 `toml:"width" json:"width"`
	Height float64 `toml:"height" json:"height"`
	Rem    float64 `toml:"rem" json:"rem"`
}

type node struct {
	Name         string      `toml:"name" json:"name"`
	Anchor       string      `toml:"anchor" json:"anchor"`
	ParentAnchor string      `toml:"parent_anchor" json:"parent_anchor"`
	Offset       pair        `toml:"offset" json:"offset"`
	Size         pair        `toml:"size" json:"size"`
	Dimension    string      `toml:"dimension" json:"dimension"`
	Aspect       *aspectSpec `toml:"aspect" json:"aspect"`
	FontSize     string      `toml:"font_size" json:"font_size"`
	Rotation     float64     `toml:"rotation" json:"rotation"`
	Scale        []float64   `toml:"scale" json:"scale"`
	Z            float64     `toml:"z" json:"z"`
	Opacity      *float64    `toml:"opacity" json:"opacity"`
	Visible      *bool       `toml:"visible" json:"visible"`
	Linebreak    bool        `toml:"linebreak" json:"linebreak"`
	Text         *string     `toml:"text" json:"text"`
	Layout       *layoutSpec `toml:"layout" json:"layout"`
	Children     []node      `toml:"children" json:"children"`
}

type aspectSpec struct {
	Ratio    float64 `toml:"ratio" json:"ratio"`
	DrivenBy string  `toml:"driven_by" json:"driven_by"`
	Length   length  `toml:"length" json:"length"`
}

type layoutSpec struct {
	Kind        string  `toml:"kind" json:"kind"`
	Direction   string  `toml:"direction" json:"direction"`
	Spacing     float64 `toml:"spacing" json:"spacing"`
	LineSpacing float64 `toml:"line_spacing" json:"line_spacing"`
	Padding     pair    `toml:"padding" json:"padding"`
	Align       string  `toml:"align" json:"align"`
	Columns     int     `toml:"columns" json:"columns"`
	Rows        int     `toml:"rows" json:"rows"`
	Cells       string  `toml:"cells" json:"cells"`
	Wrap        float64 `toml:"wrap" json:"wrap"`
}

// FormatFromPath returns the scene format implied by path's extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer scene format from %q (want .toml or .json)", path)
}

// DetectFormat guesses the format of data: JSON objects start with '{'.
func DetectFormat(data []byte) string {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return FormatJSON
	}
	return FormatTOML
}

// Read decodes a scene in the given format from r.
//
// Read returns an INVALID_FORMAT error for an unknown format and an
// INVALID_SCENE error when the document does not decode or a node has a
// bad attribute. Errors name the offending node by its path of names or
// indices, e.g. "toolbar/2".
func Read(r io.Reader, format string) (*Scene, error) {
	if err := errors.ValidateFormat(format, FormatTOML, FormatJSON); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes scene data. An empty format is detected from the data.
func Parse(data []byte, format string) (*Scene, error) {
	if format == "" {
		format = DetectFormat(data)
	}
	var f file
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode toml")
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode json")
		}
	default:
		return nil, errors.ValidateFormat(format, FormatTOML, FormatJSON)
	}
	return build(f)
}

// Load reads the scene file at path, inferring the format from its
// extension.
func Load(path string) (*Scene, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func build(f file) (*Scene, error) {
	h := f.Scene
	for _, v := range []float64{h.Width, h.Height, h.Rem} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New(errors.ErrCodeInvalidScene, "scene header needs finite non-negative width, height and rem")
		}
	}
	s := &Scene{
		Tree:     tree.New(),
		Viewport: geom.V(orDefault(h.Width, DefaultWidth), orDefault(h.Height, DefaultHeight)),
		Rem:      orDefault(h.Rem, resolve.DefaultRootEm),
		Texts:    make(map[tree.NodeID]string),
	}
	b := builder{scene: s, names: make(map[string]bool)}
	for i, n := range f.Nodes {
		if err := b.add(tree.None, n, label("", i, n)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type builder struct {
	scene *Scene
	names map[string]bool
}

func (b *builder) add(parent tree.NodeID, n node, path string) error {
	attrs, err := attributes(n)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScene, err, "node %s", path)
	}
	if n.Name != "" {
		if b.names[n.Name] {
			return errors.New(errors.ErrCodeInvalidScene, "node %s: duplicate name %q", path, n.Name)
		}
		b.names[n.Name] = true
	}
	id, err := b.scene.Tree.AddNode(parent, attrs)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScene, err, "node %s", path)
	}
	if n.Text != nil {
		b.scene.Texts[id] = *n.Text
	}
	for i, c := range n.Children {
		if err := b.add(id, c, label(path+"/", i, c)); err != nil {
			return err
		}
	}
	return nil
}

func label(prefix string, i int, n node) string {
	if n.Name != "" {
		return prefix + n.Name
	}
	return fmt.Sprintf("%s%d", prefix, i)
}

func attributes(n node) (tree.Attributes, error) {
	a := tree.DefaultAttributes()
	if n.Name != "" {
		if err := errors.ValidateNodeName(n.Name); err != nil {
			return a, err
		}
	}
	a.Name = n.Name
	a.Linebreak = n.Linebreak
	a.Z = n.Z
	if n.Opacity != nil {
		a.Opacity = *n.Opacity
	}
	if n.Visible != nil {
		a.Visible = *n.Visible
	}

	var err error
	if n.Anchor != "" {
		if a.Offset.Anchor, err = parseAnchor(n.Anchor); err != nil {
			return a, err
		}
	}
	if n.ParentAnchor != "" {
		p, err := parseAnchor(n.ParentAnchor)
		if err != nil {
			return a, fmt.Errorf("parent_anchor: %w", err)
		}
		a.Offset = a.Offset.WithParent(p)
	}
	if a.Offset.Offset, err = n.Offset.size(); err != nil {
		return a, fmt.Errorf("offset: %w", err)
	}
	a.Offset.Rotation = n.Rotation * math.Pi / 180
	switch len(n.Scale) {
	case 0:
	case 1:
		a.Offset.Scale = geom.Splat(n.Scale[0])
	case 2:
		a.Offset.Scale = geom.V(n.Scale[0], n.Scale[1])
	default:
		return a, fmt.Errorf("scale: expected 1 or 2 values, got %d", len(n.Scale))
	}
	if a.FontSize, err = units.ParseFontSize(n.FontSize); err != nil {
		return a, fmt.Errorf("font_size: %w", err)
	}
	if n.Layout != nil {
		s, err := strategy(*n.Layout)
		if err != nil {
			return a, fmt.Errorf("layout: %w", err)
		}
		a.Layout = &s
	}
	if a.Dimension, err = dimension(n); err != nil {
		return a, err
	}
	return a, nil
}

func dimension(n node) (layout.Dimension, error) {
	kind := strings.ToLower(n.Dimension)
	if kind == "" {
		switch {
		case n.Aspect != nil:
			kind = "aspect"
		case len(n.Size) > 0:
			kind = "owned"
		case n.Text != nil:
			kind = "copied"
		case n.Layout != nil:
			kind = "dynamic"
		default:
			kind = "owned"
		}
	}

	switch kind {
	case "owned", "fixed":
		size, err := n.Size.size()
		if err != nil {
			return layout.Dimension{}, fmt.Errorf("size: %w", err)
		}
		return layout.Owned(size), nil
	case "copied", "content", "measured":
		return layout.Copied(), nil
	case "dynamic", "fit":
		return layout.Dynamic(), nil
	case "aspect":
		if n.Aspect == nil {
			return layout.Dimension{}, fmt.Errorf("dimension aspect needs an aspect table")
		}
		l, err := units.Parse(string(n.Aspect.Length))
		if err != nil {
			return layout.Dimension{}, fmt.Errorf("aspect length: %w", err)
		}
		axis := units.AxisX
		switch strings.ToLower(n.Aspect.DrivenBy) {
		case "", "x", "width":
		case "y", "height":
			axis = units.AxisY
		default:
			return layout.Dimension{}, fmt.Errorf("aspect driven_by %q: want width or height", n.Aspect.DrivenBy)
		}
		return layout.Aspect(n.Aspect.Ratio, axis, l), nil
	}
	return layout.Dimension{}, fmt.Errorf("unknown dimension %q", n.Dimension)
}

// strategy builds a layout strategy. Numeric configuration is not
// validated here; the resolver rejects a bad strategy per subtree.
func strategy(l layoutSpec) (layout.Strategy, error) {
	var s layout.Strategy
	dir := layout.LeftToRight
	align := layout.AlignCenter

	kind := strings.ToLower(l.Kind)
	switch kind {
	case "", "free":
		s.Kind = layout.KindFree
	case "stack", "hstack":
		s.Kind = layout.KindStack
	case "vstack":
		s.Kind, dir = layout.KindStack, layout.TopToBottom
	case "span", "hbox":
		s.Kind = layout.KindSpan
	case "vbox":
		s.Kind, dir = layout.KindSpan, layout.TopToBottom
	case "grid":
		s.Kind = layout.KindGrid
	case "paragraph", "flow":
		s.Kind, align = layout.KindParagraph, layout.AlignStart
	case "padding", "bounds":
		s.Kind = layout.KindBounds
	default:
		return s, errors.New(errors.ErrCodeInvalidLayout, "unknown layout kind %q", l.Kind)
	}

	var err error
	if l.Direction != "" {
		if dir, err = layout.ParseDirection(l.Direction); err != nil {
			return s, err
		}
	}
	if l.Align != "" {
		if align, err = layout.ParseAlignment(l.Align); err != nil {
			return s, err
		}
	}
	if l.Cells != "" {
		if s.Cells, err = layout.ParseCellPolicy(l.Cells); err != nil {
			return s, err
		}
	}
	if s.Padding, err = l.Padding.pixels(geom.Zero); err != nil {
		return s, fmt.Errorf("padding: %w", err)
	}
	s.Direction = dir
	s.Alignment = align
	s.Spacing = l.Spacing
	s.LineSpacing = l.LineSpacing
	s.Columns = l.Columns
	s.Rows = l.Rows
	s.WrapWidth = l.Wrap
	return s, nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
