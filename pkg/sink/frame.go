package sink

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/resolve"
	"github.com/matzehuels/anchorlay/pkg/tree"
)

// Frame is the serializable result of one pass.
type Frame struct {
	Width       float64              `json:"width"`
	Height      float64              `json:"height"`
	Rem         float64              `json:"rem"`
	PassID      string               `json:"pass_id,omitempty"`
	Nodes       []Node               `json:"nodes"`
	Diagnostics []resolve.Diagnostic `json:"diagnostics,omitempty"`
	Skipped     []string             `json:"skipped,omitempty"`
}

// Node is one resolved node. X and Y are the world center, Width and
// Height the unscaled size and Rotation is in degrees.
type Node struct {
	ID       tree.NodeID `json:"id"`
	Name     string      `json:"name,omitempty"`
	Parent   tree.NodeID `json:"parent"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Rotation float64     `json:"rotation"`
	ScaleX   float64     `json:"scale_x"`
	ScaleY   float64     `json:"scale_y"`
	Em       float64     `json:"em"`
	Z        float64     `json:"z"`
	Opacity  float64     `json:"opacity"`
	Visible  bool        `json:"visible"`
	Depth    int         `json:"depth"`
}

// NewFrame builds a frame from transforms in emit order. res may be nil.
func NewFrame(rc resolve.ContextProvider, ts []resolve.Transform, res *resolve.Result) Frame {
	vp := rc.Viewport()
	f := Frame{
		Width:  vp.X,
		Height: vp.Y,
		Rem:    rc.RootEm(),
		Nodes:  make([]Node, len(ts)),
	}
	for i, t := range ts {
		f.Nodes[i] = nodeOf(t)
	}
	if res != nil {
		f.PassID = res.PassID
		f.Diagnostics = res.Diagnostics
		for _, err := range res.Skipped {
			f.Skipped = append(f.Skipped, err.Error())
		}
	}
	return f
}

func nodeOf(t resolve.Transform) Node {
	return Node{
		ID:       t.Node,
		Name:     t.Name,
		Parent:   t.Parent,
		X:        t.Center.X,
		Y:        t.Center.Y,
		Width:    t.Size.X,
		Height:   t.Size.Y,
		Rotation: t.Rotation * 180 / math.Pi,
		ScaleX:   t.Scale.X,
		ScaleY:   t.Scale.Y,
		Em:       t.Em,
		Z:        t.Z,
		Opacity:  t.Opacity,
		Visible:  t.Visible,
		Depth:    t.Depth,
	}
}

// Transform converts n back to a resolved transform.
func (n Node) Transform() resolve.Transform {
	size := geom.V(n.Width, n.Height)
	scale := geom.V(n.ScaleX, n.ScaleY)
	return resolve.Transform{
		Node:        n.ID,
		Parent:      n.Parent,
		Name:        n.Name,
		Center:      geom.V(n.X, n.Y),
		HalfExtents: size.Half().Mul(scale.Abs()),
		Size:        size,
		Rotation:    n.Rotation * math.Pi / 180,
		Scale:       scale,
		Em:          n.Em,
		Z:           n.Z,
		Opacity:     n.Opacity,
		Visible:     n.Visible,
		Depth:       n.Depth,
	}
}

// Corners returns the world corners of n, clockwise from the top-left.
func (n Node) Corners() [4]geom.Vec2 {
	return n.Transform().Rect().Corners()
}

// Find returns the first node named name.
func (f Frame) Find(name string) (Node, bool) {
	for _, n := range f.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// RenderJSON encodes f as indented JSON.
func RenderJSON(f Frame) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// ReadJSON decodes a frame written by RenderJSON.
func ReadJSON(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}
