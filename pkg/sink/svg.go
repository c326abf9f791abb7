package sink

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"slices"

	"github.com/matzehuels/anchorlay/pkg/tree"
)

const fontFamily = `ui-monospace, 'SFMono-Regular', Menlo, monospace`

var depthFills = []string{"#e8f1fb", "#d3e5f7", "#bcd6f2", "#a3c6ec", "#8ab5e5"}

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	labels     bool
	texts      map[tree.NodeID]string
	hidden     bool
	background string
}

// WithLabels draws each node's name at its center.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithTexts draws node text instead of names for nodes that have one.
func WithTexts(texts map[tree.NodeID]string) SVGOption {
	return func(r *svgRenderer) { r.texts = texts }
}

// WithHidden outlines invisible nodes with a dashed stroke instead of
// leaving them out.
func WithHidden() SVGOption { return func(r *svgRenderer) { r.hidden = true } }

// WithBackground fills the viewport with color.
func WithBackground(color string) SVGOption {
	return func(r *svgRenderer) { r.background = color }
}

// RenderSVG draws every node of f as a rectangle in z order. Nodes with
// equal z keep emit order, so children paint over their parents.
func RenderSVG(f Frame, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	nodes := slices.Clone(f.Nodes)
	slices.SortStableFunc(nodes, func(a, b Node) int { return cmp.Compare(a.Z, b.Z) })

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		f.Width, f.Height, f.Width, f.Height)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(r.background))
	}
	for _, n := range nodes {
		if !n.Visible && !r.hidden {
			continue
		}
		r.renderNode(&buf, n)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderNode(buf *bytes.Buffer, n Node) {
	fmt.Fprintf(buf, `  <g id="node-%d" transform="translate(%.2f %.2f) rotate(%.2f) scale(%.4g %.4g)" opacity="%.3g">`+"\n",
		n.ID, n.X, n.Y, n.Rotation, n.ScaleX, n.ScaleY, n.Opacity)

	fill := depthFills[n.Depth%len(depthFills)]
	stroke := `stroke="#33506e" stroke-width="1"`
	if !n.Visible {
		fill = "none"
		stroke = `stroke="#9aa5b1" stroke-width="1" stroke-dasharray="4 3"`
	}
	fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" %s/>`+"\n",
		-n.Width/2, -n.Height/2, n.Width, n.Height, fill, stroke)

	if label := r.label(n); label != "" {
		fmt.Fprintf(buf, `    <text x="0" y="0" text-anchor="middle" dominant-baseline="central" font-family="%s" font-size="%.1f">%s</text>`+"\n",
			fontFamily, n.Em, escapeXML(label))
	}
	buf.WriteString("  </g>\n")
}

func (r *svgRenderer) label(n Node) string {
	if s, ok := r.texts[n.ID]; ok {
		return s
	}
	if r.labels {
		return n.Name
	}
	return ""
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
