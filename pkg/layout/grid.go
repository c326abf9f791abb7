package layout

import (
	"math"

	"github.com/matzehuels/anchorlay/pkg/geom"
)

// gridShapeOK reports whether Columns*Rows is positive and within
// MaxGridCells.
func (s Strategy) gridShapeOK() bool {
	return s.Columns > 0 && s.Rows > 0 && s.Columns <= MaxGridCells/s.Rows
}

// tracks returns the column widths and row heights for the placed
// children. content is only consulted for CellsDivide.
func (s Strategy) tracks(children []Item, content geom.Vec2) (cols, rows []float64) {
	n := min(len(children), s.Columns*s.Rows)
	usedCols := min(n, s.Columns)
	usedRows := (n + s.Columns - 1) / s.Columns

	switch s.Cells {
	case CellsDivide:
		// Cells share the whole box; only occupied tracks are kept.
		cols = make([]float64, usedCols)
		rows = make([]float64, usedRows)
		w := math.Max(0, (content.X-s.Spacing*float64(s.Columns-1))/float64(s.Columns))
		h := math.Max(0, (content.Y-s.LineSpacing*float64(s.Rows-1))/float64(s.Rows))
		for i := range cols {
			cols[i] = w
		}
		for i := range rows {
			rows[i] = h
		}

	case CellsTracks:
		cols = make([]float64, usedCols)
		rows = make([]float64, usedRows)
		for i := 0; i < n; i++ {
			c, r := i%s.Columns, i/s.Columns
			cols[c] = math.Max(cols[c], children[i].Size.X)
			rows[r] = math.Max(rows[r], children[i].Size.Y)
		}

	default:
		var cell geom.Vec2
		for i := 0; i < n; i++ {
			cell = cell.Max(children[i].Size)
		}
		cols = make([]float64, usedCols)
		rows = make([]float64, usedRows)
		for i := range cols {
			cols[i] = cell.X
		}
		for i := range rows {
			rows[i] = cell.Y
		}
	}
	return cols, rows
}

// arrangeGrid assigns children row-major to cells starting at the top-left
// of the content box. Children past Columns*Rows keep free placement.
func (s Strategy) arrangeGrid(children []Item, content geom.Vec2, slots []Slot) {
	if !s.gridShapeOK() {
		return
	}
	cols, rows := s.tracks(children, content)

	colStart := offsets(cols, s.Spacing, -content.X/2)
	rowStart := offsets(rows, s.LineSpacing, -content.Y/2)

	n := min(len(children), s.Columns*s.Rows)
	for i := 0; i < n; i++ {
		c, r := i%s.Columns, i/s.Columns
		cell := geom.V(cols[c], rows[r])
		slots[i] = Slot{
			Center: geom.V(colStart[c], rowStart[r]).Add(cell.Half()),
			Half:   cell.Half(),
			Placed: true,
		}
	}
}

// offsets returns the leading coordinate of each track.
func offsets(sizes []float64, gap, origin float64) []float64 {
	out := make([]float64, len(sizes))
	pos := origin
	for i, sz := range sizes {
		out[i] = pos
		pos += sz + gap
	}
	return out
}

func (s Strategy) gridSize(children []Item) (geom.Vec2, bool) {
	if s.Cells == CellsDivide || !s.gridShapeOK() {
		return geom.Zero, false
	}
	cols, rows := s.tracks(children, geom.Zero)
	return geom.V(span(cols, s.Spacing), span(rows, s.LineSpacing)), true
}

// span is the total length of tracks separated by gap.
func span(sizes []float64, gap float64) float64 {
	if len(sizes) == 0 {
		return 0
	}
	total := gap * float64(len(sizes)-1)
	for _, sz := range sizes {
		total += sz
	}
	return total
}
