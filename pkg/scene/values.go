package scene

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/anchorlay/pkg/anchor"
	"github.com/matzehuels/anchorlay/pkg/geom"
	"github.com/matzehuels/anchorlay/pkg/units"
)

// length is a scene length literal. Numbers are pixels; strings use the
// units.Parse syntax.
type length string

func (l *length) UnmarshalTOML(v any) error { return l.set(v) }

func (l *length) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return l.set(v)
}

func (l *length) set(v any) error {
	switch x := v.(type) {
	case string:
		*l = length(x)
	case int64:
		*l = length(strconv.FormatInt(x, 10))
	case float64:
		*l = length(strconv.FormatFloat(x, 'g', -1, 64))
	default:
		return fmt.Errorf("length must be a number or string, got %T", v)
	}
	return nil
}

// pair is one value for both axes, or an [x, y] array.
type pair []length

func (p *pair) UnmarshalTOML(v any) error { return p.set(v) }

func (p *pair) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return p.set(v)
}

func (p *pair) set(v any) error {
	vs, ok := v.([]any)
	if !ok {
		vs = []any{v}
	}
	out := make(pair, len(vs))
	for i, x := range vs {
		if err := out[i].set(x); err != nil {
			return err
		}
	}
	*p = out
	return nil
}

func (p pair) size() (units.Size2, error) {
	switch len(p) {
	case 0:
		return units.Size2{}, nil
	case 1:
		l, err := units.Parse(string(p[0]))
		return units.Size2{X: l, Y: l}, err
	case 2:
		return units.ParseSize(string(p[0]), string(p[1]))
	}
	return units.Size2{}, fmt.Errorf("expected 1 or 2 values, got %d", len(p))
}

// pixels resolves p as a pixel vector. def fills an empty pair.
func (p pair) pixels(def geom.Vec2) (geom.Vec2, error) {
	if len(p) == 0 {
		return def, nil
	}
	s, err := p.size()
	if err != nil {
		return geom.Zero, err
	}
	if s.X.Unit != units.Pixels || s.Y.Unit != units.Pixels {
		return geom.Zero, fmt.Errorf("expected plain numbers, got %s %s", s.X, s.Y)
	}
	return geom.V(s.X.Value, s.Y.Value), nil
}

// parseAnchor reads a canonical name such as "top_left" or a custom
// fraction "x,y".
func parseAnchor(s string) (anchor.Anchor, error) {
	if a, err := anchor.Lookup(s); err == nil {
		return a, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) != 2 {
		return anchor.Center, fmt.Errorf("unknown anchor %q", s)
	}
	x, errX := strconv.ParseFloat(parts[0], 64)
	y, errY := strconv.ParseFloat(parts[1], 64)
	a := geom.V(x, y)
	if errX != nil || errY != nil || !anchor.Valid(a) {
		return anchor.Center, fmt.Errorf("anchor %q is not a fraction in [-1,1]", s)
	}
	return a, nil
}
