package units

import (
	"strconv"
	"strings"

	"github.com/matzehuels/anchorlay/pkg/errors"
)

// suffixes is ordered so that longer suffixes win ("rem" before "em").
var suffixes = []struct {
	suffix string
	unit   Unit
	ref    Ref
}{
	{"rem", Rem, RefAuto},
	{"em", Em, RefAuto},
	{"px", Pixels, RefAuto},
	{"vw", ViewportPercent, RefWidth},
	{"vh", ViewportPercent, RefHeight},
	{"vp", ViewportPercent, RefAuto},
	{"%w", Percent, RefWidth},
	{"%h", Percent, RefHeight},
	{"%", Percent, RefAuto},
}

// Parse reads a length literal as written in scene files.
//
// Accepted forms: "12" and "12px" (pixels), "50%" (parent), "50%w" and
// "50%h" (parent width or height), "2em", "1rem", "10vw", "10vh", "10vp"
// (viewport, same axis), and margins "100%+4px", "100%-1em", "100%+2rem".
func Parse(s string) (Length, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return Length{}, errors.New(errors.ErrCodeInvalidLength, "empty length")
	}

	if rest, ok := strings.CutPrefix(in, "100%"); ok && rest != "" && (rest[0] == '+' || rest[0] == '-') {
		return parseMargin(s, rest)
	}

	for _, sf := range suffixes {
		num, ok := strings.CutSuffix(in, sf.suffix)
		if !ok {
			continue
		}
		v, err := parseNumber(s, num)
		if err != nil {
			return Length{}, err
		}
		return Length{Unit: sf.unit, Value: v, Ref: sf.ref}, nil
	}

	v, err := parseNumber(s, in)
	if err != nil {
		return Length{}, err
	}
	return Px(v), nil
}

func parseMargin(orig, rest string) (Length, error) {
	var unit Unit
	var num string
	switch {
	case strings.HasSuffix(rest, "rem"):
		unit, num = MarginRem, strings.TrimSuffix(rest, "rem")
	case strings.HasSuffix(rest, "em"):
		unit, num = MarginEm, strings.TrimSuffix(rest, "em")
	case strings.HasSuffix(rest, "px"):
		unit, num = MarginPx, strings.TrimSuffix(rest, "px")
	default:
		unit, num = MarginPx, rest
	}
	v, err := parseNumber(orig, num)
	if err != nil {
		return Length{}, err
	}
	return Length{Unit: unit, Value: v}, nil
}

func parseNumber(orig, num string) (float64, error) {
	num = strings.TrimSpace(num)
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidLength, err, "invalid length %q", orig)
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level literals.
func MustParse(s string) Length {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// ParseSize reads a pair of length literals.
func ParseSize(x, y string) (Size2, error) {
	lx, err := Parse(x)
	if err != nil {
		return Size2{}, err
	}
	ly, err := Parse(y)
	if err != nil {
		return Size2{}, err
	}
	return Size2{X: lx, Y: ly}, nil
}

// ParseFontSize reads a font size literal: "" or "inherit" keeps the
// parent em, "14" and "14px" set pixels, "1.5em" scales the parent em and
// "2rem" scales the root em.
func ParseFontSize(s string) (FontSize, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" || in == "inherit" {
		return FontSize{}, nil
	}
	l, err := Parse(in)
	if err != nil {
		return FontSize{}, err
	}
	switch l.Unit {
	case Pixels:
		return FontSize{Kind: FontPixels, Value: l.Value}, nil
	case Em:
		return FontSize{Kind: FontEms, Value: l.Value}, nil
	case Rem:
		return FontSize{Kind: FontRems, Value: l.Value}, nil
	}
	return FontSize{}, errors.New(errors.ErrCodeInvalidLength, "font size %q must be px, em or rem", s)
}

func (f FontSize) String() string {
	switch f.Kind {
	case FontPixels:
		return strconv.FormatFloat(f.Value, 'g', -1, 64) + "px"
	case FontEms:
		return strconv.FormatFloat(f.Value, 'g', -1, 64) + "em"
	case FontRems:
		return strconv.FormatFloat(f.Value, 'g', -1, 64) + "rem"
	}
	return "inherit"
}
