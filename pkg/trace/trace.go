// Package trace outlines the foreground of a binary bitmap as closed curves.
//
// It is a thin boundary over github.com/dennwc/gotrace, a pure Go port of
// potrace. The tracer's own types never leak out of this package: callers
// get a [PathSet] of [Curve] values made of corner and smooth segments.
package trace

import (
	"fmt"
	"strings"

	"github.com/dennwc/gotrace"

	"github.com/sherafyk/vectorize-svc/pkg/raster"
)

// Point is a position in bitmap coordinates.
type Point struct {
	X, Y float64
}

// Kind tags a [Segment].
type Kind int

const (
	// Corner is drawn as two straight lines: Start→C→End.
	Corner Kind = iota
	// Smooth is a cubic Bézier with control points C1, C2.
	Smooth
)

// Segment is one piece of a [Curve]. Corner segments use C; smooth
// segments use C1 and C2. Both end at End.
type Segment struct {
	Kind   Kind
	C      Point
	C1, C2 Point
	End    Point
}

// Curve is a closed outline. The End of the last segment equals Start.
type Curve struct {
	Start    Point
	Segments []Segment
}

// PathSet is the ordered output of one trace. Order matters for the
// nonzero fill rule and is kept as the tracer produced it.
type PathSet []Curve

// Segments returns the total segment count and how many of them are
// corners.
func (ps PathSet) Segments() (total, corners int) {
	for _, c := range ps {
		total += len(c.Segments)
		for _, s := range c.Segments {
			if s.Kind == Corner {
				corners++
			}
		}
	}
	return total, corners
}

// TurnPolicy decides how ambiguous pixel junctions are resolved.
type TurnPolicy string

const (
	TurnBlack    TurnPolicy = "black"
	TurnWhite    TurnPolicy = "white"
	TurnLeft     TurnPolicy = "left"
	TurnRight    TurnPolicy = "right"
	TurnMinority TurnPolicy = "minority"
	TurnMajority TurnPolicy = "majority"
	TurnRandom   TurnPolicy = "random"
)

var turnPolicies = map[TurnPolicy]gotrace.TurnPolicy{
	TurnBlack:    gotrace.TurnBlack,
	TurnWhite:    gotrace.TurnWhite,
	TurnLeft:     gotrace.TurnLeft,
	TurnRight:    gotrace.TurnRight,
	TurnMinority: gotrace.TurnMinority,
	TurnMajority: gotrace.TurnMajority,
	TurnRandom:   gotrace.TurnRandom,
}

// TurnPolicies lists the recognized policy names.
var TurnPolicies = []TurnPolicy{
	TurnBlack, TurnWhite, TurnLeft, TurnRight, TurnMinority, TurnMajority, TurnRandom,
}

// ParseTurnPolicy maps a name to a policy, case-insensitively. Unknown
// names fall back to [TurnMinority].
func ParseTurnPolicy(s string) TurnPolicy {
	p := TurnPolicy(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := turnPolicies[p]; ok {
		return p
	}
	return TurnMinority
}

// Params are the tracer's tuning knobs.
type Params struct {
	TurdSize     int        // components with a smaller area are dropped
	TurnPolicy   TurnPolicy // junction tie-breaking
	AlphaMax     float64    // corner threshold; higher gives smoother output
	OptiCurve    bool       // merge adjacent Bézier segments
	OptTolerance float64    // error allowed when merging
}

// DefaultParams returns potrace's defaults.
func DefaultParams() Params {
	return Params{
		TurdSize:     2,
		TurnPolicy:   TurnMinority,
		AlphaMax:     1.0,
		OptiCurve:    true,
		OptTolerance: 0.2,
	}
}

// Trace outlines the foreground pixels of bm.
//
// An empty bitmap yields an empty PathSet and no error.
func Trace(bm *raster.Bitmap, p Params) (ps PathSet, err error) {
	w, h := bm.Width(), bm.Height()
	if w == 0 || h == 0 || bm.Count() == 0 {
		return PathSet{}, nil
	}

	src := gotrace.NewBitmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if bm.At(x, y) {
				src.Set(x, y, true)
			}
		}
	}

	defer func() {
		if r := recover(); r != nil {
			ps, err = nil, fmt.Errorf("trace: tracer panicked: %v", r)
		}
	}()

	paths, err := gotrace.Trace(src, &gotrace.Params{
		TurdSize:     p.TurdSize,
		TurnPolicy:   turnPolicies[ParseTurnPolicy(string(p.TurnPolicy))],
		AlphaMax:     p.AlphaMax,
		OptiCurve:    p.OptiCurve,
		OptTolerance: p.OptTolerance,
	})
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}

	ps = make(PathSet, 0, len(paths))
	return flatten(ps, paths), nil
}

// flatten appends each path followed by its children, depth first. Holes
// and the islands inside them live in Childs.
func flatten(ps PathSet, paths []gotrace.Path) PathSet {
	for _, path := range paths {
		if c, ok := convert(path); ok {
			ps = append(ps, c)
		}
		ps = flatten(ps, path.Childs)
	}
	return ps
}

func convert(p gotrace.Path) (Curve, bool) {
	if len(p.Curve) == 0 {
		return Curve{}, false
	}
	c := Curve{
		Start:    pt(p.Curve[len(p.Curve)-1].Pnt[2]),
		Segments: make([]Segment, 0, len(p.Curve)),
	}
	for _, s := range p.Curve {
		switch s.Type {
		case gotrace.TypeCorner:
			c.Segments = append(c.Segments, Segment{
				Kind: Corner,
				C:    pt(s.Pnt[1]),
				End:  pt(s.Pnt[2]),
			})
		default:
			c.Segments = append(c.Segments, Segment{
				Kind: Smooth,
				C1:   pt(s.Pnt[0]),
				C2:   pt(s.Pnt[1]),
				End:  pt(s.Pnt[2]),
			})
		}
	}
	return c, true
}

func pt(p gotrace.Point) Point { return Point{X: p.X, Y: p.Y} }
