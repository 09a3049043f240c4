package svg

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/sherafyk/vectorize-svc/pkg/trace"
)

// Transform maps bitmap coordinates into the size×size viewport: a uniform
// scale followed by a centering translation.
type Transform struct {
	Scale  float64
	TX, TY float64
}

// Normalize fits a w×h drawing into a size×size square, preserving the
// aspect ratio and centering the shorter axis.
func Normalize(w, h, size int) Transform {
	fw, fh, fs := float64(w), float64(h), float64(size)
	scale := min(fs/fw, fs/fh)
	return Transform{
		Scale: scale,
		TX:    (fs - fw*scale) / 2,
		TY:    (fs - fh*scale) / 2,
	}
}

// Apply maps p through the transform.
func (t Transform) Apply(p trace.Point) trace.Point {
	return trace.Point{X: p.X*t.Scale + t.TX, Y: p.Y*t.Scale + t.TY}
}

// String renders the transform as an SVG transform attribute value.
func (t Transform) String() string {
	return "translate(" + FormatNumber(t.TX) + " " + FormatNumber(t.TY) + ") scale(" + FormatNumber(t.Scale) + ")"
}

// PathData encodes ps as the d attribute of a single path element. Each
// curve becomes "M x y", then "L cx cy L ex ey" per corner or
// "C c1x c1y c2x c2y ex ey" per smooth segment, then "Z". Curves are joined
// by a single space. An empty set yields "".
func PathData(ps trace.PathSet) string {
	var b strings.Builder
	for i, c := range ps {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("M ")
		writePoint(&b, c.Start)
		for _, s := range c.Segments {
			switch s.Kind {
			case trace.Corner:
				b.WriteString(" L ")
				writePoint(&b, s.C)
				b.WriteString(" L ")
				writePoint(&b, s.End)
			case trace.Smooth:
				b.WriteString(" C ")
				writePoint(&b, s.C1)
				b.WriteByte(' ')
				writePoint(&b, s.C2)
				b.WriteByte(' ')
				writePoint(&b, s.End)
			}
		}
		b.WriteString(" Z")
	}
	return b.String()
}

func writePoint(b *strings.Builder, p trace.Point) {
	b.WriteString(FormatNumber(p.X))
	b.WriteByte(' ')
	b.WriteString(FormatNumber(p.Y))
}

// Render builds the output document for a w×h trace:
//
//	<svg version="1.0" xmlns="…" width="size" height="size" viewBox="0 0 size size" preserveAspectRatio="xMidYMid meet">
//	  <g fill="#000000" stroke="none">
//	    <g transform="translate(tx ty) scale(s)">
//	      <path d="…"/>
//
// Path coordinates stay in bitmap space; the inner group carries the
// normalization.
func Render(ps trace.PathSet, w, h, size int) (string, error) {
	sz := FormatNumber(float64(size))

	doc := etree.NewDocument()
	root := doc.CreateElement("svg")
	root.CreateAttr("version", "1.0")
	root.CreateAttr("xmlns", Namespace)
	root.CreateAttr("width", sz)
	root.CreateAttr("height", sz)
	root.CreateAttr("viewBox", "0 0 "+sz+" "+sz)
	root.CreateAttr("preserveAspectRatio", "xMidYMid meet")

	outer := root.CreateElement("g")
	outer.CreateAttr("fill", "#000000")
	outer.CreateAttr("stroke", "none")

	inner := outer.CreateElement("g")
	inner.CreateAttr("transform", Normalize(w, h, size).String())

	path := inner.CreateElement("path")
	path.CreateAttr("d", PathData(ps))

	return doc.WriteToString()
}
