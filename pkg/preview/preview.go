// Package preview rasterizes generated SVG documents so a trace can be
// inspected without a browser.
package preview

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/sherafyk/vectorize-svc/pkg/svg"
)

// Render draws doc into a w×h image over background. The document's
// viewBox is stretched to the whole image. doc must be well-formed; a
// MALFORMED_SVG error is returned otherwise.
func Render(doc string, w, h int, background color.Color) (*image.RGBA, error) {
	d, err := svg.Parse(doc)
	if err != nil {
		return nil, err
	}
	expandScale(d.Root())
	src, err := d.WriteToString()
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return img, nil
}

// oneArgScale matches scale(s) with a single argument.
var oneArgScale = regexp.MustCompile(`scale\(\s*([-+.\deE]+)\s*\)`)

// expandScale rewrites scale(s) as scale(s s) in every transform under el.
// oksvg reads a lone argument as scale(s 0), which collapses the drawing.
func expandScale(el *etree.Element) {
	if el == nil {
		return
	}
	if a := el.SelectAttr("transform"); a != nil {
		a.Value = oneArgScale.ReplaceAllString(a.Value, "scale($1 $1)")
	}
	for _, c := range el.ChildElements() {
		expandScale(c)
	}
}

// WritePNG renders doc as a size×size PNG on white.
func WritePNG(out io.Writer, doc string, size int) error {
	img, err := Render(doc, size, size, color.White)
	if err != nil {
		return err
	}
	return png.Encode(out, img)
}
