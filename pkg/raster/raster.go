// Package raster turns encoded image bytes into the binary bitmap consumed by
// the tracer.
//
// The stages run in a fixed order and each one is exported so callers can
// inspect intermediate images:
//
//  1. [Decode]: PNG, JPEG, GIF, BMP, TIFF and WEBP via the image codecs
//  2. [Composite]: flatten onto an opaque background color (optional)
//  3. [Autocrop]: crop to the content bounding box (optional)
//  4. [Grayscale]: ITU-R 601 luma
//  5. [Smooth]: repeated 3×3 smoothing to denoise before thresholding
//  6. [Threshold]: foreground is luma > threshold, optionally inverted
//
// [Prepare] runs the whole sequence.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the WEBP decoder

	verrors "github.com/sherafyk/vectorize-svc/pkg/errors"
)

// smoothKernel is the classic 3×3 smoothing kernel (center weight 5),
// normalized by its sum (13) during convolution.
var smoothKernel = [9]float64{
	1, 1, 1,
	1, 5, 1,
	1, 1, 1,
}

// MaxPixels bounds the declared width×height accepted by [Decode].
const MaxPixels = 89_478_485

// Options controls how a decoded image becomes a bitmap.
type Options struct {
	Threshold  int          // luma strictly above this is foreground
	Invert     bool         // flip foreground and background after thresholding
	Passes     int          // Passes-1 smoothing filters are applied
	Autocrop   bool         // crop to the content bounding box
	Background *color.NRGBA // composite onto this color first; nil skips
}

// Prepared is the result of [Prepare].
type Prepared struct {
	Bitmap *Bitmap
	Gray   *image.Gray // the thresholded grayscale image
}

// Prepare decodes data and runs every raster stage described by opts.
// It fails with an INVALID_IMAGE error when data cannot be decoded.
func Prepare(data []byte, opts Options) (*Prepared, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if opts.Background != nil {
		img = Composite(img, *opts.Background)
	}
	if opts.Autocrop {
		img = Autocrop(img)
	}
	gray := Smooth(Grayscale(img), opts.Passes-1)
	return &Prepared{
		Bitmap: Threshold(gray, opts.Threshold, opts.Invert),
		Gray:   gray,
	}, nil
}

// Decode decodes data with the registered image codecs. Images with an
// empty bounding box or more than [MaxPixels] pixels are rejected as
// undecodable. The size check reads only the header.
func Decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, verrors.InvalidImage(err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > MaxPixels {
		return nil, verrors.InvalidImage(fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels))
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, verrors.InvalidImage(err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, verrors.InvalidImage(fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy()))
	}
	return img, nil
}

// Composite flattens img onto an opaque canvas of color bg. The alpha of
// bg is ignored.
func Composite(img image.Image, bg color.NRGBA) *image.NRGBA {
	bg.A = 0xff
	src := imaging.Clone(img)
	canvas := imaging.New(src.Bounds().Dx(), src.Bounds().Dy(), bg)
	return imaging.Overlay(canvas, src, image.Pt(0, 0), 1.0)
}

// Autocrop crops img to [ContentBounds]. An image without content is
// returned unchanged.
func Autocrop(img image.Image) image.Image {
	r, ok := ContentBounds(img)
	if !ok || r == img.Bounds() {
		return img
	}
	return imaging.Crop(img, r)
}

// ContentBounds returns the bounding box of the image content. For images
// with any transparency that is the box of pixels with non-zero alpha;
// for opaque images it is the box of pixels that are not pure black.
// ok is false when no pixel qualifies.
func ContentBounds(img image.Image) (r image.Rectangle, ok bool) {
	b := img.Bounds()
	useAlpha := !isOpaque(img)

	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, ca := img.At(x, y).RGBA()
			var content bool
			if useAlpha {
				content = ca != 0
			} else {
				content = cr != 0 || cg != 0 || cb != 0
			}
			if !content {
				continue
			}
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

// Grayscale converts img to 8-bit luma. Alpha is dropped, the color values
// of transparent pixels are used as they are.
func Grayscale(img image.Image) *image.Gray {
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+b.Dx()*4]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return gray
}

// Smooth applies the smoothing filter n times. n <= 0 returns g unchanged.
func Smooth(g *image.Gray, n int) *image.Gray {
	if n <= 0 {
		return g
	}
	var img image.Image = g
	for range n {
		img = imaging.Convolve3x3(img, smoothKernel, &imaging.ConvolveOptions{Normalize: true})
	}
	return Grayscale(img)
}

// Threshold binarizes g: a pixel is foreground when its luma is strictly
// greater than threshold. invert flips the result.
func Threshold(g *image.Gray, threshold int, invert bool) *Bitmap {
	b := g.Bounds()
	return NewBitmapFunc(b.Dx(), b.Dy(), func(x, y int) bool {
		v := int(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
		return (v > threshold) != invert
	})
}
