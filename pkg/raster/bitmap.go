package raster

// Bitmap is an immutable binary image. A set pixel is foreground and is what
// the tracer outlines.
type Bitmap struct {
	w, h int
	bits []bool
}

// NewBitmapFunc builds a w×h bitmap, asking fn for every pixel in row-major
// order.
func NewBitmapFunc(w, h int, fn func(x, y int) bool) *Bitmap {
	bm := &Bitmap{w: w, h: h, bits: make([]bool, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			bm.bits[y*w+x] = fn(x, y)
		}
	}
	return bm
}

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int { return b.w }

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int { return b.h }

// At reports whether (x, y) is foreground. Out-of-range pixels are background.
func (b *Bitmap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return false
	}
	return b.bits[y*b.w+x]
}

// Count returns the number of foreground pixels.
func (b *Bitmap) Count() int {
	n := 0
	for _, v := range b.bits {
		if v {
			n++
		}
	}
	return n
}
