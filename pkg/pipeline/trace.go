package pipeline

import (
	"time"

	"github.com/sherafyk/vectorize-svc/pkg/raster"
	"github.com/sherafyk/vectorize-svc/pkg/svg"
	"github.com/sherafyk/vectorize-svc/pkg/trace"
)

// Stats describes one trace.
type Stats struct {
	Width     int           `json:"width"`  // bitmap width after autocrop
	Height    int           `json:"height"` // bitmap height after autocrop
	Curves    int           `json:"curves"`
	Segments  int           `json:"segments"`
	Corners   int           `json:"corners"`
	Smooth    int           `json:"smooth"`
	TraceTime time.Duration `json:"trace_time"`
}

// Traced is the output of [Trace].
type Traced struct {
	SVG   string
	Paths trace.PathSet
	Stats Stats
}

// Trace runs the whole pipeline on data. It fails with INVALID_INPUT for
// bad options and INVALID_IMAGE for bytes that do not decode.
func Trace(data []byte, opts Options) (*Traced, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	prepared, err := raster.Prepare(data, opts.RasterOptions())
	if err != nil {
		return nil, err
	}
	bm := prepared.Bitmap

	paths, err := trace.Trace(bm, opts.TraceParams())
	if err != nil {
		return nil, err
	}

	doc, err := svg.Render(paths, bm.Width(), bm.Height(), opts.Size)
	if err != nil {
		return nil, err
	}

	segments, corners := paths.Segments()
	return &Traced{
		SVG:   doc,
		Paths: paths,
		Stats: Stats{
			Width:     bm.Width(),
			Height:    bm.Height(),
			Curves:    len(paths),
			Segments:  segments,
			Corners:   corners,
			Smooth:    segments - corners,
			TraceTime: time.Since(start),
		},
	}, nil
}

// Vectorize is [Trace] returning only the SVG document.
func Vectorize(data []byte, opts Options) (string, error) {
	t, err := Trace(data, opts)
	if err != nil {
		return "", err
	}
	return t.SVG, nil
}
