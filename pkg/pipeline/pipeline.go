// Package pipeline is the raster → SVG vectorization pipeline shared by the
// CLI and the HTTP API.
//
// # Stages
//
//  1. Rasterize: decode, composite, autocrop, grayscale, smooth, threshold
//     ([raster.Prepare])
//  2. Trace: outline the bitmap as closed curves ([trace.Trace])
//  3. Emit: normalize into a size×size square and serialize ([svg.Render])
//
// Styling ([svg.ApplyStyle]) runs after the pipeline and never feeds back
// into it.
//
// # Usage
//
// One-shot, no caching:
//
//	doc, err := pipeline.Vectorize(data, pipeline.DefaultOptions())
//
// With caching and bounded concurrency:
//
//	runner := pipeline.NewRunner(c, nil, logger, 4)
//	res, err := runner.Execute(ctx, data, opts, svg.Style{Fill: "#333"})
package pipeline

import (
	"image/color"
	"math"

	"github.com/sherafyk/vectorize-svc/pkg/cache"
	verrors "github.com/sherafyk/vectorize-svc/pkg/errors"
	"github.com/sherafyk/vectorize-svc/pkg/raster"
	"github.com/sherafyk/vectorize-svc/pkg/trace"
)

const (
	DefaultThreshold    = 128
	DefaultTurnPolicy   = trace.TurnMinority
	DefaultAlphaMax     = 1.0
	DefaultTurdSize     = 2
	DefaultSize         = 250
	DefaultOptiCurve    = true
	DefaultOptTolerance = 0.2
	DefaultPasses       = 1
)

// Options configures one vectorization. The zero value is not useful; start
// from [DefaultOptions].
type Options struct {
	Threshold    int              `json:"threshold"`
	TurnPolicy   trace.TurnPolicy `json:"turnpolicy"`
	AlphaMax     float64          `json:"alphamax"`
	TurdSize     int              `json:"turdsize"`
	Size         int              `json:"size"`
	OptiCurve    bool             `json:"opticurve"`
	OptTolerance float64          `json:"opttolerance"`
	Background   string           `json:"background,omitempty"`
	Invert       bool             `json:"invert,omitempty"`
	Passes       int              `json:"passes"`
	Autocrop     bool             `json:"autocrop,omitempty"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Threshold:    DefaultThreshold,
		TurnPolicy:   DefaultTurnPolicy,
		AlphaMax:     DefaultAlphaMax,
		TurdSize:     DefaultTurdSize,
		Size:         DefaultSize,
		OptiCurve:    DefaultOptiCurve,
		OptTolerance: DefaultOptTolerance,
		Passes:       DefaultPasses,
	}
}

// Validate checks every field and reports the first problem as an
// INVALID_INPUT error. An unrecognized turn policy is not an error; it is
// rewritten to minority.
func (o *Options) Validate() error {
	o.TurnPolicy = trace.ParseTurnPolicy(string(o.TurnPolicy))

	if err := verrors.ValidateRange("threshold", o.Threshold, 0, 255); err != nil {
		return err
	}
	if err := verrors.ValidateMin("size", o.Size, 1); err != nil {
		return err
	}
	if err := verrors.ValidateMin("turdsize", o.TurdSize, 0); err != nil {
		return err
	}
	if err := verrors.ValidateMin("passes", o.Passes, 1); err != nil {
		return err
	}
	if err := verrors.ValidateNonNegative("alphamax", o.AlphaMax); err != nil {
		return err
	}
	if err := verrors.ValidateNonNegative("opttolerance", o.OptTolerance); err != nil {
		return err
	}
	if math.IsInf(o.AlphaMax, 0) || math.IsInf(o.OptTolerance, 0) {
		return verrors.New(verrors.ErrCodeInvalidInput, "alphamax and opttolerance must be finite")
	}
	if _, err := o.background(); err != nil {
		return err
	}
	return nil
}

func (o *Options) background() (*color.NRGBA, error) {
	if o.Background == "" {
		return nil, nil
	}
	c, err := raster.ParseColor(o.Background)
	if err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeInvalidInput, err, "invalid background %q", o.Background)
	}
	return &c, nil
}

// RasterOptions returns the rasterization half of o. o must be valid.
func (o *Options) RasterOptions() raster.Options {
	bg, _ := o.background()
	return raster.Options{
		Threshold:  o.Threshold,
		Invert:     o.Invert,
		Passes:     o.Passes,
		Autocrop:   o.Autocrop,
		Background: bg,
	}
}

// TraceParams returns the tracer half of o.
func (o *Options) TraceParams() trace.Params {
	return trace.Params{
		TurdSize:     o.TurdSize,
		TurnPolicy:   o.TurnPolicy,
		AlphaMax:     o.AlphaMax,
		OptiCurve:    o.OptiCurve,
		OptTolerance: o.OptTolerance,
	}
}

// KeyOpts returns cache key options covering every field of o.
func (o *Options) KeyOpts() cache.SVGKeyOpts {
	return cache.SVGKeyOpts{
		Threshold:    o.Threshold,
		TurnPolicy:   string(o.TurnPolicy),
		AlphaMax:     o.AlphaMax,
		TurdSize:     o.TurdSize,
		Size:         o.Size,
		OptiCurve:    o.OptiCurve,
		OptTolerance: o.OptTolerance,
		Background:   o.Background,
		Invert:       o.Invert,
		Passes:       o.Passes,
		Autocrop:     o.Autocrop,
	}
}
