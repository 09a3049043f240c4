package api

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	verrors "github.com/sherafyk/vectorize-svc/pkg/errors"
	"github.com/sherafyk/vectorize-svc/pkg/pipeline"
	"github.com/sherafyk/vectorize-svc/pkg/svg"
	"github.com/sherafyk/vectorize-svc/pkg/trace"
)

// request holds everything read from the query string of /vectorize.
type request struct {
	opts     pipeline.Options
	style    svg.Style
	download bool
	imageURL string
}

// parseRequest reads the query parameters. Absent parameters keep their
// defaults; a value that does not parse is an INVALID_INPUT error. Range
// checks are left to pipeline.Options.Validate.
func parseRequest(q url.Values) (request, error) {
	p := queryParser{q: q}
	req := request{opts: pipeline.DefaultOptions()}

	p.intParam("threshold", &req.opts.Threshold)
	if v := q.Get("turnpolicy"); v != "" {
		req.opts.TurnPolicy = trace.TurnPolicy(v)
	}
	p.floatParam("alphamax", &req.opts.AlphaMax)
	p.intParam("turdsize", &req.opts.TurdSize)
	p.intParam("size", &req.opts.Size)
	p.boolParam("opticurve", &req.opts.OptiCurve)
	p.floatParam("opttolerance", &req.opts.OptTolerance)
	req.opts.Background = q.Get("background")
	p.boolParam("invert", &req.opts.Invert)
	p.intParam("passes", &req.opts.Passes)
	p.boolParam("autocrop", &req.opts.Autocrop)

	req.style.Fill = q.Get("fill")
	req.style.Stroke = q.Get("stroke")
	if q.Get("stroke_width") != "" {
		var w float64
		if p.floatParam("stroke_width", &w) {
			if err := verrors.ValidateNonNegative("stroke_width", w); err != nil && p.err == nil {
				p.err = err
			}
			req.style.StrokeWidth = &w
		}
	}

	p.boolParam("download", &req.download)
	req.imageURL = q.Get("image_url")
	return req, p.err
}

// queryParser keeps the first parse error.
type queryParser struct {
	q   url.Values
	err error
}

func (p *queryParser) raw(name string) (string, bool) {
	v := strings.TrimSpace(p.q.Get(name))
	return v, v != "" && p.err == nil
}

func (p *queryParser) intParam(name string, dst *int) bool {
	v, ok := p.raw(name)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = verrors.New(verrors.ErrCodeInvalidInput, "%s: invalid integer %q", name, v)
		return false
	}
	*dst = n
	return true
}

func (p *queryParser) floatParam(name string, dst *float64) bool {
	v, ok := p.raw(name)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.err = verrors.New(verrors.ErrCodeInvalidInput, "%s: invalid number %q", name, v)
		return false
	}
	*dst = f
	return true
}

func (p *queryParser) boolParam(name string, dst *bool) bool {
	v, ok := p.raw(name)
	if !ok {
		return false
	}
	b, ok := parseBool(v)
	if !ok {
		p.err = verrors.New(verrors.ErrCodeInvalidInput, "%s: invalid boolean %q", name, v)
		return false
	}
	*dst = b
	return true
}

// parseBool accepts true/false, 1/0, yes/no and on/off in any case.
func parseBool(s string) (value, ok bool) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}
