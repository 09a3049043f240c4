package svg

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	verrors "github.com/sherafyk/vectorize-svc/pkg/errors"
	"github.com/sherafyk/vectorize-svc/pkg/trace"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{2, "2"},
		{125, "125"},
		{2.0000001, "2"},
		{1.9999999, "2"},
		{-3, "-3"},
		{0.1, "0.1"},
		{1.26, "1.3"},
		{3.14159, "3.1"},
		{83.3333333, "83.3"},
		{10.96, "11"},
		{-2.5, "-2.5"},
		{0.04, "0"},
		{-0.04, "0"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		w, h, size int
		want       Transform
		str        string
	}{
		{2, 2, 250, Transform{Scale: 125}, "translate(0 0) scale(125)"},
		{4, 2, 100, Transform{Scale: 25, TY: 25}, "translate(0 25) scale(25)"},
		{1, 4, 100, Transform{Scale: 25, TX: 37.5}, "translate(37.5 0) scale(25)"},
		{3, 3, 250, Transform{Scale: 250.0 / 3}, "translate(0 0) scale(83.3)"},
	}

	for _, tt := range tests {
		got := Normalize(tt.w, tt.h, tt.size)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Normalize(%d, %d, %d) mismatch (-want +got):\n%s", tt.w, tt.h, tt.size, diff)
		}
		if s := got.String(); s != tt.str {
			t.Errorf("String() = %q, want %q", s, tt.str)
		}
	}

	tr := Normalize(4, 2, 100)
	if p := tr.Apply(trace.Point{X: 4, Y: 2}); p != (trace.Point{X: 100, Y: 75}) {
		t.Errorf("Apply = %v, want {100 75}", p)
	}
}

func samplePathSet() trace.PathSet {
	return trace.PathSet{
		{
			Start: trace.Point{X: 0, Y: 1},
			Segments: []trace.Segment{
				{Kind: trace.Corner, C: trace.Point{X: 0, Y: 0}, End: trace.Point{X: 1, Y: 0}},
				{Kind: trace.Smooth, C1: trace.Point{X: 1.25, Y: 0.5}, C2: trace.Point{X: 1.04, Y: 0.96}, End: trace.Point{X: 0, Y: 1}},
			},
		},
		{
			Start:    trace.Point{X: 2, Y: 2},
			Segments: []trace.Segment{{Kind: trace.Corner, C: trace.Point{X: 3, Y: 2}, End: trace.Point{X: 2, Y: 2}}},
		},
	}
}

func TestPathData(t *testing.T) {
	if got := PathData(nil); got != "" {
		t.Errorf("PathData(nil) = %q, want empty", got)
	}

	want := "M 0 1 L 0 0 L 1 0 C 1.2 0.5 1 1 0 1 Z M 2 2 L 3 2 L 2 2 Z"
	if got := PathData(samplePathSet()); got != want {
		t.Errorf("PathData mismatch\n got: %s\nwant: %s", got, want)
	}
}

var (
	dAttr      = regexp.MustCompile(`\sd="([^"]*)"`)
	transAttr  = regexp.MustCompile(`transform="([^"]*)"`)
	longDigits = regexp.MustCompile(`\.\d{2,}`)
)

func TestRender(t *testing.T) {
	out, err := Render(samplePathSet(), 3, 7, 250)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		`<svg version="1.0" xmlns="http://www.w3.org/2000/svg" width="250" height="250" viewBox="0 0 250 250" preserveAspectRatio="xMidYMid meet">`,
		`<g fill="#000000" stroke="none">`,
		`<g transform="translate(71.4 0) scale(35.7)">`,
		`<path d="M 0 1 `,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	for _, re := range []*regexp.Regexp{dAttr, transAttr} {
		m := re.FindStringSubmatch(out)
		if m == nil {
			t.Fatalf("no match for %s in %s", re, out)
		}
		if longDigits.MatchString(m[1]) {
			t.Errorf("more than one fractional digit in %q", m[1])
		}
	}
}

func TestRender_Empty(t *testing.T) {
	out, err := Render(trace.PathSet{}, 2, 2, 100)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, `d=""`) {
		t.Errorf("expected empty path data, got %s", out)
	}
	if !strings.Contains(out, `width="100" height="100"`) {
		t.Errorf("expected size 100, got %s", out)
	}
}

func renderSample(t *testing.T) string {
	t.Helper()
	out, err := Render(samplePathSet(), 2, 2, 250)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out
}

func pathAttrs(t *testing.T, doc string) []map[string]string {
	t.Helper()
	d, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var out []map[string]string
	for _, p := range Paths(d) {
		m := map[string]string{}
		for _, a := range p.Attr {
			m[a.Key] = a.Value
		}
		out = append(out, m)
	}
	return out
}

func TestApplyStyle(t *testing.T) {
	base := renderSample(t)
	d := PathData(samplePathSet())

	tests := []struct {
		name  string
		style Style
		want  map[string]string
	}{
		{"no-op", Style{}, map[string]string{"d": d}},
		{"fill", Style{Fill: "#ff0000"}, map[string]string{"d": d, "fill": "#ff0000"}},
		{"stroke and width", Style{Stroke: "#000000", StrokeWidth: Width(2)},
			map[string]string{"d": d, "stroke": "#000000", "stroke-width": "2"}},
		{"width without stroke", Style{StrokeWidth: Width(1.25)},
			map[string]string{"d": d, "stroke-width": "1.2"}},
		{"everything", Style{Fill: "red", Stroke: "blue", StrokeWidth: Width(0.5)},
			map[string]string{"d": d, "fill": "red", "stroke": "blue", "stroke-width": "0.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ApplyStyle(base, tt.style)
			if err != nil {
				t.Fatalf("ApplyStyle: %v", err)
			}
			got := pathAttrs(t, out)
			if diff := cmp.Diff([]map[string]string{tt.want}, got); diff != "" {
				t.Errorf("path attributes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyStyle_StrokeStrings(t *testing.T) {
	out, err := ApplyStyle(renderSample(t), Style{Stroke: "#000000", StrokeWidth: Width(2)})
	if err != nil {
		t.Fatalf("ApplyStyle: %v", err)
	}
	if !strings.Contains(out, `stroke="#000000"`) || !strings.Contains(out, `stroke-width="2"`) {
		t.Errorf("stroke attributes missing: %s", out)
	}
}

func TestApplyStyle_Idempotent(t *testing.T) {
	style := Style{Fill: "#123456", Stroke: "#abcdef", StrokeWidth: Width(3)}
	once, err := ApplyStyle(renderSample(t), style)
	if err != nil {
		t.Fatalf("ApplyStyle: %v", err)
	}
	twice, err := ApplyStyle(once, style)
	if err != nil {
		t.Fatalf("ApplyStyle: %v", err)
	}
	if once != twice {
		t.Errorf("second application changed the document\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestApplyStyle_NestedAndNamespaced(t *testing.T) {
	doc := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:o="urn:other">` +
		`<g><g><path d="M 0 0 Z"/></g></g>` +
		`<o:path d="M 1 1 Z"/>` +
		`<s:svg xmlns:s="http://www.w3.org/2000/svg"><s:path d="M 2 2 Z"/></s:svg>` +
		`</svg>`

	out, err := ApplyStyle(doc, Style{Fill: "#00ff00"})
	if err != nil {
		t.Fatalf("ApplyStyle: %v", err)
	}
	if n := strings.Count(out, `fill="#00ff00"`); n != 2 {
		t.Errorf("expected 2 styled paths, got %d: %s", n, out)
	}
	if !strings.Contains(out, `<o:path d="M 1 1 Z"/>`) {
		t.Errorf("foreign path was modified: %s", out)
	}
}

func TestApplyStyle_Charset(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>" +
		"<svg xmlns=\"http://www.w3.org/2000/svg\"><title>caf\xe9</title><path d=\"\"/></svg>"

	out, err := ApplyStyle(doc, Style{Fill: "black"})
	if err != nil {
		t.Fatalf("ApplyStyle: %v", err)
	}
	if !strings.Contains(out, "café") {
		t.Errorf("title not decoded: %q", out)
	}
	if !strings.Contains(out, `fill="black"`) {
		t.Errorf("path not styled: %s", out)
	}
}

func TestApplyStyle_Malformed(t *testing.T) {
	for _, doc := range []string{
		"",
		"<svg",
		"<svg><path></svg>",
		"not xml at all",
		"<svg></svg><svg></svg>",
	} {
		_, err := ApplyStyle(doc, Style{Fill: "red"})
		if err == nil {
			t.Errorf("ApplyStyle(%q) should fail", doc)
			continue
		}
		if !verrors.Is(err, verrors.ErrCodeMalformedSVG) {
			t.Errorf("ApplyStyle(%q) error = %v, want MALFORMED_SVG", doc, err)
		}
	}
}
