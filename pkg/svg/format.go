// Package svg turns traced curves into a fixed-size SVG document and
// restyles existing SVG documents.
//
// Every number written by this package goes through [FormatNumber], so
// output is compact and byte-stable across platforms: integers print
// without a decimal point and everything else carries exactly one
// fractional digit (trailing zeros dropped).
package svg

import (
	"math"
	"strconv"
	"strings"
)

// Namespace is the SVG XML namespace.
const Namespace = "http://www.w3.org/2000/svg"

const intEpsilon = 1e-6

// FormatNumber renders v for path data and attributes. Values within 1e-6
// of an integer print as that integer; the rest are rounded to one decimal
// with trailing "0" and "." removed.
func FormatNumber(v float64) string {
	r := math.Round(v)
	if math.Abs(v-r) < intEpsilon {
		return strconv.FormatInt(int64(r), 10)
	}
	s := strconv.FormatFloat(v, 'f', 1, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
