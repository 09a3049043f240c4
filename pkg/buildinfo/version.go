// Package buildinfo carries version information stamped in at link time:
//
//	go build -ldflags "-X github.com/sherafyk/vectorize-svc/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/sherafyk/vectorize-svc/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/sherafyk/vectorize-svc/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the JSON shape served by GET /version.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the current build info.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// String returns the build info as "key: value" lines.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
