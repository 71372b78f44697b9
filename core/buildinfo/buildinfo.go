// Package buildinfo carries version metadata stamped at link time:
//
//	go build -ldflags "-X 'github.com/gomida/gamebot/core/buildinfo.Version=v0.4.0' \
//	  -X 'github.com/gomida/gamebot/core/buildinfo.Commit=abcdef0' \
//	  -X 'github.com/gomida/gamebot/core/buildinfo.Date=2026-10-01T12:00:00Z'"
package buildinfo

var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// Info is the JSON-friendly view served by the ops endpoint.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date,omitempty"`
}

// Current returns the stamped build metadata.
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}
