// Package version holds build information for the alertrag binary.
// Release builds set the variables via -ldflags:
//
//	go build -ldflags="-X github.com/54b3r/alertrag-go/internal/version.Version=v0.3.0 \
//	                    -X github.com/54b3r/alertrag-go/internal/version.Commit=abc1234 \
//	                    -X github.com/54b3r/alertrag-go/internal/version.BuildDate=2026-01-01"
//
// Without ldflags the module version and VCS stamp embedded by the Go
// toolchain are used when present.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the semantic version of the binary.
	Version = "dev"
	// Commit is the short git SHA the binary was built from.
	Commit = "unknown"
	// BuildDate is the UTC build date.
	BuildDate = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	fillFromBuildInfo(info)
}

// fillFromBuildInfo replaces the defaults that ldflags left unset.
func fillFromBuildInfo(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" && s.Value != "" {
				Commit = s.Value
				if len(Commit) > 7 {
					Commit = Commit[:7]
				}
			}
		case "vcs.time":
			if BuildDate == "unknown" && s.Value != "" {
				BuildDate = s.Value
			}
		}
	}
}

// String returns a single-line summary for logs and `alertrag version`.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)
}
