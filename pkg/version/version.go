// Package version carries the build metadata stamped in via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time:
//
//	go build -ldflags "-X .../pkg/version.Version=v1.2.3 -X .../pkg/version.Commit=abc123"
var (
	Version = "dev"
	Commit  = "unknown"
)

// String returns the one-line banner printed by mpegprobe -version.
func String() string {
	return fmt.Sprintf("mpegprobe %s (commit %s, %s)", Version, Commit, runtime.Version())
}
