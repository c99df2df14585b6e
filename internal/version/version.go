// Package version exposes the build metadata stamped into the vesperd binary.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time through -ldflags
// "-X github.com/vesperlabs/vesper/internal/version.Version=v1.0.0" etc.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Short returns just the version tag.
func Short() string {
	return Version
}

// Info is the one-line banner printed by `vesperd version`.
func Info() string {
	return fmt.Sprintf("vesperd %s (%s, built %s)", Version, shortCommit(), BuildDate)
}

// Full is the verbose form printed by `vesperd version -v`.
func Full() string {
	return fmt.Sprintf("vesperd %s\n  commit:  %s\n  built:   %s\n  runtime: %s %s/%s",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
