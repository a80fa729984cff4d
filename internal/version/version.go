// Package version reports build metadata. Version and Commit are set with
//
//	go build -ldflags "-X cleanstage/internal/version.Version=1.2.0 -X cleanstage/internal/version.Commit=abc123"
//
// and otherwise fall back to the VCS stamp the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = ""
)

func commit() string {
	if Commit != "" {
		return Commit
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

// String is a single line suitable for `cleanstage version`.
func String() string {
	return fmt.Sprintf("cleanstage %s (commit %s, %s, %s/%s)",
		Version, commit(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
