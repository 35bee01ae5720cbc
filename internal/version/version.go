// Package version reports the warrig build version.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the release version, overridden at build time via
// -ldflags "-X github.com/steveyegge/warrig/internal/version.Version=...".
var Version = "dev"

// Commit is the git commit hash, set at build time the same way. When
// empty, the revision embedded by the Go toolchain is used instead.
var Commit = ""

// SetCommit overrides the commit hash. Used by tests and release
// tooling.
func SetCommit(hash string) {
	Commit = hash
}

// ShortCommit truncates a commit hash to 12 characters for display.
func ShortCommit(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// resolveCommitHash returns the Commit override when set, otherwise the
// VCS revision recorded in the binary's build info.
func resolveCommitHash() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return ""
}

// String renders the version line the CLI prints.
func String() string {
	if hash := resolveCommitHash(); hash != "" {
		return fmt.Sprintf("%s (%s)", Version, ShortCommit(hash))
	}
	return Version
}
