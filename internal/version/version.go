// Package version holds build-time version information, injected via
// -ldflags at release builds.
package version

var (
	// Version is the semantic release version.
	Version = "dev"
	// Commit is the git commit hash of the build.
	Commit = "unknown"
)
