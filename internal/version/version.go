// Package version carries build metadata for the lanecast binaries,
// overridden at build time via -ldflags.
package version

var (
	// Version is the lanecast release version.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
