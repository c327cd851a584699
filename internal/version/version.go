// Package version holds build metadata. The values are overridden at link time with -ldflags -X.
package version

var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)
