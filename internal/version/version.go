// Package version holds build metadata set with -ldflags -X.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the metadata for humans.
func String() string {
	return Version + " (commit " + Commit + ", built " + Date + ")"
}
