// Package version holds the build version, overridable with
// -ldflags "-X github.com/menta2k/thumbnailer/internal/version.Version=...".
package version

// Version of the thumbnailer module
var Version = "1.0.0"

// String returns Version, or "dev" when it was blanked at link time.
func String() string {
	if Version == "" {
		return "dev"
	}
	return Version
}
