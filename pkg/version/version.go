// Package version holds build information injected with ldflags:
//
//	go build -ldflags "-X github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/version.Version=v1.2.3"
package version

import "fmt"

//nolint:gochecknoglobals // These must be package-level vars for ldflags injection.
var (
	// Version is the semantic version, or "dev" for local builds.
	Version = "dev"

	// Commit is the git commit SHA of the build.
	Commit = "none"

	// Date is the build date in ISO format.
	Date = "unknown"
)

// String formats the build information for --version output.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
