// Package version records the build metadata stamped in through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// GetVersionInfo formats the stamped metadata as a single line for the
// version subcommand.
func GetVersionInfo() string {
	return fmt.Sprintf("mirror-voice version %s (commit: %s, built: %s, go: %s)",
		Version, GitCommit, BuildTime, runtime.Version())
}
