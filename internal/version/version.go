package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/refdocs/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version line printed by --version. Without ldflags the
// module version recorded by the Go toolchain is used when there is one.
func String() string {
	v := Version
	if v == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return fmt.Sprintf("refdocs %s (commit %s, built %s)", v, GitCommit, BuildTime)
}
