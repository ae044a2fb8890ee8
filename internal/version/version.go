// Package version holds build metadata injected through -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version, commit and build date. Without ldflags the module
// version recorded by the go tool is used when available.
func Info() (string, string, string) {
	v := Version
	if v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}
	return v, GitCommit, BuildDate
}

// String formats the build metadata for --version.
func String() string {
	v, commit, date := Info()
	return fmt.Sprintf("%s (commit %s, built %s)", v, commit, date)
}
