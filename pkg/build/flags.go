// SPDX-License-Identifier: MIT
// Package build carries metadata embedded at compile time via -ldflags:
// application name, build timestamp, Git commit, and semantic version.
package build

// Populated by -ldflags during compilation; development builds keep the
// "dev" defaults.
var (
	buildName    = "audioviz"
	buildTime    = "unknown"
	buildCommit  = "unknown"
	buildVersion = "dev"
)

// Info holds the build metadata for the running binary.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// GetInfo returns the build metadata.
func GetInfo() Info {
	return Info{
		Name:    buildName,
		Time:    buildTime,
		Commit:  buildCommit,
		Version: buildVersion,
	}
}
