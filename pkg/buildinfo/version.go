// Package buildinfo reports which build of flowchart is running. The CLI
// prints it for --version and the server returns it from /healthz.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/hanhandi-git/flowchartRenderer/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/hanhandi-git/flowchartRenderer/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/hanhandi-git/flowchartRenderer/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Builds without ldflags (go install, go run) fall back to the module
// version and VCS stamp the Go toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Stamped by ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info describes a build.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the stamped build info, completed from the toolchain's
// embedded build info where ldflags left defaults.
func Get() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(Info{Version: Version, Commit: Commit, Date: Date}, bi)
}

func resolve(info Info, bi *debug.BuildInfo) Info {
	if bi == nil {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "none":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.Date == "unknown":
			info.Date = s.Value
		}
	}
	return info
}

// Template returns the version template string for cobra.
func Template() string {
	info := Get()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", info.Version, info.Commit, info.Date)
}
