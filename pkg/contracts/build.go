// Package contracts holds the wire types shared by the server, the CLI and
// the browser client, plus the build identity stamped in at link time.
package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	// ProductName is shown in banners, the page title and CLI output.
	ProductName = "Electronics Sales Dashboard"

	// APIVersion versions the dashboard JSON and websocket messages.
	APIVersion = "v1"
)

// Set with -ldflags "-X salesdash/pkg/contracts.Version=...".
var (
	Version   = "dev"
	BuildTime = ""
	GitCommit = ""
)

// Build identifies the running binary.
type Build struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	BuildTime  string `json:"build_time,omitempty"`
	GitCommit  string `json:"git_commit,omitempty"`
	Modified   bool   `json:"modified,omitempty"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// CurrentBuild reports the link-time stamps, falling back to the VCS
// settings the go tool embeds when they were not set.
func CurrentBuild() Build {
	b := Build{
		Version:    Version,
		APIVersion: APIVersion,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.GitCommit == "" {
				b.GitCommit = s.Value
			}
		case "vcs.time":
			if b.BuildTime == "" {
				b.BuildTime = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

// String is the one-line banner printed by -version.
func (b Build) String() string {
	s := fmt.Sprintf("%s %s (%s, %s)", ProductName, b.Version, b.GoVersion, b.Platform)
	if b.GitCommit != "" {
		commit := b.GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if b.Modified {
			commit += "-dirty"
		}
		s += " commit " + commit
	}
	return s
}
