package version

import (
	"strings"

	"github.com/carlmjohnson/versioninfo"
)

// Release is the semantic version of the desktop tools, set at build
// time via -ldflags "-X .../pkg/version.Release=v1.2.3".
var Release = "v1.0.0"

type GitInfo struct {
	Commit string `json:"commit"`
	Dirty  bool   `json:"dirty"`
}

type Info struct {
	Release string  `json:"release"`
	Git     GitInfo `json:"git"`
}

func Get() Info {
	return Info{
		Release: strings.TrimSpace(Release),
		Git: GitInfo{
			Commit: versioninfo.Revision,
			Dirty:  versioninfo.DirtyBuild,
		},
	}
}

// String renders the version the way the CLI prints it, e.g.
// "v1.0.0 (abc1234)".
func (i Info) String() string {
	out := i.Release
	if i.Git.Commit != "" && i.Git.Commit != "unknown" {
		commit := i.Git.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		out += " (" + commit
		if i.Git.Dirty {
			out += "-dirty"
		}
		out += ")"
	}
	return out
}
