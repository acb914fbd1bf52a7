// Package misc keeps program identity and build information.
package misc

import (
	"runtime/debug"
)

// set by linker
var (
	appName = "h2w"
	version = "0.0.0-dev"
	gitHash string
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

// GetGitHash returns commit hash program was built from. When linker did not
// provide one, VCS information embedded by the toolchain is used.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
