package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// Version is injected at build time via -ldflags.
	Version = "@version@"
	// GitCommit is injected at build time via -ldflags.
	GitCommit = "@revision@"
	// BuildNumber is injected at build time via -ldflags.
	BuildNumber = "@build@"
)

const (
	appName = "interbot"
	unknown = "UNKNOWN"
)

// resolve returns UNKNOWN for placeholders that were never substituted.
func resolve(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "@") {
		return unknown
	}
	return v
}

// AppName returns the application name.
func AppName() string {
	return appName
}

// GetVersion returns the short semantic version.
func GetVersion() string {
	return resolve(Version)
}

// GetCommit returns the git revision the binary was built from.
func GetCommit() string {
	return resolve(GitCommit)
}

// GetBuild returns the CI build number.
func GetBuild() string {
	return resolve(BuildNumber)
}

// Discordgo returns the discordgo module version linked into the binary.
func Discordgo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return unknown
	}
	for _, dep := range info.Deps {
		if dep.Path == "github.com/bwmarrin/discordgo" {
			return dep.Version
		}
	}
	return unknown
}

// GetFullVersion returns a user-facing build string.
func GetFullVersion() string {
	return fmt.Sprintf("%s/%s (commit: %s, build: %s)", appName, GetVersion(), GetCommit(), GetBuild())
}
