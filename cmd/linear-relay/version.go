package main

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
// Empty values fall back to the VCS stamp the Go toolchain embeds.
var (
	version = "0.1.0-dev"
	commit  string
	date    string
)

const unknown = "unknown"

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func (v versionInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", v.Version, v.Commit, v.BuildTime)
}

func currentVersionInfo() versionInfo {
	return resolveVersion(version, commit, date, vcsSettings())
}

// resolveVersion merges linker-provided values with the vcs.* build settings.
// A commit read from VCS gets a -dirty suffix when the tree was modified.
func resolveVersion(ver, rev, built string, vcs map[string]string) versionInfo {
	info := versionInfo{Version: ver, Commit: unknown, BuildTime: unknown}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	dirty := false
	if rev == "" {
		rev = vcs["vcs.revision"]
		dirty = vcs["vcs.modified"] == "true"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" {
		info.Commit = rev
		if dirty {
			info.Commit += "-dirty"
		}
	}

	if built == "" {
		built = vcs["vcs.time"]
	}
	if t, err := time.Parse(time.RFC3339, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}
	return info
}

func vcsSettings() map[string]string {
	settings := map[string]string{}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}
