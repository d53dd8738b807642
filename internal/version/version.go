package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const defaultModule = "pkt.systems/livecoder"

// buildVersion is set via -ldflags "-X pkt.systems/livecoder/internal/version.buildVersion=...".
var buildVersion = ""

// Info describes the running binary.
type Info struct {
	Module    string
	Version   string
	GoVersion string
	Dirty     bool
}

// String renders the info as printed by `livecoder version`.
func (i Info) String() string {
	out := i.Module + " " + i.Version
	if i.Dirty {
		out += "+dirty"
	}
	if i.GoVersion != "" {
		out += " (" + i.GoVersion + ")"
	}
	return out
}

// Read collects version information from the build.
func Read() Info {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		info = nil
	}
	out := Info{Module: moduleFrom(info), Version: versionFrom(info)}
	if info != nil {
		out.GoVersion = info.GoVersion
		out.Dirty = vcsSetting(info, "vcs.modified") == "true"
	}
	return out
}

// Current returns the best available version string (without dirty suffix).
func Current() string {
	info, _ := debug.ReadBuildInfo()
	return versionFrom(info)
}

// Module returns the module path from build info when available.
func Module() string {
	info, _ := debug.ReadBuildInfo()
	return moduleFrom(info)
}

func moduleFrom(info *debug.BuildInfo) string {
	if info != nil {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			return path
		}
	}
	return defaultModule
}

func versionFrom(info *debug.BuildInfo) string {
	if v := strings.TrimSpace(buildVersion); v != "" {
		return strings.TrimSuffix(v, "+dirty")
	}
	if info != nil {
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			return strings.TrimSuffix(v, "+dirty")
		}
		if v := pseudoFromBuildInfo(info); v != "" {
			return v
		}
	}
	return "v0.0.0-unknown"
}

// pseudoFromBuildInfo builds a Go pseudo-version from the VCS stamp.
func pseudoFromBuildInfo(info *debug.BuildInfo) string {
	if info == nil {
		return ""
	}
	revision := vcsSetting(info, "vcs.revision")
	stamp := vcsSetting(info, "vcs.time")
	if revision == "" || stamp == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	return "v0.0.0-" + parsed.UTC().Format("20060102150405") + "-" + revision
}

func vcsSetting(info *debug.BuildInfo, key string) string {
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}
