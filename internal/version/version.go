// In file: internal/version/version.go

// Package version holds the build information of the binaries and the
// versions of the logical components whose stored state depends on them.
//
// Redis keys carry the component versions. Bumping History after a change to
// the stored message format, or Tools after a change to the tool catalogue,
// makes old entries unreachable instead of feeding them to new code.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Service is the version reported to MCP clients and in the service context.
const Service = "1.0.0"

// Set at build time with -ldflags "-X github.com/dileep-u-k/waterdata-mcp/internal/version.version=...".
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

// ComponentVersions are bumped by hand before deploying a change to that component.
var ComponentVersions = struct {
	// Tools changes when a tool is added, renamed or changes its result shape.
	Tools string
	// History changes when the stored conversation message format changes.
	History string
}{
	Tools:   "v1",
	History: "v1",
}

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build information of the running binary.
func Get() BuildInfo {
	return BuildInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// HistoryKey is the storage key of a conversation.
// Example: "waterdata:history:v1:3f2c...".
func HistoryKey(prefix, conversationID string) string {
	return key(prefix, "history", ComponentVersions.History, conversationID)
}

// ToolStatsKey is the storage key of a tool's call statistics.
// Example: "waterdata:toolstats:v1:get_daily_values".
func ToolStatsKey(prefix, tool string) string {
	return key(prefix, "toolstats", ComponentVersions.Tools, tool)
}

func key(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ":")
}
