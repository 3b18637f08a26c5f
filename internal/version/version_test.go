// In file: internal/version/version_test.go
package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	require.Equal(t, "waterdata:history:v1:abc", HistoryKey("waterdata", "abc"))
	require.Equal(t, "waterdata:toolstats:v1:get_stats", ToolStatsKey("waterdata", "get_stats"))
	require.Equal(t, "history:v1:abc", HistoryKey("", "abc"))
}

func TestGet(t *testing.T) {
	info := Get()
	require.Equal(t, "dev", info.Version)
	require.NotEmpty(t, info.GoVersion)
	require.Contains(t, info.Platform, "/")
}
