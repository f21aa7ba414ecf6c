package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-01-02T03:04:05Z", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2025-01-02 03:04:05", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"unknown", time.Time{}},
		{"", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseTime(tt.input)))
		})
	}
}

func TestLdflagsOverride(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })

	Version = "v1.2.3"
	GitCommit = "0123456789abcdef"

	info := GetBuildInfo("mustache", "hcl")
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "v1.2.3 (0123456)", info.Short())
	assert.Contains(t, info.Detailed(), "Commit: 0123456789abcdef")
	assert.Contains(t, info.Detailed(), "Engines: mustache, hcl")
	assert.True(t, IsRelease())
}

func TestShortWithoutCommit(t *testing.T) {
	info := &BuildInfo{Version: "dev", GitCommit: "unknown"}
	assert.Equal(t, "dev", info.Short())
	assert.NotContains(t, info.Detailed(), "Commit")
}
