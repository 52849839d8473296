package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"tilde only", "~", home},
		{"tilde with path", "~/runs/results.json", filepath.Join(home, "runs", "results.json")},
		{"absolute unchanged", "/var/lib/mallm.db", "/var/lib/mallm.db"},
		{"relative cleaned", "out/./results.json", "out/results.json"},
		{"dot-dot resolved", "/a/b/../c", "/a/c"},
		{"duplicate slashes", "/path//to///file", "/path/to/file"},
		{"tilde not at start", "/path/to/~", "/path/to/~"},
		{"tilde user form untouched", "~other/file", "~other/file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandHome(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsStream(t *testing.T) {
	for _, s := range []string{"", "stdout", "STDERR"} {
		assert.True(t, IsStream(s), s)
	}
	assert.False(t, IsStream("/var/log/mallm.log"))
}
