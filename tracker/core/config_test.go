package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "siteclock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mergeWindow: 20m\nentryDelay: 30s\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 20*time.Minute, cfg.MergeWindow)
	assert.Equal(t, 30*time.Second, cfg.EntryDelay)

	// Everything the file omits keeps its default.
	assert.Equal(t, DefaultDedupWindow, cfg.DedupWindow)
	assert.Equal(t, DefaultExitAdjustment, cfg.ExitAdjustment)
	assert.Equal(t, DefaultPhantomMultiplier, cfg.PhantomMultiplier)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
