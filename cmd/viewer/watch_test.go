// Copyright (c) 2025 Cubyte.online under the AGPL License

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderWatcher(t *testing.T) {
	dir := t.TempDir()
	vert := filepath.Join(dir, "mesh.vert.spv")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(vert, []byte{1}, 0o644))

	sw, err := newShaderWatcher(vert, "")
	require.NoError(t, err)
	defer sw.Close()

	require.NoError(t, os.WriteFile(other, []byte{1}, 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.False(t, sw.Changed(), "other files are ignored")

	require.NoError(t, os.WriteFile(vert, []byte{2}, 0o644))
	assert.Eventually(t, sw.Changed, 2*time.Second, 10*time.Millisecond)
}

func TestShaderWatcherMissingDir(t *testing.T) {
	_, err := newShaderWatcher(filepath.Join(t.TempDir(), "missing", "x.spv"))
	assert.Error(t, err)
}
