// Copyright (c) 2025 Cubyte.online under the AGPL License

//go:build (darwin && !ios) || windows || (linux && !android) || dragonfly || openbsd

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestroyPartialViewer(t *testing.T) {
	assert.NotPanics(t, (&viewer{}).destroy, "nothing created yet")

	w, err := newShaderWatcher(filepath.Join(t.TempDir(), "mesh.vert.spv"))
	require.NoError(t, err)
	v := &viewer{watcher: w}
	assert.NotPanics(t, v.destroy)

	select {
	case <-w.done:
	default:
		t.Fatal("watcher still running after destroy")
	}
	assert.Nil(t, v.basic)
	assert.False(t, v.drawLights)
}
