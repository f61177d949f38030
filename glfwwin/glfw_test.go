// Copyright (c) 2025 Cubyte.online under the AGPL License

//go:build (darwin && !ios) || windows || (linux && !android) || dragonfly || openbsd

package glfwwin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResizedFlag(t *testing.T) {
	w := &Window{}
	assert.False(t, w.WasResized())

	w.frameBufferResizeCallback(nil, 800, 600)
	assert.True(t, w.WasResized())
	assert.True(t, w.WasResized(), "reading the flag keeps it")

	w.ResetResized()
	assert.False(t, w.WasResized())
}

func TestDestroyTwice(t *testing.T) {
	w := &Window{}
	w.Destroy()
	w.Destroy()
}
