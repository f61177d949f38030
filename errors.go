// Copyright (c) 2025 Cubyte.online under the AGPL License

package asch

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Debug enables extra diagnostics.
var Debug = false

func SetDebug(state bool) {
	Debug = state
}

// ErrContract is raised (by panic) when frame-scoped operations are
// called out of order or with a command buffer of another frame.
// CPU bookkeeping and GPU state can no longer be trusted after that.
var ErrContract = errors.New("asch: contract violation")

// ErrFormatChanged means that a recreated swapchain came back with a
// different color or depth format than its predecessor. Pipelines made
// against the old render pass would be incompatible.
var ErrFormatChanged = errors.New("asch: swap chain image or depth format has changed")

// IfPanic runs the finalizers and panics if err is not nil.
func IfPanic(err error, finalizers ...func()) {
	if err != nil {
		for _, fn := range finalizers {
			fn()
		}
		if Debug {
			slog.Error(err.Error())
			debug.PrintStack()
		}
		panic(err)
	}
}

// contract panics with ErrContract unless ok holds.
func contract(ok bool, msg string) {
	if !ok {
		IfPanic(fmt.Errorf("%w: %s", ErrContract, msg))
	}
}
