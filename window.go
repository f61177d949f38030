// Copyright (c) 2025 Cubyte.online under the AGPL License

package asch

// Window is the window system side of a presentable surface.
// The frame logic polls it and never expects callbacks.
type Window interface {
	// Extent returns the current framebuffer size of the window.
	Extent() Extent

	// WasResized reports whether the framebuffer was resized since
	// the last call to ResetResized.
	WasResized() bool

	ResetResized()

	// WaitEvents blocks until the window system delivers events.
	WaitEvents()
}

// waitForExtent blocks while the window has a zero extent, which is
// the case while it is minimized.
func waitForExtent(win Window) Extent {
	extent := win.Extent()
	for extent.IsZero() {
		win.WaitEvents()
		extent = win.Extent()
	}
	return extent
}
