// Copyright (c) 2025 Cubyte.online under the AGPL License

package asch

// Renderable is anything that can bind its geometry and draw it into
// a command buffer.
// Bind and Draw may be called from several goroutines at once on
// different command buffers, so they must not modify shared state.
type Renderable interface {
	Bind(cmd CommandBuffer)
	Draw(cmd CommandBuffer)
}

// Object is an entry of a scene.
type Object interface {
	// Geometry returns what to draw for the object, or nil if it has
	// nothing to draw (e.g. a light marker).
	Geometry() Renderable
}

// FrameInfo is what render systems get to record one frame.
type FrameInfo struct {
	FrameIndex    int
	FrameTime     float32
	CommandBuffer CommandBuffer
	Inheritance   Inheritance
	Extent        Extent

	// per-frame descriptor set, selected by FrameIndex
	GlobalSet DescriptorSet
}
