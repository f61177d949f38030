// Copyright (c) 2025 Cubyte.online under the AGPL License

package scene

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/xlab/linmath"

	asch "github.com/tomas-mraz/ashframe"
)

// Vertex is the vertex format of every model.
type Vertex struct {
	Position linmath.Vec3
	Color    linmath.Vec3
	Normal   linmath.Vec3
	UV       linmath.Vec2
}

// VertexStride is the size of an encoded Vertex.
const VertexStride = 44

// Offsets of the Vertex attributes, by shader location.
var VertexOffsets = [4]uint32{0, 12, 24, 36}

// BufferAllocator creates the device buffers of models.
type BufferAllocator interface {
	NewVertexBuffer(data []byte) (asch.Buffer, error)
	NewIndexBuffer(data []byte) (asch.Buffer, error)
}

// Model is geometry in device buffers. It is read only once built, so
// any number of goroutines may record it at the same time.
type Model struct {
	vertexBuffer asch.Buffer
	indexBuffer  asch.Buffer
	vertexCount  int
	indexCount   int
}

var _ asch.Renderable = (*Model)(nil)

// NewModel uploads vertices and, if not empty, uint32 indices.
func NewModel(alloc BufferAllocator, vertices []Vertex, indices []uint32) (*Model, error) {
	if len(vertices) < 3 {
		return nil, errors.New("scene: a model needs at least 3 vertices")
	}
	m := &Model{vertexCount: len(vertices), indexCount: len(indices)}
	var err error
	m.vertexBuffer, err = alloc.NewVertexBuffer(encodeVertices(vertices))
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer failed with %w", err)
	}
	if len(indices) > 0 {
		data, err := binary.Append(nil, binary.LittleEndian, indices)
		if err != nil {
			m.Destroy()
			return nil, err
		}
		m.indexBuffer, err = alloc.NewIndexBuffer(data)
		if err != nil {
			m.Destroy()
			return nil, fmt.Errorf("create index buffer failed with %w", err)
		}
	}
	return m, nil
}

func encodeVertices(vertices []Vertex) []byte {
	data, err := binary.Append(make([]byte, 0, len(vertices)*VertexStride), binary.LittleEndian, vertices)
	if err != nil {
		// fixed size values always encode
		panic(err)
	}
	return data
}

func (m *Model) Bind(cmd asch.CommandBuffer) {
	cmd.BindVertexBuffers([]asch.Buffer{m.vertexBuffer})
	if m.indexBuffer != nil {
		cmd.BindIndexBuffer(m.indexBuffer)
	}
}

func (m *Model) Draw(cmd asch.CommandBuffer) {
	if m.indexBuffer != nil {
		cmd.DrawIndexed(m.indexCount, 1)
		return
	}
	cmd.Draw(m.vertexCount, 1)
}

func (m *Model) Destroy() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Destroy()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Destroy()
		m.indexBuffer = nil
	}
}
