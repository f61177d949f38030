package vkb

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/tomas-mraz/vulkan"

	asch "github.com/tomas-mraz/ashframe"
)

// Buffer is a host visible, coherent buffer that stays mapped for its
// whole life, so writes need no flush.
type Buffer struct {
	dev    vk.Device
	handle vk.Buffer
	mem    vk.DeviceMemory
	size   int
	mapped unsafe.Pointer
}

var _ asch.Buffer = (*Buffer)(nil)

var errEmptyBuffer = errors.New("vkb: buffer of zero size")

// NewVertexBuffer creates a vertex buffer holding data.
func (d *Device) NewVertexBuffer(data []byte) (asch.Buffer, error) {
	return d.newFilledBuffer(data, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
}

// NewIndexBuffer creates a buffer of uint32 indices holding data.
func (d *Device) NewIndexBuffer(data []byte) (asch.Buffer, error) {
	return d.newFilledBuffer(data, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
}

// NewUniformBuffer creates a uniform buffer of size bytes.
func (d *Device) NewUniformBuffer(size int) (*Buffer, error) {
	return d.newBuffer(size, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit))
}

func (d *Device) newFilledBuffer(data []byte, usage vk.BufferUsageFlags) (asch.Buffer, error) {
	b, err := d.newBuffer(len(data), usage)
	if err != nil {
		return nil, err
	}
	if err := b.Write(data); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

func (d *Device) newBuffer(size int, usage vk.BufferUsageFlags) (*Buffer, error) {
	if size <= 0 {
		return nil, errEmptyBuffer
	}
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	b := &Buffer{dev: d.Device, size: size}
	err := vk.Error(vk.CreateBuffer(d.Device, &bufferInfo, nil, &b.handle))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateBuffer failed with %s", err)
	}
	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.Device, b.handle, &memRequirements)
	memRequirements.Deref()

	b.mem, err = d.allocate(memRequirements, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		b.Destroy()
		return nil, err
	}
	err = vk.Error(vk.BindBufferMemory(d.Device, b.handle, b.mem, 0))
	if err != nil {
		b.Destroy()
		return nil, fmt.Errorf("vk.BindBufferMemory failed with %s", err)
	}
	err = vk.Error(vk.MapMemory(d.Device, b.mem, 0, vk.DeviceSize(size), 0, &b.mapped))
	if err != nil {
		b.Destroy()
		return nil, fmt.Errorf("vk.MapMemory failed with %s", err)
	}
	return b, nil
}

// Write copies data to the start of the buffer.
func (b *Buffer) Write(data []byte) error {
	if len(data) > b.size {
		return fmt.Errorf("vkb: write of %d bytes to a buffer of %d", len(data), b.size)
	}
	vk.Memcopy(b.mapped, data)
	return nil
}

func (b *Buffer) Destroy() {
	if b.mapped != nil {
		vk.UnmapMemory(b.dev, b.mem)
		b.mapped = nil
	}
	if b.handle != vk.NullBuffer {
		vk.DestroyBuffer(b.dev, b.handle, nil)
		b.handle = vk.NullBuffer
	}
	if b.mem != vk.NullDeviceMemory {
		vk.FreeMemory(b.dev, b.mem, nil)
		b.mem = vk.NullDeviceMemory
	}
}
