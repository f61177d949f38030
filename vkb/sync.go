package vkb

import (
	"fmt"

	vk "github.com/tomas-mraz/vulkan"

	asch "github.com/tomas-mraz/ashframe"
)

type Semaphore struct {
	dev    vk.Device
	handle vk.Semaphore
}

type Fence struct {
	dev    vk.Device
	handle vk.Fence
}

var (
	_ asch.Semaphore = (*Semaphore)(nil)
	_ asch.Fence     = (*Fence)(nil)
)

func (d *Device) NewSemaphore() (asch.Semaphore, error) {
	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	s := &Semaphore{dev: d.Device}
	err := vk.Error(vk.CreateSemaphore(d.Device, &semaphoreInfo, nil, &s.handle))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateSemaphore failed with %s", err)
	}
	return s, nil
}

// NewFence creates a fence, signaled if requested so the first wait
// returns at once.
func (d *Device) NewFence(signaled bool) (asch.Fence, error) {
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	f := &Fence{dev: d.Device}
	err := vk.Error(vk.CreateFence(d.Device, &fenceInfo, nil, &f.handle))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateFence failed with %s", err)
	}
	return f, nil
}

func (s *Semaphore) Destroy() {
	if s.handle == vk.NullSemaphore {
		return
	}
	vk.DestroySemaphore(s.dev, s.handle, nil)
	s.handle = vk.NullSemaphore
}

// Wait blocks without timeout until the fence is signaled.
func (f *Fence) Wait() error {
	err := vk.Error(vk.WaitForFences(f.dev, 1, []vk.Fence{f.handle}, vk.True, vk.MaxUint64))
	if err != nil {
		return fmt.Errorf("vk.WaitForFences failed with %s", err)
	}
	return nil
}

func (f *Fence) Reset() error {
	err := vk.Error(vk.ResetFences(f.dev, 1, []vk.Fence{f.handle}))
	if err != nil {
		return fmt.Errorf("vk.ResetFences failed with %s", err)
	}
	return nil
}

func (f *Fence) Destroy() {
	if f.handle == vk.NullFence {
		return
	}
	vk.DestroyFence(f.dev, f.handle, nil)
	f.handle = vk.NullFence
}
