package vkb

import (
	"fmt"

	vk "github.com/tomas-mraz/vulkan"
)

// memoryTypeIndex returns the first memory type allowed by typeFilter
// whose flags include all of want.
func memoryTypeIndex(types []vk.MemoryPropertyFlags, typeFilter uint32, want vk.MemoryPropertyFlags) (uint32, bool) {
	for i, flags := range types {
		if typeFilter&(1<<uint(i)) == 0 {
			continue
		}
		if flags&want != want {
			continue
		}
		return uint32(i), true
	}
	return 0, false
}

func (d *Device) findMemoryType(typeFilter uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	types := make([]vk.MemoryPropertyFlags, d.memoryProperties.MemoryTypeCount)
	for i := range types {
		memType := d.memoryProperties.MemoryTypes[i]
		memType.Deref()
		types[i] = memType.PropertyFlags
	}
	idx, ok := memoryTypeIndex(types, typeFilter, properties)
	if !ok {
		return 0, fmt.Errorf("failed to find suitable memory type")
	}
	return idx, nil
}

// allocate allocates memory fitting req with the given properties.
func (d *Device) allocate(req vk.MemoryRequirements, properties vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	memTypeIndex, err := d.findMemoryType(req.MemoryTypeBits, properties)
	if err != nil {
		return vk.NullDeviceMemory, err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIndex,
	}
	var mem vk.DeviceMemory
	err = vk.Error(vk.AllocateMemory(d.Device, &allocInfo, nil, &mem))
	if err != nil {
		return vk.NullDeviceMemory, fmt.Errorf("vk.AllocateMemory failed with %s", err)
	}
	return mem, nil
}
