// Copyright (c) 2025 Cubyte.online under the AGPL License
// Copyright (c) 2022 Cogent Core. under the BSD-style License
// Copyright (c) 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vkb

import (
	"fmt"

	vk "github.com/tomas-mraz/vulkan"

	asch "github.com/tomas-mraz/ashframe"
)

// depthCandidates are tried in order for the depth target.
var depthCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// Image represents a vulkan image with an associated ImageView.
// The vulkan Image is in device memory, in an optimized format.
type Image struct {

	// name of the image, helpful for debugging
	Name string

	// format & size of image
	Format ImageFormat

	// vulkan image handle, in device memory
	Image vk.Image

	// vulkan image view
	View vk.ImageView

	// memory for image when we allocate it
	Mem vk.DeviceMemory

	// keep track of device for destroying view
	Dev *Device
}

var _ asch.Image = (*Image)(nil)

// DepthFormat returns the first depth format usable as an optimal
// tiling attachment. The choice is made once per device.
func (d *Device) DepthFormat() (asch.Format, error) {
	if d.depthFormat != vk.FormatUndefined {
		return asch.Format(d.depthFormat), nil
	}
	f, ok := chooseFormat(depthCandidates, func(f vk.Format) bool {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(d.GpuDevice, f, &props)
		props.Deref()
		return props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0
	})
	if !ok {
		return 0, fmt.Errorf("no supported depth format among %v", depthCandidates)
	}
	d.depthFormat = f
	return asch.Format(f), nil
}

func chooseFormat(candidates []vk.Format, supported func(vk.Format) bool) (vk.Format, bool) {
	for _, f := range candidates {
		if supported(f) {
			return f, true
		}
	}
	return vk.FormatUndefined, false
}

// NewDepthTarget creates a device local depth image of extent with a
// view over its depth (and stencil) aspect.
func (d *Device) NewDepthTarget(format asch.Format, extent asch.Extent) (asch.Image, error) {
	im := &Image{Name: "depth", Dev: d}
	im.Format.Defaults()
	im.Format.Set(int(extent.Width), int(extent.Height), vk.Format(format))
	if !im.Format.IsDepth() {
		return nil, fmt.Errorf("format %d is not a depth format", format)
	}
	if err := im.AllocImage(vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)); err != nil {
		return nil, err
	}
	if err := im.ConfigStdView(); err != nil {
		im.Destroy()
		return nil, err
	}
	return im, nil
}

// AllocImage creates the image and binds device local memory to it.
func (im *Image) AllocImage(usage vk.ImageUsageFlags) error {
	dev := im.Dev.Device
	imageInfo := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Extent:        im.Format.Extent3D(),
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        im.Format.Format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		Samples:       im.Format.Samples,
	}
	var img vk.Image
	err := vk.Error(vk.CreateImage(dev, &imageInfo, nil, &img))
	if err != nil {
		return fmt.Errorf("vk.CreateImage failed with %s", err)
	}
	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, img, &memRequirements)
	memRequirements.Deref()

	mem, err := im.Dev.allocate(memRequirements, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(dev, img, nil)
		return fmt.Errorf("image %s: %w", im.Name, err)
	}
	err = vk.Error(vk.BindImageMemory(dev, img, mem, 0))
	if err != nil {
		vk.DestroyImage(dev, img, nil)
		vk.FreeMemory(dev, mem, nil)
		return fmt.Errorf("vk.BindImageMemory failed with %s", err)
	}
	im.Image = img
	im.Mem = mem
	return nil
}

// ConfigStdView configures a standard 2D image view, for current image,
// format, and device. Depth formats get a depth (and stencil) view.
func (im *Image) ConfigStdView() error {
	im.DestroyView()
	view, err := im.Dev.newView(im.Image, im.Format.Format, im.Format.Aspect())
	if err != nil {
		return err
	}
	im.View = view
	return nil
}

// DestroyView destroys any existing view
func (im *Image) DestroyView() {
	if im.View == vk.NullImageView {
		return
	}
	vk.DestroyImageView(im.Dev.Device, im.View, nil)
	im.View = vk.NullImageView
}

// Destroy destroys the view, the image and its memory.
func (im *Image) Destroy() {
	im.DestroyView()
	if im.Image != vk.NullImage {
		vk.DestroyImage(im.Dev.Device, im.Image, nil)
		im.Image = vk.NullImage
	}
	if im.Mem != vk.NullDeviceMemory {
		vk.FreeMemory(im.Dev.Device, im.Mem, nil)
		im.Mem = vk.NullDeviceMemory
	}
}
