package vkb

import (
	"fmt"
	"log/slog"

	vk "github.com/tomas-mraz/vulkan"

	asch "github.com/tomas-mraz/ashframe"
)

// Swapchain is one swapchain generation with a view for each image.
type Swapchain struct {
	dev *Device

	handle vk.Swapchain
	format vk.Format
	extent vk.Extent2D
	images []vk.Image
	views  []vk.ImageView
}

var _ asch.Swapchain = (*Swapchain)(nil)

// NewSwapchain creates a swapchain on the device surface. old, if set,
// is handed to the driver as the swapchain being replaced.
func (d *Device) NewSwapchain(extent asch.Extent, old asch.Swapchain) (asch.Swapchain, error) {

	// Phase 1: vk.GetPhysicalDeviceSurfaceCapabilities
	//			vk.GetPhysicalDeviceSurfaceFormats
	//			vk.GetPhysicalDeviceSurfacePresentModes

	var caps vk.SurfaceCapabilities
	err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.GpuDevice, d.Surface, &caps))
	if err != nil {
		return nil, fmt.Errorf("vk.GetPhysicalDeviceSurfaceCapabilities failed with %s", err)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(d.GpuDevice, d.Surface, &formatCount, nil)
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(d.GpuDevice, d.Surface, &formatCount, formats)
	for i := range formats {
		formats[i].Deref()
	}
	slog.Debug(fmt.Sprintf("got %d physical device surface formats", formatCount))
	surfaceFormat, ok := chooseSurfaceFormat(formats)
	if !ok {
		return nil, fmt.Errorf("vk.GetPhysicalDeviceSurfaceFormats not found suitable format")
	}

	var modeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(d.GpuDevice, d.Surface, &modeCount, nil)
	modes := make([]vk.PresentMode, modeCount)
	vk.GetPhysicalDeviceSurfacePresentModes(d.GpuDevice, d.Surface, &modeCount, modes)

	// Phase 2: vk.CreateSwapchain
	//			create a swapchain with supported capabilities and format

	sc := &Swapchain{
		dev:    d,
		format: surfaceFormat.Format,
		extent: chooseExtent(caps.CurrentExtent, caps.MinImageExtent, caps.MaxImageExtent,
			vk.Extent2D{Width: extent.Width, Height: extent.Height}),
	}
	oldHandle := vk.NullSwapchain
	if old != nil {
		oldHandle = old.(*Swapchain).handle
	}
	slog.Debug(fmt.Sprintf("final display size is %d x %d", sc.extent.Width, sc.extent.Height))

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.Surface,
		MinImageCount:    chooseImageCount(caps.MinImageCount, caps.MaxImageCount),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      sc.extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      choosePresentMode(modes),
		OldSwapchain:     oldHandle,
		Clipped:          vk.True,
	}
	err = vk.Error(vk.CreateSwapchain(d.Device, &swapchainCreateInfo, nil, &sc.handle))
	if err != nil {
		return nil, fmt.Errorf("vk.CreateSwapchain failed with %s", err)
	}

	// Phase 3: vk.GetSwapchainImages
	//			vk.CreateImageView for each image

	var imageCount uint32
	err = vk.Error(vk.GetSwapchainImages(d.Device, sc.handle, &imageCount, nil))
	if err != nil {
		sc.Destroy()
		return nil, fmt.Errorf("vk.GetSwapchainImages failed with %s", err)
	}
	sc.images = make([]vk.Image, imageCount)
	vk.GetSwapchainImages(d.Device, sc.handle, &imageCount, sc.images)

	sc.views = make([]vk.ImageView, 0, imageCount)
	for i, img := range sc.images {
		view, err := d.newView(img, sc.format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			sc.Destroy()
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		sc.views = append(sc.views, view)
	}
	return sc, nil
}

// newView creates a 2D view of a single layer and mip level of img.
func (d *Device) newView(img vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{ // this is the default anyway
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	err := vk.Error(vk.CreateImageView(d.Device, &viewCreateInfo, nil, &view))
	if err != nil {
		return vk.NullImageView, fmt.Errorf("vk.CreateImageView failed with %s", err)
	}
	return view, nil
}

// chooseSurfaceFormat prefers 8 bit sRGB BGRA and falls back to the
// first format offered. A single undefined format means the surface
// has no preference.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, bool) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, false
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}, true
	}
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f, true
		}
	}
	return formats[0], true
}

// choosePresentMode prefers mailbox. FIFO is always available.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent returns the surface extent, or want clamped to the
// supported range if the surface leaves it to the swapchain.
func chooseExtent(current, minExtent, maxExtent, want vk.Extent2D) vk.Extent2D {
	if current.Width != vk.MaxUint32 {
		return current
	}
	// Wayland specific https://docs.vulkan.org/spec/latest/chapters/VK_KHR_surface/wsi.html
	slog.Debug("[wayland specific] surface extent size is not set, using window size")
	return vk.Extent2D{
		Width:  clamp(want.Width, minExtent.Width, maxExtent.Width),
		Height: clamp(want.Height, minExtent.Height, maxExtent.Height),
	}
}

// chooseImageCount asks for one image more than the minimum. A zero
// maximum means there is no limit.
func chooseImageCount(minCount, maxCount uint32) uint32 {
	n := minCount + 1
	if maxCount > 0 && n > maxCount {
		n = maxCount
	}
	return n
}

func (s *Swapchain) ImageCount() int { return len(s.images) }

func (s *Swapchain) ColorFormat() asch.Format { return asch.Format(s.format) }

func (s *Swapchain) Extent() asch.Extent {
	return asch.Extent{Width: s.extent.Width, Height: s.extent.Height}
}

// Acquire returns the index of the next image to render into.
func (s *Swapchain) Acquire(signal asch.Semaphore) (int, error) {
	var idx uint32
	ret := vk.AcquireNextImage(s.dev.Device, s.handle, vk.MaxUint64,
		signal.(*Semaphore).handle, vk.NullFence, &idx)
	return int(idx), resultError(ret, "vk.AcquireNextImage")
}

// Present queues image for presentation once wait is signaled.
func (s *Swapchain) Present(image int, wait asch.Semaphore) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.(*Semaphore).handle},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.handle},
		PImageIndices:      []uint32{uint32(image)},
	}
	return resultError(vk.QueuePresent(s.dev.Queue, &presentInfo), "vk.QueuePresent")
}

// Destroy destroys the image views and the swapchain. The images
// belong to the swapchain.
func (s *Swapchain) Destroy() {
	for _, v := range s.views {
		vk.DestroyImageView(s.dev.Device, v, nil)
	}
	s.views = nil
	s.images = nil
	if s.handle != vk.NullSwapchain {
		vk.DestroySwapchain(s.dev.Device, s.handle, nil)
		s.handle = vk.NullSwapchain
	}
}
