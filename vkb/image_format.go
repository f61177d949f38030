// Copyright (c) 2025 Cubyte.online under the AGPL License
// Copyright (c) 2022 Cogent Core. under the BSD-style License
// Copyright (c) 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vkb

import (
	"image"

	vk "github.com/tomas-mraz/vulkan"
)

// ImageFormat describes the size and vulkan format of an Image
type ImageFormat struct {

	// Size of image
	Size image.Point

	// Image format -- FormatR8g8b8a8Srgb is a standard default
	Format vk.Format

	// number of samples, SampleCount1Bit for swapchain compatible targets
	Samples vk.SampleCountFlagBits
}

func (im *ImageFormat) Defaults() {
	im.Format = vk.FormatR8g8b8a8Srgb
	im.Samples = vk.SampleCount1Bit
}

// SetSize sets the width, height
func (im *ImageFormat) SetSize(w, h int) {
	im.Size = image.Point{X: w, Y: h}
}

// Set sets width, height and format
func (im *ImageFormat) Set(w, h int, ft vk.Format) {
	im.SetSize(w, h)
	im.Format = ft
}

// Extent3D returns the size as a single slice extent.
func (im *ImageFormat) Extent3D() vk.Extent3D {
	return vk.Extent3D{Width: uint32(im.Size.X), Height: uint32(im.Size.Y), Depth: 1}
}

// IsDepth reports whether the format is one of the depth formats.
func (im *ImageFormat) IsDepth() bool {
	switch im.Format {
	case vk.FormatD16Unorm, vk.FormatD32Sfloat, vk.FormatD16UnormS8Uint,
		vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint:
		return true
	}
	return false
}

// HasStencil reports whether the format has a stencil component.
func (im *ImageFormat) HasStencil() bool {
	switch im.Format {
	case vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint, vk.FormatS8Uint:
		return true
	}
	return false
}

// Aspect returns the aspects a view of the whole image covers.
func (im *ImageFormat) Aspect() vk.ImageAspectFlags {
	if !im.IsDepth() {
		return vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
	aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if im.HasStencil() {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return aspect
}
