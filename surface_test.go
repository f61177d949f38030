// Copyright (c) 2025 Cubyte.online under the AGPL License

package asch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSurface(t *testing.T) {
	dev := newFakeDevice()
	sf, err := NewSurface(dev, Extent{800, 600})
	require.NoError(t, err)

	assert.Equal(t, 3, sf.ImageCount())
	assert.Equal(t, Extent{800, 600}, sf.Extent())
	assert.Equal(t, Format(44), sf.ColorFormat())
	assert.Equal(t, Format(126), sf.DepthFormat())
	assert.InDelta(t, 800.0/600.0, sf.AspectRatio(), 1e-6)
	assert.Len(t, sf.gen.imagesInFlight, 3)
	for _, f := range sf.gen.imagesInFlight {
		assert.Nil(t, f)
	}
	assert.Nil(t, dev.current().old)
}

func TestSurfaceRecreate(t *testing.T) {
	dev := newFakeDevice()
	sf, err := NewSurface(dev, Extent{800, 600})
	require.NoError(t, err)
	first := dev.current()

	require.NoError(t, sf.Recreate(Extent{1024, 768}))

	second := dev.current()
	assert.Same(t, first, second.old, "previous swapchain is handed over")
	assert.True(t, first.destroyed)
	assert.False(t, second.destroyed)
	assert.Equal(t, Extent{1024, 768}, sf.Extent())
	assert.Equal(t, 2, dev.waitIdles)
}

func TestSurfaceRecreateFormatChanged(t *testing.T) {
	dev := newFakeDevice()
	sf, err := NewSurface(dev, Extent{800, 600})
	require.NoError(t, err)
	first := dev.current()

	dev.colorFormat = 50
	err = sf.Recreate(Extent{800, 600})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormatChanged))

	// the new generation and the retired one are both released
	assert.True(t, dev.current().destroyed)
	assert.True(t, first.destroyed)
	assert.True(t, panicsWithContract(func() { sf.ColorFormat() }))
	assert.True(t, panicsWithContract(func() { _, _, _ = sf.AcquireNextImage(0) }))
	assert.True(t, panicsWithContract(func() { _, _ = sf.SubmitAndPresent(&fakeCmd{}, 0, 0) }))
	sf.Destroy()

	dev.colorFormat = 44
	sf, err = NewSurface(dev, Extent{800, 600})
	require.NoError(t, err)
	dev.depthFormat = 130
	err = sf.Recreate(Extent{800, 600})
	assert.ErrorIs(t, err, ErrFormatChanged)
}

func TestSurfaceRecreateZeroExtent(t *testing.T) {
	dev := newFakeDevice()
	sf, err := NewSurface(dev, Extent{800, 600})
	require.NoError(t, err)

	assert.True(t, panicsWithContract(func() { _ = sf.Recreate(Extent{0, 600}) }))
}

func TestAcquireNextImageStatus(t *testing.T) {
	dev := newFakeDevice()
	dev.acquireScript[1] = ErrSuboptimal
	dev.acquireScript[2] = ErrOutOfDate
	dev.acquireScript[3] = errors.New("device lost")
	sf, err := NewSurface(dev, Extent{800, 600})
	require.NoError(t, err)

	idx, status, err := sf.AcquireNextImage(0)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)
	assert.Equal(t, 0, idx)

	idx, status, err = sf.AcquireNextImage(1)
	require.NoError(t, err)
	assert.Equal(t, StatusSuboptimal, status)
	assert.Equal(t, 1, idx)

	_, status, err = sf.AcquireNextImage(0)
	require.NoError(t, err)
	assert.Equal(t, StatusStale, status)

	_, _, err = sf.AcquireNextImage(0)
	assert.ErrorContains(t, err, "device lost")

	assert.Equal(t, 3, sf.gen.inFlight[0].(*fakeFence).waits)
	assert.Equal(t, 1, sf.gen.inFlight[1].(*fakeFence).waits)
}

func TestSubmitAndPresent(t *testing.T) {
	dev := newFakeDevice()
	sf, err := NewSurface(dev, Extent{800, 600})
	require.NoError(t, err)
	cmd := &fakeCmd{}

	status, err := sf.SubmitAndPresent(cmd, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, status)

	require.Len(t, dev.submits, 1)
	s := dev.submits[0]
	assert.Same(t, cmd, s.cmd)
	assert.Same(t, sf.gen.imageAvailable[1], s.wait)
	assert.Same(t, sf.gen.renderFinished[1], s.signal)
	assert.Same(t, sf.gen.inFlight[1], Fence(s.fence))
	assert.Equal(t, 1, s.fence.resets)
	assert.Same(t, sf.gen.inFlight[1], sf.gen.imagesInFlight[2])
}

func TestSubmitWaitsForImageOwner(t *testing.T) {
	dev := newFakeDevice()
	dev.imageCount = 1
	sf, err := NewSurface(dev, Extent{800, 600})
	require.NoError(t, err)
	fence0 := sf.gen.inFlight[0].(*fakeFence)

	_, err = sf.SubmitAndPresent(&fakeCmd{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, fence0.waits)

	// slot 1 renders into the image slot 0 still owns
	_, err = sf.SubmitAndPresent(&fakeCmd{}, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, fence0.waits)
	assert.Same(t, sf.gen.inFlight[1], sf.gen.imagesInFlight[0])
}

func TestPresentStatus(t *testing.T) {
	dev := newFakeDevice()
	dev.presentScript[0] = ErrSuboptimal
	dev.presentScript[1] = ErrOutOfDate
	dev.presentScript[2] = errors.New("surface lost")
	sf, err := NewSurface(dev, Extent{800, 600})
	require.NoError(t, err)

	status, err := sf.SubmitAndPresent(&fakeCmd{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusSuboptimal, status)

	status, err = sf.SubmitAndPresent(&fakeCmd{}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusStale, status)

	_, err = sf.SubmitAndPresent(&fakeCmd{}, 2, 0)
	assert.ErrorContains(t, err, "surface lost")
}

func TestSurfaceDestroy(t *testing.T) {
	dev := newFakeDevice()
	sf, err := NewSurface(dev, Extent{800, 600})
	require.NoError(t, err)

	sf.Destroy()
	// swapchain, depth, pass, 3 framebuffers, 2x2 semaphores, 2 fences
	assert.Equal(t, 1+1+1+3+4+2, dev.destroyed)
	sf.Destroy()
	assert.Equal(t, 12, dev.destroyed)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "stale", StatusStale.String())
	assert.Equal(t, "Status(7)", Status(7).String())
}
