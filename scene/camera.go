// Copyright (c) 2025 Cubyte.online under the AGPL License

package scene

import (
	"cogentcore.org/core/math32"
	"github.com/xlab/linmath"
)

// Camera holds the projection and view matrices. The projection maps
// depth to [0, 1] with Y pointing down, as Vulkan expects.
type Camera struct {
	projection  linmath.Mat4x4
	view        linmath.Mat4x4
	inverseView linmath.Mat4x4
}

// NewCamera returns a camera at the origin with identity matrices.
func NewCamera() *Camera {
	c := &Camera{}
	c.projection.Identity()
	c.view.Identity()
	c.inverseView.Identity()
	return c
}

func (c *Camera) SetOrthographicProjection(left, right, top, bottom, near, far float32) {
	c.projection.Identity()
	c.projection[0][0] = 2 / (right - left)
	c.projection[1][1] = 2 / (bottom - top)
	c.projection[2][2] = 1 / (far - near)
	c.projection[3][0] = -(right + left) / (right - left)
	c.projection[3][1] = -(bottom + top) / (bottom - top)
	c.projection[3][2] = -near / (far - near)
}

// SetPerspectiveProjection sets a perspective projection with the
// vertical field of view fovy in radians.
func (c *Camera) SetPerspectiveProjection(fovy, aspect, near, far float32) {
	tanHalfFovy := math32.Tan(fovy / 2)
	c.projection = linmath.Mat4x4{}
	c.projection[0][0] = 1 / (aspect * tanHalfFovy)
	c.projection[1][1] = 1 / tanHalfFovy
	c.projection[2][2] = far / (far - near)
	c.projection[2][3] = 1
	c.projection[3][2] = -(far * near) / (far - near)
}

// LookAtDirection points the camera at position along direction.
func (c *Camera) LookAtDirection(position, direction, up math32.Vector3) {
	w := direction.Normal()
	u := w.Cross(up).Normal()
	v := w.Cross(u)
	c.setView(position, u, v, w)
}

// LookAtTarget points the camera at position towards target.
func (c *Camera) LookAtTarget(position, target, up math32.Vector3) {
	c.LookAtDirection(position, target.Sub(position), up)
}

// SetViewYXZ orients the camera by Y, X, Z rotations in radians.
func (c *Camera) SetViewYXZ(position, rotation math32.Vector3) {
	t := Transform{Rotation: rotation}
	u, v, w := t.rotation()
	c.setView(position, u, v, w)
}

// setView sets the view from the camera basis u (right), v (down) and
// w (forward), and its inverse.
func (c *Camera) setView(position, u, v, w math32.Vector3) {
	c.view.Identity()
	c.view[0][0], c.view[1][0], c.view[2][0] = u.X, u.Y, u.Z
	c.view[0][1], c.view[1][1], c.view[2][1] = v.X, v.Y, v.Z
	c.view[0][2], c.view[1][2], c.view[2][2] = w.X, w.Y, w.Z
	c.view[3][0] = -u.Dot(position)
	c.view[3][1] = -v.Dot(position)
	c.view[3][2] = -w.Dot(position)

	c.inverseView.Identity()
	c.inverseView[0] = linmath.Vec4{u.X, u.Y, u.Z, 0}
	c.inverseView[1] = linmath.Vec4{v.X, v.Y, v.Z, 0}
	c.inverseView[2] = linmath.Vec4{w.X, w.Y, w.Z, 0}
	c.inverseView[3] = linmath.Vec4{position.X, position.Y, position.Z, 1}
}

func (c *Camera) Projection() linmath.Mat4x4 { return c.projection }

func (c *Camera) View() linmath.Mat4x4 { return c.view }

func (c *Camera) InverseView() linmath.Mat4x4 { return c.inverseView }

// Position returns the camera position in world space.
func (c *Camera) Position() math32.Vector3 {
	p := c.inverseView[3]
	return math32.Vec3(p[0], p[1], p[2])
}
