// Copyright (c) 2025 Cubyte.online under the AGPL License

// Package scene holds what the viewer draws: game objects, their
// models, the camera and the render systems recording them.
package scene

import (
	"cmp"
	"slices"
	"sync/atomic"

	"cogentcore.org/core/math32"
	"github.com/xlab/linmath"

	asch "github.com/tomas-mraz/ashframe"
)

// ID identifies a game object. IDs are unique within the process and
// increase in creation order.
type ID uint32

var lastID atomic.Uint32

// Transform places an object in the world. Rotation holds Tait-Bryan
// angles in radians applied in Y, X, Z order.
type Transform struct {
	Translation math32.Vector3
	Scale       math32.Vector3
	Rotation    math32.Vector3
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{Scale: math32.Vec3(1, 1, 1)}
}

// rotation returns the columns of the Y, X, Z rotation matrix.
func (t *Transform) rotation() (u, v, w math32.Vector3) {
	c3, s3 := math32.Cos(t.Rotation.Z), math32.Sin(t.Rotation.Z)
	c2, s2 := math32.Cos(t.Rotation.X), math32.Sin(t.Rotation.X)
	c1, s1 := math32.Cos(t.Rotation.Y), math32.Sin(t.Rotation.Y)
	u = math32.Vec3(c1*c3+s1*s2*s3, c2*s3, c1*s2*s3-c3*s1)
	v = math32.Vec3(c3*s1*s2-c1*s3, c2*c3, c1*c3*s2+s1*s3)
	w = math32.Vec3(c2*s1, -s2, c1*c2)
	return u, v, w
}

// Matrix returns translate * rotate * scale.
func (t *Transform) Matrix() linmath.Mat4x4 {
	u, v, w := t.rotation()
	return linmath.Mat4x4{
		{t.Scale.X * u.X, t.Scale.X * u.Y, t.Scale.X * u.Z, 0},
		{t.Scale.Y * v.X, t.Scale.Y * v.Y, t.Scale.Y * v.Z, 0},
		{t.Scale.Z * w.X, t.Scale.Z * w.Y, t.Scale.Z * w.Z, 0},
		{t.Translation.X, t.Translation.Y, t.Translation.Z, 1},
	}
}

// NormalMatrix returns the inverse transpose of the upper 3x3 of
// Matrix, widened to 4x4 for std140 layout.
func (t *Transform) NormalMatrix() linmath.Mat4x4 {
	u, v, w := t.rotation()
	sx, sy, sz := 1/t.Scale.X, 1/t.Scale.Y, 1/t.Scale.Z
	return linmath.Mat4x4{
		{sx * u.X, sx * u.Y, sx * u.Z, 0},
		{sy * v.X, sy * v.Y, sy * v.Z, 0},
		{sz * w.X, sz * w.Y, sz * w.Z, 0},
		{0, 0, 0, 1},
	}
}

// PointLight makes a game object emit light.
type PointLight struct {
	Intensity float32
}

// GameObject is an entry of the scene. Objects with a model are drawn
// by the BasicSystem, objects with a light by the PointLightSystem.
type GameObject struct {
	id ID

	Transform Transform
	Color     math32.Vector3
	Model     *Model
	Light     *PointLight
}

var _ asch.Object = (*GameObject)(nil)

// NewGameObject returns an object with a fresh ID and identity transform.
func NewGameObject() *GameObject {
	return &GameObject{id: ID(lastID.Add(1)), Transform: NewTransform()}
}

// NewPointLight returns a light of the given intensity and color. The
// radius of its billboard is kept in the X scale.
func NewPointLight(intensity, radius float32, color math32.Vector3) *GameObject {
	obj := NewGameObject()
	obj.Color = color
	obj.Transform.Scale.X = radius
	obj.Light = &PointLight{Intensity: intensity}
	return obj
}

func (o *GameObject) ID() ID { return o.id }

// Geometry returns the model, or nil for objects without one.
func (o *GameObject) Geometry() asch.Renderable {
	if o.Model == nil {
		return nil
	}
	return o.Model
}

// Objects is the set of game objects by ID.
type Objects map[ID]*GameObject

// Add adds objs to the set.
func (s Objects) Add(objs ...*GameObject) {
	for _, o := range objs {
		s[o.id] = o
	}
}

// Sorted returns the objects in ID order. Map iteration order is
// random, so this is the view every pass of a frame should share.
func (s Objects) Sorted() []*GameObject {
	out := make([]*GameObject, 0, len(s))
	for _, o := range s {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b *GameObject) int { return cmp.Compare(a.id, b.id) })
	return out
}
