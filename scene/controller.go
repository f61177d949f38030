// Copyright (c) 2025 Cubyte.online under the AGPL License

package scene

import "cogentcore.org/core/math32"

// Action is something the user can ask the camera to do.
type Action int

const (
	MoveLeft Action = iota
	MoveRight
	MoveForward
	MoveBackward
	MoveUp
	MoveDown
	LookLeft
	LookRight
	LookUp
	LookDown
)

// Input reports which actions are requested right now.
type Input interface {
	Pressed(a Action) bool
}

// KeyboardController moves a game object, usually the viewer, in the
// XZ plane and turns it by yaw and pitch.
type KeyboardController struct {
	MoveSpeed float32
	LookSpeed float32
}

func NewKeyboardController() *KeyboardController {
	return &KeyboardController{MoveSpeed: 3, LookSpeed: 1.5}
}

func axis(in Input, neg, pos Action) float32 {
	var v float32
	if in.Pressed(neg) {
		v--
	}
	if in.Pressed(pos) {
		v++
	}
	return v
}

// Update applies the input for dt seconds to obj.
func (kc *KeyboardController) Update(in Input, dt float32, obj *GameObject) {
	t := &obj.Transform

	rotate := math32.Vec3(axis(in, LookDown, LookUp), axis(in, LookLeft, LookRight), 0)
	if rotate.Dot(rotate) > 0 {
		t.Rotation = t.Rotation.Add(rotate.Normal().MulScalar(kc.LookSpeed * dt))
	}
	t.Rotation.X = math32.Clamp(t.Rotation.X, -1.5, 1.5)
	t.Rotation.Y = math32.Mod(t.Rotation.Y, 2*math32.Pi)

	yaw := t.Rotation.Y
	forward := math32.Vec3(math32.Sin(yaw), 0, math32.Cos(yaw))
	right := math32.Vec3(forward.Z, 0, -forward.X)
	up := math32.Vec3(0, -1, 0)

	move := right.MulScalar(axis(in, MoveLeft, MoveRight)).
		Add(forward.MulScalar(axis(in, MoveBackward, MoveForward))).
		Add(up.MulScalar(axis(in, MoveDown, MoveUp)))
	if move.Dot(move) > 0 {
		t.Translation = t.Translation.Add(move.Normal().MulScalar(kc.MoveSpeed * dt))
	}
}
