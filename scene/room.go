// Copyright (c) 2025 Cubyte.online under the AGPL License

package scene

import (
	"fmt"

	"cogentcore.org/core/math32"
	"github.com/xlab/linmath"
)

// LightColors are the colors of the lights, in creation order.
var LightColors = []math32.Vector3{
	{X: 1, Y: 0.1, Z: 0.1},
	{X: 0.1, Y: 0.1, Z: 1},
	{X: 0.1, Y: 1, Z: 0.1},
	{X: 1, Y: 1, Z: 0.1},
	{X: 0.1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: 1},
}

const (
	lightsPerSide = 4
	lightSpacing  = 1.0
	cubeSize      = 0.2
)

// Room is a floor of grid x grid cubes with walls of cubes along its
// border and point lights ringed around its center.
type Room struct {
	Objects Objects
	models  []*Model
}

// NewRoom builds the room. All cubes share one model per color.
func NewRoom(alloc BufferAllocator, grid, lights int) (*Room, error) {
	if grid < 1 {
		return nil, fmt.Errorf("scene: room grid %d", grid)
	}
	r := &Room{Objects: Objects{}}
	floor, err := NewCube(alloc, linmath.Vec3{0.6, 0.6, 0.6})
	if err != nil {
		return nil, err
	}
	r.models = append(r.models, floor)
	wall, err := NewCube(alloc, linmath.Vec3{0.8, 0.5, 0.3})
	if err != nil {
		r.Destroy()
		return nil, err
	}
	r.models = append(r.models, wall)

	start := -cubeSize * float32(grid-1) / 2
	for i := 0; i < grid; i++ {
		for j := 0; j < grid; j++ {
			obj := NewGameObject()
			obj.Model = floor
			obj.Transform.Scale = math32.Vec3(cubeSize, cubeSize/4, cubeSize)
			obj.Transform.Translation = math32.Vec3(start+float32(i)*cubeSize, 0.5, start+float32(j)*cubeSize)
			r.Objects.Add(obj)

			if i != 0 && j != 0 && i != grid-1 && j != grid-1 {
				continue
			}
			post := NewGameObject()
			post.Model = wall
			post.Transform.Scale = math32.Vec3(cubeSize/2, cubeSize, cubeSize/2)
			post.Transform.Translation = math32.Vec3(start+float32(i)*cubeSize, 0.5-cubeSize/2, start+float32(j)*cubeSize)
			r.Objects.Add(post)
		}
	}
	for i := 0; i < lights; i++ {
		light := NewPointLight(0.3+0.2*float32(i%3), 0.1, LightColors[i%len(LightColors)])
		light.Transform.Translation = lightPosition(i)
		r.Objects.Add(light)
	}
	return r, nil
}

// lightPosition places light i on a square around the origin, up to
// lightsPerSide lights on each side.
func lightPosition(i int) math32.Vector3 {
	start := -lightSpacing * float32(lightsPerSide-1) / 2
	edge := lightSpacing * float32(lightsPerSide) / 2
	index := float32(i % lightsPerSide)
	switch (i / lightsPerSide) % 4 {
	case 0:
		return math32.Vec3(start+index*lightSpacing, 0, -edge)
	case 1:
		return math32.Vec3(edge, 0, start+index*lightSpacing)
	case 2:
		return math32.Vec3(start+index*lightSpacing, 0, edge)
	default:
		return math32.Vec3(-edge, 0, start+index*lightSpacing)
	}
}

// Destroy destroys the models of the room.
func (r *Room) Destroy() {
	for _, m := range r.models {
		m.Destroy()
	}
	r.models = nil
}
