// Copyright (c) 2025 Cubyte.online under the AGPL License

package scene

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"

	"cogentcore.org/core/math32"
	"github.com/xlab/linmath"

	asch "github.com/tomas-mraz/ashframe"
)

// Recorder records passes into secondary command buffers of a frame.
// *asch.ParallelRecorder is the implementation.
type Recorder interface {
	Record(primary asch.CommandBuffer, slot int, inh asch.Inheritance, objects []asch.Object, pass asch.Pass) error
	RecordSerial(primary asch.CommandBuffer, slot int, inh asch.Inheritance, fn func(cmd asch.CommandBuffer)) error
}

// Frame is what the render systems get to record one frame.
type Frame struct {
	asch.FrameInfo
	Camera *Camera

	// Objects in ID order, shared by all passes of the frame
	Objects []*GameObject
}

// NewFrame takes the ordered view of objects for one frame.
func NewFrame(info asch.FrameInfo, camera *Camera, objects Objects) *Frame {
	return &Frame{FrameInfo: info, Camera: camera, Objects: objects.Sorted()}
}

// bindGlobals binds pipeline and the per frame set and sets the
// dynamic state, which secondary buffers don't inherit.
func (f *Frame) bindGlobals(cmd asch.CommandBuffer, pipeline asch.Pipeline, layout asch.PipelineLayout) {
	cmd.BindPipeline(pipeline)
	cmd.BindDescriptorSet(layout, f.GlobalSet)
	cmd.SetViewport(asch.FullViewport(f.Extent))
	cmd.SetScissor(f.Extent)
}

// MeshPush is the push constant block of the mesh pipeline.
type MeshPush struct {
	ModelMatrix  linmath.Mat4x4
	NormalMatrix linmath.Mat4x4
}

// MeshPushSize is the size of an encoded MeshPush.
const MeshPushSize = 128

// LightPush is the push constant block of the point light pipeline.
type LightPush struct {
	Position linmath.Vec4
	Color    linmath.Vec4
	Radius   float32
	_        [3]float32
}

// LightPushSize is the size of an encoded LightPush.
const LightPushSize = 48

func encode(v any, size int) []byte {
	data, err := binary.Append(make([]byte, 0, size), binary.LittleEndian, v)
	if err != nil {
		// fixed size values always encode
		panic(err)
	}
	return data
}

// BasicSystem draws every object with a model, fanning the recording
// out over the workers of its recorder.
type BasicSystem struct {
	recorder Recorder
	pipeline asch.Pipeline
	layout   asch.PipelineLayout

	objects []asch.Object
}

func NewBasicSystem(recorder Recorder, pipeline asch.Pipeline, layout asch.PipelineLayout) *BasicSystem {
	return &BasicSystem{recorder: recorder, pipeline: pipeline, layout: layout}
}

// Render records the objects of f in ID order.
func (s *BasicSystem) Render(f *Frame) error {
	s.objects = s.objects[:0]
	for _, o := range f.Objects {
		s.objects = append(s.objects, o)
	}
	pass := asch.Pass{
		Setup: func(cmd asch.CommandBuffer) {
			f.bindGlobals(cmd, s.pipeline, s.layout)
		},
		Each: func(cmd asch.CommandBuffer, obj asch.Object) {
			o := obj.(*GameObject)
			push := MeshPush{
				ModelMatrix:  o.Transform.Matrix(),
				NormalMatrix: o.Transform.NormalMatrix(),
			}
			cmd.PushConstants(s.layout, encode(&push, MeshPushSize))
		},
	}
	return s.recorder.Record(f.CommandBuffer, f.FrameIndex, f.Inheritance, s.objects, pass)
}

// LightSpeed is the angular speed of the lights about the vertical
// axis, in radians per second.
const LightSpeed = 0.5

// PointLightSystem moves the lights, publishes them in the global
// uniform and draws a billboard for each.
type PointLightSystem struct {
	recorder Recorder
	pipeline asch.Pipeline
	layout   asch.PipelineLayout
}

func NewPointLightSystem(recorder Recorder, pipeline asch.Pipeline, layout asch.PipelineLayout) *PointLightSystem {
	return &PointLightSystem{recorder: recorder, pipeline: pipeline, layout: layout}
}

// rotateY turns p by angle radians about the -Y axis.
func rotateY(p math32.Vector3, angle float32) math32.Vector3 {
	c, s := math32.Cos(angle), math32.Sin(angle)
	return math32.Vec3(c*p.X-s*p.Z, p.Y, s*p.X+c*p.Z)
}

// Update rotates the lights for the frame time of f and writes them
// to ubo in ID order.
func (s *PointLightSystem) Update(f *Frame, ubo *GlobalUbo) error {
	n := 0
	for _, o := range f.Objects {
		if o.Light == nil {
			continue
		}
		if n == asch.MaxLights {
			return fmt.Errorf("scene: more than %d point lights", asch.MaxLights)
		}
		p := rotateY(o.Transform.Translation, LightSpeed*f.FrameTime)
		o.Transform.Translation = p
		ubo.PointLights[n] = PointLightData{
			Position: linmath.Vec4{p.X, p.Y, p.Z, 1},
			Color:    linmath.Vec4{o.Color.X, o.Color.Y, o.Color.Z, o.Light.Intensity},
		}
		n++
	}
	ubo.NumLights = uint32(n)
	return nil
}

// SortLights returns the lights of objects from the farthest to the
// nearest to the camera, as blending needs. Equally distant lights
// keep ID order.
func SortLights(objects []*GameObject, camera math32.Vector3) []*GameObject {
	type entry struct {
		obj  *GameObject
		dist float32
	}
	var lights []entry
	for _, o := range objects {
		if o.Light == nil {
			continue
		}
		d := camera.Sub(o.Transform.Translation)
		lights = append(lights, entry{obj: o, dist: d.Dot(d)})
	}
	slices.SortStableFunc(lights, func(a, b entry) int { return cmp.Compare(b.dist, a.dist) })
	out := make([]*GameObject, len(lights))
	for i, l := range lights {
		out[i] = l.obj
	}
	return out
}

// Render draws the light billboards on the calling goroutine, back to
// front.
func (s *PointLightSystem) Render(f *Frame) error {
	lights := SortLights(f.Objects, f.Camera.Position())
	if len(lights) == 0 {
		return nil
	}
	return s.recorder.RecordSerial(f.CommandBuffer, f.FrameIndex, f.Inheritance, func(cmd asch.CommandBuffer) {
		f.bindGlobals(cmd, s.pipeline, s.layout)
		for _, o := range lights {
			p := o.Transform.Translation
			push := LightPush{
				Position: linmath.Vec4{p.X, p.Y, p.Z, 1},
				Color:    linmath.Vec4{o.Color.X, o.Color.Y, o.Color.Z, o.Light.Intensity},
				Radius:   o.Transform.Scale.X,
			}
			cmd.PushConstants(s.layout, encode(&push, LightPushSize))
			cmd.Draw(6, 1)
		}
	})
}
