// Copyright (c) 2025 Cubyte.online under the AGPL License

package scene

import (
	"encoding/binary"

	"github.com/xlab/linmath"

	asch "github.com/tomas-mraz/ashframe"
)

// PointLightData is one light in the global uniform.
type PointLightData struct {
	// w is ignored
	Position linmath.Vec4
	// w is the intensity
	Color linmath.Vec4
}

// GlobalUbo is the per frame uniform buffer, laid out for std140.
type GlobalUbo struct {
	Projection  linmath.Mat4x4
	View        linmath.Mat4x4
	InverseView linmath.Mat4x4

	// w is the intensity
	AmbientLightColor linmath.Vec4
	PointLights       [asch.MaxLights]PointLightData
	NumLights         uint32
	_                 [3]uint32
}

// GlobalUboSize is the size of an encoded GlobalUbo.
const GlobalUboSize = 3*64 + 16 + asch.MaxLights*32 + 16

// NewGlobalUbo returns a uniform for camera with a faint white ambient
// light and no point lights.
func NewGlobalUbo(camera *Camera) *GlobalUbo {
	return &GlobalUbo{
		Projection:        camera.Projection(),
		View:              camera.View(),
		InverseView:       camera.InverseView(),
		AmbientLightColor: linmath.Vec4{1, 1, 1, 0.05},
	}
}

// Bytes encodes the uniform in little endian.
func (u *GlobalUbo) Bytes() []byte {
	data, err := binary.Append(make([]byte, 0, GlobalUboSize), binary.LittleEndian, u)
	if err != nil {
		// fixed size values always encode
		panic(err)
	}
	return data
}
