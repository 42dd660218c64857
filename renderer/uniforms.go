package renderer

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/clipplane"
	"github.com/solarvol/voxrender/slicer"
)

// byte packing here mirrors gputexture.Registry.CreateBrickTexture's
// manual little-endian float encoding rather than unsafe.Pointer
// reinterpretation, since WGSL uniform layout (std140-like alignment)
// does not match a Go struct's natural layout.

func putFloat32(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], math.Float32bits(v))
}

func putVec3(buf []byte, offset int, v mgl32.Vec3) {
	putFloat32(buf, offset, v[0])
	putFloat32(buf, offset+4, v[1])
	putFloat32(buf, offset+8, v[2])
}

func putMat4(buf []byte, offset int, m mgl32.Mat4) {
	for i := 0; i < 16; i++ {
		putFloat32(buf, offset+i*4, m[i])
	}
}

// frameUniformSize is the packed size of FrameUniforms: a 4x4 MVP
// matrix, MaxPlanes vec3+padding clip-plane normals (array<vec3<f32>,
// MaxPlanes>), MaxPlanes clip-plane origin distances (array<f32,
// MaxPlanes>, each padded to the uniform address space's 16-byte array
// stride), a clip-plane count, and the sampling correction.
const frameUniformSize = 64 + clipplane.MaxPlanes*16 + clipplane.MaxPlanes*16 + 16

// PackFrameUniforms encodes the per-frame uniform buffer payload: the
// camera's MVP, the active clip planes (padded to MaxPlanes with a zero
// normal and a zero origin distance, which the fragment shader's
// clip_plane_normal/clip_plane_origin_distance discard guard treats as
// always-pass since dot(p, 0) < 0 never holds), and the plane stack's
// current sampling correction.
func PackFrameUniforms(mvp mgl32.Mat4, planes []clipplane.Plane, samplingCorrection float32) []byte {
	buf := make([]byte, frameUniformSize)
	putMat4(buf, 0, mvp)

	normalsOff := 64
	distOff := 64 + clipplane.MaxPlanes*16
	for i := 0; i < clipplane.MaxPlanes; i++ {
		if i < len(planes) {
			putVec3(buf, normalsOff+i*16, planes[i].Normal)
			putFloat32(buf, distOff+i*16, planes[i].Origin.Dot(planes[i].Normal))
		}
	}

	tailOff := distOff + clipplane.MaxPlanes*16
	binary.LittleEndian.PutUint32(buf[tailOff:tailOff+4], uint32(len(planes)))
	putFloat32(buf, tailOff+4, samplingCorrection)
	return buf
}

// drawUniformSize is the packed size of DrawUniforms, one instance per
// slicer.DrawCall: brick and sub-brick offset/extent, two vec3+padding
// pad fractions, an orientation code, a back-plane distance, a
// back-corner index, and the number of planes this draw actually needs.
const drawUniformSize = 16*6 + 16

// PackDrawUniforms encodes one DrawCall's per-instance uniform payload,
// the values the vertex shader needs to turn (VertexIdx, PlaneIdx) into
// a world-space position inside the drawn sub-brick.
func PackDrawUniforms(dc slicer.DrawCall) []byte {
	buf := make([]byte, drawUniformSize)
	putVec3(buf, 0, dc.BrickOffset)
	putVec3(buf, 16, dc.BrickExtent)
	putVec3(buf, 32, dc.SubBrickOffset)
	putVec3(buf, 48, dc.SubBrickExtent)
	putVec3(buf, 64, vec3From(dc.PadFractionLo))
	putVec3(buf, 80, vec3From(dc.PadFractionHi))
	binary.LittleEndian.PutUint32(buf[96:100], uint32(dc.Orientation))
	putFloat32(buf, 100, dc.BackPlaneDist)
	binary.LittleEndian.PutUint32(buf[104:108], uint32(dc.BackCornerIndex))
	binary.LittleEndian.PutUint32(buf[108:112], uint32(dc.NumRequiredPlanes))
	return buf
}

func vec3From(v [3]float32) mgl32.Vec3 { return mgl32.Vec3{v[0], v[1], v[2]} }
