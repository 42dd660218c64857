package clipplane

import (
	"fmt"
	"strings"
)

// EmitShaderSnippet generates a WGSL fragment-stage guard that discards
// fragments outside any active clip plane's half-space. WGSL has no
// gl_ClipDistance equivalent, so where the original writes per-plane
// clip-distance outputs in the vertex stage (clip_planes.c), this emits
// an early-discard block driven by the same per-plane origin/normal
// uniforms, evaluated against the fragment's world position.
func (e *Engine) EmitShaderSnippet(worldPositionExpr string) string {
	if len(e.planes) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "let clip_pos = %s;\n", worldPositionExpr)
	for i := range e.planes {
		fmt.Fprintf(&b,
			"if (dot(clip_pos, clip_plane_normal[%d]) < clip_plane_origin_distance[%d]) { discard; }\n",
			i, i)
	}
	return b.String()
}

// UniformNormals returns the active planes' normals in activation order,
// padded to MaxPlanes with zero vectors so the caller can upload a
// fixed-size uniform array regardless of Count().
func (e *Engine) UniformNormals() [MaxPlanes][3]float32 {
	var out [MaxPlanes][3]float32
	for i, p := range e.planes {
		out[i] = [3]float32{p.Normal[0], p.Normal[1], p.Normal[2]}
	}
	return out
}

// UniformOriginDistances returns dot(origin, normal) for each active
// plane, padded to MaxPlanes with zeros.
func (e *Engine) UniformOriginDistances() [MaxPlanes]float32 {
	var out [MaxPlanes]float32
	for i, p := range e.planes {
		out[i] = p.originDistance()
	}
	return out
}
