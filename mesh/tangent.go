package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/daeimport/diag"
)

const degenerateUV = 1e-12

var fallbackAxis = mgl32.Vec3{0, 1, 0}

type basis struct {
	tangent, binormal mgl32.Vec3
}

func (b basis) equal(o basis) bool {
	return vec3Equal(b.tangent, o.tangent) && vec3Equal(b.binormal, o.binormal)
}

func safeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
		return fallbackAxis
	}
	return v.Mul(1 / l)
}

func faceBasis(p [3]mgl32.Vec3, uv [3]mgl32.Vec2) basis {
	e1, e2 := p[1].Sub(p[0]), p[2].Sub(p[0])
	d1, d2 := uv[1].Sub(uv[0]), uv[2].Sub(uv[0])

	m := d1[0]*d2[1] - d1[1]*d2[0]
	if math.Abs(float64(m)) < degenerateUV {
		return basis{tangent: fallbackAxis, binormal: fallbackAxis}
	}
	r := 1 / m
	return basis{
		tangent:  safeNormalize(e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(r)),
		binormal: safeNormalize(e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(r)),
	}
}

// GenerateTangentSpace fills in tangents and/or binormals the mesh does not
// already carry. Every triangle gets its own flat basis; a vertex shared by
// triangles with different bases is split instead of averaged.
func GenerateTangentSpace(data *Data, positionSet, texcoordSet int, tangents, binormals bool, sink diag.Sink) {
	if sink == nil {
		sink = diag.Discard
	}
	tangents = tangents && data.Buffer(BufferTangent, 0) == nil
	binormals = binormals && data.Buffer(BufferBinormal, 0) == nil
	if !tangents && !binormals {
		return
	}
	if data.Topology != TopologyTriangles {
		return
	}

	positions := data.Buffer(BufferPosition, positionSet)
	texcoords := data.Buffer(BufferTexCoord, texcoordSet)
	if positions == nil || texcoords == nil {
		diag.Warnf(sink, diag.CodeMissingRequiredStream, data.Name,
			"Tangent space needs positions and texcoord set %d, not generated", texcoordSet)
		return
	}

	assigned := make([]bool, data.VertexCount)
	bases := make([]basis, data.VertexCount)
	for i := range bases {
		bases[i] = basis{tangent: fallbackAxis, binormal: fallbackAxis}
	}
	// split copies of a vertex, reused for equal bases
	splits := make(map[int][]int)

	for t := 0; t+2 < len(data.Indices); t += 3 {
		var p [3]mgl32.Vec3
		var uv [3]mgl32.Vec2
		for c := 0; c < 3; c++ {
			idx := data.Indices[t+c]
			p[c] = positions.Vec3[idx]
			uv[c] = texcoords.Vec2[idx]
		}
		face := faceBasis(p, uv)

		for c := 0; c < 3; c++ {
			v := int(data.Indices[t+c])
			if !assigned[v] {
				assigned[v] = true
				bases[v] = face
				continue
			}
			if bases[v].equal(face) {
				continue
			}

			target := -1
			for _, s := range splits[v] {
				if bases[s].equal(face) {
					target = s
					break
				}
			}
			if target < 0 {
				target = data.duplicateVertex(v)
				assigned = append(assigned, true)
				bases = append(bases, face)
				splits[v] = append(splits[v], target)
			}
			data.Indices[t+c] = uint32(target)
		}
	}

	if tangents {
		b := &Buffer{Kind: BufferTangent, Vec3: make([]mgl32.Vec3, data.VertexCount)}
		for i := range b.Vec3 {
			b.Vec3[i] = bases[i].tangent
		}
		data.Buffers = append(data.Buffers, b)
		data.Desc.HasTangents = true
	}
	if binormals {
		b := &Buffer{Kind: BufferBinormal, Vec3: make([]mgl32.Vec3, data.VertexCount)}
		for i := range b.Vec3 {
			b.Vec3[i] = bases[i].binormal
		}
		data.Buffers = append(data.Buffers, b)
		data.Desc.HasBinormals = true
	}
	data.sortBuffers()
}
