package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/daeimport/diag"
)

func vtx(x, y, z float32, u, v float32) Vertex {
	return Vertex{
		Position:  Position{x, y, z},
		Normal:    Normal{0, 0, 1},
		TexCoords: []UV{{u, v}},
	}
}

var texturedDesc = ShaderDesc{HasNormals: true, TexcoordCount: 1}

func quad() *Decoded {
	v0, v1, v2, v3 := vtx(0, 0, 0, 0, 0), vtx(1, 0, 0, 1, 0), vtx(0, 1, 0, 0, 1), vtx(1, 1, 0, 1, 1)
	return &Decoded{
		Triangles: []Triangle{{v0, v1, v2}, {v2, v1, v3}},
		Desc:      texturedDesc,
	}
}

// expand turns indexed data back into corners.
func expand(d *Data) *Decoded {
	result := &Decoded{Desc: d.Desc}
	pos := d.Buffer(BufferPosition, 0)
	nrm := d.Buffer(BufferNormal, 0)
	uv := d.Buffer(BufferTexCoord, 0)
	corner := func(i uint32) Vertex {
		v := Vertex{Position: pos.Vec3[i], Influence: d.InfluenceOf(int(i))}
		if nrm != nil {
			v.Normal = nrm.Vec3[i]
		}
		if uv != nil {
			v.TexCoords = []UV{uv.Vec2[i]}
		}
		return v
	}
	for i := 0; i+2 < len(d.Indices); i += 3 {
		result.Triangles = append(result.Triangles, Triangle{corner(d.Indices[i]), corner(d.Indices[i+1]), corner(d.Indices[i+2])})
	}
	return result
}

func TestBuildDeduplicates(t *testing.T) {
	data := Build("quad", quad(), texturedDesc, nil)

	assert.Equal(t, TopologyTriangles, data.Topology)
	assert.Equal(t, 4, data.VertexCount)
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3}, data.Indices)
	assert.Equal(t, 2, data.PrimitiveCount())

	require.Len(t, data.Buffers, 3)
	assert.Equal(t, BufferPosition, data.Buffers[0].Kind)
	assert.Equal(t, BufferNormal, data.Buffers[1].Kind)
	assert.Equal(t, BufferTexCoord, data.Buffers[2].Kind)
	for _, b := range data.Buffers {
		assert.Equal(t, data.VertexCount, b.Len(), b.Kind.String())
	}
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, data.Buffer(BufferPosition, 0).Vec3[3])
}

func TestBuildIsIdempotent(t *testing.T) {
	first := Build("quad", quad(), texturedDesc, nil)
	second := Build("quad", expand(first), texturedDesc, nil)

	assert.Equal(t, first.VertexCount, second.VertexCount)
	assert.Equal(t, first.Indices, second.Indices)
	assert.Equal(t, first.Buffer(BufferPosition, 0).Vec3, second.Buffer(BufferPosition, 0).Vec3)
}

func TestBuildEpsilon(t *testing.T) {
	a := vtx(0.1, 0.2, 0.3, 0, 0)
	b := vtx(0.1+0.000001, 0.2, 0.3, 0, 0)
	c := vtx(0.1, 0.2, 0.3, 0, 0)
	c.Normal = Normal{0, 1, 0}

	data := Build("eps", &Decoded{Triangles: []Triangle{{a, b, c}}}, texturedDesc, nil)
	assert.Equal(t, 2, data.VertexCount)
	assert.Equal(t, []uint32{0, 0, 1}, data.Indices)
}

func TestBuildTopologyPrecedence(t *testing.T) {
	log := diag.NewLog()
	decoded := quad()
	decoded.Lines = []Line{{vtx(0, 0, 0, 0, 0), vtx(5, 5, 5, 0, 0)}}

	data := Build("mixed", decoded, texturedDesc, log)
	assert.Equal(t, TopologyTriangles, data.Topology)
	assert.Equal(t, 4, data.VertexCount)
	assert.Equal(t, 1, log.Count(diag.CodeMixedTopologyConflict))

	decoded.Triangles = nil
	data = Build("lines", decoded, texturedDesc, log)
	assert.Equal(t, TopologyLines, data.Topology)
	assert.Equal(t, []uint32{0, 1}, data.Indices)
	assert.Equal(t, 1, log.Count(diag.CodeMixedTopologyConflict))
}

func TestBuildEmpty(t *testing.T) {
	log := diag.NewLog()
	data := Build("empty", &Decoded{}, ShaderDesc{}, log)
	assert.True(t, data.Empty())
	assert.Equal(t, TopologyNone, data.Topology)
	assert.Equal(t, 1, log.Len())
}

func TestBuildInfluences(t *testing.T) {
	ab := influenceOf("b", 0.5, "a", 0.5)
	ba := influenceOf("a", 0.5, "b", 0.5)
	c := influenceOf("c", 1.0)

	v0, v1, v2, v3 := vtx(0, 0, 0, 0, 0), vtx(1, 0, 0, 1, 0), vtx(0, 1, 0, 0, 1), vtx(1, 1, 0, 1, 1)
	v0.Influence = ab
	v1.Influence = ba
	v2.Influence = c

	data := Build("skin", &Decoded{Triangles: []Triangle{{v0, v1, v2}, {v2, v1, v3}}}, texturedDesc, nil)
	require.Len(t, data.Influences, 2)
	assert.Equal(t, []int{0, 0, 1, -1}, data.InfluenceIndices)
	assert.Equal(t, []string{"a", "b", "c"}, data.UtilizedBones)
	assert.Equal(t, 3, data.Desc.BoneCount)
	assert.Nil(t, data.InfluenceOf(3))
	assert.True(t, data.InfluenceOf(1).Equal(ab))
}

func TestRemap(t *testing.T) {
	items := []int{5, 3, 5, 7, 3, 5}
	r := Remap(len(items),
		func(i int) []uint32 { return []uint32{uint32(items[i] % 2)} },
		func(a, b int) bool { return items[a] == items[b] })

	assert.Equal(t, []int{0, 1, 0, 2, 1, 0}, r.RemapTable)
	assert.Equal(t, []int{0, 1, 3}, r.ImplementationTable)
	assert.Equal(t, 3, r.Len())
}

func TestRemapExtraBuckets(t *testing.T) {
	// item 0 also registers in bucket 1, so item 1 finds it there
	r := Remap(2,
		func(i int) []uint32 { return [][]uint32{{0, 1}, {1}}[i] },
		func(a, b int) bool { return true })

	assert.Equal(t, []int{0, 0}, r.RemapTable)
	assert.Equal(t, 1, r.Len())
}

func TestFloatEqualAbsolute(t *testing.T) {
	for _, test := range []struct {
		a, b  float32
		equal bool
	}{
		{1e-6, -1e-6, true},
		{0, 0.000009, true},
		{0, 0.00002, false},
		{1000, 1000.01, false},
		{-5, -5.000005, true},
	} {
		assert.Equal(t, test.equal, floatEqual(test.a, test.b), "%v == %v", test.a, test.b)
	}
}

func TestBuildDeduplicatesAcrossCells(t *testing.T) {
	for _, test := range []struct {
		name string
		a, b Position
	}{
		{"x", Position{1.000997, 0, 0}, Position{1.001003, 0, 0}},
		{"zero", Position{0, 1e-6, 0}, Position{0, -1e-6, 0}},
		{"all axes", Position{-0.002002, 0.004998, 7.000999}, Position{-0.001997, 0.005003, 7.001002}},
	} {
		a, b := Vertex{Position: test.a}, Vertex{Position: test.b}
		require.True(t, a.Equal(&b), test.name)

		v1, v2 := Vertex{Position: Position{0, 3, 0}}, Vertex{Position: Position{3, 0, 0}}
		data := Build(test.name, &Decoded{Triangles: []Triangle{{a, v1, v2}, {b, v2, v1}}}, ShaderDesc{}, nil)
		assert.Equal(t, 3, data.VertexCount, test.name)
		assert.Equal(t, []uint32{0, 1, 2, 0, 2, 1}, data.Indices, test.name)
	}
}
