package mesh

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/daeimport/diag"
)

type Topology int

const (
	TopologyNone Topology = iota
	TopologyLines
	TopologyTriangles
)

func (t Topology) String() string {
	switch t {
	case TopologyLines:
		return "lines"
	case TopologyTriangles:
		return "triangles"
	}
	return "none"
}

// Arity is the number of indices per primitive.
func (t Topology) Arity() int {
	switch t {
	case TopologyLines:
		return 2
	case TopologyTriangles:
		return 3
	}
	return 0
}

type BufferKind int

const (
	BufferPosition BufferKind = iota
	BufferNormal
	BufferBinormal
	BufferTangent
	BufferColor
	BufferTexCoord
)

func (k BufferKind) String() string {
	switch k {
	case BufferPosition:
		return "position"
	case BufferNormal:
		return "normal"
	case BufferBinormal:
		return "binormal"
	case BufferTangent:
		return "tangent"
	case BufferColor:
		return "color"
	case BufferTexCoord:
		return "texcoord"
	}
	return fmt.Sprintf("buffer(%d)", int(k))
}

// Buffer is one vertex channel. Only the slice matching Kind is filled:
// Vec2 for texcoords, Vec4 for colors, Vec3 for the rest.
type Buffer struct {
	Kind BufferKind
	Set  int
	Vec2 []mgl32.Vec2
	Vec3 []mgl32.Vec3
	Vec4 []mgl32.Vec4
}

func (b *Buffer) Len() int {
	switch b.Kind {
	case BufferTexCoord:
		return len(b.Vec2)
	case BufferColor:
		return len(b.Vec4)
	}
	return len(b.Vec3)
}

// duplicate appends a copy of element i and returns the new index.
func (b *Buffer) duplicate(i int) int {
	switch b.Kind {
	case BufferTexCoord:
		b.Vec2 = append(b.Vec2, b.Vec2[i])
	case BufferColor:
		b.Vec4 = append(b.Vec4, b.Vec4[i])
	default:
		b.Vec3 = append(b.Vec3, b.Vec3[i])
	}
	return b.Len() - 1
}

// Data is a deduplicated indexed mesh ready for export.
type Data struct {
	Name     string
	Topology Topology
	Desc     ShaderDesc
	Buffers  []*Buffer
	Indices  []uint32
	Remap    *Remapper

	// Influences are the unique skin influences, InfluenceIndices maps every
	// vertex to one of them or -1.
	Influences       []Influence
	InfluenceIndices []int
	UtilizedBones    []string

	VertexCount int
}

func (d *Data) Buffer(kind BufferKind, set int) *Buffer {
	for _, b := range d.Buffers {
		if b.Kind == kind && b.Set == set {
			return b
		}
	}
	return nil
}

func (d *Data) PrimitiveCount() int {
	if arity := d.Topology.Arity(); arity > 0 {
		return len(d.Indices) / arity
	}
	return 0
}

func (d *Data) Empty() bool {
	return d.VertexCount == 0
}

func (d *Data) sortBuffers() {
	sort.SliceStable(d.Buffers, func(i, j int) bool {
		if d.Buffers[i].Kind != d.Buffers[j].Kind {
			return d.Buffers[i].Kind < d.Buffers[j].Kind
		}
		return d.Buffers[i].Set < d.Buffers[j].Set
	})
}

// duplicateVertex copies vertex i across every buffer and returns the copy.
func (d *Data) duplicateVertex(i int) int {
	for _, b := range d.Buffers {
		b.duplicate(i)
	}
	if d.InfluenceIndices != nil {
		d.InfluenceIndices = append(d.InfluenceIndices, d.InfluenceIndices[i])
	}
	d.VertexCount++
	return d.VertexCount - 1
}

// Build deduplicates decoded corners into indexed buffers. When a mesh mixes
// triangles and lines only the triangles are kept.
func Build(name string, decoded *Decoded, desc ShaderDesc, sink diag.Sink) *Data {
	if sink == nil {
		sink = diag.Discard
	}
	data := &Data{Name: name, Desc: desc, Buffers: make([]*Buffer, 0), Indices: make([]uint32, 0)}

	var corners []Vertex
	switch {
	case len(decoded.Triangles) > 0:
		if len(decoded.Lines) > 0 {
			diag.Warnf(sink, diag.CodeMixedTopologyConflict, name,
				"Mesh has both triangles and lines, %d lines dropped", len(decoded.Lines))
		}
		data.Topology = TopologyTriangles
		corners = make([]Vertex, 0, len(decoded.Triangles)*3)
		for i := range decoded.Triangles {
			corners = append(corners, decoded.Triangles[i][:]...)
		}
	case len(decoded.Lines) > 0:
		data.Topology = TopologyLines
		corners = make([]Vertex, 0, len(decoded.Lines)*2)
		for i := range decoded.Lines {
			corners = append(corners, decoded.Lines[i][:]...)
		}
	default:
		diag.Warnf(sink, diag.CodeMissingRequiredStream, name, "Mesh has no primitives")
		return data
	}

	data.Remap = Remap(len(corners),
		func(i int) []uint32 { return corners[i].keys() },
		func(a, b int) bool { return corners[a].Equal(&corners[b]) })

	data.Indices = make([]uint32, len(corners))
	for i, u := range data.Remap.RemapTable {
		data.Indices[i] = uint32(u)
	}

	unique := make([]*Vertex, data.Remap.Len())
	for u, i := range data.Remap.ImplementationTable {
		unique[u] = &corners[i]
	}
	data.VertexCount = len(unique)

	vec3 := func(kind BufferKind, get func(v *Vertex) mgl32.Vec3) {
		b := &Buffer{Kind: kind, Vec3: make([]mgl32.Vec3, len(unique))}
		for i, v := range unique {
			b.Vec3[i] = get(v)
		}
		data.Buffers = append(data.Buffers, b)
	}
	vec3(BufferPosition, func(v *Vertex) mgl32.Vec3 { return v.Position })
	if desc.HasNormals {
		vec3(BufferNormal, func(v *Vertex) mgl32.Vec3 { return v.Normal })
	}
	if desc.HasBinormals {
		vec3(BufferBinormal, func(v *Vertex) mgl32.Vec3 { return v.Binormal })
	}
	if desc.HasTangents {
		vec3(BufferTangent, func(v *Vertex) mgl32.Vec3 { return v.Tangent })
	}
	for set := 0; set < desc.ColorCount; set++ {
		b := &Buffer{Kind: BufferColor, Set: set, Vec4: make([]mgl32.Vec4, len(unique))}
		for i, v := range unique {
			if set < len(v.Colors) {
				b.Vec4[i] = v.Colors[set]
			} else {
				b.Vec4[i] = mgl32.Vec4{1, 1, 1, 1}
			}
		}
		data.Buffers = append(data.Buffers, b)
	}
	for set := 0; set < desc.TexcoordCount; set++ {
		b := &Buffer{Kind: BufferTexCoord, Set: set, Vec2: make([]mgl32.Vec2, len(unique))}
		for i, v := range unique {
			if set < len(v.TexCoords) {
				b.Vec2[i] = v.TexCoords[set]
			}
		}
		data.Buffers = append(data.Buffers, b)
	}

	data.buildInfluences(unique)
	return data
}

func (d *Data) buildInfluences(unique []*Vertex) {
	skinned := make([]int, 0, len(unique))
	for i, v := range unique {
		if v.Influence != nil && len(v.Influence.Weights) > 0 {
			skinned = append(skinned, i)
		}
	}
	if len(skinned) == 0 {
		return
	}

	remap := Remap(len(skinned),
		func(i int) []uint32 { return []uint32{unique[skinned[i]].Influence.hash(0)} },
		func(a, b int) bool { return unique[skinned[a]].Influence.Equal(unique[skinned[b]].Influence) })

	d.Influences = make([]Influence, remap.Len())
	for u, i := range remap.ImplementationTable {
		src := unique[skinned[i]].Influence
		d.Influences[u] = Influence{Weights: append([]BoneWeight(nil), src.Weights...)}
	}

	d.InfluenceIndices = make([]int, len(unique))
	for i := range d.InfluenceIndices {
		d.InfluenceIndices[i] = -1
	}
	for i, u := range remap.RemapTable {
		d.InfluenceIndices[skinned[i]] = u
	}

	bones := make(map[string]struct{})
	for _, inf := range d.Influences {
		for _, w := range inf.Weights {
			bones[w.Bone] = struct{}{}
		}
	}
	d.UtilizedBones = make([]string, 0, len(bones))
	for b := range bones {
		d.UtilizedBones = append(d.UtilizedBones, b)
	}
	sort.Strings(d.UtilizedBones)
	d.Desc.BoneCount = len(d.UtilizedBones)
}

// InfluenceOf returns the influence of vertex i or nil.
func (d *Data) InfluenceOf(i int) *Influence {
	if d.InfluenceIndices == nil || i < 0 || i >= len(d.InfluenceIndices) {
		return nil
	}
	if idx := d.InfluenceIndices[i]; idx >= 0 {
		return &d.Influences[idx]
	}
	return nil
}
