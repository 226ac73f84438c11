package mesh

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/daeimport/collada"
	"github.com/mogaika/daeimport/diag"
	"github.com/mogaika/daeimport/resolver"
)

// ShaderDesc summarizes which vertex channels a mesh carries.
type ShaderDesc struct {
	HasNormals    bool
	HasBinormals  bool
	HasTangents   bool
	ColorCount    int
	TexcoordCount int
	BoneCount     int
	MorphCount    int
}

// Decoded holds assembled primitives before deduplication.
type Decoded struct {
	Triangles []Triangle
	Lines     []Line
	Desc      ShaderDesc
}

func (d *Decoded) Empty() bool {
	return len(d.Triangles) == 0 && len(d.Lines) == 0
}

// Decoder expands the primitives of one mesh into per-corner vertices.
type Decoder struct {
	Resolver *resolver.Resolver
	// Matrix transforms positions, its inverse transpose the normals.
	Matrix          mgl32.Mat4
	InvertTexCoordY bool
	// Influences are indexed by control point, nil for static meshes.
	Influences []Influence
	Sink       diag.Sink
	// Object names the owner in diagnostics.
	Object string
}

type semanticKind int

const (
	semPosition semanticKind = iota
	semNormal
	semBinormal
	semTangent
	semColor
	semTexcoord
)

var semantics = map[string]semanticKind{
	"POSITION":    semPosition,
	"NORMAL":      semNormal,
	"BINORMAL":    semBinormal,
	"TEXBINORMAL": semBinormal,
	"TANGENT":     semTangent,
	"TEXTANGENT":  semTangent,
	"COLOR":       semColor,
	"TEXCOORD":    semTexcoord,
}

type channel struct {
	kind   semanticKind
	set    int
	offset int
	// slot is the index among channels of the same kind
	slot   int
	source *collada.Source
}

type layout struct {
	// normalMatrix is the inverse transpose of Decoder.Matrix at layout time,
	// only set when the primitive carries a tangent frame channel
	normalMatrix mgl32.Mat4
	channels     []channel
	stride       int
	vertexOffset int
	colors       int
	texcoords    int
}

func (d *Decoder) sink() diag.Sink {
	if d.Sink == nil {
		return diag.Discard
	}
	return d.Sink
}

// layoutOf maps the inputs of a primitive to readable channels. The VERTEX
// input is expanded through the mesh <vertices> group.
func (d *Decoder) layoutOf(meshHandle collada.Handle, m *collada.Mesh, prim *collada.Primitive) (*layout, error) {
	doc := d.Resolver.Document()
	l := &layout{
		stride:       prim.Stride(),
		vertexOffset: -1,
		channels:     make([]channel, 0, len(prim.Inputs)+2),
	}

	add := func(in collada.Input, offset int) {
		kind, ok := semantics[in.Semantic]
		if !ok {
			return
		}
		src, err := d.Resolver.Source(meshHandle, in.Source)
		if err != nil {
			diag.Warnf(d.sink(), diag.CodeUnresolvedReference, d.Object, "Input %s: %v", in.Semantic, err)
			return
		}
		for _, c := range l.channels {
			if c.kind == kind && c.set == in.Set && kind != semColor && kind != semTexcoord {
				// one position/normal stream is enough
				return
			}
		}
		l.channels = append(l.channels, channel{kind: kind, set: in.Set, offset: offset, source: src})
	}

	for _, in := range prim.Inputs {
		if in.Semantic != "VERTEX" {
			add(in, in.Offset)
			continue
		}
		l.vertexOffset = in.Offset
		vh, err := d.Resolver.ResolveURI(in.Source, collada.KindVertices)
		if err != nil {
			return nil, err
		}
		if vh == collada.NoHandle {
			vh = m.Vertices
		}
		vertices := doc.Vertices(vh)
		if vertices == nil {
			return nil, errors.Wrapf(resolver.ErrUnresolvedReference, "vertices %q", in.Source)
		}
		for _, vin := range vertices.Inputs {
			add(vin, in.Offset)
		}
	}

	hasPosition, hasFrame := false, false
	for _, c := range l.channels {
		switch c.kind {
		case semPosition:
			hasPosition = true
		case semNormal, semBinormal, semTangent:
			hasFrame = true
		}
	}
	if !hasPosition {
		return nil, errors.New("primitive has no POSITION input")
	}
	if hasFrame {
		l.normalMatrix = d.Matrix.Inv().Transpose()
	}

	// sets ascending, document order for equal sets
	sort.SliceStable(l.channels, func(i, j int) bool {
		if l.channels[i].kind != l.channels[j].kind {
			return l.channels[i].kind < l.channels[j].kind
		}
		return l.channels[i].set < l.channels[j].set
	})
	for i := range l.channels {
		switch l.channels[i].kind {
		case semColor:
			l.channels[i].slot = l.colors
			l.colors++
		case semTexcoord:
			l.channels[i].slot = l.texcoords
			l.texcoords++
		}
	}
	return l, nil
}

func (d *Decoder) corner(l *layout, desc *ShaderDesc, run []int, c int) (Vertex, error) {
	v := Vertex{}
	if desc.ColorCount > 0 {
		v.Colors = make([]Color, desc.ColorCount)
		for i := range v.Colors {
			v.Colors[i] = Color{1, 1, 1, 1}
		}
	}
	if desc.TexcoordCount > 0 {
		v.TexCoords = make([]UV, desc.TexcoordCount)
	}

	base := c * l.stride
	if base+l.stride > len(run) {
		return v, errors.Errorf("corner %d is past the end of %d indices", c, len(run))
	}

	var buf [4]float32
	for _, ch := range l.channels {
		idx := run[base+ch.offset]
		if idx < 0 || idx >= ch.source.Count() {
			return v, errors.Errorf("index %d is out of range of source with %d elements", idx, ch.source.Count())
		}

		n := 3
		switch ch.kind {
		case semTexcoord:
			n = 2
		case semColor:
			n = ch.source.Stride()
			if n > 4 {
				n = 4
			}
		}
		if stride := ch.source.Stride(); n > stride {
			n = stride
		}
		buf = [4]float32{0, 0, 0, 1}
		if !ch.source.Floats(idx, buf[:n]) {
			return v, errors.Errorf("source has no data for element %d", idx)
		}

		switch ch.kind {
		case semPosition:
			v.Position = mgl32.TransformCoordinate(mgl32.Vec3{buf[0], buf[1], buf[2]}, d.Matrix)
		case semNormal, semBinormal, semTangent:
			vec := mgl32.TransformNormal(mgl32.Vec3{buf[0], buf[1], buf[2]}, l.normalMatrix)
			if vec.Len() > 0 {
				vec = vec.Normalize()
			}
			switch ch.kind {
			case semNormal:
				v.Normal = vec
			case semBinormal:
				v.Binormal = vec
			default:
				v.Tangent = vec
			}
		case semColor:
			if ch.slot < len(v.Colors) {
				v.Colors[ch.slot] = Color{buf[0], buf[1], buf[2], buf[3]}
			}
		case semTexcoord:
			if ch.slot < len(v.TexCoords) {
				uv := UV{buf[0], buf[1]}
				if d.InvertTexCoordY {
					uv[1] = 1 - uv[1]
				}
				v.TexCoords[ch.slot] = uv
			}
		}
	}

	if d.Influences != nil && l.vertexOffset >= 0 {
		point := run[base+l.vertexOffset]
		if point >= 0 && point < len(d.Influences) {
			v.Influence = &d.Influences[point]
		}
	}
	return v, nil
}

func (l *layout) describe(desc *ShaderDesc) {
	for _, c := range l.channels {
		switch c.kind {
		case semNormal:
			desc.HasNormals = true
		case semBinormal:
			desc.HasBinormals = true
		case semTangent:
			desc.HasTangents = true
		}
	}
	if l.colors > desc.ColorCount {
		desc.ColorCount = l.colors
	}
	if l.texcoords > desc.TexcoordCount {
		desc.TexcoordCount = l.texcoords
	}
}

// DecodePrimitives expands every primitive of the mesh. Problems are
// reported to the sink and only drop the primitive (or the mesh) they
// concern.
func (d *Decoder) DecodePrimitives(meshHandle collada.Handle) (*Decoded, ShaderDesc) {
	result := d.decode(meshHandle)
	return result, result.Desc
}

func (d *Decoder) decode(meshHandle collada.Handle) *Decoded {
	result := &Decoded{Triangles: make([]Triangle, 0), Lines: make([]Line, 0)}
	doc := d.Resolver.Document()
	m := doc.Mesh(meshHandle)
	if m == nil {
		diag.Warnf(d.sink(), diag.CodeMissingRequiredStream, d.Object, "Geometry has no <mesh>. Mesh will be empty.")
		return result
	}
	if len(m.Primitives) == 0 {
		diag.Warnf(d.sink(), diag.CodeMissingRequiredStream, d.Object, "Mesh has no primitives.")
		return result
	}

	type prepared struct {
		prim   *collada.Primitive
		layout *layout
	}
	list := make([]prepared, 0, len(m.Primitives))
	for _, ph := range m.Primitives {
		prim := doc.Primitive(ph)
		if prim.Type == collada.PrimitivePolygons {
			diag.Warnf(d.sink(), diag.CodeUnsupportedTopology, d.Object, "<polygons> primitives are not supported, primitive skipped.")
			continue
		}
		if len(prim.P) == 0 {
			diag.Warnf(d.sink(), diag.CodeMissingRequiredStream, d.Object, "Mesh has no face indices. Mesh will be empty.")
			return &Decoded{Triangles: make([]Triangle, 0), Lines: make([]Line, 0)}
		}
		l, err := d.layoutOf(meshHandle, m, prim)
		if err != nil {
			code := diag.CodeMissingRequiredStream
			if resolver.IsAmbiguous(err) {
				code = diag.CodeAmbiguousReference
			} else if resolver.IsUnresolved(err) {
				code = diag.CodeUnresolvedReference
			}
			diag.Warnf(d.sink(), code, d.Object, "%s primitive skipped: %v", prim.Type, err)
			continue
		}
		l.describe(&result.Desc)
		list = append(list, prepared{prim: prim, layout: l})
	}

	for _, p := range list {
		if err := d.assemble(p.prim, p.layout, result); err != nil {
			diag.Warnf(d.sink(), diag.CodeMissingRequiredStream, d.Object, "%s primitive skipped: %v", p.prim.Type, err)
		}
	}
	return result
}

func (d *Decoder) corners(l *layout, desc *ShaderDesc, run []int) ([]Vertex, error) {
	if l.stride == 0 {
		return nil, errors.New("primitive has no inputs")
	}
	count := len(run) / l.stride
	result := make([]Vertex, count)
	for i := range result {
		v, err := d.corner(l, desc, run, i)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

// assemble appends the primitive to out only when all its corners decode.
func (d *Decoder) assemble(prim *collada.Primitive, l *layout, out *Decoded) error {
	tris := make([]Triangle, 0)
	lines := make([]Line, 0)

	for _, run := range prim.P {
		verts, err := d.corners(l, &out.Desc, run)
		if err != nil {
			return err
		}

		switch prim.Type {
		case collada.PrimitiveTriangles:
			for i := 0; i+2 < len(verts); i += 3 {
				tris = append(tris, Triangle{verts[i], verts[i+1], verts[i+2]})
			}
		case collada.PrimitiveLines:
			for i := 0; i+1 < len(verts); i += 2 {
				lines = append(lines, Line{verts[i], verts[i+1]})
			}
		case collada.PrimitivePolylist:
			indices, consumed := Polylist(prim.VCount)
			if consumed > len(verts) {
				return errors.Errorf("vcount needs %d corners, have %d", consumed, len(verts))
			}
			for _, t := range indices {
				tris = append(tris, Triangle{verts[t[0]], verts[t[1]], verts[t[2]]})
			}
		case collada.PrimitiveTriStrips:
			for _, t := range TriangleStrip(len(verts)) {
				tris = append(tris, Triangle{verts[t[0]], verts[t[1]], verts[t[2]]})
			}
		case collada.PrimitiveTriFans:
			for _, t := range TriangleFan(len(verts)) {
				tris = append(tris, Triangle{verts[t[0]], verts[t[1]], verts[t[2]]})
			}
		case collada.PrimitiveLineStrips:
			for _, ln := range LineStrip(len(verts)) {
				lines = append(lines, Line{verts[ln[0]], verts[ln[1]]})
			}
		}
	}

	out.Triangles = append(out.Triangles, tris...)
	out.Lines = append(out.Lines, lines...)
	return nil
}
