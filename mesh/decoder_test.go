package mesh

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/daeimport/collada"
	"github.com/mogaika/daeimport/diag"
	"github.com/mogaika/daeimport/resolver"
)

const geometryTemplate = `<geometry id="%s">
  <mesh>
    <source id="%[1]s-pos">
      <float_array id="%[1]s-pos-array" count="15">0 0 0  1 0 0  1 1 0  0 1 0  2 0 0</float_array>
      <technique_common>
        <accessor source="#%[1]s-pos-array" count="5" stride="3">
          <param name="X" type="float"/><param name="Y" type="float"/><param name="Z" type="float"/>
        </accessor>
      </technique_common>
    </source>
    <source id="%[1]s-nrm">
      <float_array id="%[1]s-nrm-array" count="3">0 0 1</float_array>
      <technique_common>
        <accessor source="#%[1]s-nrm-array" count="1" stride="3"/>
      </technique_common>
    </source>
    <source id="%[1]s-uv">
      <float_array id="%[1]s-uv-array" count="4">0 0  0.25 0.75</float_array>
      <technique_common>
        <accessor source="#%[1]s-uv-array" count="2" stride="2"/>
      </technique_common>
    </source>
    <source id="%[1]s-col">
      <float_array id="%[1]s-col-array" count="3">1 0 0</float_array>
      <technique_common>
        <accessor source="#%[1]s-col-array" count="1" stride="3"/>
      </technique_common>
    </source>
    <vertices id="%[1]s-vtx">
      <input semantic="POSITION" source="#%[1]s-pos"/>
    </vertices>
    %s
  </mesh>
</geometry>`

var decoderGeometries = map[string]string{
	"poly": `<polylist count="2">
      <input semantic="VERTEX" source="#poly-vtx" offset="0"/>
      <input semantic="TEXCOORD" source="#poly-uv" offset="1" set="0"/>
      <vcount>3 4</vcount>
      <p>0 0 1 0 2 0  0 1 1 1 2 1 3 1</p>
    </polylist>`,
	"strip": `<tristrips count="1">
      <input semantic="VERTEX" source="#strip-vtx" offset="0"/>
      <p>0 1 2 3 4</p>
    </tristrips>`,
	"fan": `<trifans count="1">
      <input semantic="VERTEX" source="#fan-vtx" offset="0"/>
      <p>0 1 2 3</p>
    </trifans>`,
	"lines": `<linestrips count="1">
      <input semantic="VERTEX" source="#lines-vtx" offset="0"/>
      <p>0 1 2</p>
    </linestrips>`,
	"attribs": `<triangles count="1">
      <input semantic="VERTEX" source="#attribs-vtx" offset="0"/>
      <input semantic="NORMAL" source="#attribs-nrm" offset="1"/>
      <input semantic="COLOR" source="#attribs-col" offset="1" set="0"/>
      <input semantic="TEXCOORD" source="#attribs-uv" offset="2" set="1"/>
      <p>0 0 0  1 0 1  2 0 1</p>
    </triangles>`,
	"polygons": `<polygons count="1">
      <input semantic="VERTEX" source="#polygons-vtx" offset="0"/>
      <p>0 1 2 3</p>
    </polygons>`,
	"noindices": `<triangles count="1">
      <input semantic="VERTEX" source="#noindices-vtx" offset="0"/>
    </triangles>`,
	"range": `<triangles count="2">
      <input semantic="VERTEX" source="#range-vtx" offset="0"/>
      <p>0 1 2 0 2 9</p>
    </triangles>`,
}

func decoderDocument(t *testing.T) *resolver.Resolver {
	t.Helper()
	geometries := ""
	for id, prim := range decoderGeometries {
		geometries += fmt.Sprintf(geometryTemplate, id, prim)
	}
	doc, err := collada.Parse([]byte(`<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
<library_geometries>` + geometries + `</library_geometries>
</COLLADA>`))
	require.NoError(t, err)
	return resolver.New(doc)
}

func decodeGeometry(t *testing.T, res *resolver.Resolver, d *Decoder, id string) *Decoded {
	t.Helper()
	h, err := res.Lookup("#"+id, collada.KindGeometry)
	require.NoError(t, err)
	d.Resolver = res
	d.Object = id
	if d.Matrix == (mgl32.Mat4{}) {
		d.Matrix = mgl32.Ident4()
	}
	decoded, desc := d.DecodePrimitives(res.Document().Geometry(h).Mesh)
	assert.Equal(t, decoded.Desc, desc)
	return decoded
}

func TestDecodePolylist(t *testing.T) {
	res := decoderDocument(t)
	decoded := decodeGeometry(t, res, &Decoder{}, "poly")

	require.Len(t, decoded.Triangles, 3)
	assert.Empty(t, decoded.Lines)
	assert.Equal(t, 1, decoded.Desc.TexcoordCount)
	assert.Equal(t, Position{1, 1, 0}, decoded.Triangles[2][1].Position)
	assert.Equal(t, Position{0, 1, 0}, decoded.Triangles[2][2].Position)
	assert.Equal(t, UV{0.25, 0.75}, decoded.Triangles[1][0].TexCoords[0])
}

func TestDecodeStripAndFan(t *testing.T) {
	res := decoderDocument(t)

	strip := decodeGeometry(t, res, &Decoder{}, "strip")
	require.Len(t, strip.Triangles, 3)
	assert.Equal(t, Position{1, 0, 0}, strip.Triangles[1][0].Position)
	assert.Equal(t, Position{0, 1, 0}, strip.Triangles[1][1].Position)
	assert.Equal(t, Position{1, 1, 0}, strip.Triangles[1][2].Position)

	fan := decodeGeometry(t, res, &Decoder{}, "fan")
	require.Len(t, fan.Triangles, 2)
	assert.Equal(t, Position{0, 0, 0}, fan.Triangles[1][0].Position)
	assert.Equal(t, Position{0, 1, 0}, fan.Triangles[1][2].Position)

	lines := decodeGeometry(t, res, &Decoder{}, "lines")
	assert.Empty(t, lines.Triangles)
	require.Len(t, lines.Lines, 2)
	assert.Equal(t, Position{1, 1, 0}, lines.Lines[1][1].Position)
}

func TestDecodeAttributes(t *testing.T) {
	res := decoderDocument(t)
	d := &Decoder{
		Matrix:          mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2)),
		InvertTexCoordY: true,
		Influences:      []Influence{{Weights: []BoneWeight{{"root", 1}}}, {}, {}},
	}
	decoded := decodeGeometry(t, res, d, "attribs")
	require.Len(t, decoded.Triangles, 1)

	desc := decoded.Desc
	assert.True(t, desc.HasNormals)
	assert.False(t, desc.HasTangents)
	assert.Equal(t, 1, desc.ColorCount)
	assert.Equal(t, 1, desc.TexcoordCount)

	tri := decoded.Triangles[0]
	assert.Equal(t, Position{10, 0, 0}, tri[0].Position)
	assert.Equal(t, Position{12, 0, 0}, tri[1].Position)
	assertVec3(t, mgl32.Vec3{0, 0, 1}, tri[0].Normal)
	assert.Equal(t, Color{1, 0, 0, 1}, tri[0].Colors[0])
	assert.Equal(t, UV{0, 1}, tri[0].TexCoords[0])
	assert.Equal(t, UV{0.25, 0.25}, tri[1].TexCoords[0])

	require.NotNil(t, tri[0].Influence)
	assert.Equal(t, "root", tri[0].Influence.Weights[0].Bone)
	assert.Empty(t, tri[1].Influence.Weights)
}

func TestDecodeFailures(t *testing.T) {
	res := decoderDocument(t)
	for _, test := range []struct {
		id   string
		code diag.Code
	}{
		{"polygons", diag.CodeUnsupportedTopology},
		{"noindices", diag.CodeMissingRequiredStream},
		{"range", diag.CodeMissingRequiredStream},
	} {
		log := diag.NewLog()
		decoded := decodeGeometry(t, res, &Decoder{Sink: log}, test.id)
		assert.True(t, decoded.Empty(), test.id)
		assert.Equal(t, 1, log.Count(test.code), test.id)
	}
}

func TestDecodeFollowsMatrixChanges(t *testing.T) {
	res := decoderDocument(t)
	d := &Decoder{}
	first := decodeGeometry(t, res, d, "attribs")
	assertVec3(t, mgl32.Vec3{0, 0, 1}, first.Triangles[0][0].Normal)

	d.Matrix = mgl32.HomogRotate3DX(mgl32.DegToRad(90))
	copied := *d
	second := decodeGeometry(t, res, &copied, "attribs")
	assertVec3(t, mgl32.Vec3{0, -1, 0}, second.Triangles[0][0].Normal)
	assertVec3(t, mgl32.Vec3{0, 0, 0}, second.Triangles[0][0].Position)
	assertVec3(t, mgl32.Vec3{1, 0, 0}, second.Triangles[0][1].Position)
}
