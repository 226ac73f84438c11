package collada

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/daeimport/config"
)

const triangleDocument = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <asset>
    <unit name="centimeter" meter="0.01"/>
    <up_axis>Z_UP</up_axis>
  </asset>
  <library_cameras>
    <camera id="cam"/>
  </library_cameras>
  <library_geometries>
    <geometry id="tri" name="Tri">
      <mesh>
        <source id="tri-pos">
          <float_array id="tri-pos-array" count="9">0 0 0 1 0 0 0 1 0</float_array>
          <technique_common>
            <accessor source="#tri-pos-array" count="3" stride="3">
              <param name="X" type="float"/>
              <param name="Y" type="float"/>
              <param name="Z" type="float"/>
            </accessor>
          </technique_common>
        </source>
        <vertices id="tri-vtx">
          <input semantic="POSITION" source="#tri-pos"/>
        </vertices>
        <triangles count="1" material="mat">
          <input semantic="VERTEX" source="#tri-vtx" offset="0"/>
          <p>0 1 2</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
  <library_visual_scenes>
    <visual_scene id="scene">
      <node id="armature" name="Armature">
        <translate sid="location">1 2 3</translate>
        <rotate sid="rotationZ">0 0 1 90</rotate>
        <node id="root" sid="Root" type="JOINT">
          <node id="spine" sid="Spine" type="JOINT">
            <extra><technique profile="x"><param sid="tip">1</param></technique></extra>
          </node>
        </node>
        <instance_geometry url="#tri">
          <bind_material>
            <technique_common>
              <instance_material symbol="mat" target="#material"/>
            </technique_common>
          </bind_material>
        </instance_geometry>
      </node>
    </visual_scene>
  </library_visual_scenes>
  <scene>
    <instance_visual_scene url="#scene"/>
  </scene>
</COLLADA>`

func TestBindDocument(t *testing.T) {
	doc, err := Parse([]byte(triangleDocument))
	require.NoError(t, err)

	assert.Equal(t, "1.4.1", doc.Version)

	asset := doc.Asset()
	assert.Equal(t, float32(0.01), asset.Meter)
	assert.Equal(t, "centimeter", asset.UnitName)
	assert.Equal(t, UpAxisZ, asset.UpAxis)

	scene := doc.Scene()
	require.NotNil(t, scene)
	assert.Equal(t, []string{"#scene"}, scene.VisualScenes)

	geoms := doc.ByID("tri")
	require.Len(t, geoms, 1)
	geom := doc.Geometry(geoms[0])
	require.NotNil(t, geom)
	mesh := doc.Mesh(geom.Mesh)
	require.NotNil(t, mesh)
	require.Len(t, mesh.Primitives, 1)

	prim := doc.Primitive(mesh.Primitives[0])
	require.NotNil(t, prim)
	assert.Equal(t, PrimitiveTriangles, prim.Type)
	assert.Equal(t, 1, prim.Count)
	assert.Equal(t, 1, prim.Stride())
	assert.Equal(t, [][]int{{0, 1, 2}}, prim.P)

	src := doc.Source(mesh.Sources[0])
	require.NotNil(t, src)
	assert.Equal(t, 3, src.Stride())
	assert.Equal(t, 3, src.Count())
	var v [3]float32
	require.True(t, src.Floats(1, v[:]))
	assert.Equal(t, [3]float32{1, 0, 0}, v)
	assert.False(t, src.Floats(3, v[:]))

	vtx := doc.Vertices(mesh.Vertices)
	require.NotNil(t, vtx)
	pos, ok := vtx.Find("POSITION")
	require.True(t, ok)
	assert.Equal(t, "#tri-pos", pos.Source)
}

func TestBindScopes(t *testing.T) {
	doc, err := Parse([]byte(triangleDocument))
	require.NoError(t, err)

	armature := doc.ByID("armature")[0]
	root := doc.ByID("root")[0]
	spine := doc.ByID("spine")[0]

	// translate/rotate sids register on the node that has an id
	scoped := doc.Element(armature).Scoped
	require.Len(t, scoped, 3)
	assert.Equal(t, "location", doc.Element(scoped[0]).SID)
	assert.Equal(t, "rotationZ", doc.Element(scoped[1]).SID)
	assert.Equal(t, root, scoped[2])

	assert.Equal(t, []Handle{spine}, doc.Element(root).Scoped)
	assert.Equal(t, root, doc.Element(spine).Scope)

	// generic elements without id or sid are not scopes
	tip := doc.Element(spine).Scoped
	require.Len(t, tip, 1)
	assert.Equal(t, "tip", doc.Element(tip[0]).SID)

	node := doc.Node(armature)
	require.NotNil(t, node)
	assert.Equal(t, NodeTypeNode, node.Type)
	assert.Len(t, node.Transforms, 2)
	assert.Len(t, node.Instances, 1)
	assert.Equal(t, NodeTypeJoint, doc.Node(root).Type)

	p := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, node.LocalMatrix())
	assert.True(t, p.ApproxEqualThreshold(mgl32.Vec3{1, 3, 3}, 1e-5), "%v", p)

	inst := doc.Instance(node.Instances[0])
	require.NotNil(t, inst)
	assert.Equal(t, "#tri", inst.URL)
	assert.Equal(t, []InstanceMaterial{{Symbol: "mat", Target: "#material"}}, inst.Materials)
}

func TestBindIgnore(t *testing.T) {
	doc, err := Decode(context.Background(), bytes.NewReader([]byte(triangleDocument)), "", BindOptions{
		Ignore: config.IgnoreGeometry | config.IgnoreCameras | config.IgnoreAsset,
	})
	require.NoError(t, err)

	assert.Empty(t, doc.ByID("tri"))
	assert.Empty(t, doc.ByID("cam"))
	assert.Len(t, doc.ByID("scene"), 1)
	assert.Equal(t, UpAxisY, doc.Asset().UpAxis)
	assert.Equal(t, float32(1), doc.Asset().Meter)
}

func TestBindProgressAndCancel(t *testing.T) {
	var last float32
	_, err := Decode(context.Background(), bytes.NewReader([]byte(triangleDocument)), "", BindOptions{
		Size:     int64(len(triangleDocument)),
		Progress: func(p float32) { last = p },
	})
	require.NoError(t, err)
	assert.Equal(t, float32(1), last)

	var big bytes.Buffer
	big.WriteString(`<COLLADA version="1.4.1"><library_nodes>`)
	for i := 0; i < checkEvery*2; i++ {
		big.WriteString(`<node/>`)
	}
	big.WriteString(`</library_nodes></COLLADA>`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Decode(ctx, &big, "", BindOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBindErrors(t *testing.T) {
	for _, src := range []string{
		`<notcollada/>`,
		`<COLLADA><library_geometries><geometry><mesh><source><float_array>1 x 2</float_array></source></mesh></geometry></library_geometries></COLLADA>`,
		`<COLLADA><unclosed></COLLADA>`,
		`<COLLADA><library_controllers><controller><skin><bind_shape_matrix>1 0 0</bind_shape_matrix></skin></controller></library_controllers></COLLADA>`,
	} {
		_, err := Parse([]byte(src))
		assert.Error(t, err, src)
	}
}

func TestTransformMatrix(t *testing.T) {
	for _, tc := range []struct {
		tr     Transform
		in     mgl32.Vec3
		expect mgl32.Vec3
	}{
		{Transform{Type: TransformTranslate, Values: []float32{1, 2, 3}}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 2, 3}},
		{Transform{Type: TransformScale, Values: []float32{2, 3, 4}}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{2, 3, 4}},
		{Transform{Type: TransformRotate, Values: []float32{0, 0, 1, 90}}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{Transform{Type: TransformRotate, Values: []float32{0, 0, 0, 90}}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 0, 0}},
		{Transform{Type: TransformMatrix, Values: []float32{
			1, 0, 0, 5,
			0, 1, 0, 6,
			0, 0, 1, 7,
			0, 0, 0, 1}}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{5, 6, 7}},
		{Transform{Type: TransformLookAt, Values: []float32{0, 0, 5, 0, 0, 0, 0, 1, 0}}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 5}},
		{Transform{Type: TransformSkew, Values: []float32{45, 0, 1, 0, 1, 0, 0}}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 1, 0}},
		{Transform{Type: TransformTranslate, Values: []float32{1}}, mgl32.Vec3{4, 4, 4}, mgl32.Vec3{4, 4, 4}},
	} {
		got := mgl32.TransformCoordinate(tc.in, tc.tr.Matrix())
		if !got.ApproxEqualThreshold(tc.expect, 1e-5) {
			t.Errorf("%v: got %v, expected %v", tc.tr, got, tc.expect)
		}
	}
}

const imageDocument = `<COLLADA version="1.5.0">
  <library_images>
    <image id="img14"><init_from>file:///tmp/a.png</init_from></image>
    <image id="data14" format="PNG"><data>89504E47</data></image>
    <image id="img15"><init_from><ref>textures/b.tga</ref></init_from></image>
    <image id="hex15"><init_from><hex format="JPG">FFD8FF</hex></init_from></image>
  </library_images>
</COLLADA>`

func TestBindImages(t *testing.T) {
	doc, err := Parse([]byte(imageDocument))
	require.NoError(t, err)

	for _, tc := range []struct {
		id       string
		initFrom string
		data     []byte
		format   string
	}{
		{"img14", "file:///tmp/a.png", nil, ""},
		{"data14", "", []byte{0x89, 0x50, 0x4e, 0x47}, "PNG"},
		{"img15", "textures/b.tga", nil, ""},
		{"hex15", "", []byte{0xff, 0xd8, 0xff}, "JPG"},
	} {
		img := doc.Image(doc.ByID(tc.id)[0])
		if !assert.NotNil(t, img, tc.id) {
			continue
		}
		assert.Equal(t, tc.initFrom, img.InitFrom, tc.id)
		assert.Equal(t, tc.data, img.Data, tc.id)
		assert.Equal(t, tc.format, img.Format, tc.id)
	}
}
