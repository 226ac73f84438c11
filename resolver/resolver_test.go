package resolver

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/daeimport/collada"
)

const document = `<COLLADA version="1.4.1">
  <library_geometries>
    <geometry id="box"><mesh><source id="box-pos"><float_array id="box-pos-array">0 0 0</float_array></source></mesh></geometry>
    <geometry id="twin"/>
    <geometry id="twin"/>
  </library_geometries>
  <library_materials>
    <material id="box"/>
  </library_materials>
  <library_visual_scenes>
    <visual_scene id="scene">
      <node id="armature">
        <node sid="Root" type="JOINT">
          <translate sid="t">1 2 3</translate>
          <node sid="Spine" type="JOINT"/>
        </node>
        <node sid="Spine" type="JOINT"/>
      </node>
      <node id="Armature.001">
        <node sid="Root"/>
      </node>
      <node id="loose">
        <group>
          <node id="inner">
            <node sid="Deep"/>
          </node>
        </group>
      </node>
    </visual_scene>
  </library_visual_scenes>
</COLLADA>`

func newResolver(t *testing.T) *Resolver {
	doc, err := collada.Parse([]byte(document))
	require.NoError(t, err)
	return New(doc)
}

func TestResolveURI(t *testing.T) {
	r := newResolver(t)
	doc := r.Document()

	h, err := r.ResolveURI("#box", collada.KindGeometry)
	require.NoError(t, err)
	assert.Equal(t, collada.KindGeometry, doc.Kind(h))

	h, err = r.ResolveURI("#box", collada.KindMaterial)
	require.NoError(t, err)
	assert.Equal(t, collada.KindMaterial, doc.Kind(h))

	// two elements of different kinds share the id
	_, err = r.ResolveURI("#box", collada.KindAny)
	assert.True(t, IsAmbiguous(err), "%v", err)

	_, err = r.ResolveURI("#twin", collada.KindGeometry)
	assert.True(t, IsAmbiguous(err), "%v", err)

	h, err = r.ResolveURI("#missing", collada.KindGeometry)
	assert.NoError(t, err)
	assert.Equal(t, collada.NoHandle, h)

	h, err = r.ResolveURI("#box", collada.KindController)
	assert.NoError(t, err)
	assert.Equal(t, collada.NoHandle, h)

	h, err = r.ResolveURI("other.dae#box", collada.KindGeometry)
	assert.NoError(t, err)
	assert.Equal(t, collada.NoHandle, h)

	_, err = r.Lookup("#missing", collada.KindGeometry)
	assert.True(t, IsUnresolved(err), "%v", err)
	_, err = r.Lookup("other.dae#box", collada.KindGeometry)
	assert.True(t, IsUnresolved(err), "%v", err)

	assert.Len(t, r.ResolveByID("twin"), 2)
}

func TestResolveSource(t *testing.T) {
	r := newResolver(t)
	doc := r.Document()
	mesh := doc.Geometry(doc.ByID("box")[0]).Mesh

	src, err := r.Source(mesh, "#box-pos")
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, []float32{0, 0, 0}, src.Array.Floats)

	_, err = r.Source(mesh, "#nope")
	assert.True(t, IsUnresolved(err))
}

func TestResolveSIDPath(t *testing.T) {
	r := newResolver(t)
	doc := r.Document()

	target, err := r.ResolveSIDPath("armature/Root/Spine")
	require.NoError(t, err)
	spine := doc.Element(target.Handle)
	assert.Equal(t, "Spine", spine.SID)
	// the nested Spine, not the sibling registered on armature
	assert.Equal(t, "Root", doc.Element(spine.Parent).SID)
	assert.Equal(t, "", target.Selector)

	target, err = r.ResolveSIDPath("armature/Spine")
	require.NoError(t, err)
	assert.Equal(t, doc.ByID("armature")[0], doc.Element(target.Handle).Parent)

	target, err = r.ResolveSIDPath("armature/Root/t.X")
	require.NoError(t, err)
	assert.Equal(t, collada.KindTransform, doc.Kind(target.Handle))
	assert.Equal(t, ".X", target.Selector)

	target, err = r.ResolveSIDPath("armature/Root/t(1)")
	require.NoError(t, err)
	assert.Equal(t, "(1)", target.Selector)

	target, err = r.ResolveSIDPath("Armature.001/Root")
	require.NoError(t, err)
	assert.Equal(t, doc.ByID("Armature.001")[0], doc.Element(target.Handle).Parent)

	target, err = r.ResolveSIDPath("armature.ANGLE")
	require.NoError(t, err)
	assert.Equal(t, doc.ByID("armature")[0], target.Handle)
	assert.Equal(t, ".ANGLE", target.Selector)

	// Spine is not registered directly under armature's Root sibling scope
	_, err = r.ResolveSIDPath("armature/Spine/Root")
	assert.True(t, IsUnresolved(err), "%v", err)

	_, err = r.ResolveSIDPath("nothing/Root")
	assert.True(t, IsUnresolved(err), "%v", err)

	_, err = r.ResolveSIDPath("twin/Root")
	assert.True(t, IsAmbiguous(err), "%v", err)

	// "Deep" registers on "inner", the nearest element with an id
	_, err = r.ResolveSIDPath("loose/Deep")
	assert.True(t, IsUnresolved(err), "%v", err)
	_, err = r.ResolveSIDPath("inner/Deep")
	assert.NoError(t, err)
}

func TestResolveSIDPathRelative(t *testing.T) {
	r := newResolver(t)
	armature := r.Document().ByID("armature")[0]

	target, err := r.ResolveSIDPathFrom(armature, "./Root/Spine")
	require.NoError(t, err)
	assert.Equal(t, "Spine", r.Document().Element(target.Handle).SID)

	_, err = r.ResolveSIDPath("./Root")
	assert.True(t, IsUnresolved(err))
}

func TestFindSID(t *testing.T) {
	r := newResolver(t)
	doc := r.Document()

	scene := doc.ByID("scene")[0]
	h := r.FindSID(scene, "Deep")
	require.NotEqual(t, collada.NoHandle, h)
	assert.Equal(t, "Deep", doc.Element(h).SID)

	// depth first, document order
	h = r.FindSID(scene, "Spine")
	assert.Equal(t, "Root", doc.Element(doc.Element(h).Parent).SID)

	assert.Equal(t, collada.NoHandle, r.FindSID(scene, "Tail"))
}

func TestResolveConcurrent(t *testing.T) {
	r := newResolver(t)
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := r.ResolveSIDPath("armature/Root/Spine"); err != nil {
					errs <- err
					return
				}
				if _, err := r.Lookup("#scene", collada.KindVisualScene); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
