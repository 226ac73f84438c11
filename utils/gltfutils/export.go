package gltfutils

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/daeimport/diag"
	"github.com/mogaika/daeimport/importer"
	"github.com/mogaika/daeimport/material"
	"github.com/mogaika/daeimport/mesh"
	"github.com/mogaika/daeimport/skeleton"
)

// Exporter appends imported scenes to a glTF document. Materials and
// textures shared between sub meshes are written once.
type Exporter struct {
	Doc  *gltf.Document
	Sink diag.Sink

	materials map[string]uint32
	textures  map[string]uint32
	sampler   *uint32
}

func NewExporter(sink diag.Sink) *Exporter {
	if sink == nil {
		sink = diag.Discard
	}
	return &Exporter{
		Doc:       NewDocument(),
		Sink:      sink,
		materials: make(map[string]uint32),
		textures:  make(map[string]uint32),
	}
}

// ExportCollection builds a document with one glTF scene per imported scene.
func ExportCollection(col *importer.Collection, sink diag.Sink) (*gltf.Document, error) {
	e := NewExporter(sink)
	for i, scene := range col.Scenes {
		if err := e.ExportScene(i, scene); err != nil {
			return nil, err
		}
	}
	return e.Doc, nil
}

func (e *Exporter) ExportScene(index int, scene *importer.Scene) error {
	doc := e.Doc
	for len(doc.Scenes) <= index {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	}
	gs := doc.Scenes[index]
	gs.Name = scene.ModelName

	var skin *uint32
	if scene.Skeleton != nil {
		roots, skinIndex := e.exportSkeleton(scene.ModelName, scene.Skeleton)
		gs.Nodes = append(gs.Nodes, roots...)
		skin = gltf.Index(skinIndex)
	}

	for _, sm := range scene.SubMeshes {
		meshIndex, err := e.exportSubMesh(sm, scene.Skeleton)
		if err != nil {
			return errors.Wrapf(err, "Failed to export sub mesh %q", sm.Name)
		}
		node := &gltf.Node{
			Name: sm.Name,
			Mesh: gltf.Index(meshIndex),
		}
		if len(sm.Data.UtilizedBones) != 0 && skin != nil {
			node.Skin = skin
		}
		if sm.Bone != nil {
			node.Extras = map[string]interface{}{"bone": sm.Bone.Name}
		}
		gs.Nodes = append(gs.Nodes, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, node)
	}
	return nil
}

func mat4ToGLTF(m mgl32.Mat4) [4][4]float32 {
	var out [4][4]float32
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c][r] = m[c*4+r]
		}
	}
	return out
}

// exportSkeleton writes one node per bone, in skeleton order, and a skin
// whose joints follow the same order.
func (e *Exporter) exportSkeleton(name string, skel *skeleton.Skeleton) ([]uint32, uint32) {
	doc := e.Doc
	bones := skel.Bones()
	nodeOf := make(map[*skeleton.Bone]uint32, len(bones))
	first := uint32(len(doc.Nodes))

	joints := make([]uint32, len(bones))
	inverseBinds := make([][4][4]float32, len(bones))
	for i, b := range bones {
		local := b.Local()
		q := local.Rotation.Normalize()
		nodeOf[b] = first + uint32(i)
		joints[i] = nodeOf[b]
		inverseBinds[i] = mat4ToGLTF(b.InverseBindMatrix())
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        b.Name,
			Translation: local.Translation,
			Rotation:    [4]float32{q.V[0], q.V[1], q.V[2], q.W},
			Scale:       local.Scale,
		})
	}
	for _, b := range bones {
		node := doc.Nodes[nodeOf[b]]
		for _, c := range b.Children() {
			node.Children = append(node.Children, nodeOf[c])
		}
	}

	roots := make([]uint32, len(skel.Roots))
	for i, r := range skel.Roots {
		roots[i] = nodeOf[r]
	}

	ibm := modeler.WriteAccessor(doc, gltf.TargetNone, inverseBinds)
	gs := &gltf.Skin{
		Name:                name + "_skin",
		InverseBindMatrices: gltf.Index(ibm),
		Joints:              joints,
	}
	if len(roots) != 0 {
		gs.Skeleton = gltf.Index(roots[0])
	}
	doc.Skins = append(doc.Skins, gs)
	return roots, uint32(len(doc.Skins) - 1)
}

func vec3s(in []mgl32.Vec3) [][3]float32 {
	out := make([][3]float32, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func clampByte(f float32) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

func primitiveMode(t mesh.Topology) gltf.PrimitiveMode {
	if t == mesh.TopologyLines {
		return gltf.PrimitiveLines
	}
	return gltf.PrimitiveTriangles
}

// tangents packs the binormal sign into w, as glTF has no binormal stream.
func tangents(data *mesh.Data, normals *mesh.Buffer) [][4]float32 {
	tb := data.Buffer(mesh.BufferTangent, 0)
	bb := data.Buffer(mesh.BufferBinormal, 0)
	out := make([][4]float32, len(tb.Vec3))
	for i, t := range tb.Vec3 {
		w := float32(1)
		if bb != nil && i < len(bb.Vec3) && normals.Vec3[i].Cross(t).Dot(bb.Vec3[i]) < 0 {
			w = -1
		}
		out[i] = [4]float32{t[0], t[1], t[2], w}
	}
	return out
}

func (e *Exporter) exportSubMesh(sm *importer.SubMesh, skel *skeleton.Skeleton) (uint32, error) {
	doc := e.Doc
	data := sm.Data
	attributes := make(map[string]uint32)

	positions := data.Buffer(mesh.BufferPosition, 0)
	if positions == nil {
		return 0, errors.Errorf("Mesh has no positions")
	}
	attributes["POSITION"] = modeler.WritePosition(doc, vec3s(positions.Vec3))

	normals := data.Buffer(mesh.BufferNormal, 0)
	if normals != nil {
		attributes["NORMAL"] = modeler.WriteNormal(doc, vec3s(normals.Vec3))
		if data.Buffer(mesh.BufferTangent, 0) != nil {
			attributes["TANGENT"] = modeler.WriteTangent(doc, tangents(data, normals))
		}
	}

	uvLayer, colorLayer := 0, 0
	for _, b := range data.Buffers {
		switch b.Kind {
		case mesh.BufferTexCoord:
			uvs := make([][2]float32, len(b.Vec2))
			for i, uv := range b.Vec2 {
				uvs[i] = uv
			}
			attributes[fmt.Sprintf("TEXCOORD_%d", uvLayer)] = modeler.WriteTextureCoord(doc, uvs)
			uvLayer++
		case mesh.BufferColor:
			colors := make([][4]uint8, len(b.Vec4))
			for i, c := range b.Vec4 {
				colors[i] = [4]uint8{clampByte(c[0]), clampByte(c[1]), clampByte(c[2]), clampByte(c[3])}
			}
			attributes[fmt.Sprintf("COLOR_%d", colorLayer)] = modeler.WriteColor(doc, colors)
			colorLayer++
		}
	}

	if len(data.UtilizedBones) != 0 && skel != nil {
		jointIndex := make(map[string]int)
		for i, b := range skel.Bones() {
			if _, ok := jointIndex[b.Name]; !ok {
				jointIndex[b.Name] = i
			}
		}

		joints := make([][4]uint16, data.VertexCount)
		weights := make([][4]float32, data.VertexCount)
		for iVertex := 0; iVertex < data.VertexCount; iVertex++ {
			var sum float32
			if inf := data.InfluenceOf(iVertex); inf != nil {
				for i, w := range inf.Weights {
					if i >= mesh.MaxWeights {
						break
					}
					if j, ok := jointIndex[w.Bone]; ok {
						joints[iVertex][i] = uint16(j)
						weights[iVertex][i] = w.Weight
						sum += w.Weight
					}
				}
			}
			// unweighted vertices follow the first joint
			if sum == 0 {
				weights[iVertex][0] = 1
			}
		}
		attributes["JOINTS_0"] = modeler.WriteJoints(doc, joints)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(doc, weights)
	}

	indices := modeler.WriteIndices(doc, data.Indices)
	primitive := &gltf.Primitive{
		Indices:    gltf.Index(indices),
		Attributes: attributes,
		Mode:       primitiveMode(data.Topology),
	}
	if sm.Material != nil {
		mi, err := e.exportMaterial(sm.Material)
		if err != nil {
			return 0, err
		}
		primitive.Material = gltf.Index(mi)
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name:       sm.Name,
		Primitives: []*gltf.Primitive{primitive},
	})
	return uint32(len(doc.Meshes) - 1), nil
}

func (e *Exporter) exportMaterial(m *material.Material) (uint32, error) {
	if idx, ok := e.materials[m.Name]; ok {
		return idx, nil
	}
	doc := e.Doc

	metallic := float32(0)
	color := new([4]float32)
	*color = [4]float32(m.Diffuse)
	gm := &gltf.Material{
		Name:        m.Name,
		DoubleSided: true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: color,
			MetallicFactor:  &metallic,
		},
	}
	if m.Diffuse[3] < 1 {
		gm.AlphaMode = gltf.AlphaBlend
	}
	if emission, ok := m.Colors[material.ChannelEmission]; ok {
		gm.EmissiveFactor = [3]float32{emission[0], emission[1], emission[2]}
	}

	if ref := m.Texture(material.ChannelDiffuse); ref != nil {
		if ti, ok := e.exportTexture(m.Name, ref); ok {
			gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: ti}
		}
	}
	if ref := m.Texture(material.ChannelEmission); ref != nil {
		if ti, ok := e.exportTexture(m.Name, ref); ok {
			gm.EmissiveTexture = &gltf.TextureInfo{Index: ti}
		}
	}

	idx := uint32(len(doc.Materials))
	doc.Materials = append(doc.Materials, gm)
	e.materials[m.Name] = idx
	return idx, nil
}

func (e *Exporter) defaultSampler() *uint32 {
	if e.sampler == nil {
		e.Doc.Samplers = append(e.Doc.Samplers, &gltf.Sampler{
			MinFilter: gltf.MinLinear,
			MagFilter: gltf.MagLinear,
			WrapS:     gltf.WrapRepeat,
			WrapT:     gltf.WrapRepeat,
		})
		e.sampler = gltf.Index(uint32(len(e.Doc.Samplers) - 1))
	}
	return e.sampler
}

// exportTexture embeds the image. png and jpeg go in as is, every other
// format is re-encoded to png. Failures are reported and leave the
// material untextured.
func (e *Exporter) exportTexture(materialName string, ref *material.TextureRef) (uint32, bool) {
	if ref.Path != "" {
		if idx, ok := e.textures[ref.Path]; ok {
			return idx, true
		}
	}

	data, err := material.ReadTexture(ref)
	if err != nil {
		diag.Warnf(e.Sink, diag.CodeUnresolvedReference, materialName, "%v", err)
		return 0, false
	}

	format := ref.Format
	if format == "" {
		format = material.SniffFormat(data)
	}
	var mime string
	switch format {
	case "png":
		mime = "image/png"
	case "jpeg":
		mime = "image/jpeg"
	default:
		img, _, err := material.DecodeImage(data, format)
		if err != nil {
			diag.Warnf(e.Sink, diag.CodeUnresolvedReference, materialName, "%v", err)
			return 0, false
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			diag.Warnf(e.Sink, diag.CodeUnresolvedReference, materialName, "Failed to encode texture: %v", err)
			return 0, false
		}
		data, mime = buf.Bytes(), "image/png"
	}

	imageIndex, err := modeler.WriteImage(e.Doc, materialName+"_"+ref.Channel, mime, bytes.NewReader(data))
	if err != nil {
		diag.Warnf(e.Sink, diag.CodeUnresolvedReference, materialName, "Failed to write gltf image: %v", err)
		return 0, false
	}

	idx := uint32(len(e.Doc.Textures))
	e.Doc.Textures = append(e.Doc.Textures, &gltf.Texture{
		Name:    materialName + "_" + ref.Channel,
		Sampler: e.defaultSampler(),
		Source:  gltf.Index(imageIndex),
	})
	if ref.Path != "" {
		e.textures[ref.Path] = idx
	}
	return idx, true
}
