package collada

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// finish builds the payload of h once all its children are bound.
func (b *binder) finish(h Handle, text string) error {
	doc := b.doc
	e := &doc.Elements[h]

	switch e.Kind {
	case KindCollada:
		doc.Version = e.Attr("version")
	case KindArray:
		arr := &Array{Type: arrayTags[e.Tag]}
		var err error
		switch arr.Type {
		case ArrayFloat:
			arr.Floats, err = parseFloats(text)
		case ArrayInt:
			arr.Ints, err = parseInts(text)
		case ArrayBool:
			arr.Ints, err = parseBools(text)
		default:
			arr.Strings = strings.Fields(text)
		}
		if err != nil {
			return err
		}
		e.Data = arr
	case KindIndexList:
		ints, err := parseInts(text)
		if err != nil {
			return err
		}
		e.Data = ints
	case KindTransform, KindBindShapeMatrix, KindColor, KindFloat:
		floats, err := parseFloats(text)
		if err != nil {
			return err
		}
		if e.Kind == KindTransform {
			e.Data = &Transform{Type: transformTags[e.Tag], SID: e.SID, Values: floats}
		} else {
			e.Data = floats
		}
	case KindImageData:
		data, err := parseHex(text)
		if err != nil {
			return err
		}
		e.Data = data
	case KindUnit, KindParam, KindInstanceMaterial, KindTexture:
		return b.finishLeaf(e)
	case KindInput:
		offset, err := atoiDefault(e.Attr("offset"), 0)
		if err != nil {
			return err
		}
		set, err := atoiDefault(e.Attr("set"), 0)
		if err != nil {
			return err
		}
		e.Data = Input{
			Semantic: e.Attr("semantic"),
			Source:   e.Attr("source"),
			Offset:   offset,
			Set:      set,
		}
	case KindAccessor:
		acc := &Accessor{Source: e.Attr("source"), Params: make([]Param, 0)}
		var err error
		if acc.Count, err = atoiDefault(e.Attr("count"), 0); err != nil {
			return err
		}
		if acc.Offset, err = atoiDefault(e.Attr("offset"), 0); err != nil {
			return err
		}
		if acc.Stride, err = atoiDefault(e.Attr("stride"), 1); err != nil {
			return err
		}
		for _, c := range e.Children {
			if p, ok := doc.Elements[c].Data.(Param); ok {
				acc.Params = append(acc.Params, p)
			}
		}
		e.Data = acc
	default:
		return b.finishAggregate(h, e, text)
	}
	return nil
}

func (b *binder) finishLeaf(e *Element) error {
	switch e.Kind {
	case KindUnit:
		meter := float32(1)
		if s := e.Attr("meter"); s != "" {
			floats, err := parseFloats(s)
			if err != nil {
				return err
			}
			if len(floats) > 0 && floats[0] > 0 {
				meter = floats[0]
			}
		}
		e.Data = meter
	case KindParam:
		e.Data = Param{Name: e.Name, Type: e.Attr("type")}
	case KindInstanceMaterial:
		e.Data = &InstanceMaterial{Symbol: e.Attr("symbol"), Target: e.Attr("target")}
	case KindTexture:
		e.Data = &TextureBinding{Texture: e.Attr("texture"), TexCoord: e.Attr("texcoord")}
	}
	return nil
}

func (b *binder) inputs(e *Element) []Input {
	result := make([]Input, 0, len(e.Children))
	for _, c := range e.Children {
		if in, ok := b.doc.Elements[c].Data.(Input); ok {
			result = append(result, in)
		}
	}
	return result
}

func (b *binder) childData(e *Element, kind Kind) interface{} {
	for _, c := range e.Children {
		if b.doc.Elements[c].Kind == kind {
			return b.doc.Elements[c].Data
		}
	}
	return nil
}

func (b *binder) childText(e *Element, kind Kind) string {
	for _, c := range e.Children {
		if b.doc.Elements[c].Kind == kind {
			return b.doc.Elements[c].Text
		}
	}
	return ""
}

func (b *binder) handles(e *Element, kinds ...Kind) []Handle {
	result := make([]Handle, 0)
	for _, c := range e.Children {
		k := b.doc.Elements[c].Kind
		for _, want := range kinds {
			if k == want {
				result = append(result, c)
				break
			}
		}
	}
	return result
}

func (b *binder) handle(e *Element, kind Kind) Handle {
	for _, c := range e.Children {
		if b.doc.Elements[c].Kind == kind {
			return c
		}
	}
	return NoHandle
}

// collectMaterials finds instance_material below bind_material/technique_common.
func (b *binder) collectMaterials(h Handle, out []InstanceMaterial) []InstanceMaterial {
	for _, c := range b.doc.Elements[h].Children {
		ce := &b.doc.Elements[c]
		if im, ok := ce.Data.(*InstanceMaterial); ok {
			out = append(out, *im)
		} else if ce.Kind == KindGeneric || ce.Kind == KindTechnique {
			out = b.collectMaterials(c, out)
		}
	}
	return out
}

var instanceKinds = []Kind{
	KindInstanceGeometry, KindInstanceController, KindInstanceNode,
	KindInstanceCamera, KindInstanceLight,
}

func (b *binder) finishAggregate(h Handle, e *Element, text string) error {
	doc := b.doc
	switch e.Kind {
	case KindAsset:
		asset := &Asset{Meter: 1, UpAxis: UpAxisY}
		for _, c := range e.Children {
			ce := &doc.Elements[c]
			switch ce.Kind {
			case KindUnit:
				asset.Meter = ce.Data.(float32)
				asset.UnitName = ce.Name
			case KindUpAxis:
				switch ce.Text {
				case "X_UP":
					asset.UpAxis = UpAxisX
				case "Z_UP":
					asset.UpAxis = UpAxisZ
				}
			}
		}
		e.Data = asset
	case KindSource:
		src := &Source{}
		if arr, ok := b.childData(e, KindArray).(*Array); ok {
			src.Array = arr
		}
		for _, c := range e.Children {
			if doc.Elements[c].Kind == KindTechnique {
				if acc, ok := b.childData(&doc.Elements[c], KindAccessor).(*Accessor); ok {
					src.Accessor = acc
					break
				}
			}
		}
		e.Data = src
	case KindVertices, KindJoints, KindTargets:
		e.Data = &InputGroup{Inputs: b.inputs(e)}
	case KindPrimitive:
		prim := &Primitive{
			Type:     primitiveTags[e.Tag],
			Material: e.Attr("material"),
			Inputs:   b.inputs(e),
			P:        make([][]int, 0, 1),
		}
		var err error
		if prim.Count, err = atoiDefault(e.Attr("count"), 0); err != nil {
			return err
		}
		for _, c := range e.Children {
			ce := &doc.Elements[c]
			ints, ok := ce.Data.([]int)
			if !ok {
				continue
			}
			switch ce.Tag {
			case "p":
				prim.P = append(prim.P, ints)
			case "vcount":
				prim.VCount = ints
			}
		}
		e.Data = prim
	case KindVertexWeights:
		vw := &VertexWeights{Inputs: b.inputs(e)}
		var err error
		if vw.Count, err = atoiDefault(e.Attr("count"), 0); err != nil {
			return err
		}
		for _, c := range e.Children {
			ce := &doc.Elements[c]
			if ints, ok := ce.Data.([]int); ok {
				switch ce.Tag {
				case "v":
					vw.V = ints
				case "vcount":
					vw.VCount = ints
				}
			}
		}
		e.Data = vw
	case KindSkin:
		skin := &Skin{
			Source:          e.Attr("source"),
			BindShapeMatrix: mgl32.Ident4(),
			Sources:         b.handles(e, KindSource),
		}
		if floats, ok := b.childData(e, KindBindShapeMatrix).([]float32); ok {
			if len(floats) < 16 {
				return errors.Errorf("bind_shape_matrix has %d values", len(floats))
			}
			copy(skin.BindShapeMatrix[:], floats[:16])
			skin.BindShapeMatrix = skin.BindShapeMatrix.Transpose()
		}
		if joints, ok := b.childData(e, KindJoints).(*InputGroup); ok {
			skin.Joints = joints.Inputs
		}
		if vw, ok := b.childData(e, KindVertexWeights).(*VertexWeights); ok {
			skin.Weights = vw
		}
		e.Data = skin
	case KindMorph:
		morph := &Morph{Source: e.Attr("source"), Sources: b.handles(e, KindSource)}
		if strings.EqualFold(e.Attr("method"), "RELATIVE") {
			morph.Method = MorphRelative
		}
		if targets, ok := b.childData(e, KindTargets).(*InputGroup); ok {
			morph.Targets = targets.Inputs
		}
		e.Data = morph
	case KindController:
		e.Data = &Controller{Skin: b.handle(e, KindSkin), Morph: b.handle(e, KindMorph)}
	case KindMesh:
		e.Data = &Mesh{
			Sources:    b.handles(e, KindSource),
			Vertices:   b.handle(e, KindVertices),
			Primitives: b.handles(e, KindPrimitive),
		}
	case KindGeometry:
		e.Data = &Geometry{Mesh: b.handle(e, KindMesh)}
	case KindNode:
		node := &Node{
			Transforms: make([]Transform, 0, len(e.Children)),
			Instances:  b.handles(e, instanceKinds...),
			Nodes:      b.handles(e, KindNode),
			Layers:     strings.Fields(e.Attr("layer")),
		}
		if e.Attr("type") == "JOINT" {
			node.Type = NodeTypeJoint
		}
		for _, c := range e.Children {
			if t, ok := doc.Elements[c].Data.(*Transform); ok {
				node.Transforms = append(node.Transforms, *t)
			}
		}
		e.Data = node
	case KindVisualScene:
		e.Data = &VisualScene{Nodes: b.handles(e, KindNode)}
	case KindInstanceGeometry, KindInstanceController, KindInstanceNode,
		KindInstanceCamera, KindInstanceLight, KindInstanceVisualScene,
		KindInstanceEffect, KindInstanceImage:
		inst := &Instance{URL: e.Attr("url"), Name: e.Name}
		for _, c := range e.Children {
			if doc.Elements[c].Kind == KindSkeleton {
				inst.Skeletons = append(inst.Skeletons, doc.Elements[c].Text)
			}
		}
		inst.Materials = b.collectMaterials(h, make([]InstanceMaterial, 0))
		e.Data = inst
	case KindScene:
		scene := &Scene{VisualScenes: make([]string, 0, 1)}
		for _, c := range b.handles(e, KindInstanceVisualScene) {
			scene.VisualScenes = append(scene.VisualScenes, doc.Elements[c].Data.(*Instance).URL)
		}
		e.Data = scene
	case KindMaterial:
		mat := &Material{}
		if inst, ok := b.childData(e, KindInstanceEffect).(*Instance); ok {
			mat.Effect = inst.URL
		}
		e.Data = mat
	case KindEffect:
		e.Data = &Effect{Profile: b.handle(e, KindProfileCommon)}
	case KindProfileCommon:
		pc := &ProfileCommon{Params: b.handles(e, KindNewParam)}
		for _, c := range b.handles(e, KindTechnique) {
			if sh, ok := b.childData(&doc.Elements[c], KindShading).(*Shading); ok {
				pc.Shading = sh
				break
			}
		}
		e.Data = pc
	case KindNewParam:
		np := &NewParam{}
		np.Surface, _ = b.childData(e, KindSurface).(*Surface)
		np.Sampler, _ = b.childData(e, KindSampler).(*Sampler)
		e.Data = np
	case KindSurface:
		e.Data = &Surface{Type: e.Attr("type"), InitFrom: b.childText(e, KindInitFrom)}
	case KindSampler:
		s := &Sampler{Source: b.childText(e, KindSamplerSource)}
		if inst, ok := b.childData(e, KindInstanceImage).(*Instance); ok {
			s.Image = inst.URL
		}
		e.Data = s
	case KindShading:
		sh := &Shading{Model: e.Tag, Channels: make([]Channel, 0, len(e.Children))}
		for _, c := range e.Children {
			if ch, ok := doc.Elements[c].Data.(*Channel); ok {
				sh.Channels = append(sh.Channels, *ch)
			}
		}
		e.Data = sh
	case KindChannel:
		ch := &Channel{Name: e.Tag}
		if floats, ok := b.childData(e, KindColor).([]float32); ok && len(floats) >= 3 {
			c := mgl32.Vec4{floats[0], floats[1], floats[2], 1}
			if len(floats) >= 4 {
				c[3] = floats[3]
			}
			ch.Color = &c
		}
		if floats, ok := b.childData(e, KindFloat).([]float32); ok && len(floats) > 0 {
			f := floats[0]
			ch.Float = &f
		}
		ch.Texture, _ = b.childData(e, KindTexture).(*TextureBinding)
		e.Data = ch
	case KindInitFrom:
		// 1.5 nests the path in <ref> and embedded data in <hex>
		if e.Text == "" {
			e.Text = text
		}
		if ref := b.childText(e, KindInitFrom); ref != "" {
			e.Text = ref
		}
	case KindImage:
		img := &Image{Format: e.Attr("format")}
		var err error
		if img.Width, err = atoiDefault(e.Attr("width"), 0); err != nil {
			return err
		}
		if img.Height, err = atoiDefault(e.Attr("height"), 0); err != nil {
			return err
		}
		if data, ok := b.childData(e, KindImageData).([]byte); ok {
			img.Data = data
		}
		for _, c := range b.handles(e, KindInitFrom) {
			ce := &doc.Elements[c]
			img.InitFrom = ce.Text
			for _, hc := range ce.Children {
				hce := &doc.Elements[hc]
				if data, ok := hce.Data.([]byte); ok {
					img.Data = data
					img.Format = hce.Attr("format")
				}
			}
		}
		e.Data = img
	default:
		e.Text = text
	}
	return nil
}
