package importer

import (
	"github.com/mogaika/daeimport/collada"
	"github.com/mogaika/daeimport/diag"
	"github.com/mogaika/daeimport/mesh"
	"github.com/mogaika/daeimport/skeleton"
)

// jointBone finds the bone a joint source entry names. IDREF arrays hold
// node ids, Name arrays hold sids relative to the instance <skeleton> roots
// (exporters also put ids or plain names there).
func (w *walker) jointBone(name string, idref bool, skeletons []string, scene collada.Handle) *skeleton.Bone {
	byID := func() *skeleton.Bone {
		h, err := w.res.ResolveURI("#"+name, collada.KindNode)
		if err != nil || h == collada.NoHandle {
			return nil
		}
		return w.bones[h]
	}
	if idref {
		return byID()
	}

	for _, uri := range skeletons {
		root, err := w.res.ResolveURI(uri, collada.KindNode)
		if err != nil || root == collada.NoHandle {
			continue
		}
		if b := w.bones[w.res.FindSID(root, name)]; b != nil {
			return b
		}
	}
	if b := w.bones[w.res.FindSID(scene, name)]; b != nil {
		return b
	}
	if b := byID(); b != nil {
		return b
	}
	return w.skeleton.Find(name)
}

// resolveInfluences decodes <vertex_weights> into one influence per control
// point. A nil result means the skin could not be read.
func (w *walker) resolveInfluences(obj *object, scene collada.Handle, sink diag.Sink) []mesh.Influence {
	doc := w.doc
	skin := doc.Skin(obj.skin)

	var jointSource *collada.Source
	for _, in := range skin.Joints {
		if in.Semantic == "JOINT" {
			src, err := w.res.Source(obj.skin, in.Source)
			if err != nil {
				warnRef(sink, obj.name, err)
				return nil
			}
			jointSource = src
			break
		}
	}
	vw := skin.Weights
	if jointSource == nil || vw == nil {
		diag.Warnf(sink, diag.CodeMissingRequiredStream, obj.name, "Skin has no joint source or vertex weights, decoded unskinned")
		return nil
	}

	jointOffset, weightOffset := -1, -1
	var weightSource *collada.Source
	for _, in := range vw.Inputs {
		switch in.Semantic {
		case "JOINT":
			jointOffset = in.Offset
			// vertex_weights may name its own joint source
			if src, err := w.res.Source(obj.skin, in.Source); err == nil {
				jointSource = src
			}
		case "WEIGHT":
			weightOffset = in.Offset
			src, err := w.res.Source(obj.skin, in.Source)
			if err != nil {
				warnRef(sink, obj.name, err)
				return nil
			}
			weightSource = src
		}
	}
	if jointOffset < 0 || weightSource == nil {
		diag.Warnf(sink, diag.CodeMissingRequiredStream, obj.name, "Vertex weights lack JOINT or WEIGHT input, decoded unskinned")
		return nil
	}

	var skeletons []string
	if inst := doc.Instance(obj.instance); inst != nil {
		skeletons = inst.Skeletons
	}
	idref := jointSource.Array != nil && jointSource.Array.Type == collada.ArrayIDRef
	bones := make([]*skeleton.Bone, jointSource.Count())
	for i := range bones {
		name, ok := jointSource.Name(i)
		if !ok {
			continue
		}
		if bones[i] = w.jointBone(name, idref, skeletons, scene); bones[i] == nil {
			diag.Warnf(sink, diag.CodeUnresolvedReference, obj.name, "Bone '%s' not found", name)
		}
	}

	stride := vw.Stride()
	influences := make([]mesh.Influence, vw.Count)
	pos := 0
	for i := range influences {
		if i >= len(vw.VCount) {
			diag.Warnf(sink, diag.CodeMissingRequiredStream, obj.name,
				"vcount covers %d of %d control points", len(vw.VCount), vw.Count)
			break
		}
		inf := &influences[i]
		for g := 0; g < vw.VCount[i]; g++ {
			if pos+stride > len(vw.V) {
				diag.Warnf(sink, diag.CodeMissingRequiredStream, obj.name, "Weight index stream ends early at control point %d", i)
				return influences
			}
			joint, weightIdx := vw.V[pos+jointOffset], vw.V[pos+weightOffset]
			pos += stride

			// -1 binds to the bind shape itself
			if joint < 0 || joint >= len(bones) || bones[joint] == nil {
				continue
			}
			weight, ok := weightSource.Float(weightIdx)
			if !ok {
				continue
			}
			inf.Add(bones[joint].Name, weight)
		}
		inf.Normalize()
	}
	return influences
}
