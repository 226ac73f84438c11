package importer

import (
	"github.com/mogaika/daeimport/collada"
	"github.com/mogaika/daeimport/config"
	"github.com/mogaika/daeimport/diag"
	"github.com/mogaika/daeimport/material"
	"github.com/mogaika/daeimport/mesh"
)

// decodeObject turns one worklist entry into a sub mesh. It only reads the
// walker state, so entries can be decoded concurrently.
func (w *walker) decodeObject(obj *object, scene collada.Handle, opts *config.ImportOptions, baseDir string, sink diag.Sink) *SubMesh {
	doc := w.doc

	matrix := obj.matrix
	var influences []mesh.Influence
	if obj.skinned() {
		matrix = matrix.Mul4(doc.Skin(obj.skin).BindShapeMatrix)
		influences = w.resolveInfluences(obj, scene, sink)
	}

	decoder := &mesh.Decoder{
		Resolver:        w.res,
		Matrix:          matrix,
		InvertTexCoordY: opts.InvertTexCoordY,
		Influences:      influences,
		Sink:            sink,
		Object:          obj.name,
	}

	var decoded *mesh.Decoded
	if obj.geometry != collada.NoHandle {
		decoded, _ = decoder.DecodePrimitives(doc.Geometry(obj.geometry).Mesh)
	} else {
		decoded = w.decodeMorph(decoder, obj, sink)
	}
	if decoded == nil || decoded.Empty() {
		diag.Infof(sink, obj.name, "Object produced no geometry, skipped")
		return nil
	}

	data := mesh.Build(obj.name, decoded, decoded.Desc, sink)
	if (opts.GenerateTangents || opts.GenerateBinormals) && data.Desc.TexcoordCount > 0 {
		mesh.GenerateTangentSpace(data, 0, 0, opts.GenerateTangents, opts.GenerateBinormals, sink)
	}

	sub := &SubMesh{Name: obj.name, Data: data, Bone: obj.parent}
	if inst := doc.Instance(obj.instance); inst != nil && len(inst.Materials) > 0 {
		sub.Material = material.Resolve(w.res, inst.Materials[0].Target, baseDir, sink)
	}
	return sub
}

// decodeMorph decodes the base geometry and every target with the same
// matrix, then bakes the weighted targets into the base.
func (w *walker) decodeMorph(d *mesh.Decoder, obj *object, sink diag.Sink) *mesh.Decoded {
	doc := w.doc
	morph := doc.Morph(obj.morph)

	baseHandle, err := w.res.Lookup(morph.Source, collada.KindGeometry)
	if err != nil {
		warnRef(sink, obj.name, err)
		return nil
	}
	base, _ := d.DecodePrimitives(doc.Geometry(baseHandle).Mesh)

	var targetSource, weightSource *collada.Source
	for _, in := range morph.Targets {
		src, err := w.res.Source(obj.morph, in.Source)
		if err != nil {
			warnRef(sink, obj.name, err)
			continue
		}
		switch in.Semantic {
		case "MORPH_TARGET":
			targetSource = src
		case "MORPH_WEIGHT":
			weightSource = src
		}
	}
	if targetSource == nil || weightSource == nil {
		diag.Warnf(sink, diag.CodeMissingRequiredStream, obj.name,
			"Morph set for '%s' does not have valid target and weight inputs", morph.Source)
		return base
	}

	count := targetSource.Count()
	if wc := weightSource.Count(); wc != count {
		diag.Warnf(sink, diag.CodeMissingRequiredStream, obj.name,
			"Morph set for '%s' has %d targets and %d weights", morph.Source, count, wc)
		if wc < count {
			count = wc
		}
	}

	// targets share the control points of the base, influences are not needed
	targetDecoder := *d
	targetDecoder.Influences = nil
	targetDecoder.Matrix = mesh.TargetMatrix(d.Matrix, morph.Method)

	targets := make([]mesh.MorphTarget, 0, count)
	for i := 0; i < count; i++ {
		id, _ := targetSource.Name(i)
		gh, err := w.res.Lookup("#"+id, collada.KindGeometry)
		if err != nil {
			warnRef(sink, obj.name, err)
			continue
		}
		weight, _ := weightSource.Float(i)
		decoded, _ := targetDecoder.DecodePrimitives(doc.Geometry(gh).Mesh)
		targets = append(targets, mesh.MorphTarget{Name: id, Weight: weight, Decoded: decoded})
	}

	mesh.BlendMorph(base, targets, morph.Method, obj.name, sink)
	return base
}
