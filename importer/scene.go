package importer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/daeimport/collada"
	"github.com/mogaika/daeimport/config"
	"github.com/mogaika/daeimport/diag"
	"github.com/mogaika/daeimport/resolver"
	"github.com/mogaika/daeimport/skeleton"
)

var (
	xUpToYUp = mgl32.HomogRotate3DZ(mgl32.DegToRad(90))
	zUpToYUp = mgl32.HomogRotate3DX(mgl32.DegToRad(-90))
)

// BaseTransform maps document space to Y-up meters, then applies the
// user transform.
func BaseTransform(asset *collada.Asset, initial config.InitialTransform) mgl32.Mat4 {
	m := initial.Matrix()
	if asset.Meter > 0 && asset.Meter != 1 {
		m = m.Mul4(mgl32.Scale3D(asset.Meter, asset.Meter, asset.Meter))
	}
	switch asset.UpAxis {
	case collada.UpAxisX:
		m = xUpToYUp.Mul4(m)
	case collada.UpAxisZ:
		m = zUpToYUp.Mul4(m)
	}
	return m
}

// object is one mesh instance waiting to be decoded.
type object struct {
	name     string
	node     collada.Handle
	instance collada.Handle
	geometry collada.Handle
	morph    collada.Handle
	skin     collada.Handle
	matrix   mgl32.Mat4
	parent   *skeleton.Bone
}

func (o *object) skinned() bool {
	return o.skin != collada.NoHandle
}

// walker collects bones and objects of one visual scene.
type walker struct {
	res    *resolver.Resolver
	doc    *collada.Document
	ignore config.IgnoreFlags
	sink   diag.Sink

	skeleton *skeleton.Skeleton
	// bones by joint node, for IDREF joint sources
	bones    map[collada.Handle]*skeleton.Bone
	objects  []*object
	visiting map[collada.Handle]bool
}

func newWalker(res *resolver.Resolver, ignore config.IgnoreFlags, sink diag.Sink) *walker {
	return &walker{
		res:      res,
		doc:      res.Document(),
		ignore:   ignore,
		sink:     sink,
		skeleton: skeleton.New(),
		bones:    make(map[collada.Handle]*skeleton.Bone),
		objects:  make([]*object, 0),
		visiting: make(map[collada.Handle]bool),
	}
}

func (w *walker) walkScene(scene collada.Handle, base mgl32.Mat4) {
	vs := w.doc.VisualScene(scene)
	for _, n := range vs.Nodes {
		w.enumNode(nil, n, base, mgl32.Ident4())
	}
}

// enumNode walks children before instances so that every bone exists before
// the objects that reference it get decoded.
func (w *walker) enumNode(parent *skeleton.Bone, h collada.Handle, accumulated, invAnchor mgl32.Mat4) {
	if w.visiting[h] {
		diag.Warnf(w.sink, diag.CodeUnresolvedReference, w.doc.Element(h).DisplayName(),
			"Node instantiates itself, recursion stopped")
		return
	}
	w.visiting[h] = true
	defer delete(w.visiting, h)

	el := w.doc.Element(h)
	node := w.doc.Node(h)
	accumulated = accumulated.Mul4(node.LocalMatrix())

	if node.Type == collada.NodeTypeJoint {
		bone := skeleton.NewBone(el.DisplayName(), skeleton.DecomposeMatrix(invAnchor.Mul4(accumulated)))
		if parent == nil {
			w.skeleton.AddRoot(bone)
		} else if err := bone.SetParent(parent); err != nil {
			diag.Errorf(w.sink, diag.CodeInfo, bone.Name, "%v", err)
		}
		if _, ok := w.bones[h]; !ok {
			w.bones[h] = bone
		}
		parent = bone
		invAnchor = accumulated.Inv()
	}

	for _, c := range node.Nodes {
		w.enumNode(parent, c, accumulated, invAnchor)
	}

	for _, ih := range node.Instances {
		w.enumInstance(parent, h, ih, accumulated, invAnchor)
	}
}

func warnRef(sink diag.Sink, object string, err error) {
	code := diag.CodeUnresolvedReference
	if resolver.IsAmbiguous(err) {
		code = diag.CodeAmbiguousReference
	}
	diag.Warnf(sink, code, object, "%v", err)
}

func (w *walker) enumInstance(parent *skeleton.Bone, node, ih collada.Handle, accumulated, invAnchor mgl32.Mat4) {
	inst := w.doc.Instance(ih)
	nodeName := w.doc.Element(node).DisplayName()
	obj := &object{
		name:     nodeName,
		node:     node,
		instance: ih,
		geometry: collada.NoHandle,
		morph:    collada.NoHandle,
		skin:     collada.NoHandle,
		matrix:   accumulated,
		parent:   parent,
	}

	switch w.doc.Kind(ih) {
	case collada.KindInstanceGeometry:
		if w.ignore.Has(config.IgnoreGeometry) {
			return
		}
		h, err := w.res.Lookup(inst.URL, collada.KindGeometry)
		if err != nil {
			warnRef(w.sink, nodeName, err)
			return
		}
		obj.geometry = h
	case collada.KindInstanceController:
		if w.ignore.Has(config.IgnoreControllers) {
			return
		}
		h, err := w.res.Lookup(inst.URL, collada.KindController)
		if err != nil {
			warnRef(w.sink, nodeName, err)
			return
		}
		ctrl := w.doc.Controller(h)
		switch {
		case ctrl.Skin != collada.NoHandle:
			obj.skin = ctrl.Skin
			if !w.bindSkinSource(obj) {
				return
			}
		case ctrl.Morph != collada.NoHandle:
			obj.morph = ctrl.Morph
		default:
			diag.Warnf(w.sink, diag.CodeMissingRequiredStream, nodeName,
				"Instanced controller %s does not have a skin or morph", inst.URL)
			return
		}
	case collada.KindInstanceNode:
		h, err := w.res.Lookup(inst.URL, collada.KindNode)
		if err != nil {
			warnRef(w.sink, nodeName, err)
			return
		}
		w.enumNode(parent, h, accumulated, invAnchor)
		return
	default:
		// cameras and lights carry no geometry
		return
	}
	w.objects = append(w.objects, obj)
}

// bindSkinSource points the object at the geometry or morph the skin wraps.
func (w *walker) bindSkinSource(obj *object) bool {
	skin := w.doc.Skin(obj.skin)
	h, err := w.res.Lookup(skin.Source, collada.KindAny)
	if err == nil {
		switch w.doc.Kind(h) {
		case collada.KindGeometry:
			obj.geometry = h
			return true
		case collada.KindController:
			if m := w.doc.Controller(h).Morph; m != collada.NoHandle {
				obj.morph = m
				return true
			}
		}
		diag.Warnf(w.sink, diag.CodeUnresolvedReference, obj.name,
			"%s does not point to a valid geometry or morph controller entry", skin.Source)
		return false
	}
	warnRef(w.sink, obj.name, err)
	return false
}
