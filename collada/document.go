package collada

// Handle addresses an element inside its Document arena.
type Handle int32

const NoHandle Handle = -1

func (h Handle) Valid() bool {
	return h >= 0
}

type Element struct {
	Kind     Kind
	Tag      string
	ID       string
	SID      string
	Name     string
	Attrs    map[string]string
	Text     string
	Parent   Handle
	Children []Handle
	// Scope is the nearest ancestor this element registered its SID with.
	Scope Handle
	// Scoped lists elements with SIDs registered on this element.
	Scoped []Handle
	// Data is the kind-specific payload, nil for generic elements.
	Data interface{}
}

func (e *Element) HasID() bool   { return e.ID != "" }
func (e *Element) HasSID() bool  { return e.SID != "" }
func (e *Element) HasName() bool { return e.Name != "" }

// IsScope reports whether SID children register on this element.
func (e *Element) IsScope() bool {
	return e.Kind == KindCollada || e.ID != "" || e.SID != ""
}

// DisplayName picks the first non-empty of name, id and sid.
func (e *Element) DisplayName() string {
	switch {
	case e.Name != "":
		return e.Name
	case e.ID != "":
		return e.ID
	}
	return e.SID
}

func (e *Element) Attr(name string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[name]
}

// Document is the bound element graph. It is not modified after binding, so
// it may be shared between goroutines.
type Document struct {
	Path     string
	Version  string
	Elements []Element
	Root     Handle
	ids      map[string][]Handle
}

func newDocument(path string) *Document {
	return &Document{
		Path:     path,
		Elements: make([]Element, 0, 1024),
		Root:     NoHandle,
		ids:      make(map[string][]Handle),
	}
}

func (d *Document) Element(h Handle) *Element {
	if h < 0 || int(h) >= len(d.Elements) {
		return nil
	}
	return &d.Elements[h]
}

func (d *Document) Len() int {
	return len(d.Elements)
}

// ByID returns every element bearing the id, in document order.
func (d *Document) ByID(id string) []Handle {
	return d.ids[id]
}

func (d *Document) Kind(h Handle) Kind {
	if e := d.Element(h); e != nil {
		return e.Kind
	}
	return KindAny
}

// Children returns direct children of h matching kind (KindAny for all).
func (d *Document) Children(h Handle, kind Kind) []Handle {
	e := d.Element(h)
	if e == nil {
		return nil
	}
	result := make([]Handle, 0, len(e.Children))
	for _, c := range e.Children {
		if kind == KindAny || d.Elements[c].Kind == kind {
			result = append(result, c)
		}
	}
	return result
}

func (d *Document) Child(h Handle, kind Kind) Handle {
	e := d.Element(h)
	if e == nil {
		return NoHandle
	}
	for _, c := range e.Children {
		if d.Elements[c].Kind == kind {
			return c
		}
	}
	return NoHandle
}

// ChildByTag finds the first direct child with the xml tag.
func (d *Document) ChildByTag(h Handle, tag string) Handle {
	e := d.Element(h)
	if e == nil {
		return NoHandle
	}
	for _, c := range e.Children {
		if d.Elements[c].Tag == tag {
			return c
		}
	}
	return NoHandle
}

// Ancestor walks parents until kind matches.
func (d *Document) Ancestor(h Handle, kind Kind) Handle {
	e := d.Element(h)
	for e != nil {
		h = e.Parent
		e = d.Element(h)
		if e != nil && e.Kind == kind {
			return h
		}
	}
	return NoHandle
}

// Libraries returns the library_* elements with the given tag.
func (d *Document) Libraries(tag string) []Handle {
	result := make([]Handle, 0)
	for _, c := range d.Children(d.Root, KindLibrary) {
		if d.Elements[c].Tag == tag {
			result = append(result, c)
		}
	}
	return result
}

func (d *Document) payload(h Handle, kind Kind) interface{} {
	e := d.Element(h)
	if e == nil || e.Kind != kind {
		return nil
	}
	return e.Data
}

func (d *Document) Asset() *Asset {
	if a, ok := d.payload(d.Child(d.Root, KindAsset), KindAsset).(*Asset); ok {
		return a
	}
	return &Asset{Meter: 1, UpAxis: UpAxisY}
}

func (d *Document) Scene() *Scene {
	s, _ := d.payload(d.Child(d.Root, KindScene), KindScene).(*Scene)
	return s
}

func (d *Document) VisualScene(h Handle) *VisualScene {
	v, _ := d.payload(h, KindVisualScene).(*VisualScene)
	return v
}

func (d *Document) Node(h Handle) *Node {
	n, _ := d.payload(h, KindNode).(*Node)
	return n
}

func (d *Document) Instance(h Handle) *Instance {
	e := d.Element(h)
	if e == nil {
		return nil
	}
	i, _ := e.Data.(*Instance)
	return i
}

func (d *Document) Geometry(h Handle) *Geometry {
	g, _ := d.payload(h, KindGeometry).(*Geometry)
	return g
}

func (d *Document) Mesh(h Handle) *Mesh {
	m, _ := d.payload(h, KindMesh).(*Mesh)
	return m
}

func (d *Document) Source(h Handle) *Source {
	s, _ := d.payload(h, KindSource).(*Source)
	return s
}

func (d *Document) Primitive(h Handle) *Primitive {
	p, _ := d.payload(h, KindPrimitive).(*Primitive)
	return p
}

func (d *Document) Vertices(h Handle) *InputGroup {
	v, _ := d.payload(h, KindVertices).(*InputGroup)
	return v
}

func (d *Document) Controller(h Handle) *Controller {
	c, _ := d.payload(h, KindController).(*Controller)
	return c
}

func (d *Document) Skin(h Handle) *Skin {
	s, _ := d.payload(h, KindSkin).(*Skin)
	return s
}

func (d *Document) Morph(h Handle) *Morph {
	m, _ := d.payload(h, KindMorph).(*Morph)
	return m
}

func (d *Document) Material(h Handle) *Material {
	m, _ := d.payload(h, KindMaterial).(*Material)
	return m
}

func (d *Document) Effect(h Handle) *Effect {
	e, _ := d.payload(h, KindEffect).(*Effect)
	return e
}

func (d *Document) NewParam(h Handle) *NewParam {
	p, _ := d.payload(h, KindNewParam).(*NewParam)
	return p
}

func (d *Document) Image(h Handle) *Image {
	i, _ := d.payload(h, KindImage).(*Image)
	return i
}

func (d *Document) ProfileCommon(h Handle) *ProfileCommon {
	p, _ := d.payload(h, KindProfileCommon).(*ProfileCommon)
	return p
}
