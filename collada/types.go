package collada

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type UpAxis int

const (
	UpAxisY UpAxis = iota
	UpAxisX
	UpAxisZ
)

func (a UpAxis) String() string {
	switch a {
	case UpAxisX:
		return "X_UP"
	case UpAxisZ:
		return "Z_UP"
	}
	return "Y_UP"
}

type Asset struct {
	Meter    float32
	UnitName string
	UpAxis   UpAxis
}

// Scene lists the urls of instantiated visual scenes.
type Scene struct {
	VisualScenes []string
}

type VisualScene struct {
	Nodes []Handle
}

type NodeType int

const (
	NodeTypeNode NodeType = iota
	NodeTypeJoint
)

type Node struct {
	Type       NodeType
	Layers     []string
	Transforms []Transform
	// Instances holds instance_* children in document order.
	Instances []Handle
	Nodes     []Handle
}

// LocalMatrix composes the transform elements left to right in document order.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	m := mgl32.Ident4()
	for _, t := range n.Transforms {
		m = m.Mul4(t.Matrix())
	}
	return m
}

type TransformType int

const (
	TransformTranslate TransformType = iota
	TransformRotate
	TransformScale
	TransformMatrix
	TransformLookAt
	TransformSkew
)

var transformTags = map[string]TransformType{
	"translate": TransformTranslate,
	"rotate":    TransformRotate,
	"scale":     TransformScale,
	"matrix":    TransformMatrix,
	"lookat":    TransformLookAt,
	"skew":      TransformSkew,
}

var transformSizes = map[TransformType]int{
	TransformTranslate: 3,
	TransformRotate:    4,
	TransformScale:     3,
	TransformMatrix:    16,
	TransformLookAt:    9,
	TransformSkew:      7,
}

type Transform struct {
	Type   TransformType
	SID    string
	Values []float32
}

func (t Transform) vec3(at int) mgl32.Vec3 {
	return mgl32.Vec3{t.Values[at], t.Values[at+1], t.Values[at+2]}
}

// Matrix returns identity for elements with too few values.
func (t Transform) Matrix() mgl32.Mat4 {
	if len(t.Values) < transformSizes[t.Type] {
		return mgl32.Ident4()
	}
	switch t.Type {
	case TransformTranslate:
		return mgl32.Translate3D(t.Values[0], t.Values[1], t.Values[2])
	case TransformRotate:
		axis := t.vec3(0)
		if axis.Len() == 0 {
			return mgl32.Ident4()
		}
		return mgl32.HomogRotate3D(mgl32.DegToRad(t.Values[3]), axis.Normalize())
	case TransformScale:
		return mgl32.Scale3D(t.Values[0], t.Values[1], t.Values[2])
	case TransformMatrix:
		// stored row-major in the document
		var m mgl32.Mat4
		copy(m[:], t.Values[:16])
		return m.Transpose()
	case TransformLookAt:
		view := mgl32.LookAtV(t.vec3(0), t.vec3(3), t.vec3(6))
		return view.Inv()
	case TransformSkew:
		rot, trans := t.vec3(1), t.vec3(4)
		if rot.Len() == 0 || trans.Len() == 0 {
			return mgl32.Ident4()
		}
		rot, trans = rot.Normalize(), trans.Normalize()
		tan := float32(math.Tan(float64(mgl32.DegToRad(t.Values[0]))))
		m := mgl32.Ident4()
		for col := 0; col < 3; col++ {
			for row := 0; row < 3; row++ {
				m[col*4+row] += tan * trans[row] * rot[col]
			}
		}
		return m
	}
	return mgl32.Ident4()
}

type Instance struct {
	URL       string
	Name      string
	Skeletons []string
	Materials []InstanceMaterial
}

type InstanceMaterial struct {
	Symbol string
	Target string
}

type Geometry struct {
	Mesh Handle
}

type Mesh struct {
	Sources    []Handle
	Vertices   Handle
	Primitives []Handle
}

type ArrayType int

const (
	ArrayFloat ArrayType = iota
	ArrayName
	ArrayIDRef
	ArraySIDRef
	ArrayInt
	ArrayBool
)

var arrayTags = map[string]ArrayType{
	"float_array":  ArrayFloat,
	"Name_array":   ArrayName,
	"IDREF_array":  ArrayIDRef,
	"SIDREF_array": ArraySIDRef,
	"int_array":    ArrayInt,
	"bool_array":   ArrayBool,
}

type Array struct {
	Type    ArrayType
	Floats  []float32
	Strings []string
	Ints    []int
}

func (a *Array) Len() int {
	switch a.Type {
	case ArrayFloat:
		return len(a.Floats)
	case ArrayInt, ArrayBool:
		return len(a.Ints)
	}
	return len(a.Strings)
}

type Param struct {
	Name string
	Type string
}

type Accessor struct {
	Source string
	Count  int
	Offset int
	Stride int
	Params []Param
}

type Source struct {
	Array    *Array
	Accessor *Accessor
}

// Stride of the accessor, or 1 when the source has none.
func (s *Source) Stride() int {
	if s.Accessor == nil || s.Accessor.Stride <= 0 {
		return 1
	}
	return s.Accessor.Stride
}

func (s *Source) offset() int {
	if s.Accessor == nil {
		return 0
	}
	return s.Accessor.Offset
}

// Count of records addressable through the accessor.
func (s *Source) Count() int {
	if s.Accessor != nil && s.Accessor.Count > 0 {
		return s.Accessor.Count
	}
	if s.Array == nil {
		return 0
	}
	return (s.Array.Len() - s.offset()) / s.Stride()
}

// Floats copies len(out) components of record i into out.
func (s *Source) Floats(i int, out []float32) bool {
	if s.Array == nil || i < 0 {
		return false
	}
	start := s.offset() + i*s.Stride()
	switch s.Array.Type {
	case ArrayFloat:
		if start+len(out) > len(s.Array.Floats) {
			return false
		}
		copy(out, s.Array.Floats[start:start+len(out)])
	case ArrayInt:
		if start+len(out) > len(s.Array.Ints) {
			return false
		}
		for j := range out {
			out[j] = float32(s.Array.Ints[start+j])
		}
	default:
		return false
	}
	return true
}

func (s *Source) Float(i int) (float32, bool) {
	var v [1]float32
	ok := s.Floats(i, v[:])
	return v[0], ok
}

// Matrix reads record i as a row-major 4x4 matrix.
func (s *Source) Matrix(i int) (mgl32.Mat4, bool) {
	var m mgl32.Mat4
	if !s.Floats(i, m[:]) {
		return mgl32.Ident4(), false
	}
	return m.Transpose(), true
}

// Name reads record i of a Name, IDREF or SIDREF array.
func (s *Source) Name(i int) (string, bool) {
	if s.Array == nil || i < 0 {
		return "", false
	}
	idx := s.offset() + i*s.Stride()
	if idx >= len(s.Array.Strings) {
		return "", false
	}
	return s.Array.Strings[idx], true
}

type Input struct {
	Semantic string
	Source   string
	Offset   int
	Set      int
}

type InputGroup struct {
	Inputs []Input
}

func (g *InputGroup) Find(semantic string) (Input, bool) {
	return findInput(g.Inputs, semantic)
}

func findInput(inputs []Input, semantic string) (Input, bool) {
	for _, in := range inputs {
		if in.Semantic == semantic {
			return in, true
		}
	}
	return Input{}, false
}

type PrimitiveType int

const (
	PrimitiveLines PrimitiveType = iota
	PrimitiveLineStrips
	PrimitivePolygons
	PrimitivePolylist
	PrimitiveTriangles
	PrimitiveTriFans
	PrimitiveTriStrips
)

var primitiveTags = map[string]PrimitiveType{
	"lines":      PrimitiveLines,
	"linestrips": PrimitiveLineStrips,
	"polygons":   PrimitivePolygons,
	"polylist":   PrimitivePolylist,
	"triangles":  PrimitiveTriangles,
	"trifans":    PrimitiveTriFans,
	"tristrips":  PrimitiveTriStrips,
}

func (t PrimitiveType) String() string {
	for tag, pt := range primitiveTags {
		if pt == t {
			return tag
		}
	}
	return "unknown"
}

type Primitive struct {
	Type     PrimitiveType
	Count    int
	Material string
	Inputs   []Input
	VCount   []int
	// P holds one index run per <p> element.
	P [][]int
}

// Stride is the number of indices per corner: the largest input offset + 1.
func (p *Primitive) Stride() int {
	stride := 0
	for _, in := range p.Inputs {
		if in.Offset+1 > stride {
			stride = in.Offset + 1
		}
	}
	return stride
}

func (p *Primitive) Find(semantic string) (Input, bool) {
	return findInput(p.Inputs, semantic)
}

type Controller struct {
	Skin  Handle
	Morph Handle
}

type Skin struct {
	Source          string
	BindShapeMatrix mgl32.Mat4
	Sources         []Handle
	Joints          []Input
	Weights         *VertexWeights
}

type VertexWeights struct {
	Count  int
	Inputs []Input
	VCount []int
	V      []int
}

// Stride is the number of indices per influence group.
func (w *VertexWeights) Stride() int {
	stride := 0
	for _, in := range w.Inputs {
		if in.Offset+1 > stride {
			stride = in.Offset + 1
		}
	}
	return stride
}

type MorphMethod int

const (
	MorphNormalized MorphMethod = iota
	MorphRelative
)

func (m MorphMethod) String() string {
	if m == MorphRelative {
		return "RELATIVE"
	}
	return "NORMALIZED"
}

type Morph struct {
	Source  string
	Method  MorphMethod
	Sources []Handle
	Targets []Input
}

type Material struct {
	Effect string
}

type Effect struct {
	Profile Handle
}

type ProfileCommon struct {
	Params  []Handle
	Shading *Shading
}

type NewParam struct {
	Surface *Surface
	Sampler *Sampler
}

type Surface struct {
	Type     string
	InitFrom string
}

type Sampler struct {
	// Source is the sid of the surface newparam.
	Source string
	// Image is the instance_image url used by 1.5 documents.
	Image string
}

type Shading struct {
	Model    string
	Channels []Channel
}

type Channel struct {
	Name    string
	Color   *mgl32.Vec4
	Texture *TextureBinding
	Float   *float32
}

type TextureBinding struct {
	Texture  string
	TexCoord string
}

type Image struct {
	InitFrom string
	Data     []byte
	Format   string
	Width    int
	Height   int
}
