package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/daeimport/utils"
)

// Epsilon is the tolerance used when comparing vertex attributes.
const Epsilon = 0.00001

type Position = mgl32.Vec3
type Normal = mgl32.Vec3
type UV = mgl32.Vec2
type Color = mgl32.Vec4

// Vertex is one decoded primitive corner before deduplication. Attributes
// not present in the source stay zero.
type Vertex struct {
	Position  Position
	Normal    Normal
	Binormal  Normal
	Tangent   Normal
	Colors    []Color
	TexCoords []UV
	Influence *Influence
}

type Line [2]Vertex
type Triangle [3]Vertex

// floatEqual is an absolute comparison, the same tolerance at any magnitude.
func floatEqual(a, b float32) bool {
	return math.Abs(float64(a)-float64(b)) <= Epsilon
}

func vec3Equal(a, b mgl32.Vec3) bool {
	return floatEqual(a[0], b[0]) && floatEqual(a[1], b[1]) && floatEqual(a[2], b[2])
}

// Equal compares every attribute within Epsilon and influences by value.
func (v *Vertex) Equal(o *Vertex) bool {
	if !vec3Equal(v.Position, o.Position) ||
		!vec3Equal(v.Normal, o.Normal) ||
		!vec3Equal(v.Binormal, o.Binormal) ||
		!vec3Equal(v.Tangent, o.Tangent) {
		return false
	}
	if len(v.Colors) != len(o.Colors) || len(v.TexCoords) != len(o.TexCoords) {
		return false
	}
	for i := range v.Colors {
		for j := 0; j < 4; j++ {
			if !floatEqual(v.Colors[i][j], o.Colors[i][j]) {
				return false
			}
		}
	}
	for i := range v.TexCoords {
		if !floatEqual(v.TexCoords[i][0], o.TexCoords[i][0]) || !floatEqual(v.TexCoords[i][1], o.TexCoords[i][1]) {
			return false
		}
	}
	return v.Influence.Equal(o.Influence)
}

// hashStep is the grid cell size of position keys. It must stay above
// 4*Epsilon so a coordinate is never within the margin of both cell borders.
const hashStep = 1e-3

// axisCells returns the cell of f followed by the neighbour cell when f lies
// within 2*Epsilon of the shared border, the extra Epsilon absorbs rounding.
func axisCells(f float32) []int64 {
	x := float64(f) / hashStep
	q := math.Floor(x)
	cells := []int64{int64(q)}
	margin := 2 * Epsilon / hashStep
	if x-q <= margin {
		cells = append(cells, int64(q)-1)
	} else if q+1-x <= margin {
		cells = append(cells, int64(q)+1)
	}
	return cells
}

// keys lists the bucket keys of the vertex for Remap. The first one is the
// cell holding the position, the rest are the neighbour cells an equal
// position may fall into. Any vertex Equal to v has its first key in the set.
func (v *Vertex) keys() []uint32 {
	xs, ys, zs := axisCells(v.Position[0]), axisCells(v.Position[1]), axisCells(v.Position[2])
	result := make([]uint32, 0, len(xs)*len(ys)*len(zs))
	for _, x := range xs {
		for _, y := range ys {
			for _, z := range zs {
				hash := utils.HashInt64(x, 0)
				hash = utils.HashInt64(y, hash)
				hash = utils.HashInt64(z, hash)
				result = append(result, v.Influence.hash(hash))
			}
		}
	}
	return result
}
