package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/daeimport/collada"
	"github.com/mogaika/daeimport/diag"
)

// MorphTarget is a decoded target geometry and its weight.
type MorphTarget struct {
	Name    string
	Weight  float32
	Decoded *Decoded
}

// TargetMatrix is the matrix morph targets are decoded with. RELATIVE
// targets are offsets and take only the linear part of the instance matrix,
// NORMALIZED targets are whole shapes and take all of it.
func TargetMatrix(m mgl32.Mat4, method collada.MorphMethod) mgl32.Mat4 {
	if method == collada.MorphRelative {
		m.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	}
	return m
}

func (d *Decoded) cornerCount() (int, int) {
	return len(d.Triangles) * 3, len(d.Lines) * 2
}

func (d *Decoded) corner(i int) *Vertex {
	tris := len(d.Triangles) * 3
	if i < tris {
		return &d.Triangles[i/3][i%3]
	}
	i -= tris
	return &d.Lines[i/2][i%2]
}

// BlendMorph bakes the weighted targets into base. Targets are expected to be
// decoded with TargetMatrix. Targets whose corner layout does not match the
// base are reported and ignored. Only positions and the tangent frame
// blend; other attributes come from the base.
func BlendMorph(base *Decoded, targets []MorphTarget, method collada.MorphMethod, object string, sink diag.Sink) {
	if sink == nil {
		sink = diag.Discard
	}
	baseTris, baseLines := base.cornerCount()
	total := baseTris + baseLines

	used := make([]MorphTarget, 0, len(targets))
	for _, t := range targets {
		if t.Decoded == nil {
			continue
		}
		tris, lines := t.Decoded.cornerCount()
		if tris != baseTris || lines != baseLines {
			diag.Warnf(sink, diag.CodeMissingRequiredStream, object,
				"Morph target %q has %d corners, base has %d. Target ignored.", t.Name, tris+lines, total)
			continue
		}
		used = append(used, t)
	}
	base.Desc.MorphCount = len(targets)
	if len(used) == 0 {
		return
	}

	var weightSum float32
	for _, t := range used {
		weightSum += t.Weight
	}

	blend := func(b mgl32.Vec3, get func(v *Vertex) mgl32.Vec3, i int) mgl32.Vec3 {
		var result mgl32.Vec3
		if method == collada.MorphRelative {
			result = b
		} else {
			result = b.Mul(1 - weightSum)
		}
		for _, t := range used {
			result = result.Add(get(t.Decoded.corner(i)).Mul(t.Weight))
		}
		return result
	}
	renormalize := func(v mgl32.Vec3) mgl32.Vec3 {
		if v.Len() > 0 {
			return v.Normalize()
		}
		return v
	}

	for i := 0; i < total; i++ {
		v := base.corner(i)
		v.Position = blend(v.Position, func(v *Vertex) mgl32.Vec3 { return v.Position }, i)
		if base.Desc.HasNormals {
			v.Normal = renormalize(blend(v.Normal, func(v *Vertex) mgl32.Vec3 { return v.Normal }, i))
		}
		if base.Desc.HasBinormals {
			v.Binormal = renormalize(blend(v.Binormal, func(v *Vertex) mgl32.Vec3 { return v.Binormal }, i))
		}
		if base.Desc.HasTangents {
			v.Tangent = renormalize(blend(v.Tangent, func(v *Vertex) mgl32.Vec3 { return v.Tangent }, i))
		}
	}
}
