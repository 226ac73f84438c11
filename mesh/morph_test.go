package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/mogaika/daeimport/collada"
	"github.com/mogaika/daeimport/diag"
)

func shifted(d *Decoded, dx float32) *Decoded {
	result := &Decoded{Desc: d.Desc, Triangles: make([]Triangle, len(d.Triangles))}
	for i, tri := range d.Triangles {
		for c := range tri {
			tri[c].Position[0] += dx
		}
		result.Triangles[i] = tri
	}
	return result
}

func transformed(d *Decoded, m mgl32.Mat4) *Decoded {
	for i := range d.Triangles {
		for c := range d.Triangles[i] {
			d.Triangles[i][c].Position = mgl32.TransformCoordinate(d.Triangles[i][c].Position, m)
		}
	}
	return d
}

func TestBlendMorphNormalized(t *testing.T) {
	base := quad()
	target := shifted(quad(), 4)

	BlendMorph(base, []MorphTarget{{Name: "t", Weight: 0.25, Decoded: target}}, collada.MorphNormalized, "quad", nil)

	assert.Equal(t, 1, base.Desc.MorphCount)
	assert.InDelta(t, 1, base.Triangles[0][0].Position[0], 1e-6)
	assert.InDelta(t, 2, base.Triangles[0][1].Position[0], 1e-6)
	assert.Equal(t, UV{1, 0}, base.Triangles[0][1].TexCoords[0])
}

func TestBlendMorphRelative(t *testing.T) {
	base := quad()
	delta := shifted(quad(), 0)
	for i := range delta.Triangles {
		for c := range delta.Triangles[i] {
			delta.Triangles[i][c].Position = Position{0, 0, 2}
		}
	}

	BlendMorph(base, []MorphTarget{{Name: "d", Weight: 0.5, Decoded: delta}}, collada.MorphRelative, "quad", nil)

	assert.Equal(t, Position{1, 1, 1}, base.Triangles[1][2].Position)
}

func TestBlendMorphMismatch(t *testing.T) {
	log := diag.NewLog()
	base := quad()
	target := quad()
	target.Triangles = target.Triangles[:1]

	BlendMorph(base, []MorphTarget{{Name: "short", Weight: 1, Decoded: target}}, collada.MorphNormalized, "quad", log)

	assert.Equal(t, 1, log.Len())
	assert.Equal(t, quad().Triangles, base.Triangles)
}

func TestTargetMatrix(t *testing.T) {
	m := mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2))

	assert.Equal(t, m, TargetMatrix(m, collada.MorphNormalized))
	assert.Equal(t, mgl32.Scale3D(2, 2, 2), TargetMatrix(m, collada.MorphRelative))
}

func TestBlendMorphTranslated(t *testing.T) {
	m := mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2))

	for _, test := range []struct {
		method collada.MorphMethod
		target func() *Decoded
		expect Position
	}{
		// offsets of +2 in z, scaled to 4 and weighted by half
		{collada.MorphRelative, func() *Decoded {
			d := quad()
			for i := range d.Triangles {
				for c := range d.Triangles[i] {
					d.Triangles[i][c].Position = Position{0, 0, 2}
				}
			}
			return d
		}, Position{12, 2, 2}},
		// the whole quad moved by +2 in z, halfway there
		{collada.MorphNormalized, func() *Decoded {
			d := quad()
			for i := range d.Triangles {
				for c := range d.Triangles[i] {
					d.Triangles[i][c].Position[2] = 2
				}
			}
			return d
		}, Position{12, 2, 2}},
	} {
		base := transformed(quad(), m)
		target := transformed(test.target(), TargetMatrix(m, test.method))

		BlendMorph(base, []MorphTarget{{Name: "t", Weight: 0.5, Decoded: target}}, test.method, "quad", nil)

		p := base.Triangles[1][2].Position
		assert.True(t, p.ApproxEqualThreshold(test.expect, 1e-5), "%v: got %v, expected %v", test.method, p, test.expect)
	}
}
