package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a translate-rotate-scale triple applied as T * R * S.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

func inv(f float32) float32 {
	if f == 0 {
		return 0
	}
	return 1 / f
}

// InverseMatrix is S^-1 * R^-1 * T^-1, exact for non-zero scale.
func (t Transform) InverseMatrix() mgl32.Mat4 {
	return mgl32.Scale3D(inv(t.Scale[0]), inv(t.Scale[1]), inv(t.Scale[2])).
		Mul4(t.Rotation.Normalize().Inverse().Mat4()).
		Mul4(mgl32.Translate3D(-t.Translation[0], -t.Translation[1], -t.Translation[2]))
}

// DecomposeMatrix splits an affine matrix into TRS. Shear is lost.
func DecomposeMatrix(m mgl32.Mat4) Transform {
	t := Transform{
		Translation: m.Col(3).Vec3(),
		Scale: mgl32.Vec3{
			m.Col(0).Vec3().Len(),
			m.Col(1).Vec3().Len(),
			m.Col(2).Vec3().Len(),
		},
		Rotation: mgl32.QuatIdent(),
	}
	if m.Mat3().Det() < 0 {
		t.Scale[0] = -t.Scale[0]
	}
	if t.Scale[0] == 0 || t.Scale[1] == 0 || t.Scale[2] == 0 {
		return t
	}

	var rot mgl32.Mat4
	for col := 0; col < 3; col++ {
		c := m.Col(col).Vec3().Mul(1 / t.Scale[col])
		rot.SetCol(col, c.Vec4(0))
	}
	rot[15] = 1
	t.Rotation = mgl32.Mat4ToQuat(rot).Normalize()
	return t
}
