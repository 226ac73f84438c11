package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Bone is a joint of the bind pose. World matrices are derived from the
// parent chain and recomputed for the whole subtree on every change.
type Bone struct {
	Name string

	local    Transform
	skeleton *Skeleton
	parent   *Bone
	children []*Bone

	localMatrix       mgl32.Mat4
	localInverse      mgl32.Mat4
	bindMatrix        mgl32.Mat4
	inverseBindMatrix mgl32.Mat4
}

func NewBone(name string, local Transform) *Bone {
	b := &Bone{Name: name, local: local, children: make([]*Bone, 0)}
	b.Recalc()
	return b
}

func (b *Bone) Local() Transform { return b.local }
func (b *Bone) Parent() *Bone { return b.parent }
func (b *Bone) Children() []*Bone { return b.children }
func (b *Bone) Skeleton() *Skeleton { return b.skeleton }
func (b *Bone) LocalMatrix() mgl32.Mat4 { return b.localMatrix }
func (b *Bone) LocalInverseMatrix() mgl32.Mat4 { return b.localInverse }
func (b *Bone) BindMatrix() mgl32.Mat4 { return b.bindMatrix }
func (b *Bone) InverseBindMatrix() mgl32.Mat4 { return b.inverseBindMatrix }

func (b *Bone) SetLocal(t Transform) {
	b.local = t
	b.Recalc()
}

func (b *Bone) isAncestorOf(other *Bone) bool {
	for p := other; p != nil; p = p.parent {
		if p == b {
			return true
		}
	}
	return false
}

func removeBone(list []*Bone, b *Bone) []*Bone {
	for i, c := range list {
		if c == b {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// SetParent moves the bone with its subtree under parent. A nil parent makes
// it a root of its skeleton.
func (b *Bone) SetParent(parent *Bone) error {
	if parent != nil && b.isAncestorOf(parent) {
		return errors.Errorf("Bone %q can't be parented to its own descendant %q", b.Name, parent.Name)
	}

	if b.parent != nil {
		b.parent.children = removeBone(b.parent.children, b)
	} else if b.skeleton != nil {
		b.skeleton.Roots = removeBone(b.skeleton.Roots, b)
	}

	b.parent = parent
	if parent != nil {
		parent.children = append(parent.children, b)
		b.setSkeleton(parent.skeleton)
	} else if b.skeleton != nil {
		b.skeleton.Roots = append(b.skeleton.Roots, b)
	}

	b.Recalc()
	return nil
}

func (b *Bone) AddChild(child *Bone) error {
	return child.SetParent(b)
}

func (b *Bone) setSkeleton(s *Skeleton) {
	b.skeleton = s
	for _, c := range b.children {
		c.setSkeleton(s)
	}
}

// Recalc rebuilds the matrices of the bone and all its descendants.
func (b *Bone) Recalc() {
	b.localMatrix = b.local.Matrix()
	b.localInverse = b.local.InverseMatrix()
	if b.parent != nil {
		b.bindMatrix = b.parent.bindMatrix.Mul4(b.localMatrix)
		b.inverseBindMatrix = b.localInverse.Mul4(b.parent.inverseBindMatrix)
	} else {
		b.bindMatrix = b.localMatrix
		b.inverseBindMatrix = b.localInverse
	}
	for _, c := range b.children {
		c.Recalc()
	}
}

// Walk visits the bone and its descendants depth first.
func (b *Bone) Walk(fn func(*Bone)) {
	fn(b)
	for _, c := range b.children {
		c.Walk(fn)
	}
}
