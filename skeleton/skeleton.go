package skeleton

type Skeleton struct {
	Roots []*Bone
}

func New() *Skeleton {
	return &Skeleton{Roots: make([]*Bone, 0)}
}

// AddRoot attaches a parentless bone (with its subtree) as a new root.
func (s *Skeleton) AddRoot(b *Bone) {
	if b.parent != nil {
		b.parent.children = removeBone(b.parent.children, b)
		b.parent = nil
	} else if b.skeleton != nil {
		b.skeleton.Roots = removeBone(b.skeleton.Roots, b)
	}
	b.setSkeleton(s)
	s.Roots = append(s.Roots, b)
	b.Recalc()
}

// Bones lists all bones depth first, roots in order.
func (s *Skeleton) Bones() []*Bone {
	result := make([]*Bone, 0)
	for _, r := range s.Roots {
		r.Walk(func(b *Bone) {
			result = append(result, b)
		})
	}
	return result
}

func (s *Skeleton) Len() int {
	n := 0
	for _, r := range s.Roots {
		r.Walk(func(*Bone) { n++ })
	}
	return n
}

// Find returns the first bone with the name in depth-first order.
func (s *Skeleton) Find(name string) *Bone {
	for _, b := range s.Bones() {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Index returns the depth-first position of b, or -1.
func (s *Skeleton) Index(b *Bone) int {
	for i, c := range s.Bones() {
		if c == b {
			return i
		}
	}
	return -1
}
