package mesh

// Index helpers turning strip, fan and polygon corner runs into primitives.
// All of them return indices into the run they were given.

// TriangleStrip keeps the winding of the first triangle. Every odd
// triangle swaps its last two corners: [0 1 2 3 4] gives (0 1 2) (1 3 2)
// (2 3 4).
func TriangleStrip(count int) [][3]int {
	if count < 3 {
		return nil
	}
	result := make([][3]int, 0, count-2)
	for k := 0; k+2 < count; k++ {
		if k&1 == 0 {
			result = append(result, [3]int{k, k + 1, k + 2})
		} else {
			result = append(result, [3]int{k, k + 2, k + 1})
		}
	}
	return result
}

// TriangleFan pivots around corner 0.
func TriangleFan(count int) [][3]int {
	if count < 3 {
		return nil
	}
	result := make([][3]int, 0, count-2)
	for i := 0; i+2 < count; i++ {
		result = append(result, [3]int{0, i + 1, i + 2})
	}
	return result
}

// LineStrip connects consecutive corners of an open strip.
func LineStrip(count int) [][2]int {
	if count < 2 {
		return nil
	}
	result := make([][2]int, 0, count-1)
	for i := 0; i+1 < count; i++ {
		result = append(result, [2]int{i, i + 1})
	}
	return result
}

// Polylist fan-triangulates each polygon of vcounts, returning indices into
// the concatenated corner stream. Polygons with less than three corners
// are consumed without output. The second result is the number of corners
// consumed.
func Polylist(vcounts []int) ([][3]int, int) {
	result := make([][3]int, 0, len(vcounts))
	start := 0
	for _, n := range vcounts {
		for _, tri := range TriangleFan(n) {
			result = append(result, [3]int{start + tri[0], start + tri[1], start + tri[2]})
		}
		if n > 0 {
			start += n
		}
	}
	return result, start
}
