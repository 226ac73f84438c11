package mesh

// Remapper maps a stream of items onto its unique subset.
type Remapper struct {
	// RemapTable[i] is the unique index of item i.
	RemapTable []int
	// ImplementationTable[u] is the first item that produced unique index u.
	ImplementationTable []int
}

// Remap groups count items by key and then by equal inside a bucket. keys
// returns the bucket an item is looked up in first, followed by any extra
// buckets a new unique item is also registered in. The first occurrence of
// every distinct item wins, so the result is stable.
func Remap(count int, keys func(int) []uint32, equal func(a, b int) bool) *Remapper {
	r := &Remapper{
		RemapTable:          make([]int, count),
		ImplementationTable: make([]int, 0, count),
	}
	buckets := make(map[uint32][]int, count)

	for i := 0; i < count; i++ {
		k := keys(i)
		found := -1
		for _, u := range buckets[k[0]] {
			if equal(r.ImplementationTable[u], i) {
				found = u
				break
			}
		}
		if found < 0 {
			found = len(r.ImplementationTable)
			r.ImplementationTable = append(r.ImplementationTable, i)
			for _, key := range k {
				buckets[key] = append(buckets[key], found)
			}
		}
		r.RemapTable[i] = found
	}
	return r
}

func (r *Remapper) Len() int {
	return len(r.ImplementationTable)
}
