package utils

func HashString(str string, initial uint32) uint32 {
	hash := initial
	for _, c := range []byte(str) {
		hash = (hash << 7) - hash + uint32(c)
	}

	return hash
}

// HashInt64 mixes the bytes of v, low byte first.
func HashInt64(v int64, initial uint32) uint32 {
	hash := initial
	for i := 0; i < 8; i++ {
		hash = (hash << 7) - hash + uint32(byte(v>>(8*i)))
	}

	return hash
}
