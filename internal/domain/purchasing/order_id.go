package purchasing

// LowestUnusedID devuelve el menor entero >= 1 que no aparece en ids.
// ids debe venir ordenado ascendentemente (un único recorrido, sin tabla de huecos).
func LowestUnusedID(ids []int64) int64 {
	expected := int64(1)
	for _, id := range ids {
		if id == expected {
			expected++
			continue
		}
		if id > expected {
			return expected
		}
	}
	return expected
}
