package embeddings

import "math"

// CosineMatrix computes the symmetric pairwise cosine-similarity matrix for
// the given vectors. The diagonal is 1. Zero vectors yield 0 against every
// other vector.
func CosineMatrix(vectors [][]float32) [][]float64 {
	n := len(vectors)
	norms := make([]float64, n)
	for i, v := range vectors {
		norms[i] = norm(v)
	}

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := 0.0
			if norms[i] > 0 && norms[j] > 0 {
				sim = dot(vectors[i], vectors[j]) / (norms[i] * norms[j])
			}
			m[i][j] = sim
			m[j][i] = sim
		}
	}
	return m
}

func dot(a, b []float32) float64 {
	total := 0.0
	for i := range a {
		total += float64(a[i]) * float64(b[i])
	}
	return total
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
