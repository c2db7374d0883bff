package domain

import (
	"fmt"
	"math"

	"github.com/DRSN-tech/face-matcher/pkg/e"
)

// Embedding — дескриптор лица фиксированной размерности.
type Embedding []float64

// NewEmbedding приводит float32-вектор внешнего сервиса к Embedding.
func NewEmbedding(vector []float32) Embedding {
	emb := make(Embedding, len(vector))
	for i, v := range vector {
		emb[i] = float64(v)
	}

	return emb
}

// Validate проверяет размерность и отсутствие NaN/Inf.
func (emb Embedding) Validate(dim int) error {
	if len(emb) == 0 || (dim > 0 && len(emb) != dim) {
		return fmt.Errorf("%w: got %d, want %d", e.ErrDimensionMismatch, len(emb), dim)
	}

	for i, v := range emb {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at %d", e.ErrMalformedDescriptor, i)
		}
	}

	return nil
}

// Float32 возвращает копию вектора в float32 (формат столбца vector в PostgreSQL).
func (emb Embedding) Float32() []float32 {
	res := make([]float32, len(emb))
	for i, v := range emb {
		res[i] = float32(v)
	}

	return res
}
