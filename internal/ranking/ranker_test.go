package ranking

import (
	"testing"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/stretchr/testify/require"
)

func candidate(id string, vector []float32, withProduct bool) domain.CatalogEmbedding {
	c := domain.CatalogEmbedding{
		Record: domain.EmbeddingRecord{ID: id, ProductID: 1, Vector: vector},
	}
	if withProduct {
		c.Product = &domain.Product{ID: 1, Name: "product-" + id}
	}
	return c
}

func TestCosineIdenticalVectors(t *testing.T) {
	v := []float32{1, 2, 3}
	require.InDelta(t, 1.0, Cosine(v, v), 1e-9)
}

func TestCosineScalarMultiple(t *testing.T) {
	// Положительное масштабирование не меняет направление.
	require.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
}

func TestCosineOppositeVectors(t *testing.T) {
	require.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestCosineOrthogonalVectors(t *testing.T) {
	require.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestCosineBounds(t *testing.T) {
	vectors := [][]float32{
		{1, 2, 3},
		{-5, 0.5, 2},
		{0.001, -0.002, 100},
	}
	for _, a := range vectors {
		for _, b := range vectors {
			s := Cosine(a, b)
			require.GreaterOrEqual(t, s, -1.0-1e-9)
			require.LessOrEqual(t, s, 1.0+1e-9)
		}
	}
}

func TestCosineUsesCommonPrefixOnly(t *testing.T) {
	short := []float32{1, 2, 3}
	long := []float32{1, 2, 3, 100, -200}

	base := Cosine(short, []float32{3, 2, 1})
	extended := Cosine(long[:3], []float32{3, 2, 1})
	require.Equal(t, base, extended)

	// Добавление хвоста к более длинному вектору не меняет оценку.
	require.Equal(t, Cosine(short, long), Cosine(short, append(long, 7, 8, 9)))
}

func TestCosineEmptyAndZeroVectors(t *testing.T) {
	require.Equal(t, 0.0, Cosine(nil, []float32{1, 2}))
	require.Equal(t, 0.0, Cosine([]float32{1, 2}, nil))
	require.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 2}))
	require.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{0, 0}))
}

func TestTopKSortedDescending(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []domain.CatalogEmbedding{
		candidate("a", []float32{0, 1, 0}, true),
		candidate("b", []float32{1, 0, 0}, true),
		candidate("c", []float32{1, 1, 0}, true),
	}

	matches := TopK(query, candidates, 10)
	require.Len(t, matches, 3)
	require.Equal(t, "b", matches[0].Record.ID)
	require.Equal(t, "c", matches[1].Record.ID)
	require.Equal(t, "a", matches[2].Record.ID)
	require.InDelta(t, 1.0, matches[0].Score, 1e-9)
	require.InDelta(t, 0.0, matches[2].Score, 1e-9)
}

func TestTopKStableForTies(t *testing.T) {
	query := []float32{1, 0}
	candidates := []domain.CatalogEmbedding{
		candidate("first", []float32{0, 1}, true),
		candidate("second", []float32{0, 2}, true),
		candidate("third", []float32{0, 3}, true),
	}

	matches := TopK(query, candidates, 10)
	require.Len(t, matches, 3)
	// Все оценки равны нулю — порядок выборки сохраняется.
	require.Equal(t, "first", matches[0].Record.ID)
	require.Equal(t, "second", matches[1].Record.ID)
	require.Equal(t, "third", matches[2].Record.ID)
}

func TestTopKFiltersOrphans(t *testing.T) {
	query := []float32{1, 0}
	candidates := []domain.CatalogEmbedding{
		candidate("orphan", []float32{1, 0}, false),
		candidate("linked", []float32{0, 1}, true),
	}

	matches := TopK(query, candidates, 10)
	require.Len(t, matches, 1)
	require.Equal(t, "linked", matches[0].Record.ID)
}

func TestTopKLimit(t *testing.T) {
	query := []float32{1}
	candidates := make([]domain.CatalogEmbedding, 0, 25)
	for i := 0; i < 25; i++ {
		candidates = append(candidates, candidate("c", []float32{1}, true))
	}

	require.Len(t, TopK(query, candidates, 10), 10)
}

func TestTopKEmptyCandidates(t *testing.T) {
	require.Empty(t, TopK([]float32{1, 2}, nil, 10))
}

func TestTopKMismatchedLengths(t *testing.T) {
	query := []float32{1, 0, 0, 0, 0}
	candidates := []domain.CatalogEmbedding{
		candidate("long", []float32{1, 0, 0, 0, 0, 42, -17}, true),
		candidate("short", []float32{0, 1}, true),
	}

	matches := TopK(query, candidates, 10)
	require.Len(t, matches, 2)
	require.Equal(t, "long", matches[0].Record.ID)
	require.InDelta(t, 1.0, matches[0].Score, 1e-9)
	require.InDelta(t, 0.0, matches[1].Score, 1e-9)
}
