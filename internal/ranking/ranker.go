// Package ranking реализует основной путь ранжирования визуального поиска:
// косинусная близость по общему префиксу векторов и выбор top-K полным перебором.
package ranking

import (
	"math"
	"sort"

	"github.com/DRSN-tech/visual-search/internal/domain"
)

// Cosine вычисляет косинусную близость двух векторов по первым
// min(len(a), len(b)) компонентам. Хвост более длинного вектора игнорируется.
// Пустой вектор или нулевая норма дают 0 — деления на ноль не происходит.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK оценивает все кандидаты относительно запроса и возвращает не более k
// лучших по убыванию близости. Осиротевшие записи (без продукта) отбрасываются
// после оценки. Сортировка стабильна: при равных оценках сохраняется порядок
// выборки из хранилища.
func TopK(query []float32, candidates []domain.CatalogEmbedding, k int) []domain.RankedMatch {
	matches := make([]domain.RankedMatch, 0, len(candidates))
	for _, c := range candidates {
		if c.Product == nil {
			continue
		}

		matches = append(matches, domain.RankedMatch{
			Record:  c.Record,
			Product: c.Product,
			Score:   Cosine(query, c.Record.Vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k >= 0 && len(matches) > k {
		matches = matches[:k]
	}

	return matches
}
