package domain

// CatalogEmbedding — запись эмбеддинга вместе с присоединённым продуктом.
// Product равен nil, если продукт был удалён из каталога (осиротевшая запись).
type CatalogEmbedding struct {
	Record  EmbeddingRecord
	Product *Product
}

// RankedMatch — результат ранжирования одной записи относительно запроса.
type RankedMatch struct {
	Record  EmbeddingRecord
	Product *Product
	Score   float64
}
