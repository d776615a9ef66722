package domain

import "time"

// EmbeddingRecord представляет сохранённый вектор изображения, привязанный к продукту.
// Записи только добавляются: обновление и удаление не поддерживаются.
// Уникальность по product_id не требуется — у продукта может быть несколько записей.
type EmbeddingRecord struct {
	ID        string // uuid
	ProductID int64
	Vector    []float32
	ImageKey  string // ключ исходного изображения в объектном хранилище
	CreatedAt time.Time
}

func NewEmbeddingRecord(id string, productID int64, vector []float32, imageKey string) *EmbeddingRecord {
	return &EmbeddingRecord{
		ID:        id,
		ProductID: productID,
		Vector:    vector,
		ImageKey:  imageKey,
	}
}
