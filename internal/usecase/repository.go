package usecase

import (
	"context"

	"github.com/DRSN-tech/visual-search/internal/domain"
)

type EmbeddingRepository interface {
	// Insert сохраняет запись в рамках транзакции из контекста.
	// Пустой вектор и нулевой product_id отклоняются.
	Insert(ctx context.Context, record *domain.EmbeddingRecord) error
	// All возвращает все записи с присоединёнными продуктами;
	// осиротевшие записи возвращаются с nil-продуктом.
	All(ctx context.Context) ([]domain.CatalogEmbedding, error)
	// ByProduct возвращает одну запись продукта или e.ErrEmbeddingNotFound.
	ByProduct(ctx context.Context, productID int64) (*domain.EmbeddingRecord, error)
	// RankApprox — аппроксимация близости на стороне БД по первым компонентам вектора.
	RankApprox(ctx context.Context, query []float32, k int) ([]domain.RankedMatch, error)
	// Sample возвращает до k произвольных записей с присоединёнными продуктами.
	Sample(ctx context.Context, k int) ([]domain.CatalogEmbedding, error)
}

type ProductRepository interface {
	Upsert(ctx context.Context, product *domain.Product) (*UpsertProductRes, error)
	GetProductsInfo(ctx context.Context, ids []int64) ([]ProductInfo, error)
	// ListWithImages возвращает активные продукты, у которых задано изображение.
	ListWithImages(ctx context.Context) ([]domain.Product, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []int64) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}
