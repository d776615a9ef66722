package pgdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// approxComponents — число первых компонент вектора, участвующих
// в аппроксимации близости на стороне БД.
const approxComponents = 5

// EmbeddingRepo реализует хранилище эмбеддингов поверх PostgreSQL.
// Вектора лежат в колонке real[], ранжирование первого яруса читает их
// целиком; аппроксимация второго яруса считается SQL-выражением.
type EmbeddingRepo struct {
	pool *pgxpool.Pool
	conv converter.EmbeddingConverter
}

func NewEmbeddingRepo(pool *pgxpool.Pool, conv converter.EmbeddingConverter) *EmbeddingRepo {
	return &EmbeddingRepo{
		pool: pool,
		conv: conv,
	}
}

// Insert сохраняет запись в рамках транзакции из контекста.
func (r *EmbeddingRepo) Insert(ctx context.Context, record *domain.EmbeddingRecord) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if len(record.Vector) == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrEmptyEmbedding)
	}

	if record.ProductID <= 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductIDRequired)
	}

	query := `
		INSERT INTO image_embeddings (id, product_id, embedding, image_key)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at;
	`

	err = tx.QueryRow(ctx, query, record.ID, record.ProductID, record.Vector, record.ImageKey).
		Scan(&record.CreatedAt)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// All возвращает все записи с присоединёнными продуктами.
// Осиротевшие записи (продукт удалён или архивирован) идут с nil-продуктом,
// решение об их фильтрации принимает вызывающий.
func (r *EmbeddingRepo) All(ctx context.Context) ([]domain.CatalogEmbedding, error) {
	query := `
		SELECT
			emb.id, emb.product_id, emb.embedding, emb.image_key, emb.created_at,
			pr.id, pr.name, pr.price, pr.category_id, pr.image_key
		FROM image_embeddings emb
		LEFT JOIN products pr ON pr.id = emb.product_id AND NOT pr.is_archived
		ORDER BY emb.created_at;
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.CatalogEmbedding, 0)
	for rows.Next() {
		item, err := scanCatalogEmbedding(rows, r.conv)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// ByProduct возвращает последнюю запись продукта или e.ErrEmbeddingNotFound.
func (r *EmbeddingRepo) ByProduct(ctx context.Context, productID int64) (*domain.EmbeddingRecord, error) {
	query := `
		SELECT id, product_id, embedding, image_key, created_at
		FROM image_embeddings
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT 1;
	`

	var model converter.EmbeddingModel
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&model.ID, &model.ProductID, &model.Embedding, &model.ImageKey, &model.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrEmbeddingNotFound)
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.conv.ToEntity(&model), nil
}

// RankApprox считает грубую оценку близости на стороне БД по первым
// approxComponents компонентам вектора: 1 - sqrt(sum((embedding[i]-q_i)^2)).
// Отсутствующие компоненты запроса считаются нулями. Осиротевшие записи
// отсекаются INNER JOIN-ом сразу.
func (r *EmbeddingRepo) RankApprox(ctx context.Context, query []float32, k int) ([]domain.RankedMatch, error) {
	terms := make([]string, 0, approxComponents)
	args := make([]any, 0, approxComponents+1)
	for i := 0; i < approxComponents; i++ {
		var q float32
		if i < len(query) {
			q = query[i]
		}

		terms = append(terms, fmt.Sprintf("power(coalesce(emb.embedding[%d], 0) - $%d, 2)", i+1, i+1))
		args = append(args, q)
	}
	args = append(args, k)

	sql := fmt.Sprintf(`
		SELECT
			emb.id, emb.product_id, emb.embedding, emb.image_key, emb.created_at,
			pr.id, pr.name, pr.price, pr.category_id, pr.image_key,
			1 - sqrt(%s) AS score
		FROM image_embeddings emb
		INNER JOIN products pr ON pr.id = emb.product_id AND NOT pr.is_archived
		ORDER BY score DESC
		LIMIT $%d;
	`, strings.Join(terms, " + "), approxComponents+1)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.RankedMatch, 0, k)
	for rows.Next() {
		var (
			model   converter.EmbeddingModel
			product converter.ProductModel
			score   float64
		)
		err := rows.Scan(
			&model.ID, &model.ProductID, &model.Embedding, &model.ImageKey, &model.CreatedAt,
			&product.ID, &product.Name, &product.Price, &product.CategoryID, &product.ImageKey,
			&score,
		)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, domain.RankedMatch{
			Record:  *r.conv.ToEntity(&model),
			Product: converter.ProductConverter{}.ToEntity(&product),
			Score:   score,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// Sample возвращает до k произвольных записей с присоединёнными продуктами.
func (r *EmbeddingRepo) Sample(ctx context.Context, k int) ([]domain.CatalogEmbedding, error) {
	query := `
		SELECT
			emb.id, emb.product_id, emb.embedding, emb.image_key, emb.created_at,
			pr.id, pr.name, pr.price, pr.category_id, pr.image_key
		FROM image_embeddings emb
		LEFT JOIN products pr ON pr.id = emb.product_id AND NOT pr.is_archived
		ORDER BY random()
		LIMIT $1;
	`

	rows, err := r.pool.Query(ctx, query, k)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.CatalogEmbedding, 0, k)
	for rows.Next() {
		item, err := scanCatalogEmbedding(rows, r.conv)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// scanCatalogEmbedding читает строку вида "запись + LEFT JOIN продукт":
// колонки продукта приходят NULL-ами для осиротевших записей.
func scanCatalogEmbedding(rows pgx.Rows, conv converter.EmbeddingConverter) (domain.CatalogEmbedding, error) {
	var (
		model      converter.EmbeddingModel
		productID  *int64
		name       *string
		price      *int64
		categoryID *int64
		imageKey   *string
	)

	err := rows.Scan(
		&model.ID, &model.ProductID, &model.Embedding, &model.ImageKey, &model.CreatedAt,
		&productID, &name, &price, &categoryID, &imageKey,
	)
	if err != nil {
		return domain.CatalogEmbedding{}, err
	}

	item := domain.CatalogEmbedding{Record: *conv.ToEntity(&model)}
	if productID != nil {
		item.Product = &domain.Product{
			ID:         *productID,
			Name:       *name,
			Price:      *price,
			CategoryID: *categoryID,
		}
		if imageKey != nil {
			item.Product.ImageKey = *imageKey
		}
	}

	return item, nil
}
