package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/DRSN-tech/visual-search/pkg/tr"
)

// ProductUseCase реализует бизнес-логику управления каталогом продуктов,
// к которому привязываются эмбеддинги изображений.
type ProductUseCase struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	imagesInfra  ImagesInfra
	cacheRepo    CacheRepository
	txManager    tr.Manager
	logger       logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	imagesInfra ImagesInfra,
	cacheRepo CacheRepository,
	txManager tr.Manager,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		imagesInfra:  imagesInfra,
		cacheRepo:    cacheRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// RegisterNewProduct идемпотентно регистрирует продукт с категорией и
// опциональным изображением. Загруженное изображение удаляется, если
// транзакция не прошла.
func (p *ProductUseCase) RegisterNewProduct(ctx context.Context, req *AddNewProductReq) (*ProductSnapshot, error) {
	const op = "ProductUseCase.RegisterNewProduct"

	if err := p.validateProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var imageKey string
	if req.Image != nil {
		key, err := p.imagesInfra.UploadImage(ctx, &UploadImageReq{
			OwnerName: req.Name,
			Image:     *req.Image,
		})
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		imageKey = key
	}

	var snapshot *ProductSnapshot
	err := p.txManager.Do(ctx, func(ctx context.Context) error {
		category, err := p.categoryRepo.Create(ctx, domain.NewCategory(req.CategoryName))
		if err != nil {
			return err
		}

		product := domain.NewProduct(req.Name, req.Price, category.ID)
		product.ImageKey = imageKey

		res, err := p.productRepo.Upsert(ctx, product)
		if err != nil {
			return err
		}

		snapshot = res.Product
		return nil
	})
	if err != nil {
		if imageKey != "" {
			p.logger.Warnf("cleaning up orphaned image after transaction failure. product_name: %s, error: %v", req.Name, err)
			p.imagesInfra.CleanupImages([]string{imageKey})
		}
		return nil, e.Wrap(op, err)
	}

	// Удаление из кэша старых данных товара
	if err := p.cacheRepo.DeleteProducts(ctx, []int64{snapshot.ID}); err != nil {
		p.logger.Warnf("failed to invalidate product cache: %v", e.Wrap(op, err))
	}

	return snapshot, nil
}

// GetProductsInfo возвращает информацию о продуктах по их идентификаторам,
// сначала через кэш, затем из БД с фоновым пополнением кэша.
func (p *ProductUseCase) GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error) {
	const op = "ProductUseCase.GetProductsInfo"

	if len(req.IDs) == 0 {
		return nil, e.Wrap(op, e.ErrMissingFields)
	}

	cached, err := p.cacheRepo.GetProducts(ctx, req.IDs)
	if err != nil {
		cached = nil
	}

	var nonCacheable []int64
	for _, id := range req.IDs {
		if _, ok := cached[id]; !ok {
			nonCacheable = append(nonCacheable, id)
		}
	}

	var fromDB []ProductInfo
	if len(nonCacheable) > 0 {
		fromDB, err = p.productRepo.GetProductsInfo(ctx, nonCacheable)
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		// Фоновое добавление продуктов в кэш
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := p.cacheRepo.SetProducts(bgCtx, fromDB); err != nil {
				p.logger.Warnf("failed to cache products in background: %v", e.Wrap(op, err))
			}
		}()
	}

	dbMap := make(map[int64]ProductInfo, len(fromDB))
	for _, info := range fromDB {
		dbMap[info.ID] = info
	}

	result := make([]ProductInfo, 0, len(req.IDs))
	notFound := make([]int64, 0)
	for _, id := range req.IDs {
		if pr, ok := cached[id]; ok {
			result = append(result, pr)
		} else if pr, ok := dbMap[id]; ok {
			result = append(result, pr)
		} else {
			notFound = append(notFound, id)
		}
	}

	return NewGetProductsRes(result, notFound), nil
}

// validateProduct проверяет корректность входных данных запроса на добавление продукта.
func (p *ProductUseCase) validateProduct(req *AddNewProductReq) error {
	if strings.TrimSpace(req.Name) == "" {
		return e.ErrProductNameRequired
	}

	if strings.TrimSpace(req.CategoryName) == "" {
		return e.ErrMissingFields
	}

	if req.Price <= 0 {
		return e.ErrInvalidPrice
	}

	return nil
}
