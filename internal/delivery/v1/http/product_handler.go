package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	cfg            *cfg.MinIOCfg
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, cfg *cfg.MinIOCfg, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, cfg: cfg, logger: logger}
}

// ProductResponse — состояние продукта после регистрации.
type ProductResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	CategoryID int64  `json:"category_id"`
	ImageKey   string `json:"image_key,omitempty"`
}

// ProductInfoResponse — информация об одном продукте.
type ProductInfoResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CategoryName string `json:"category_name"`
	Price        int64  `json:"price"`
}

// GetProductsResponse — ответ на запрос информации о продуктах.
type GetProductsResponse struct {
	Products []ProductInfoResponse `json:"products"`
	NotFound []int64               `json:"not_found,omitempty"`
}

// registerNewProduct
//
//	@Summary		Регистрация нового товара
//	@Description	Создает или обновляет товар каталога с опциональным изображением
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name		formData	string	true	"Название товара"
//	@Param			category	formData	string	true	"Категория"
//	@Param			price		formData	number	true	"Цена"
//	@Param			image		formData	file	false	"Изображение товара"
//	@Success		201			{object}	ProductResponse	"Успешное создание"
//	@Failure		400			{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/products [post]
func (p *ProductHandler) registerNewProduct(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 32 << 20

	r.Body = http.MaxBytesReader(w, r.Body, p.cfg.MaxImageSize+1<<20)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	prMeta, err := parseProductForm(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	// Изображение опционально: товар без изображения просто не попадёт в backfill.
	image, err := parseImageFile(r, "image", p.cfg.MaxImageSize)
	if err != nil && !errors.Is(err, e.ErrNoImageFile) {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	snapshot, err := p.productUsecase.RegisterNewProduct(r.Context(), usecase.NewAddNewProductReq(prMeta.Name, prMeta.CategoryName, prMeta.Price, image))
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, ProductResponse{
		ID:         snapshot.ID,
		Name:       snapshot.Name,
		Price:      snapshot.Price,
		CategoryID: snapshot.CategoryID,
		ImageKey:   snapshot.ImageKey,
	})
}

// getProducts
//
//	@Summary		Информация о товарах
//	@Description	Возвращает данные товаров по списку идентификаторов
//	@Tags			products
//	@Produce		json
//	@Param			ids	query		string	true	"Идентификаторы через запятую"
//	@Success		200	{object}	GetProductsResponse	"Данные товаров"
//	@Failure		400	{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/products [get]
func (p *ProductHandler) getProducts(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.GetProductsInfo(r.Context(), usecase.NewGetProductsReq(ids))
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	products := make([]ProductInfoResponse, 0, len(res.Products))
	for _, info := range res.Products {
		products = append(products, ProductInfoResponse{
			ID:           info.ID,
			Name:         info.Name,
			CategoryName: info.CategoryName,
			Price:        info.Price,
		})
	}

	WriteSuccess(w, http.StatusOK, GetProductsResponse{
		Products: products,
		NotFound: res.NotFoundProducts,
	})
}

// parseIDList разбирает список идентификаторов "1,2,3" из query-параметра.
func parseIDList(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, e.ErrMissingFields
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, e.ErrMissingFields
		}

		ids = append(ids, id)
	}

	return ids, nil
}
