package http

import (
	"net/http"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/logger"
)

type VisualSearchHandler struct {
	searchUsecase usecase.VisualSearchUC
	cfg           *cfg.MinIOCfg
	logger        logger.Logger
}

func NewVisualSearchHandler(searchUsecase usecase.VisualSearchUC, cfg *cfg.MinIOCfg, logger logger.Logger) *VisualSearchHandler {
	return &VisualSearchHandler{searchUsecase: searchUsecase, cfg: cfg, logger: logger}
}

// SearchMatchResponse — один результат поиска в JSON-ответе.
type SearchMatchResponse struct {
	RecordID    string  `json:"record_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Price       int64   `json:"price,omitempty"`
	ImageKey    string  `json:"image_key,omitempty"`
	Similarity  float64 `json:"similarity"`
}

// SearchResponse — ответ визуального поиска.
type SearchResponse struct {
	Results              []SearchMatchResponse `json:"results"`
	Tier                 string                `json:"tier"`
	Degraded             bool                  `json:"degraded"`
	QueryEmbeddingLength int                   `json:"query_embedding_length"`
	Message              string                `json:"message,omitempty"`
}

// AddEmbeddingResponse — ответ на добавление эмбеддинга.
type AddEmbeddingResponse struct {
	RecordID        string `json:"record_id"`
	ProductID       int64  `json:"product_id"`
	ImageKey        string `json:"image_key"`
	EmbeddingLength int    `json:"embedding_length"`
	Degraded        bool   `json:"degraded"`
}

// EmbeddingDiagnosticResponse — диагностика одной записи.
type EmbeddingDiagnosticResponse struct {
	ID              string `json:"id"`
	ProductID       int64  `json:"product_id"`
	ProductName     string `json:"product_name,omitempty"`
	ImageKey        string `json:"image_key,omitempty"`
	EmbeddingLength int    `json:"embedding_length"`
	HasProduct      bool   `json:"has_product"`
}

// StatusResponse — сводка состояния хранилища эмбеддингов.
type StatusResponse struct {
	TotalEmbeddings int                           `json:"total_embeddings"`
	Embeddings      []EmbeddingDiagnosticResponse `json:"embeddings"`
	Message         string                        `json:"message,omitempty"`
}

// BackfillResponse — итоги довекторизации каталога.
type BackfillResponse struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// search
//
//	@Summary		Визуальный поиск похожих товаров
//	@Description	Находит до 10 визуально похожих товаров по загруженному изображению
//	@Tags			visual-search
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Изображение для поиска"
//	@Success		200		{object}	SearchResponse	"Результаты поиска"
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/visual-search/search [post]
func (h *VisualSearchHandler) search(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 32 << 20

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxImageSize+1<<20)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		h.logger.Warnf("%d search: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	image, err := parseImageFile(r, "image", h.cfg.MaxImageSize)
	if err != nil {
		h.logger.Warnf("%d search: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := h.searchUsecase.Search(r.Context(), usecase.NewSearchReq(*image))
	if err != nil {
		h.logger.Warnf("search failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSearchResponse(res))
}

// addEmbedding
//
//	@Summary		Добавление эмбеддинга товара
//	@Description	Векторизует изображение и привязывает его к товару каталога
//	@Tags			visual-search
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			product_id	formData	integer	true	"Идентификатор товара"
//	@Param			image		formData	file	true	"Изображение товара"
//	@Success		201			{object}	AddEmbeddingResponse	"Запись создана"
//	@Failure		400			{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/visual-search/add-embedding [post]
func (h *VisualSearchHandler) addEmbedding(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 32 << 20

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxImageSize+1<<20)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		h.logger.Warnf("%d add-embedding: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	image, err := parseImageFile(r, "image", h.cfg.MaxImageSize)
	if err != nil {
		h.logger.Warnf("%d add-embedding: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	productID, err := parseProductIDField(r)
	if err != nil {
		h.logger.Warnf("%d add-embedding: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := h.searchUsecase.AddEmbedding(r.Context(), usecase.NewAddEmbeddingReq(productID, *image))
	if err != nil {
		h.logger.Warnf("add-embedding failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, AddEmbeddingResponse{
		RecordID:        res.RecordID,
		ProductID:       res.ProductID,
		ImageKey:        res.ImageKey,
		EmbeddingLength: res.EmbeddingLength,
		Degraded:        res.Degraded,
	})
}

// checkDatabase
//
//	@Summary		Диагностика хранилища эмбеддингов
//	@Description	Возвращает список записей с длинами векторов и привязкой к товарам
//	@Tags			visual-search
//	@Produce		json
//	@Success		200	{object}	StatusResponse	"Состояние хранилища"
//	@Router			/visual-search/check-database [get]
func (h *VisualSearchHandler) checkDatabase(w http.ResponseWriter, r *http.Request) {
	res, err := h.searchUsecase.CheckStatus(r.Context())
	if err != nil {
		h.logger.Warnf("check-database failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	diagnostics := make([]EmbeddingDiagnosticResponse, 0, len(res.Embeddings))
	for _, d := range res.Embeddings {
		diagnostics = append(diagnostics, EmbeddingDiagnosticResponse{
			ID:              d.ID,
			ProductID:       d.ProductID,
			ProductName:     d.ProductName,
			ImageKey:        d.ImageKey,
			EmbeddingLength: d.EmbeddingLength,
			HasProduct:      d.HasProduct,
		})
	}

	WriteSuccess(w, http.StatusOK, StatusResponse{
		TotalEmbeddings: res.TotalEmbeddings,
		Embeddings:      diagnostics,
		Message:         res.Message,
	})
}

// backfill
//
//	@Summary		Довекторизация каталога
//	@Description	Создаёт эмбеддинги для товаров с изображением, но без записи
//	@Tags			visual-search
//	@Produce		json
//	@Success		200	{object}	BackfillResponse	"Итоги обработки"
//	@Router			/visual-search/backfill [post]
func (h *VisualSearchHandler) backfill(w http.ResponseWriter, r *http.Request) {
	res, err := h.searchUsecase.BackfillEmbeddings(r.Context())
	if err != nil {
		h.logger.Warnf("backfill failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, BackfillResponse{
		Processed: res.Processed,
		Skipped:   res.Skipped,
		Failed:    res.Failed,
	})
}

func toSearchResponse(res *usecase.SearchRes) SearchResponse {
	results := make([]SearchMatchResponse, 0, len(res.Results))
	for _, m := range res.Results {
		results = append(results, SearchMatchResponse{
			RecordID:    m.RecordID,
			ProductID:   m.ProductID,
			ProductName: m.ProductName,
			Price:       m.Price,
			ImageKey:    m.ImageKey,
			Similarity:  m.Similarity,
		})
	}

	return SearchResponse{
		Results:              results,
		Tier:                 string(res.Tier),
		Degraded:             res.Degraded,
		QueryEmbeddingLength: res.QueryEmbeddingLength,
		Message:              res.Message,
	}
}
