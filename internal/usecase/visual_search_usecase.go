package usecase

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/infrastructure/imaging"
	"github.com/DRSN-tech/visual-search/internal/ranking"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/DRSN-tech/visual-search/pkg/tr"
	"github.com/google/uuid"
)

const emptyCorpusMessage = "No images in database to compare against. Please add some images first."

// VisualSearchUseCase оркестрирует пайплайн визуального поиска:
// предобработка -> векторизация (с fallback) -> ранжирование (с fallback-ярусами).
// Отказы провайдера и хранилища поглощаются внутри — наружу уходит либо
// результат (возможно деградированный), либо ошибка формы запроса.
type VisualSearchUseCase struct {
	embeddingRepo EmbeddingRepository
	productRepo   ProductRepository
	provider      EmbeddingProvider
	fallback      FallbackProvider
	imagesInfra   ImagesInfra
	outboxRepo    OutboxRepository
	imageRepo     ImageRepository
	txManager     tr.Manager
	logger        logger.Logger
	cfg           *cfg.SearchCfg
}

func NewVisualSearchUC(
	embeddingRepo EmbeddingRepository,
	productRepo ProductRepository,
	provider EmbeddingProvider,
	fallback FallbackProvider,
	imagesInfra ImagesInfra,
	outboxRepo OutboxRepository,
	imageRepo ImageRepository,
	txManager tr.Manager,
	logger logger.Logger,
	cfg *cfg.SearchCfg,
) *VisualSearchUseCase {
	return &VisualSearchUseCase{
		embeddingRepo: embeddingRepo,
		productRepo:   productRepo,
		provider:      provider,
		fallback:      fallback,
		imagesInfra:   imagesInfra,
		outboxRepo:    outboxRepo,
		imageRepo:     imageRepo,
		txManager:     txManager,
		logger:        logger,
		cfg:           cfg,
	}
}

// Search находит визуально похожие продукты по загруженному изображению.
func (u *VisualSearchUseCase) Search(ctx context.Context, req *SearchReq) (*SearchRes, error) {
	const op = "VisualSearchUseCase.Search"

	if len(req.Image.Data) == 0 {
		return nil, e.Wrap(op, e.ErrNoImageFile)
	}

	processed, err := imaging.Preprocess(req.Image.Data)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	query, degraded := u.embedWithFallback(ctx, processed)

	res := u.rank(ctx, query)
	res.Degraded = res.Degraded || degraded
	res.QueryEmbeddingLength = len(query)

	return res, nil
}

// AddEmbedding векторизует изображение продукта и сохраняет запись.
// Изображение, загруженное в хранилище, удаляется на любом пути отказа —
// осиротевших объектов после ошибки не остаётся.
func (u *VisualSearchUseCase) AddEmbedding(ctx context.Context, req *AddEmbeddingReq) (*AddEmbeddingRes, error) {
	const op = "VisualSearchUseCase.AddEmbedding"

	if len(req.Image.Data) == 0 {
		return nil, e.Wrap(op, e.ErrNoImageFile)
	}

	if req.ProductID <= 0 {
		return nil, e.Wrap(op, e.ErrProductIDRequired)
	}

	processed, err := imaging.Preprocess(req.Image.Data)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	vector, degraded := u.embedWithFallback(ctx, processed)

	imageKey, err := u.imagesInfra.UploadImage(ctx, &UploadImageReq{
		OwnerName: "embeddings",
		Image:     req.Image,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	record, err := u.storeEmbedding(ctx, req.ProductID, imageKey, vector, degraded)
	if err != nil {
		u.imagesInfra.CleanupImages([]string{imageKey})
		return nil, e.Wrap(op, err)
	}

	return &AddEmbeddingRes{
		RecordID:        record.ID,
		ProductID:       record.ProductID,
		ImageKey:        record.ImageKey,
		EmbeddingLength: len(record.Vector),
		Degraded:        degraded,
	}, nil
}

// CheckStatus возвращает диагностику хранимых записей: длины векторов
// и состояние привязки к продуктам.
func (u *VisualSearchUseCase) CheckStatus(ctx context.Context) (*StatusRes, error) {
	const op = "VisualSearchUseCase.CheckStatus"

	all, err := u.embeddingRepo.All(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	diagnostics := make([]EmbeddingDiagnostic, 0, len(all))
	for _, item := range all {
		d := EmbeddingDiagnostic{
			ID:              item.Record.ID,
			ProductID:       item.Record.ProductID,
			ImageKey:        item.Record.ImageKey,
			EmbeddingLength: len(item.Record.Vector),
			HasProduct:      item.Product != nil,
		}
		if item.Product != nil {
			d.ProductName = item.Product.Name
		}

		diagnostics = append(diagnostics, d)
	}

	res := &StatusRes{
		TotalEmbeddings: len(all),
		Embeddings:      diagnostics,
	}
	if len(all) == 0 {
		res.Message = "No embeddings found. Use the add-embedding endpoint to add some images first."
	}

	return res, nil
}

// BackfillEmbeddings довекторизует продукты каталога, у которых есть
// изображение, но нет записи эмбеддинга. Продукты обрабатываются параллельно
// с ограничением конкурентности; ошибка одного продукта не прерывает остальные.
func (u *VisualSearchUseCase) BackfillEmbeddings(ctx context.Context) (*BackfillRes, error) {
	const op = "VisualSearchUseCase.BackfillEmbeddings"

	products, err := u.productRepo.ListWithImages(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var (
		mu  sync.Mutex
		res BackfillRes
		wg  sync.WaitGroup
		sem = make(chan struct{}, u.cfg.BackfillWorkers)
	)

	for _, product := range products {
		product := product
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := u.backfillProduct(ctx, product)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case backfillDone:
				res.Processed++
			case backfillSkipped:
				res.Skipped++
			default:
				res.Failed++
			}
		}()
	}

	wg.Wait()
	return &res, nil
}

type backfillOutcome int

const (
	backfillDone backfillOutcome = iota
	backfillSkipped
	backfillFailed
)

// backfillProduct обрабатывает один продукт: пропускает уже векторизованные,
// скачивает изображение, векторизует и сохраняет запись.
func (u *VisualSearchUseCase) backfillProduct(ctx context.Context, product domain.Product) backfillOutcome {
	const op = "VisualSearchUseCase.backfillProduct"

	if _, err := u.embeddingRepo.ByProduct(ctx, product.ID); err == nil {
		return backfillSkipped
	}

	imageBytes, err := u.imageRepo.Download(ctx, product.ImageKey)
	if err != nil {
		u.logger.Warnf("backfill: download failed for product %d: %v", product.ID, e.Wrap(op, err))
		return backfillFailed
	}

	processed, err := imaging.Preprocess(imageBytes)
	if err != nil {
		u.logger.Warnf("backfill: preprocess failed for product %d: %v", product.ID, e.Wrap(op, err))
		return backfillFailed
	}

	vector, degraded := u.embedWithFallback(ctx, processed)

	if _, err := u.storeEmbedding(ctx, product.ID, product.ImageKey, vector, degraded); err != nil {
		u.logger.Warnf("backfill: store failed for product %d: %v", product.ID, e.Wrap(op, err))
		return backfillFailed
	}

	return backfillDone
}

// embedWithFallback пробует удалённую модель и безусловно переходит на
// локальный статистический вектор при любой ошибке основного пути.
// degraded=true означает случайную заглушку вместо осмысленного вектора.
func (u *VisualSearchUseCase) embedWithFallback(ctx context.Context, processed []byte) ([]float32, bool) {
	vector, err := u.provider.Embed(ctx, processed)
	if err == nil {
		return vector, false
	}

	u.logger.Warnf("primary embedding failed, using fallback method: %v", err)
	return u.fallback.Embed(processed)
}

// rank прогоняет запрос через ярусы ранжирования: полный перебор в памяти,
// затем аппроксимация на стороне БД, затем произвольные записи со случайными
// оценками. Каждый следующий ярус включается только после отказа предыдущего.
func (u *VisualSearchUseCase) rank(ctx context.Context, query []float32) *SearchRes {
	const op = "VisualSearchUseCase.rank"

	candidates, err := u.embeddingRepo.All(ctx)
	if err == nil {
		if len(candidates) == 0 {
			return &SearchRes{
				Results: []SearchMatch{},
				Tier:    TierEmpty,
				Message: emptyCorpusMessage,
			}
		}

		matches := ranking.TopK(query, candidates, u.cfg.TopK)
		return &SearchRes{
			Results: toSearchMatches(matches),
			Tier:    TierPrimary,
		}
	}

	u.logger.Warnf("in-memory ranking failed, trying database approximation: %v", e.Wrap(op, err))

	approx, err := u.embeddingRepo.RankApprox(ctx, query, u.cfg.TopK)
	if err == nil {
		return &SearchRes{
			Results: toSearchMatches(approx),
			Tier:    TierApprox,
		}
	}

	u.logger.Warnf("database approximation failed, returning random results: %v", e.Wrap(op, err))

	sample, err := u.embeddingRepo.Sample(ctx, u.cfg.TopK)
	if err != nil {
		u.logger.Errorf(e.Wrap(op, err), "all ranking tiers failed")
		sample = nil
	}

	results := make([]SearchMatch, 0, len(sample))
	for _, item := range sample {
		match := domain.RankedMatch{
			Record:  item.Record,
			Product: item.Product,
			// Синтетическая оценка в [0.5, 1.0) — сходства не отражает.
			Score: rand.Float64()*0.5 + 0.5,
		}
		results = append(results, toSearchMatch(match))
	}

	return &SearchRes{
		Results: results,
		Tier:    TierRandom,
	}
}

// storeEmbedding сохраняет запись и outbox-событие в одной транзакции.
func (u *VisualSearchUseCase) storeEmbedding(ctx context.Context, productID int64, imageKey string, vector []float32, degraded bool) (*domain.EmbeddingRecord, error) {
	record := domain.NewEmbeddingRecord(uuid.NewString(), productID, vector, imageKey)

	payload, err := json.Marshal(EmbeddingAddedPayload{
		RecordID:     record.ID,
		ProductID:    productID,
		ImageKey:     imageKey,
		VectorLength: len(vector),
		Degraded:     degraded,
	})
	if err != nil {
		return nil, err
	}

	err = u.txManager.Do(ctx, func(ctx context.Context) error {
		if err := u.embeddingRepo.Insert(ctx, record); err != nil {
			return err
		}

		_, err := u.outboxRepo.Create(ctx, &OutboxEvent{
			EventID:   uuid.NewString(),
			EventType: EmbeddingAdded,
			ProductID: productID,
			Payload:   payload,
			Status:    Pending,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func toSearchMatches(matches []domain.RankedMatch) []SearchMatch {
	result := make([]SearchMatch, 0, len(matches))
	for _, m := range matches {
		result = append(result, toSearchMatch(m))
	}
	return result
}

func toSearchMatch(m domain.RankedMatch) SearchMatch {
	match := SearchMatch{
		RecordID:   m.Record.ID,
		ProductID:  m.Record.ProductID,
		ImageKey:   m.Record.ImageKey,
		Similarity: m.Score,
	}
	if m.Product != nil {
		match.ProductName = m.Product.Name
		match.Price = m.Product.Price
	}

	return match
}
