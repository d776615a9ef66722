package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/stretchr/testify/require"
)

// --- фейки ---

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}

type fakeTxManager struct {
	err error
}

func (f *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type fakeProvider struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeProvider) Embed(context.Context, []byte) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

type fakeFallback struct {
	vector   []float32
	degraded bool
	calls    int
}

func (f *fakeFallback) Embed([]byte) ([]float32, bool) {
	f.calls++
	return f.vector, f.degraded
}

type fakeEmbeddingRepo struct {
	all       []domain.CatalogEmbedding
	allErr    error
	approx    []domain.RankedMatch
	approxErr error
	sample    []domain.CatalogEmbedding
	sampleErr error
	byProduct map[int64]*domain.EmbeddingRecord
	insertErr error
	inserted  []*domain.EmbeddingRecord
}

func (f *fakeEmbeddingRepo) Insert(_ context.Context, record *domain.EmbeddingRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, record)
	return nil
}

func (f *fakeEmbeddingRepo) All(context.Context) ([]domain.CatalogEmbedding, error) {
	return f.all, f.allErr
}

func (f *fakeEmbeddingRepo) ByProduct(_ context.Context, productID int64) (*domain.EmbeddingRecord, error) {
	if rec, ok := f.byProduct[productID]; ok {
		return rec, nil
	}
	return nil, e.ErrEmbeddingNotFound
}

func (f *fakeEmbeddingRepo) RankApprox(context.Context, []float32, int) ([]domain.RankedMatch, error) {
	return f.approx, f.approxErr
}

func (f *fakeEmbeddingRepo) Sample(context.Context, int) ([]domain.CatalogEmbedding, error) {
	return f.sample, f.sampleErr
}

type fakeProductRepo struct {
	products []domain.Product
	listErr  error
}

func (f *fakeProductRepo) Upsert(context.Context, *domain.Product) (*UpsertProductRes, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProductRepo) GetProductsInfo(context.Context, []int64) ([]ProductInfo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProductRepo) ListWithImages(context.Context) ([]domain.Product, error) {
	return f.products, f.listErr
}

type fakeImagesInfra struct {
	uploadKey  string
	uploadErr  error
	uploads    []UploadImageReq
	cleanedUp  [][]string
}

func (f *fakeImagesInfra) UploadImage(_ context.Context, req *UploadImageReq) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, *req)
	return f.uploadKey, nil
}

func (f *fakeImagesInfra) CleanupImages(keys []string) {
	f.cleanedUp = append(f.cleanedUp, keys)
}

type fakeOutboxRepo struct {
	created   []*OutboxEvent
	createErr error
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, event)
	return event, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(context.Context, int64) error {
	return nil
}

type fakeImageRepo struct {
	objects map[string][]byte
}

func (f *fakeImageRepo) Upload(context.Context, *domain.Image) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeImageRepo) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (f *fakeImageRepo) Delete(context.Context, string) error {
	return nil
}

// --- сборка ---

type ucFixture struct {
	embeddings *fakeEmbeddingRepo
	products   *fakeProductRepo
	provider   *fakeProvider
	fallback   *fakeFallback
	images     *fakeImagesInfra
	outbox     *fakeOutboxRepo
	imageRepo  *fakeImageRepo
	tx         *fakeTxManager
	uc         *VisualSearchUseCase
}

func newFixture() *ucFixture {
	f := &ucFixture{
		embeddings: &fakeEmbeddingRepo{byProduct: map[int64]*domain.EmbeddingRecord{}},
		products:   &fakeProductRepo{},
		provider:   &fakeProvider{vector: []float32{1, 0, 0, 0, 0}},
		fallback:   &fakeFallback{vector: make([]float32, 512)},
		images:     &fakeImagesInfra{uploadKey: "embeddings/test-key.jpg"},
		outbox:     &fakeOutboxRepo{},
		imageRepo:  &fakeImageRepo{objects: map[string][]byte{}},
		tx:         &fakeTxManager{},
	}

	f.uc = NewVisualSearchUC(
		f.embeddings,
		f.products,
		f.provider,
		f.fallback,
		f.images,
		f.outbox,
		f.imageRepo,
		f.tx,
		nopLogger{},
		&cfg.SearchCfg{TopK: 10, FallbackDim: 512, BackfillWorkers: 4},
	)

	return f
}

func testImage(t *testing.T) UploadedImage {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return UploadedImage{
		Data:     buf.Bytes(),
		MimeType: "image/png",
		Size:     int64(buf.Len()),
		Name:     "test.png",
	}
}

func stored(id string, productID int64, vector []float32, withProduct bool) domain.CatalogEmbedding {
	c := domain.CatalogEmbedding{
		Record: domain.EmbeddingRecord{
			ID:        id,
			ProductID: productID,
			Vector:    vector,
			ImageKey:  "embeddings/" + id + ".jpg",
		},
	}
	if withProduct {
		c.Product = &domain.Product{ID: productID, Name: "product", Price: 9900}
	}
	return c
}

// --- Search ---

func TestSearchRejectsMissingImage(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Search(context.Background(), &SearchReq{})
	require.ErrorIs(t, err, e.ErrNoImageFile)
}

func TestSearchPreprocessFailureIsFatal(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Search(context.Background(), &SearchReq{
		Image: UploadedImage{Data: []byte("not an image")},
	})
	require.Error(t, err)
}

func TestSearchExactMatchScoresOne(t *testing.T) {
	f := newFixture()
	f.provider.vector = []float32{1, 0, 0, 0, 0}
	f.embeddings.all = []domain.CatalogEmbedding{
		stored("rec-1", 1, []float32{1, 0, 0, 0, 0}, true),
	}

	res, err := f.uc.Search(context.Background(), &SearchReq{Image: testImage(t)})
	require.NoError(t, err)
	require.Equal(t, TierPrimary, res.Tier)
	require.False(t, res.Degraded)
	require.Equal(t, 5, res.QueryEmbeddingLength)
	require.Len(t, res.Results, 1)
	require.Equal(t, "rec-1", res.Results[0].RecordID)
	require.InDelta(t, 1.0, res.Results[0].Similarity, 1e-9)
}

func TestSearchOrthogonalOrdering(t *testing.T) {
	f := newFixture()
	f.provider.vector = []float32{1, 0, 0, 0, 0}
	f.embeddings.all = []domain.CatalogEmbedding{
		stored("aligned", 1, []float32{1, 0, 0, 0, 0}, true),
		stored("orthogonal", 2, []float32{0, 1, 0, 0, 0}, true),
	}

	res, err := f.uc.Search(context.Background(), &SearchReq{Image: testImage(t)})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	require.Equal(t, "aligned", res.Results[0].RecordID)
	require.InDelta(t, 1.0, res.Results[0].Similarity, 1e-9)
	require.Equal(t, "orthogonal", res.Results[1].RecordID)
	require.InDelta(t, 0.0, res.Results[1].Similarity, 1e-9)
}

func TestSearchUsesFallbackWhenProviderFails(t *testing.T) {
	f := newFixture()
	f.provider.err = errors.New("provider down")
	f.fallback.vector = []float32{1, 0, 0, 0, 0}
	f.embeddings.all = []domain.CatalogEmbedding{
		stored("rec-1", 1, []float32{1, 0, 0, 0, 0}, true),
	}

	res, err := f.uc.Search(context.Background(), &SearchReq{Image: testImage(t)})
	require.NoError(t, err)
	require.Equal(t, 1, f.fallback.calls)
	require.Equal(t, TierPrimary, res.Tier)
	require.False(t, res.Degraded)
	require.InDelta(t, 1.0, res.Results[0].Similarity, 1e-9)
}

func TestSearchMarksDegradedQuery(t *testing.T) {
	f := newFixture()
	f.provider.err = errors.New("provider down")
	f.fallback.degraded = true
	f.embeddings.all = []domain.CatalogEmbedding{
		stored("rec-1", 1, []float32{1, 0}, true),
	}

	res, err := f.uc.Search(context.Background(), &SearchReq{Image: testImage(t)})
	require.NoError(t, err)
	require.True(t, res.Degraded)
}

func TestSearchEmptyCorpusIsSuccess(t *testing.T) {
	f := newFixture()

	res, err := f.uc.Search(context.Background(), &SearchReq{Image: testImage(t)})
	require.NoError(t, err)
	require.Equal(t, TierEmpty, res.Tier)
	require.Empty(t, res.Results)
	require.NotEmpty(t, res.Message)
}

func TestSearchFiltersOrphanedRecords(t *testing.T) {
	f := newFixture()
	f.provider.vector = []float32{1, 0}
	f.embeddings.all = []domain.CatalogEmbedding{
		stored("orphan", 42, []float32{1, 0}, false),
		stored("linked", 1, []float32{0, 1}, true),
	}

	res, err := f.uc.Search(context.Background(), &SearchReq{Image: testImage(t)})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	require.Equal(t, "linked", res.Results[0].RecordID)
}

func TestSearchFallsBackToApproxTier(t *testing.T) {
	f := newFixture()
	f.embeddings.allErr = errors.New("store scan failed")
	f.embeddings.approx = []domain.RankedMatch{
		{
			Record:  domain.EmbeddingRecord{ID: "rec-1", ProductID: 1},
			Product: &domain.Product{ID: 1, Name: "product"},
			Score:   0.75,
		},
	}

	res, err := f.uc.Search(context.Background(), &SearchReq{Image: testImage(t)})
	require.NoError(t, err)
	require.Equal(t, TierApprox, res.Tier)
	require.Len(t, res.Results, 1)
	require.InDelta(t, 0.75, res.Results[0].Similarity, 1e-9)
}

func TestSearchFallsBackToRandomTier(t *testing.T) {
	f := newFixture()
	f.embeddings.allErr = errors.New("store scan failed")
	f.embeddings.approxErr = errors.New("aggregation failed")
	f.embeddings.sample = []domain.CatalogEmbedding{
		stored("rec-1", 1, []float32{1}, true),
		stored("rec-2", 2, []float32{1}, true),
	}

	res, err := f.uc.Search(context.Background(), &SearchReq{Image: testImage(t)})
	require.NoError(t, err)
	require.Equal(t, TierRandom, res.Tier)
	require.Len(t, res.Results, 2)
	for _, match := range res.Results {
		require.GreaterOrEqual(t, match.Similarity, 0.5)
		require.Less(t, match.Similarity, 1.0)
	}
}

func TestSearchSurvivesAllTiersFailing(t *testing.T) {
	f := newFixture()
	f.embeddings.allErr = errors.New("store scan failed")
	f.embeddings.approxErr = errors.New("aggregation failed")
	f.embeddings.sampleErr = errors.New("sample failed")

	res, err := f.uc.Search(context.Background(), &SearchReq{Image: testImage(t)})
	require.NoError(t, err)
	require.Equal(t, TierRandom, res.Tier)
	require.Empty(t, res.Results)
}

// --- AddEmbedding ---

func TestAddEmbeddingRejectsMissingProductID(t *testing.T) {
	f := newFixture()

	_, err := f.uc.AddEmbedding(context.Background(), &AddEmbeddingReq{
		Image: testImage(t),
	})
	require.ErrorIs(t, err, e.ErrProductIDRequired)

	// Ничего не загружено — чистить нечего.
	require.Empty(t, f.images.uploads)
	require.Empty(t, f.images.cleanedUp)
	require.Empty(t, f.embeddings.inserted)
}

func TestAddEmbeddingRejectsMissingImage(t *testing.T) {
	f := newFixture()

	_, err := f.uc.AddEmbedding(context.Background(), &AddEmbeddingReq{ProductID: 1})
	require.ErrorIs(t, err, e.ErrNoImageFile)
}

func TestAddEmbeddingStoresRecordAndOutboxEvent(t *testing.T) {
	f := newFixture()
	f.provider.vector = []float32{0.1, 0.2, 0.3}

	res, err := f.uc.AddEmbedding(context.Background(), &AddEmbeddingReq{
		ProductID: 7,
		Image:     testImage(t),
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), res.ProductID)
	require.Equal(t, "embeddings/test-key.jpg", res.ImageKey)
	require.Equal(t, 3, res.EmbeddingLength)
	require.False(t, res.Degraded)

	require.Len(t, f.embeddings.inserted, 1)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, f.embeddings.inserted[0].Vector)

	require.Len(t, f.outbox.created, 1)
	require.Equal(t, EmbeddingAdded, f.outbox.created[0].EventType)

	var payload EmbeddingAddedPayload
	require.NoError(t, json.Unmarshal(f.outbox.created[0].Payload, &payload))
	require.Equal(t, res.RecordID, payload.RecordID)
	require.Equal(t, int64(7), payload.ProductID)
	require.Equal(t, 3, payload.VectorLength)

	require.Empty(t, f.images.cleanedUp)
}

func TestAddEmbeddingCleansUpImageOnStoreFailure(t *testing.T) {
	f := newFixture()
	f.embeddings.insertErr = errors.New("insert failed")

	_, err := f.uc.AddEmbedding(context.Background(), &AddEmbeddingReq{
		ProductID: 1,
		Image:     testImage(t),
	})
	require.Error(t, err)
	require.Len(t, f.images.cleanedUp, 1)
	require.Equal(t, []string{"embeddings/test-key.jpg"}, f.images.cleanedUp[0])
}

func TestAddEmbeddingCleansUpImageOnTxFailure(t *testing.T) {
	f := newFixture()
	f.tx.err = errors.New("tx begin failed")

	_, err := f.uc.AddEmbedding(context.Background(), &AddEmbeddingReq{
		ProductID: 1,
		Image:     testImage(t),
	})
	require.Error(t, err)
	require.Len(t, f.images.cleanedUp, 1)
}

// --- CheckStatus ---

func TestCheckStatusDiagnostics(t *testing.T) {
	f := newFixture()
	f.embeddings.all = []domain.CatalogEmbedding{
		stored("rec-1", 1, []float32{1, 2, 3}, true),
		stored("orphan", 42, []float32{1}, false),
	}

	res, err := f.uc.CheckStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.TotalEmbeddings)

	require.Equal(t, "rec-1", res.Embeddings[0].ID)
	require.Equal(t, 3, res.Embeddings[0].EmbeddingLength)
	require.True(t, res.Embeddings[0].HasProduct)
	require.Equal(t, "product", res.Embeddings[0].ProductName)

	require.False(t, res.Embeddings[1].HasProduct)
	require.Empty(t, res.Embeddings[1].ProductName)
}

func TestCheckStatusEmptyStore(t *testing.T) {
	f := newFixture()

	res, err := f.uc.CheckStatus(context.Background())
	require.NoError(t, err)
	require.Zero(t, res.TotalEmbeddings)
	require.NotEmpty(t, res.Message)
}

// --- BackfillEmbeddings ---

func TestBackfillSkipsFailsAndProcesses(t *testing.T) {
	f := newFixture()
	f.provider.vector = []float32{1, 2, 3}

	img := testImage(t)
	f.imageRepo.objects["products/ok.png"] = img.Data

	f.products.products = []domain.Product{
		{ID: 1, Name: "already", ImageKey: "products/already.png"},
		{ID: 2, Name: "missing-object", ImageKey: "products/missing.png"},
		{ID: 3, Name: "fresh", ImageKey: "products/ok.png"},
	}
	f.embeddings.byProduct[1] = &domain.EmbeddingRecord{ID: "existing", ProductID: 1}

	res, err := f.uc.BackfillEmbeddings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, 1, res.Failed)

	require.Len(t, f.embeddings.inserted, 1)
	require.Equal(t, int64(3), f.embeddings.inserted[0].ProductID)
	require.Equal(t, "products/ok.png", f.embeddings.inserted[0].ImageKey)
}
