package http

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}

type fakeSearchUC struct {
	searchRes *usecase.SearchRes
	searchErr error
	addRes    *usecase.AddEmbeddingRes
	addErr    error
	statusRes *usecase.StatusRes

	lastSearchReq *usecase.SearchReq
	lastAddReq    *usecase.AddEmbeddingReq
}

func (f *fakeSearchUC) Search(_ context.Context, req *usecase.SearchReq) (*usecase.SearchRes, error) {
	f.lastSearchReq = req
	return f.searchRes, f.searchErr
}

func (f *fakeSearchUC) AddEmbedding(_ context.Context, req *usecase.AddEmbeddingReq) (*usecase.AddEmbeddingRes, error) {
	f.lastAddReq = req
	return f.addRes, f.addErr
}

func (f *fakeSearchUC) CheckStatus(context.Context) (*usecase.StatusRes, error) {
	return f.statusRes, nil
}

func (f *fakeSearchUC) BackfillEmbeddings(context.Context) (*usecase.BackfillRes, error) {
	return &usecase.BackfillRes{Processed: 2, Skipped: 1}, nil
}

func newTestRouter(uc usecase.VisualSearchUC) *chi.Mux {
	r := chi.NewRouter()
	handler := NewVisualSearchHandler(uc, &cfg.MinIOCfg{MaxImageSize: 5 << 20}, nopLogger{})
	r.Route("/api/v1", func(v1 chi.Router) {
		registerVisualSearchRoutes(v1, handler)
	})
	return r
}

func pngUpload(t *testing.T, fields map[string]string, fileField string) (*bytes.Buffer, string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 128, A: 255})
		}
	}
	var imgBuf bytes.Buffer
	require.NoError(t, png.Encode(&imgBuf, img))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, val := range fields {
		require.NoError(t, writer.WriteField(key, val))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, "query.png")
		require.NoError(t, err)
		_, err = part.Write(imgBuf.Bytes())
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestSearchEndpointReturnsMatches(t *testing.T) {
	uc := &fakeSearchUC{
		searchRes: &usecase.SearchRes{
			Results: []usecase.SearchMatch{
				{RecordID: "rec-1", ProductID: 1, ProductName: "chair", Price: 9900, Similarity: 0.93},
			},
			Tier:                 usecase.TierPrimary,
			QueryEmbeddingLength: 512,
		},
	}
	router := newTestRouter(uc)

	body, contentType := pngUpload(t, nil, "image")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visual-search/search", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "primary", res.Tier)
	require.Len(t, res.Results, 1)
	require.Equal(t, "rec-1", res.Results[0].RecordID)
	require.InDelta(t, 0.93, res.Results[0].Similarity, 1e-9)

	require.NotNil(t, uc.lastSearchReq)
	require.Equal(t, "image/png", uc.lastSearchReq.Image.MimeType)
}

func TestSearchEndpointRejectsMissingFile(t *testing.T) {
	router := newTestRouter(&fakeSearchUC{})

	body, contentType := pngUpload(t, nil, "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visual-search/search", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpointRejectsNonMultipart(t *testing.T) {
	router := newTestRouter(&fakeSearchUC{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/visual-search/search", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpointRejectsOversizedBody(t *testing.T) {
	router := newTestRouter(&fakeSearchUC{})

	// MaxBytesReader в хендлере ограничивает тело MaxImageSize+1MB (6MB здесь).
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "huge.bin")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xAB}, 7<<20))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/visual-search/search", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAddEmbeddingEndpointCreated(t *testing.T) {
	uc := &fakeSearchUC{
		addRes: &usecase.AddEmbeddingRes{
			RecordID:        "rec-1",
			ProductID:       7,
			ImageKey:        "embeddings/query-abc.png",
			EmbeddingLength: 512,
		},
	}
	router := newTestRouter(uc)

	body, contentType := pngUpload(t, map[string]string{"product_id": "7"}, "image")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visual-search/add-embedding", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res AddEmbeddingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, int64(7), res.ProductID)
	require.Equal(t, int64(7), uc.lastAddReq.ProductID)
}

func TestAddEmbeddingEndpointRejectsMissingProductID(t *testing.T) {
	uc := &fakeSearchUC{}
	router := newTestRouter(uc)

	body, contentType := pngUpload(t, nil, "image")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visual-search/add-embedding", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Nil(t, uc.lastAddReq)
}

func TestCheckDatabaseEndpoint(t *testing.T) {
	uc := &fakeSearchUC{
		statusRes: &usecase.StatusRes{
			TotalEmbeddings: 1,
			Embeddings: []usecase.EmbeddingDiagnostic{
				{ID: "rec-1", ProductID: 1, EmbeddingLength: 512, HasProduct: true, ProductName: "chair"},
			},
		},
	}
	router := newTestRouter(uc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/visual-search/check-database", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, 1, res.TotalEmbeddings)
	require.True(t, res.Embeddings[0].HasProduct)
}

func TestBackfillEndpoint(t *testing.T) {
	router := newTestRouter(&fakeSearchUC{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/visual-search/backfill", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res BackfillResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, 2, res.Processed)
	require.Equal(t, 1, res.Skipped)
}

func TestParsePriceToCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"599.99", 59999, false},
		{"600", 60000, false},
		{"0.01", 1, false},
		{"-1", 0, true},
		{"1.999", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		got, err := parsePriceToCents(tc.in)
		if tc.wantErr {
			require.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}
