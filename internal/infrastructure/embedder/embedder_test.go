package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}

func newTestEmbedder(url string, maxRetries int) *HFEmbedder {
	return NewHFEmbedder(&cfg.EmbedderCfg{
		URL:            url,
		Token:          "test-token",
		RequestTimeout: 2 * time.Second,
		MaxRetries:     maxRetries,
	}, nopLogger{})
}

func TestEmbedFlatArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body struct {
			Inputs string `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotEmpty(t, body.Inputs)

		json.NewEncoder(w).Encode([]float32{0.1, 0.2, 0.3})
	}))
	defer srv.Close()

	vector, err := newTestEmbedder(srv.URL, 3).Embed(context.Background(), []byte("image-bytes"))
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestEmbedNestedArrayFlattened(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]float32{{1, 2}, {3, 4}})
	}))
	defer srv.Close()

	vector, err := newTestEmbedder(srv.URL, 3).Embed(context.Background(), []byte("x"))
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, vector)
}

func TestEmbedNonSuccessStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL, 1).Embed(context.Background(), []byte("x"))
	require.Error(t, err)
	require.EqualValues(t, 1, calls.Load())
}

func TestEmbedInvalidBodyNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"error": "model loading"})
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL, 3).Embed(context.Background(), []byte("x"))
	require.ErrorIs(t, err, e.ErrInvalidProviderBody)
	require.EqualValues(t, 1, calls.Load())
}

func TestEmbedMissingToken(t *testing.T) {
	emb := NewHFEmbedder(&cfg.EmbedderCfg{
		URL:            "http://127.0.0.1:0",
		RequestTimeout: time.Second,
		MaxRetries:     3,
	}, nopLogger{})

	_, err := emb.Embed(context.Background(), []byte("x"))
	require.ErrorIs(t, err, e.ErrNoTokenConfigured)
}

func TestEmbedRejectsEmptyVectorBody(t *testing.T) {
	for _, body := range []string{`null`, `[]`, `[[]]`} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Write([]byte(body))
		}))

		vector, err := newTestEmbedder(srv.URL, 3).Embed(context.Background(), []byte("x"))
		require.ErrorIs(t, err, e.ErrInvalidProviderBody, body)
		require.Nil(t, vector, body)
		require.EqualValues(t, 1, calls.Load(), body)
		srv.Close()
	}
}

func TestParseVectorRejectsNonArray(t *testing.T) {
	_, err := parseVector([]byte(`{"error":"oops"}`))
	require.ErrorIs(t, err, e.ErrInvalidProviderBody)

	_, err = parseVector([]byte(`"plain string"`))
	require.ErrorIs(t, err, e.ErrInvalidProviderBody)
}
