package embedder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/jitter"
	"github.com/DRSN-tech/visual-search/pkg/logger"
)

// HFEmbedder — клиент внешнего inference-эндпоинта для векторизации изображений.
// Любая ошибка транспорта, не-2xx ответ или тело неожиданной формы означают
// отказ основного пути: вызывающая сторона обязана перейти на fallback.
type HFEmbedder struct {
	client *http.Client
	cfg    *cfg.EmbedderCfg
	logger logger.Logger
}

func NewHFEmbedder(cfg *cfg.EmbedderCfg, logger logger.Logger) *HFEmbedder {
	return &HFEmbedder{
		client: &http.Client{Timeout: cfg.RequestTimeout},
		cfg:    cfg,
		logger: logger,
	}
}

// Embed запрашивает вектор изображения у удалённой модели с retry-логикой
// и экспоненциальной задержкой. Некорректное тело ответа не ретраится.
func (h *HFEmbedder) Embed(ctx context.Context, image []byte) ([]float32, error) {
	const (
		op         = "HFEmbedder.Embed"
		baseJitter = 1 * time.Second
		maxJitter  = 10 * time.Second
	)

	if h.cfg.Token == "" {
		return nil, e.Wrap(op, e.ErrNoTokenConfigured)
	}

	var lastErr error
	for attempt := 0; attempt < h.cfg.MaxRetries; attempt++ {
		vector, err := h.requestEmbedding(ctx, image)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		if errors.Is(err, e.ErrInvalidProviderBody) {
			return nil, e.Wrap(op, err)
		}

		if attempt == h.cfg.MaxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(
			baseJitter,
			maxJitter,
			attempt,
			jitter.DefaultJitter,
		)

		h.logger.Warnf("embedding request failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	return nil, e.Wrap(op, lastErr)
}

// requestEmbedding выполняет один POST с base64-представлением изображения.
func (h *HFEmbedder) requestEmbedding(ctx context.Context, image []byte) ([]float32, error) {
	body, err := json.Marshal(inferenceRequest{
		Inputs: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	res, err := h.client.Do(req)
	if err != nil {
		return nil, e.Wrap(e.ErrProviderUnavailable.Error(), err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, e.Wrap(e.ErrProviderUnavailable.Error(), fmt.Errorf("unexpected status %d", res.StatusCode))
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	return parseVector(raw)
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// parseVector принимает непустой плоский числовой массив. Вложенный массив
// [[...]] сворачивается до первой строки. Любая другая форма — включая null,
// [] и пустую первую строку — ошибка провайдера: нулевой вектор бесполезен
// для ранжирования и не считается успехом.
func parseVector(raw []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		if len(flat) == 0 {
			return nil, e.ErrInvalidProviderBody
		}
		return flat, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}

	return nil, e.ErrInvalidProviderBody
}
