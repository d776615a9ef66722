package embedder

import (
	"bytes"
	"image"
	"math"
	"math/rand"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/DRSN-tech/visual-search/pkg/logger"
)

// Нормировочные константы статистического вектора.
const (
	widthScale   = 1000
	heightScale  = 1000
	channelScale = 10
	sampleMax    = 255
)

// FallbackEmbedder строит детерминированный вектор из дешёвой статистики
// изображения, когда удалённая модель недоступна. Вектор всегда имеет
// фиксированную размерность dim.
type FallbackEmbedder struct {
	dim    int
	logger logger.Logger
}

func NewFallbackEmbedder(dim int, logger logger.Logger) *FallbackEmbedder {
	return &FallbackEmbedder{
		dim:    dim,
		logger: logger,
	}
}

// Embed возвращает статистический вектор изображения: нормированные ширина,
// высота и число каналов, затем mean/std/min/max по каждому цветовому каналу,
// дополненные нулями до dim. Если изображение не декодируется, возвращается
// вектор из равномерно случайных значений в [-1, 1] и degraded=true —
// смысловой нагрузки такой вектор не несёт, он лишь сохраняет пайплайн живым.
func (f *FallbackEmbedder) Embed(imageBytes []byte) ([]float32, bool) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		f.logger.Warnf("fallback embedding: image decode failed, returning random vector: %v", err)
		return f.randomVector(), true
	}

	bounds := img.Bounds()
	channels := channelCount(img)

	vector := make([]float32, 0, f.dim)
	vector = append(vector,
		float32(bounds.Dx())/widthScale,
		float32(bounds.Dy())/heightScale,
		float32(channels)/channelScale,
	)

	for _, ch := range channelStats(img, channels) {
		vector = append(vector,
			float32(ch.mean/sampleMax),
			float32(ch.std/sampleMax),
			float32(ch.min/sampleMax),
			float32(ch.max/sampleMax),
		)
	}

	for len(vector) < f.dim {
		vector = append(vector, 0)
	}

	return vector[:f.dim], false
}

// randomVector — вектор-заглушка последней инстанции.
func (f *FallbackEmbedder) randomVector() []float32 {
	vector := make([]float32, f.dim)
	for i := range vector {
		vector[i] = float32(rand.Float64()*2 - 1)
	}
	return vector
}

type stats struct {
	mean, std, min, max float64
}

// channelCount — 3 для непрозрачных изображений, 4 при наличии альфа-канала.
func channelCount(img image.Image) int {
	if opq, ok := img.(interface{ Opaque() bool }); ok && opq.Opaque() {
		return 3
	}
	return 4
}

// channelStats считает mean/std/min/max по 8-битным сэмплам каждого канала.
func channelStats(img image.Image, channels int) []stats {
	bounds := img.Bounds()
	pixels := float64(bounds.Dx() * bounds.Dy())
	if pixels == 0 {
		return nil
	}

	sum := make([]float64, channels)
	sumSq := make([]float64, channels)
	minV := make([]float64, channels)
	maxV := make([]float64, channels)
	for i := range minV {
		minV[i] = sampleMax
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			samples := [4]float64{
				float64(r >> 8),
				float64(g >> 8),
				float64(b >> 8),
				float64(a >> 8),
			}

			for i := 0; i < channels; i++ {
				v := samples[i]
				sum[i] += v
				sumSq[i] += v * v
				if v < minV[i] {
					minV[i] = v
				}
				if v > maxV[i] {
					maxV[i] = v
				}
			}
		}
	}

	result := make([]stats, channels)
	for i := 0; i < channels; i++ {
		mean := sum[i] / pixels
		variance := sumSq[i]/pixels - mean*mean
		if variance < 0 {
			variance = 0
		}

		result[i] = stats{
			mean: mean,
			std:  math.Sqrt(variance),
			min:  minV[i],
			max:  maxV[i],
		}
	}

	return result
}
