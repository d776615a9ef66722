package embedder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int, fill color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFallbackVectorAlwaysTargetLength(t *testing.T) {
	f := NewFallbackEmbedder(512, nopLogger{})

	for _, size := range []int{1, 10, 224, 640} {
		vector, degraded := f.Embed(pngBytes(t, size, size, color.White))
		require.False(t, degraded)
		require.Len(t, vector, 512)
	}
}

func TestFallbackDimensionFeatures(t *testing.T) {
	f := NewFallbackEmbedder(512, nopLogger{})

	vector, degraded := f.Embed(pngBytes(t, 200, 100, color.White))
	require.False(t, degraded)
	require.InDelta(t, 0.2, vector[0], 1e-6)  // width / 1000
	require.InDelta(t, 0.1, vector[1], 1e-6)  // height / 1000
	require.InDelta(t, 0.3, vector[2], 1e-6)  // 3 канала / 10
}

func TestFallbackUniformColorStats(t *testing.T) {
	f := NewFallbackEmbedder(512, nopLogger{})

	fill := color.RGBA{R: 255, G: 0, B: 0, A: 255}
	vector, degraded := f.Embed(pngBytes(t, 8, 8, fill))
	require.False(t, degraded)

	// Красный канал: mean=1, std=0, min=1, max=1.
	require.InDelta(t, 1.0, vector[3], 1e-6)
	require.InDelta(t, 0.0, vector[4], 1e-6)
	require.InDelta(t, 1.0, vector[5], 1e-6)
	require.InDelta(t, 1.0, vector[6], 1e-6)

	// Зелёный канал нулевой целиком.
	require.InDelta(t, 0.0, vector[7], 1e-6)
	require.InDelta(t, 0.0, vector[9], 1e-6)
	require.InDelta(t, 0.0, vector[10], 1e-6)
}

func TestFallbackPadsWithZeros(t *testing.T) {
	f := NewFallbackEmbedder(512, nopLogger{})

	vector, _ := f.Embed(pngBytes(t, 4, 4, color.Black))
	// 3 размерных признака + 4 статистики на канал, остальное — нули.
	for _, v := range vector[3+4*4:] {
		require.Zero(t, v)
	}
}

func TestFallbackDecodesJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	f := NewFallbackEmbedder(512, nopLogger{})
	vector, degraded := f.Embed(buf.Bytes())
	require.False(t, degraded)
	require.Len(t, vector, 512)
}

func TestFallbackRandomVectorOnGarbage(t *testing.T) {
	f := NewFallbackEmbedder(512, nopLogger{})

	vector, degraded := f.Embed([]byte("definitely not an image"))
	require.True(t, degraded)
	require.Len(t, vector, 512)

	var nonZero bool
	for _, v := range vector {
		require.GreaterOrEqual(t, float64(v), -1.0)
		require.LessOrEqual(t, float64(v), 1.0)
		if v != 0 {
			nonZero = true
		}
	}
	require.True(t, nonZero)
}
