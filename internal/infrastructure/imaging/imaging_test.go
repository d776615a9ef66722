package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreprocessResizesToCanonical(t *testing.T) {
	for _, size := range [][2]int{{64, 64}, {640, 480}, {1, 1}, {3000, 100}} {
		out, err := Preprocess(encodePNG(t, size[0], size[1]))
		require.NoError(t, err)

		decoded, format, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		require.Equal(t, "jpeg", format)
		require.Equal(t, TargetWidth, decoded.Bounds().Dx())
		require.Equal(t, TargetHeight, decoded.Bounds().Dy())
	}
}

func TestPreprocessAcceptsJPEGInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	out, err := Preprocess(buf.Bytes())
	require.NoError(t, err)
	require.NotEmpty(t, out)
}

func TestPreprocessRejectsGarbage(t *testing.T) {
	_, err := Preprocess([]byte("not an image at all"))
	require.Error(t, err)
}
