package imaging

import (
	"bytes"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/DRSN-tech/visual-search/pkg/e"
)

// Канонический размер изображения для векторизации.
const (
	TargetWidth  = 224
	TargetHeight = 224

	jpegQuality = 90
)

// Preprocess приводит изображение к каноническому виду перед векторизацией:
// масштабирует до 224x224 и перекодирует в JPEG. Ошибка декодирования
// фатальна для запроса — предобработка не ретраится.
func Preprocess(imageBytes []byte) ([]byte, error) {
	const op = "imaging.Preprocess"

	src, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, TargetWidth, TargetHeight))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, e.Wrap(op, err)
	}

	return buf.Bytes(), nil
}
