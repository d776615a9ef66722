package usecase

import "context"

// EmbeddingProvider — основной путь векторизации через удалённую модель.
type EmbeddingProvider interface {
	Embed(ctx context.Context, image []byte) ([]float32, error)
}

// FallbackProvider — локальная векторизация; degraded=true означает, что
// вернулся случайный вектор-заглушка без смысловой нагрузки.
type FallbackProvider interface {
	Embed(image []byte) (vector []float32, degraded bool)
}

type ImagesInfra interface {
	UploadImage(ctx context.Context, req *UploadImageReq) (string, error)
	CleanupImages(keys []string)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
