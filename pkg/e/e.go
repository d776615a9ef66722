package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки с векторами
	ErrEmptyEmbedding      = fmt.Errorf("embedding vector is empty")
	ErrEmbeddingNotFound   = fmt.Errorf("embedding not found")
	ErrProviderUnavailable = fmt.Errorf("embedding provider unavailable")
	ErrInvalidProviderBody = fmt.Errorf("invalid embedding provider response")
	ErrNoTokenConfigured   = fmt.Errorf("inference token is not configured")

	// 400 Bad Request
	ErrNoImageFile          = fmt.Errorf("no image file provided")
	ErrProductIDRequired    = fmt.Errorf("product id is required")
	ErrProductNameRequired  = fmt.Errorf("product name is required")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrStatusBadRequest     = fmt.Errorf("bad request")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
