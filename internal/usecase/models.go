package usecase

import "time"

// VISUAL SEARCH

// RankTier показывает, какой путь ранжирования сформировал результат.
type RankTier string

const (
	// TierPrimary — косинусная близость по всем сохранённым векторам.
	TierPrimary RankTier = "primary"
	// TierApprox — грубая аппроксимация на стороне БД по первым компонентам.
	TierApprox RankTier = "approx"
	// TierRandom — произвольные записи со случайными оценками, последний рубеж.
	TierRandom RankTier = "random"
	// TierEmpty — корпус пуст, сравнивать не с чем.
	TierEmpty RankTier = "empty"
)

// UploadedImage представляет изображение, загруженное через multipart/form-data.
type UploadedImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// SearchReq — запрос визуального поиска по изображению.
type SearchReq struct {
	Image UploadedImage
}

// SearchMatch — одна найденная запись с присоединённым продуктом.
type SearchMatch struct {
	RecordID    string
	ProductID   int64
	ProductName string
	Price       int64
	ImageKey    string
	Similarity  float64
}

// SearchRes — результат поиска. Tier и Degraded позволяют отличить
// деградированный ответ от полноценного без разбора логов.
type SearchRes struct {
	Results              []SearchMatch
	Tier                 RankTier
	Degraded             bool // вектор запроса — случайная заглушка
	QueryEmbeddingLength int
	Message              string
}

// AddEmbeddingReq — запрос на добавление эмбеддинга изображения продукта.
type AddEmbeddingReq struct {
	ProductID int64
	Image     UploadedImage
}

// AddEmbeddingRes — результат добавления эмбеддинга.
type AddEmbeddingRes struct {
	RecordID        string
	ProductID       int64
	ImageKey        string
	EmbeddingLength int
	Degraded        bool
}

// EmbeddingDiagnostic — диагностика одной записи для операционного осмотра.
type EmbeddingDiagnostic struct {
	ID              string
	ProductID       int64
	ProductName     string
	ImageKey        string
	EmbeddingLength int
	HasProduct      bool
}

// StatusRes — сводка состояния хранилища эмбеддингов.
type StatusRes struct {
	TotalEmbeddings int
	Embeddings      []EmbeddingDiagnostic
	Message         string
}

// BackfillRes — итоги фоновой довекторизации каталога.
type BackfillRes struct {
	Processed int
	Skipped   int
	Failed    int
}

// PRODUCT

// AddNewProductReq — запрос на регистрацию продукта в каталоге.
type AddNewProductReq struct {
	Name         string
	CategoryName string
	Price        int64
	Image        *UploadedImage // основное изображение, опционально
}

// GetProductsReq запрос информации о продуктах по их идентификаторам.
type GetProductsReq struct {
	IDs []int64
}

// GetProductsRes — ответ с данными запрошенных продуктов.
type GetProductsRes struct {
	Products         []ProductInfo
	NotFoundProducts []int64
}

// ProductInfo — DTO с информацией о продукте для внешнего использования.
type ProductInfo struct {
	ID           int64
	Name         string
	CategoryName string
	Price        int64
}

// UpsertProductRes — результат идемпотентного сохранения продукта.
type UpsertProductRes struct {
	Product   *ProductSnapshot
	NoChanges bool
}

// ProductSnapshot — состояние продукта после записи.
type ProductSnapshot struct {
	ID         int64
	Name       string
	Price      int64
	CategoryID int64
	ImageKey   string
}

// INFRASTRUCTURE

// UploadImageReq — запрос на сохранение одного изображения в объектное хранилище.
type UploadImageReq struct {
	OwnerName string // имя продукта или другой владелец, префикс ключа
	Image     UploadedImage
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const EmbeddingAdded OutboxEventType = "embedding_added"

// OutboxEvent — событие, ожидающее публикации в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// EmbeddingAddedPayload — JSON-содержимое события embedding_added.
type EmbeddingAddedPayload struct {
	RecordID     string `json:"record_id"`
	ProductID    int64  `json:"product_id"`
	ImageKey     string `json:"image_key"`
	VectorLength int    `json:"vector_length"`
	Degraded     bool   `json:"degraded"`
}

// WriteRawMessageReq — запрос на отправку готового payload в брокер.
type WriteRawMessageReq struct {
	ProductID int64
	Payload   []byte
}

// MAPPERS

func NewUploadedImage(data []byte, mimeType string, size int64, name string) *UploadedImage {
	return &UploadedImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewSearchReq(image UploadedImage) *SearchReq {
	return &SearchReq{Image: image}
}

func NewAddEmbeddingReq(productID int64, image UploadedImage) *AddEmbeddingReq {
	return &AddEmbeddingReq{
		ProductID: productID,
		Image:     image,
	}
}

func NewAddNewProductReq(name string, category string, price int64, image *UploadedImage) *AddNewProductReq {
	return &AddNewProductReq{
		Name:         name,
		CategoryName: category,
		Price:        price,
		Image:        image,
	}
}

func NewGetProductsReq(ids []int64) *GetProductsReq {
	return &GetProductsReq{ids}
}

func NewGetProductsRes(pr []ProductInfo, notFoundProducts []int64) *GetProductsRes {
	return &GetProductsRes{
		Products:         pr,
		NotFoundProducts: notFoundProducts,
	}
}

func NewProductInfo(id int64, name string, category string, price int64) ProductInfo {
	return ProductInfo{
		ID:           id,
		Name:         name,
		CategoryName: category,
		Price:        price,
	}
}

func NewUpsertProductRes(product *ProductSnapshot, noChanges bool) *UpsertProductRes {
	return &UpsertProductRes{
		Product:   product,
		NoChanges: noChanges,
	}
}

func NewWriteRawMessageReq(productID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}
