package usecase

import "context"

type VisualSearchUC interface {
	Search(ctx context.Context, req *SearchReq) (*SearchRes, error)
	AddEmbedding(ctx context.Context, req *AddEmbeddingReq) (*AddEmbeddingRes, error)
	CheckStatus(ctx context.Context) (*StatusRes, error)
	BackfillEmbeddings(ctx context.Context) (*BackfillRes, error)
}

type ProductUC interface {
	RegisterNewProduct(ctx context.Context, req *AddNewProductReq) (*ProductSnapshot, error)
	GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error)
}
