package http

import (
	_ "github.com/DRSN-tech/visual-search/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	cfg    *cfg.MinIOCfg
	logger logger.Logger
}

func NewRouter(router *chi.Mux, cfg *cfg.MinIOCfg, logger logger.Logger) *Router {
	return &Router{router: router, cfg: cfg, logger: logger}
}

func (r *Router) Init(vsUC usecase.VisualSearchUC, prUC usecase.ProductUC) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		vsHandler := NewVisualSearchHandler(vsUC, r.cfg, r.logger)
		registerVisualSearchRoutes(v1, vsHandler)

		prHandler := NewProductHandler(prUC, r.cfg, r.logger)
		registerProductRoutes(v1, prHandler)
	})
}

func registerVisualSearchRoutes(router chi.Router, vsHandler *VisualSearchHandler) {
	router.Route("/visual-search", func(vs chi.Router) {
		vs.Post("/search", vsHandler.search)
		vs.Post("/add-embedding", vsHandler.addEmbedding)
		vs.Get("/check-database", vsHandler.checkDatabase)
		vs.Post("/backfill", vsHandler.backfill)
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Post("/", prHandler.registerNewProduct)
		pr.Get("/", prHandler.getProducts)
	})
}
