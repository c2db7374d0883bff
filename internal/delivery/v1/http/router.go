package http

import (
	_ "github.com/DRSN-tech/face-matcher/docs" // Импорт описания API
	"github.com/DRSN-tech/face-matcher/internal/usecase"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(matchUC usecase.MatchUC, personUC usecase.PersonUC) {
	r.router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	matchHandler := NewMatchHandler(matchUC, r.logger)
	personHandler := NewPersonHandler(personUC, r.logger)

	// Маршрут, которым пользуется существующий клиент
	r.router.Get("/compare-event-faces/{photoID}", matchHandler.getMatches)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/health", matchHandler.health)
		registerMatchRoutes(v1, matchHandler)
		registerPersonRoutes(v1, personHandler)
	})
}

func registerMatchRoutes(router chi.Router, matchHandler *MatchHandler) {
	router.Route("/photos/{photoID}", func(ph chi.Router) {
		ph.Get("/matches", matchHandler.getMatches)
		ph.Delete("/matches", matchHandler.invalidateMatches)
	})
}

func registerPersonRoutes(router chi.Router, personHandler *PersonHandler) {
	router.Route("/persons", func(pr chi.Router) {
		pr.Get("/", personHandler.listPersons)
		pr.Get("/{personID}", personHandler.getPerson)
	})
}
