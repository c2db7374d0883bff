package http

import (
	"context"
	"net"
	"net/http"

	"github.com/DRSN-tech/face-matcher/internal/cfg"
)

// Server — HTTP-сервер API сопоставления.
type Server struct {
	httpServer *http.Server
}

func NewServer(handler http.Handler, cfg *cfg.HTTPConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Serve обслуживает запросы на уже открытом lis.
func (s *Server) Serve(lis net.Listener) error {
	return s.httpServer.Serve(lis)
}

// Stop дожидается завершения активных запросов до отмены ctx.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
