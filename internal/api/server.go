package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/stakeflow/stakeflow-indexer/internal/config"
	"github.com/stakeflow/stakeflow-indexer/internal/services"
)

// DashboardService is what the API needs from the load pipeline.
type DashboardService interface {
	LatestDashboard() (*services.Dashboard, error)
	Refresh(ctx context.Context) (*services.Dashboard, error)
}

type Server struct {
	httpServer *http.Server
	service    DashboardService
	hub        *Hub
}

func New(cfg *config.ServerConfig, service DashboardService, hub *Hub) *Server {
	s := &Server{
		service: service,
		hub:     hub,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", s.healthcheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/dashboard", s.getDashboard)
		r.Get("/dashboard/daily", s.getDaily)
		r.Get("/dashboard/wallets", s.getWallets)
		r.Get("/dashboard/audit", s.getAudit)
		r.Post("/dashboard/refresh", s.refresh)
		r.Get("/ws", s.hub.ServeWS)
	})
	return r
}

// Start blocks until the server is shut down.
func (s *Server) Start() error {
	log.Info().Msgf("Starting API server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}
