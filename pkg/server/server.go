package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dsxlab/analytics-extension/internal/handlers"
	"github.com/dsxlab/analytics-extension/internal/services"
)

type Server struct {
	httpAddr string
	service  *services.ExtensionService
}

func NewServer(httpAddr string, service *services.ExtensionService) *Server {
	return &Server{httpAddr: httpAddr, service: service}
}

func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	predictHandler := handlers.NewPredictHandler(s.service)
	predictHandler.RegisterRoutes(mux)

	rulesHandler := handlers.NewRulesHandler(s.service)
	rulesHandler.RegisterRoutes(mux)

	modelsHandler := handlers.NewModelsHandler(s.service.Registry())
	modelsHandler.RegisterRoutes(mux)

	slog.Info("HTTP server starting", "addr", s.httpAddr,
		"endpoints", []string{"/v1/predict", "/v1/rules", "/v1/models", "/logs", "/healthz"})

	srv := &http.Server{Addr: s.httpAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
