package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/warehouse-tools/priceplan/pkg/handlers/planning"
	priceplanmiddleware "github.com/warehouse-tools/priceplan/pkg/server/middleware"
)

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Planning planning.Services
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Defaults        planning.Settings
	Dependencies    Dependencies
}

// ConfigureRouter builds the HTTP routing table. Split from NewWebAPI so
// tests can drive the routes without binding a socket.
func ConfigureRouter(logger *zerolog.Logger, config Config) *chi.Mux {
	handler := planning.NewHandler(config.Dependencies.Planning, config.Defaults)

	router := chi.NewRouter()

	router.Use(priceplanmiddleware.Logger(logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", healthz)

	router.Route("/api/v1/planning", func(r chi.Router) {
		r.Post("/wholesale-forecast", handler.PredictWholesalePrices)
		r.Post("/price-elasticity", handler.EstimatePriceElasticity)
		r.Post("/optimize", handler.RunOptimization)
		r.Post("/runs", handler.ExecuteRun)
		r.Get("/runs/latest", handler.GetLatestRun)
		r.Get("/sales-history", handler.GetSalesHistory)
		r.Get("/sources", handler.ListSources)
	})

	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(&logger, config)

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
