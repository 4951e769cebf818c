package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/server/middleware"
)

const shutdownGrace = 10 * time.Second

// NewRouter builds the HTTP handler: shared middleware, /api/health and
// every registrar's routes under /api.
func NewRouter(appCtx *app.AppContext, registrars ...Registrar) http.Handler {
	cfg := appCtx.Config
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(appCtx.Logger))
	r.Use(chimw.Recoverer)
	if cfg.HTTP.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.HTTP.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", healthHandler(appCtx))
		for _, reg := range registrars {
			reg.Register(api)
		}
	})
	return r
}

// StartHTTPServer serves handler until ctx is canceled, then drains
// in-flight requests.
func StartHTTPServer(ctx context.Context, appCtx *app.AppContext, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%s", appCtx.Config.HTTP.Host, appCtx.Config.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appCtx.Logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appCtx.Logger.Info("HTTP server stopped")
	return nil
}
