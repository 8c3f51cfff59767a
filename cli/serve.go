package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/qcmbuilder/qcm-api/auth"
	"github.com/qcmbuilder/qcm-api/config"
	"github.com/qcmbuilder/qcm-api/handlers"
	"github.com/qcmbuilder/qcm-api/logger"
	"github.com/qcmbuilder/qcm-api/middleware"
	"github.com/qcmbuilder/qcm-api/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return err
			}
			defer log.Sync()

			if len(cfg.JWTSecret) == 0 {
				return auth.ErrMissingSecret
			}
			db, err := config.Connect(cfg.DBDriver, cfg.DBURL)
			if err != nil {
				return err
			}
			handler, err := newServer(cfg, store.NewGormStore(db), log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return listen(ctx, "0.0.0.0:"+cfg.Port, handler, log)
		},
	}
}

// newServer wires the routes behind JWT validation, user sync and CORS.
func newServer(cfg config.Config, s store.Store, log *logger.Logger) (http.Handler, error) {
	ensureValid, err := middleware.EnsureValidToken(issuerFrom(cfg), log)
	if err != nil {
		return nil, err
	}
	syncUser := middleware.SyncUserMiddleware(s, log)
	protect := func(next http.HandlerFunc) http.Handler {
		return ensureValid(syncUser(next))
	}

	mux := handlers.NewRouter(handlers.New(s, log, cfg.MaxUploadBytes), protect)

	// Configure CORS with specific options
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(mux), nil
}

func listen(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
