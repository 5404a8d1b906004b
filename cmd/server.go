package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sander-remitly/plandash/internal/api"
	"github.com/sander-remitly/plandash/internal/format"
	"github.com/sander-remitly/plandash/internal/repo"
	"github.com/sander-remitly/plandash/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runServer starts the HTTP server and blocks until SIGINT or SIGTERM.
// withWeb mounts the embedded dashboard next to the API.
func runServer(cmd *cobra.Command, withWeb bool) error {
	a, err := bootstrap(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	// Initialize repository
	repository, err := repo.New(a.cfg.DB, log.Named("repo"))
	if err != nil {
		log.Error("Failed to initialize repository", zap.Error(err))
		return err
	}
	defer repository.Close()

	// Setup API handler
	handler := api.NewHandler(a.gateway, repository, a.cache, log.Named("api"), api.Options{
		Formatter:      format.New(a.cfg.Format.CurrencySymbol),
		MaxUploadBytes: a.cfg.Upload.MaxBytes,
	})
	router := handler.SetupRouter()

	if withWeb {
		webHandler, err := web.NewHandler(log.Named("web"))
		if err != nil {
			log.Error("Failed to initialize web handler", zap.Error(err))
			return err
		}
		webHandler.SetupRoutes(router)
	}

	// Create server
	addr := fmt.Sprintf(":%d", a.cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: a.cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		fields := []zap.Field{
			zap.String("url", fmt.Sprintf("http://localhost%s", addr)),
			zap.String("api", fmt.Sprintf("http://localhost%s/api", addr)),
			zap.String("health", fmt.Sprintf("http://localhost%s/api/health", addr)),
			zap.String("optimizer", a.gateway.BaseURL()),
		}
		if withWeb {
			fields = append(fields, zap.String("web_ui", fmt.Sprintf("http://localhost%s", addr)))
		}
		log.Info("Server starting", fields...)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error("Server error", zap.Error(err))
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	log.Info("Server stopped")
	return nil
}
