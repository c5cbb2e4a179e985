package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog_api/internal/api"
	"blog_api/internal/api/middleware"
	"blog_api/internal/app/service"
	"blog_api/internal/common/security"
	"blog_api/internal/platform/logging"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (default)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logging.LogError(ctx, logger, "storage unavailable", err)
		return err
	}
	defer closeStore()

	if cfg.UsesDefaultJWTSecret() {
		logger.Warn("JWT_SECRET is not set; signing tokens with the built-in development secret")
	}
	tokens := security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp)
	passwords, err := security.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	services := api.Services{
		Auth:     service.NewAuthService(repos.users, tokens, passwords, cfg.AllowSelfAssignedRole, logger),
		Users:    service.NewUserService(repos.users, passwords, logger),
		Posts:    service.NewPostService(repos.posts, repos.users, logger),
		Comments: service.NewCommentService(repos.comments, repos.posts, repos.users, logger),
	}

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      api.NewRouter(tokens, services, middleware.NewMetrics()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.APIPort, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("LISTEN_FAILED").With("port", cfg.APIPort).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
