package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clintrovert/prbranches/internal/api/rest"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve annotated pull request list pages and annotation fragments",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, annotator, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		upstream := &http.Client{Timeout: cfg.HTTPTimeout}
		handler := rest.NewHandler(annotator, upstream, cfg.GitHubWebURL, logger)

		server := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: rest.NewRouter(handler, cfg.AllowedOrigins),
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting REST API server", zap.String("address", cfg.ListenAddr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigChan:
		case err := <-errCh:
			return err
		}

		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}
