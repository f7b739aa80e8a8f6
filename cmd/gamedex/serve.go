package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/gamedex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/gamedex/internal/usecase/health"
	"github.com/kailas-cloud/gamedex/internal/usecase/indexing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Hold the live index snapshot and expose health and metrics",
	Long: `serve loads the current index generation (failing fast if it is missing or
incompatible), polls the registry for newer generations and swaps them in
without disturbing in-flight readers. /healthz and /metrics are served on
ops.port.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		repo, _, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		reg, store, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		artifacts, err := openArtifacts()
		if err != nil {
			return err
		}
		vec, err := newVectorizer()
		if err != nil {
			return err
		}

		handle := &indexing.Handle{}
		loader := indexing.NewLoader(reg, artifacts, handle, vec.Version(), cfg.Index.NProbe, logger)
		snap, err := loader.Load(ctx)
		if err != nil {
			return err
		}
		logger.Info("Index loaded",
			zap.String("generation", snap.Generation),
			zap.Int("vectors", snap.Len()),
		)

		if cfg.Index.ReloadIntervalSec > 0 {
			go loader.Watch(ctx, time.Duration(cfg.Index.ReloadIntervalSec)*time.Second)
		}

		health := healthuc.New(repo, store, handle)
		addr := fmt.Sprintf(":%d", cfg.Ops.Port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           chiTransport.NewServer(health, logger).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Starting ops server", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("ops server: %w", err)
			}
		case <-ctx.Done():
			logger.Info("Received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Ops.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
		logger.Info("Server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
