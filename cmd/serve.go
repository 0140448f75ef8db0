package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapvocab/snapvocab/internal/analysis"
	"github.com/snapvocab/snapvocab/internal/config"
	"github.com/snapvocab/snapvocab/internal/gemini"
	"github.com/snapvocab/snapvocab/internal/handlers"
	"github.com/snapvocab/snapvocab/internal/kimi"
	"github.com/snapvocab/snapvocab/internal/learning"
	"github.com/snapvocab/snapvocab/internal/models"
	"github.com/snapvocab/snapvocab/internal/queue"
	"github.com/snapvocab/snapvocab/internal/store"
	"github.com/snapvocab/snapvocab/internal/words"
)

// providerAnalyzer routes each analysis to the provider selected in the
// runtime configuration.
type providerAnalyzer struct {
	cfg    *config.Manager
	kimi   analysis.Analyzer
	gemini analysis.Analyzer
}

func (p *providerAnalyzer) Analyze(ctx context.Context, image []byte, progress func(string)) (*models.AnalysisResult, error) {
	switch p.cfg.Current().Provider {
	case config.ProviderGemini:
		return p.gemini.Analyze(ctx, image, progress)
	default:
		return p.kimi.Analyze(ctx, image, progress)
	}
}

func newServeCmd() *cobra.Command {
	var port string
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the snapvocab API server",
		Long: `Starts the snapvocab HTTP API on the specified port.

The API accepts photo uploads for analysis, serves the analyzed scenes
and their unique-word index, and manages daily learning tasks.`,
		Example: `  # Start server on default port 8888
  snapvocab serve

  # Start server on custom port with a config file
  snapvocab serve --port 3000 --config snapvocab.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}

			blobs, err := store.OpenBlobStore(filepath.Join(fileCfg.DataDir, "snapvocab.db"))
			if err != nil {
				return err
			}
			defer blobs.Close()

			scenes := store.NewSceneStore(blobs)
			images := store.NewImageStore(filepath.Join(fileCfg.DataDir, "images"))
			index := words.NewIndex(blobs)
			cfgManager := config.NewManager(blobs, fileCfg.Model)
			learningManager := learning.NewManager(blobs, index)

			index.SetStatusSource(learningManager.WordStatus)
			scenes.Subscribe(func() {
				index.Rebuild(scenes.Scenes())
			})

			scenes.Load()
			index.Rebuild(scenes.Scenes())

			kimiClient := kimi.NewClient(fileCfg.KimiBaseURL, func() string {
				return cfgManager.Current().APIKeys.Kimi
			})
			level := func() config.EnglishLevel {
				return cfgManager.Current().EnglishLevel
			}
			analyzer := &providerAnalyzer{
				cfg:    cfgManager,
				kimi:   analysis.NewPipeline(kimiClient, blobs, level),
				gemini: gemini.New(func() string { return cfgManager.Current().APIKeys.Gemini }, level),
			}

			q := queue.New(cmd.Context(), analyzer, scenes, images, queue.DefaultMaxConcurrent)
			handler := handlers.New(scenes, images, index, q, learningManager, cfgManager)

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Router(),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Snapvocab API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				// Flush the debounced scene save before exit; this is
				// the "going to background" signal.
				scenes.FlushNow()
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				scenes.FlushNow()
				return fmt.Errorf("server error: %w", err)
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVarP(&configPath, "config", "c", "snapvocab.yml", "Path to YAML config file")

	return cmd
}
