package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/opsconsole/internal/api"
	"github.com/dvloznov/opsconsole/internal/api/handlers"
	"github.com/dvloznov/opsconsole/internal/catalog"
	"github.com/dvloznov/opsconsole/internal/commit"
	"github.com/dvloznov/opsconsole/internal/gcsuploader"
	"github.com/dvloznov/opsconsole/internal/jobs"
	"github.com/dvloznov/opsconsole/internal/jobs/inmemory"
	"github.com/dvloznov/opsconsole/internal/layout"
	"github.com/dvloznov/opsconsole/internal/logger"
	"github.com/dvloznov/opsconsole/internal/pipeline"
	"github.com/dvloznov/opsconsole/internal/review"
	"github.com/dvloznov/opsconsole/internal/statement"
	"github.com/dvloznov/opsconsole/internal/suggest"
	"github.com/spf13/cobra"
)

var port string

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the statement import API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&port, "port", "", "HTTP server port, overrides PORT")
	addStoreFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}

	ctx := logger.WithContext(context.Background(), log)

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	cat := catalog.New(st.categories)
	if _, err := cat.EnsureSeeded(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not seed categories, using built-in defaults until the store recovers")
	}

	importer := pipeline.NewImporter(
		layout.NewExtractor(layout.NewPDFRenderer()),
		statement.NewParser(),
		cat,
		cfg.MaxDocumentBytes,
	)
	manager := review.NewManager(importer, log)
	defer manager.CloseAll()

	gateway := commit.NewGateway(st.transactions)
	opts := handlers.ImportsOptions{MaxBytes: cfg.MaxDocumentBytes}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, inmemory.DefaultWorkers, jobStore)
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if cfg.GCS.Bucket != "" {
		storage, err := gcsuploader.NewGCSStatementStorage(ctx, cfg.GCS.Bucket, cfg.MaxDocumentBytes)
		if err != nil {
			return fmt.Errorf("creating statement storage: %w", err)
		}
		defer storage.Close()

		if err := jobQueue.Start(workerCtx, jobs.NewArchiveHandler(storage, log)); err != nil {
			return fmt.Errorf("starting archive workers: %w", err)
		}
		opts.Storage = storage
		opts.Publisher = jobQueue
		log.Info().Str("bucket", cfg.GCS.Bucket).Msg("Statement archiving enabled")
	} else {
		log.Warn().Msg("No GCS bucket configured - statement archiving and gs:// imports are disabled")
	}

	if cfg.Gemini.Enabled {
		generator, err := suggest.NewGeminiGenerator(ctx, cfg.Gemini.Model)
		if err != nil {
			return fmt.Errorf("creating suggestion client: %w", err)
		}
		opts.Suggester = suggest.NewSuggester(generator)
		log.Info().Str("model", cfg.Gemini.Model).Msg("Category suggestions enabled")
	}

	router := api.NewRouter(api.Handlers{
		Imports:      handlers.NewImportsHandler(manager, gateway, cat, opts, log),
		Transactions: handlers.NewTransactionsHandler(gateway, log),
		Categories:   handlers.NewCategoriesHandler(cat, log),
		Jobs:         handlers.NewJobsHandler(jobStore, log),
	}, api.Options{AllowedOrigin: cfg.CORSOrigin}, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.StoreBackend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight archives
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
	return nil
}
