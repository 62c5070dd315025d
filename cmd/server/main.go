package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/manga-dl-go/api"
	"github.com/yourusername/manga-dl-go/internal/app"
	"github.com/yourusername/manga-dl-go/internal/domain"
	"github.com/yourusername/manga-dl-go/pkg/logger"
)

const version = "1.0.0"

var configPath = flag.String("config", "", "Config file (default $HOME/.manga-dl/config.yaml)")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	console, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Category logs: batch, error
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.LogsDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer multiLog.Close()

	logAdapter := logger.NewLoggerAdapter(console, multiLog)
	defer logAdapter.Sync()
	log := logAdapter.General()

	log.Info("Starting manga-dl server",
		zap.String("version", version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("download_dir", config.Download.Dir),
		zap.Int("resource_concurrency", config.Download.ResourceConcurrency))

	if err := os.MkdirAll(config.Download.Dir, 0755); err != nil {
		log.Fatal("Failed to create download directory", zap.Error(err))
	}

	components, err := app.NewComponents(config, logAdapter)
	if err != nil {
		log.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	checkCredential(components.Client, config.API.Cookie, log)

	router := api.SetupRouter(api.RouterConfig{
		Batches:    components.Batches,
		History:    components.History,
		Logs:       logAdapter,
		LogsDir:    config.Logging.LogsDir,
		SkipLocked: config.Download.SkipLocked,
		Version:    version,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop taking requests first, then let running batches drain
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := components.Batches.Shutdown(shutdownCtx); err != nil {
		log.Warn("Running batches were cancelled", zap.Error(err))
	}

	log.Info("Server exited")
}

func checkCredential(validator domain.CredentialValidator, cookie string, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	valid, err := validator.ValidateCredential(ctx, cookie)
	switch {
	case err != nil:
		log.Warn("Could not check credential", zap.Error(err))
	case !valid:
		log.Warn("Not logged in, locked episodes will fail to resolve")
	}
}
