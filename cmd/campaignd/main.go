package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/argonlab/campaign-core/internal/campaignd"
	"github.com/argonlab/campaign-core/internal/store"
	"github.com/argonlab/campaign-core/pkg/logger"
)

func main() {
	envCfg, err := campaignd.ParseEnv()
	if err != nil {
		logger.Error("failed to parse environment", "error", err)
		os.Exit(1)
	}

	var httpAddr string
	var logLevel string
	var storagePath string

	flag.StringVar(&httpAddr, "http-addr", envCfg.HTTPAddr, "HTTP listen address")
	flag.StringVar(&logLevel, "log-level", envCfg.LogLevel, "log level (debug, info, warn, error)")
	flag.StringVar(&storagePath, "storage-path", envCfg.StoragePath, "SQLite path for campaign results (empty disables persistence)")
	flag.Parse()

	logger.SetDefault(logger.NewText(logLevel, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	campaigns := campaignd.NewCampaignStore()

	opts := []campaignd.ExecutorOption{
		campaignd.WithNotifier(campaignd.NewNotifier(), envCfg.CallbackSecret),
	}
	if storagePath != "" {
		results, err := store.Open(storagePath)
		if err != nil {
			logger.Error("failed to open result store", "path", storagePath, "error", err)
			stop()
			os.Exit(1)
		}
		defer func() {
			if err := results.Close(); err != nil {
				logger.Error("failed to close result store", "error", err)
			}
		}()
		opts = append(opts, campaignd.WithResultStore(results))
		logger.Info("result store opened", "path", storagePath)
	}

	executor := campaignd.NewExecutor(campaigns, opts...)

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           campaignd.NewHTTPServer(campaigns, executor).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
}
