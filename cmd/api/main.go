package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hamed0406/craftwatch/internal/config"
	"github.com/hamed0406/craftwatch/internal/httpapi"
	apimw "github.com/hamed0406/craftwatch/internal/httpapi/middleware"
	"github.com/hamed0406/craftwatch/internal/logging"
	"github.com/hamed0406/craftwatch/internal/probe"
	"github.com/hamed0406/craftwatch/internal/repo"
	"github.com/hamed0406/craftwatch/internal/repo/memory"
	"github.com/hamed0406/craftwatch/internal/repo/sqlite"
	"github.com/hamed0406/craftwatch/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	var (
		servers    repo.ServerStore
		results    repo.ResultStore
		closeStore = func() error { return nil }
	)
	if cfg.DatabasePath != "" {
		st, err := sqlite.Open(cfg.DatabasePath, logger)
		if err != nil {
			logger.Fatal("open_store", zap.String("path", cfg.DatabasePath), zap.Error(err))
		}
		servers, results, closeStore = st, st, st.Close
		logger.Info("store_sqlite", zap.String("path", cfg.DatabasePath))
	} else {
		st := memory.New()
		servers, results = st, st
		logger.Info("store_memory")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pinger := scheduler.NewPinger(
		logger,
		servers,
		results,
		probe.NewStatusPinger(probe.DefaultTimeout),
		scheduler.DefaultInterval,
		scheduler.DefaultTimeout,
	)
	go pinger.Run(ctx)

	api := httpapi.NewServer(logger, servers, results, pinger)
	keys := apimw.Keys{Public: cfg.PublicKeys(), Admin: cfg.AdminKeys()}
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.Router(keys, cfg.Origins(), cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}

	if err := closeStore(); err != nil {
		logger.Warn("store_close", zap.Error(err))
	}
	logger.Info("shutdown_complete")
}
