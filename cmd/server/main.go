package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/app"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/config"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/pkg/nativelog"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file")
	migrateLegacy := flag.Bool("migrate-legacy", false, "Fold legacy per-template documents into the template document and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := nativelog.NewZapLogger(cfg.LogDir(), cfg.IsDev())
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("file log pipeline unavailable, fallback to zap production logger", zap.Error(err))
	}
	defer logger.Sync()

	application, err := app.New(context.Background(), logger, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", zap.Error(err))
	}

	if *migrateLegacy {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		n, err := application.MigrateLegacy(ctx)
		cancel()
		application.Shutdown(context.Background())
		if err != nil {
			logger.Fatal("legacy migration failed", zap.Error(err))
		}
		logger.Info("legacy migration finished", zap.Int("templates", n))
		return
	}

	srv := &http.Server{
		Addr:              application.Addr(),
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	application.Shutdown(ctx)
	logger.Info("server exited")
}
