package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/account-service/internal/config"
	"github.com/hongminglow/account-service/internal/logging"
	"github.com/hongminglow/account-service/internal/server"
	"github.com/hongminglow/account-service/internal/storage/backend"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger.Slog())

	ctx := context.Background()
	if cfg.UsesInsecureSecrets() {
		logger.Warn(ctx, "using development secrets; set SECRET_KEY and JWT_SECRET_KEY before deploying")
	}

	userStore, err := backend.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(ctx, "init database", "error", err)
		os.Exit(1)
	}
	defer userStore.Close()

	srv, err := server.New(cfg, userStore, logger)
	if err != nil {
		logger.Error(ctx, "init server", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info(ctx, "account service listening", "addr", cfg.HTTPAddress(), "env", cfg.Env)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error(ctx, "graceful shutdown error", "error", err)
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
