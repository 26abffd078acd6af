package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/cyber-shield/backend/internal/config"
	"github.com/zhouzirui/cyber-shield/backend/internal/handler"
	"github.com/zhouzirui/cyber-shield/backend/internal/logger"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
	"github.com/zhouzirui/cyber-shield/backend/internal/service/chat"
	"github.com/zhouzirui/cyber-shield/backend/internal/service/dialogue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		logger.Warn("failed to load .env file, continuing with system environment variables only", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", "err", err)
	}

	closer, err := logger.Configure(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		logger.Fatal("failed to configure logger", "err", err)
	}
	defer closer.Close()

	store, err := knowledge.Open(cfg.Chat.KnowledgeFile)
	if err != nil {
		logger.Fatal("failed to load knowledge content", "file", cfg.Chat.KnowledgeFile, "err", err)
	}

	engine, err := dialogue.NewEngine(ctx, store, dialogue.WithRandom(dialogue.NewRandom(cfg.Chat.RandomSeed)))
	if err != nil {
		logger.Fatal("failed to build dialogue engine", "err", err)
	}
	chatService := chat.NewService(engine)

	router := handler.NewRouter(store, chatService)

	if err := startServer(ctx, cfg.Server, router); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("Cyber Shield API listening", "addr", serverCfg.Addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
