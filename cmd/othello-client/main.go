package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/othello-turn-client/internal/clientbuilder"
	appcfg "github.com/park285/othello-turn-client/internal/config"
	"github.com/park285/othello-turn-client/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file; environment variables override it")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := clientbuilder.New(ctx, cfg, os.Stdout)
	if err != nil {
		log.Fatalf("client init error: %v", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("shutdown_error", zap.Error(err))
		}
	}()

	if deps.Feed != nil {
		go func() {
			if err := deps.Feed.Serve(ctx, cfg.ViewWSAddr); err != nil {
				logger.Error("view_feed_stopped", zap.Error(err))
			}
		}()
	}

	bootstrap(ctx, deps, cfg.PlayerName)

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sigCh:
			logger.Info("signal_received", zap.String("signal", s.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := deps.Console.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("console_stopped", zap.Error(err))
	}
	cancel()
}

// bootstrap draws the initial board. With a configured player name a remote
// session is started first.
func bootstrap(ctx context.Context, deps *clientbuilder.Deps, playerName string) {
	bctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if playerName != "" {
		if err := deps.Orchestrator.Start(bctx, playerName); err != nil {
			obslog.L().Warn("bootstrap_start_failed", zap.String("player", playerName), zap.Error(err))
		}
		return
	}
	if err := deps.Orchestrator.Refresh(bctx); err != nil {
		obslog.L().Warn("bootstrap_refresh_failed", zap.Error(err))
	}
}
