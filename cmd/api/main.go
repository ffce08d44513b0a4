package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/martinfar/bitcoin-explorer-api/internal/config"
	"github.com/martinfar/bitcoin-explorer-api/internal/explorer"
	internalhttp "github.com/martinfar/bitcoin-explorer-api/internal/http"
	"github.com/martinfar/bitcoin-explorer-api/internal/notify"
	"github.com/martinfar/bitcoin-explorer-api/internal/rpc"
)

func main() {
	setupLogging()
	slog.Info("starting bitcoin explorer api")

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	client := rpc.New(rpc.Endpoint{
		URL:  cfg.RPC.URL,
		User: cfg.RPC.User,
		Pass: cfg.RPC.Pass,
	})
	svc := &explorer.Service{RPC: client, Window: cfg.Explorer.Window}
	h := internalhttp.NewHandler(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wsBlocks http.HandlerFunc
	if cfg.Explorer.WSEnabled {
		hub := notify.NewHub()
		watcher := &notify.Watcher{
			RPC:      client,
			Hub:      hub,
			Interval: time.Duration(cfg.Explorer.PollIntervalSeconds) * time.Second,
		}
		go watcher.Run(ctx)
		wsBlocks = hub.ServeHTTP
	}

	srv := internalhttp.NewServer(h, wsBlocks)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: srv.Router,
	}

	go func() {
		slog.Info("api listening", "addr", cfg.ListenAddr())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
}

func setupLogging() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
