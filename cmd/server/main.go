package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/logger"
	"github.com/oggyb/muzz-match/internal/presence"
	"github.com/oggyb/muzz-match/internal/push"
	"github.com/oggyb/muzz-match/internal/server"
	"github.com/oggyb/muzz-match/internal/service/chat"
	"github.com/oggyb/muzz-match/internal/service/match"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	// Push transport: AMQP when configured, otherwise pushes are only logged
	var notifier push.Notifier = push.LogNotifier{Log: log}
	if cfg.AMQP.URL != "" {
		amqpNotifier, err := push.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Error("failed to connect to amqp", "err", err)
			os.Exit(1)
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	}
	pushes := push.NewDispatcher(notifier, cfg.Push.Timeout, log)
	registry := presence.NewRegistry(log)

	appCtx := app.New(cfg, database, redisCache, log, registry, pushes)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	chatService := chat.NewChatService(appCtx)
	grpcServer := server.NewGRPCServer(log,
		match.NewRegistrar(appCtx),
		chat.NewRegistrar(chatService),
	)
	httpServer := server.NewHTTPServer(cfg, server.NewHTTPHandler(appCtx, chat.NewWebsocketHandler(chatService)))

	errs := make(chan error, 2)
	go func() {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		errs <- server.StartGRPCServer(cfg, grpcServer)
	}()
	go func() {
		log.Info("starting HTTP server", "addr", httpServer.Addr)
		errs <- server.StartHTTPServer(httpServer)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errs:
		log.Error("server stopped", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// live sockets go first so their pumps unwind before the listener closes
	registry.Close()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", "err", err)
	}
	grpcServer.GracefulStop()

	if err := pushes.Close(ctx); err != nil {
		log.Warn("pending pushes abandoned", "err", err)
	}
	log.Info("bye")
}
