package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/auth"
	"github.com/oggyb/pahilobhet/internal/cache"
	"github.com/oggyb/pahilobhet/internal/config"
	"github.com/oggyb/pahilobhet/internal/db"
	"github.com/oggyb/pahilobhet/internal/logger"
	"github.com/oggyb/pahilobhet/internal/server"
	"github.com/oggyb/pahilobhet/internal/service/account"
	"github.com/oggyb/pahilobhet/internal/service/conversation"
	"github.com/oggyb/pahilobhet/internal/service/event"
	"github.com/oggyb/pahilobhet/internal/service/matching"
	"github.com/oggyb/pahilobhet/internal/service/profile"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	if cfg.Auth.JWTSecret == config.DefaultJWTSecret && !cfg.IsDevelopment() {
		log.Warn("JWT_SECRET is the development default")
	}
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL)

	appCtx := app.New(cfg, database, redisCache, tokens, log)

	if cfg.IsDevelopment() {
		if err := db.SeedTestData(database, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	router := server.NewRouter(appCtx,
		account.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
		matching.NewRegistrar(appCtx),
		conversation.NewRegistrar(appCtx),
		event.NewRegistrar(appCtx),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.StartHTTPServer(gctx, appCtx, router) })
	g.Go(func() error { return server.StartGRPCServer(gctx, appCtx) })

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
