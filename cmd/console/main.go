package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"anycomp/internal/apiclient"
	"anycomp/internal/config"
	"anycomp/internal/console"
	"anycomp/internal/database"
	"anycomp/internal/draft"
	"anycomp/internal/events"
	"anycomp/internal/pkg/logger"
	"anycomp/internal/querycache"
	"anycomp/internal/session"
	"anycomp/internal/tokenstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	lg := logger.Setup(cfg.AppEnv, cfg.LogLevel)
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, err := openTokenStore(cfg)
	if err != nil {
		lg.Fatal().Err(err).Msg("token store")
	}

	cache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		lg.Fatal().Err(err).Msg("query cache")
	}
	defer closeCache()

	hub := events.NewHub(lg.With().Str("component", "events").Logger(), cfg.CORSOrigins...)
	navigator := events.NewNavigator(hub)

	client, err := apiclient.New(cfg.APIBaseURL, tokens,
		apiclient.WithNavigator(navigator),
		apiclient.WithLogger(lg.With().Str("component", "apiclient").Logger()),
	)
	if err != nil {
		lg.Fatal().Err(err).Msg("api client")
	}

	store := session.New(client.Auth, tokens, navigator, lg.With().Str("component", "session").Logger())
	store.Bind(client)
	store.Initialize(ctx)

	srv := console.New(console.Config{
		Session:     store,
		Client:      client,
		Cache:       cache,
		Hub:         hub,
		Log:         lg,
		Draft:       draft.Options{MaxFiles: cfg.MaxFiles, MinFiles: cfg.MinFiles},
		CORSOrigins: cfg.CORSOrigins,
	})

	httpSrv := &http.Server{
		Addr:              cfg.ConsoleAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info().Str("addr", cfg.ConsoleAddr).Str("api", cfg.APIBaseURL).Msg("console listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("console server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("shutdown")
	}
}

func openTokenStore(cfg *config.Config) (tokenstore.Store, error) {
	if cfg.TokenStore == "memory" {
		return tokenstore.NewMemoryStore(""), nil
	}
	db, err := database.Connect(cfg.TokenStoreDSN)
	if err != nil {
		return nil, err
	}
	return tokenstore.NewGormStore(db)
}

func openCache(ctx context.Context, cfg *config.Config) (querycache.Cache, func(), error) {
	if cfg.CacheBackend == "redis" {
		r, err := querycache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	}
	return querycache.NewMemory(cfg.CacheTTL), func() {}, nil
}

