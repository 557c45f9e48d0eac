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

	"anycomp/internal/config"
	"anycomp/internal/database"
	"anycomp/internal/mockapi"
	jwtsvc "anycomp/internal/pkg/jwt"
	"anycomp/internal/pkg/logger"
	"anycomp/internal/repository"
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

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		lg.Fatal().Err(err).Msg("database")
	}
	if err := repository.Migrate(db); err != nil {
		lg.Fatal().Err(err).Msg("migrate")
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	svc := mockapi.NewService(db, j, mockapi.NewStorage(cfg.UploadDir), lg)

	r := mockapi.NewRouter(mockapi.NewHandler(svc), mockapi.RouterConfig{
		JWT:         j,
		Log:         lg,
		CORSOrigins: cfg.CORSOrigins,
		UploadDir:   cfg.UploadDir,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.MockAPIAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info().Str("addr", cfg.MockAPIAddr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("api server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("shutdown")
	}
}
