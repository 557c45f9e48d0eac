package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"anycomp/internal/config"
	"anycomp/internal/database"
	"anycomp/internal/mockapi"
	jwtsvc "anycomp/internal/pkg/jwt"
	"anycomp/internal/pkg/logger"
	"anycomp/internal/repository"
)

// draft_cleanup removes placeholder drafts that were opened and never saved.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	lg := logger.Setup(cfg.AppEnv, cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		lg.Fatal().Err(err).Msg("db connect failed")
	}
	if err := repository.Migrate(db); err != nil {
		lg.Fatal().Err(err).Msg("migrate")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc := mockapi.NewService(db, jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL), mockapi.NewStorage(cfg.UploadDir), lg)
	n, err := svc.PurgeDrafts(ctx, cfg.DraftMaxAge)
	if err != nil {
		lg.Fatal().Err(err).Int("removed", n).Msg("draft cleanup failed")
	}
	lg.Info().Int("removed", n).Dur("max_age", cfg.DraftMaxAge).Msg("draft cleanup completed")
}
