package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"anycomp/internal/config"
	"anycomp/internal/database"
	"anycomp/internal/domain"
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

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		lg.Fatal().Err(err).Msg("DB connection failed")
	}
	if err := repository.Migrate(db); err != nil {
		lg.Fatal().Err(err).Msg("migrate")
	}

	svc := mockapi.NewService(db, jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL), mockapi.NewStorage(cfg.UploadDir), lg)
	err = svc.Seed(context.Background(),
		mockapi.SeedAccount{Email: cfg.AdminEmail, Password: cfg.AdminPassword, Role: domain.RoleAdmin},
	)
	if err != nil {
		lg.Fatal().Err(err).Msg("seed failed")
	}
	lg.Info().Str("admin", cfg.AdminEmail).Msg("seed completed")
}
