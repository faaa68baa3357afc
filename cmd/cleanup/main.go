package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"foldervault/internal/config"
	"foldervault/internal/database"
	"foldervault/internal/domain/catalog"
	"foldervault/internal/domain/delivery"
	"foldervault/internal/domain/user"
	"foldervault/internal/pkg/logger"
)

// Spools younger than this may still be streaming.
const spoolMaxAge = time.Hour

type result struct {
	shares int64
	spools int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}

	res, err := run(context.Background(), db, cfg.ArchiveTempDir, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("cleanup failed")
	}
	log.Info().
		Int64("orphan_shares", res.shares).
		Int("archive_spools", res.spools).
		Msg("cleanup completed")
}

func run(ctx context.Context, db *gorm.DB, tempDir string, now time.Time) (result, error) {
	var res result
	var err error

	res.shares, err = catalog.NewRepository(db).PruneShares(ctx, user.Table)
	if err != nil {
		return res, err
	}
	res.spools, err = delivery.SweepSpool(tempDir, spoolMaxAge, now)
	return res, err
}
