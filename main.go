package main

import (
	"database/sql"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/connections/apps/go-server/assets"
	"github.com/robalobadob/connections/apps/go-server/internal/config"
	"github.com/robalobadob/connections/apps/go-server/internal/httpserver"
	"github.com/robalobadob/connections/apps/go-server/internal/store"
	"github.com/robalobadob/connections/apps/go-server/internal/words"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(cfg.PuzzlesFile); err != nil {
		log.Fatal().Err(err).Msg("failed to load puzzles")
	}

	// An empty DB_PATH keeps everything in memory: users and daily results
	// in an in-memory SQLite database, boards in the memory store.
	dsn := cfg.DBPath
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := store.Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Str("dsn", dsn).Msg("open database")
	}
	defer db.Close()
	if err := store.Migrate(db, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	srv := httpserver.New(cfg, boardStore(cfg, db), db)
	log.Info().Str("port", cfg.Port).Int("puzzles", words.Stats()).Msg("starting go-server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func boardStore(cfg config.Config, db *sql.DB) store.Store {
	if cfg.DBPath == "" {
		return store.NewMemoryStore()
	}
	return store.NewSQLiteStore(db)
}
