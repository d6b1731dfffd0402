package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ti4table/companion/internal/catalog"
	"github.com/ti4table/companion/internal/httpserver"
	"github.com/ti4table/companion/internal/store"
	"github.com/ti4table/companion/internal/ws"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(getEnv("DB_PATH", "./data/companion.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	st := store.New(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := st.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	cat, err := catalog.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load card catalogs")
	}
	seeded, err := st.Seed(ctx, cat)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
	}
	if seeded {
		log.Info().Msg("seeded catalogs and decks")
	}

	hub := ws.NewHub()
	go hub.Run()

	srv := httpserver.New(st, hub)
	port := getEnv("PORT", "5000")
	log.Info().Str("port", port).Msg("starting companion server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
