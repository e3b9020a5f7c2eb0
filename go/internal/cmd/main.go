package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcdev12/tunequiz/go/internal/config"
	"github.com/rs/zerolog/log"
)

func main() {
	opts := parseFlags()

	config.LoadDotEnv()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogging(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := setupDatabase(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database")
	}
	defer database.Close()

	services := setupServices(database)

	if opts.importFile != "" {
		if err := importSongs(ctx, services.Songs, opts.importFile); err != nil {
			log.Fatal().Err(err).Str("file", opts.importFile).Msg("failed to import songs")
		}
	}

	server := setupServer(services, cfg.Gateway.AllowedOrigins, opts.port)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("API server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("API server shutdown complete")
}

type flags struct {
	configPath string
	importFile string
	port       string
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", os.Getenv("TUNEQUIZ_CONFIG"), "path to the YAML config file")
	flag.StringVar(&f.importFile, "import-songs", os.Getenv("SONGS_IMPORT_FILE"), "YAML song catalog to upsert at startup")
	flag.StringVar(&f.port, "port", getEnv("PORT", "8080"), "HTTP listen port")
	flag.Parse()
	return f
}
