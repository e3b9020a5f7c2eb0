package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcdev12/tunequiz/go/internal/config"
	"github.com/mcdev12/tunequiz/go/internal/dbconfig"
	"github.com/mcdev12/tunequiz/go/internal/quiz/gateway"
	"github.com/mcdev12/tunequiz/go/internal/quiz/results"
	"github.com/mcdev12/tunequiz/go/internal/rooms"
	roomsdb "github.com/mcdev12/tunequiz/go/internal/rooms/db"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", os.Getenv("TUNEQUIZ_CONFIG"), "path to the YAML config file")
	withRooms := flag.Bool("rooms", true, "serve the room service next to the relay")
	flag.Parse()

	config.LoadDotEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogging(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Results recorder is optional; the relay works without it
	var sink gateway.ResultSink
	if cfg.Results.Enabled {
		resultsCfg := results.DefaultConfig()
		resultsCfg.URL = cfg.Results.NATSURL
		resultsCfg.StreamName = cfg.Results.Stream
		resultsCfg.SubjectPrefix = cfg.Results.SubjectPrefix

		recorder, err := results.NewRecorder(ctx, resultsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create results recorder")
		}
		defer recorder.Close()
		sink = recorder
	}

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.AllowedOrigins = cfg.Gateway.AllowedOrigins
	if cfg.Gateway.PingInterval > 0 {
		gatewayConfig.ConnectionConfig.PingInterval = cfg.Gateway.PingInterval
	}
	gatewayService := gateway.NewService(gatewayConfig, sink)

	var mounts []gateway.Mount
	if *withRooms {
		database, err := dbconfig.NewConfigFromEnv().Open(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer database.Close()

		roomsApp := rooms.NewApp(rooms.NewRepository(roomsdb.New(database), database))
		path, handler := rooms.NewService(roomsApp).Handler()
		mounts = append(mounts, gateway.Mount{Path: path, Handler: handler})
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Gateway.Port),
		Handler:      gatewayService.Handler(mounts...),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go gatewayService.Start(ctx)

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Bool("results", sink != nil).
			Bool("rooms", *withRooms).
			Msg("relay gateway starting")
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

	cancel()

	log.Info().Msg("relay gateway shutdown complete")
}
