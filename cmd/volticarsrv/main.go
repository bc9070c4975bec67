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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/gamesrv/catalog"
	"github.com/volticar/volticar/internal/gamesrv/config"
	"github.com/volticar/volticar/internal/gamesrv/db"
	"github.com/volticar/volticar/internal/gamesrv/gamecommon"
	"github.com/volticar/volticar/internal/gamesrv/server"
)

func init() {
	gamecommon.InitLogger()
}

type cmdoptions struct {
	configFile string
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog := log.With().Str("state", "init").Logger()

	_ = godotenv.Load() // no error if .env doesn't exist

	opt := parseFlags()

	slog.Info().Str("config_file", opt.configFile).Msg("loading config file")
	if err := config.LoadConfig(opt.configFile); err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	if config.Config().ServerPort == "" {
		return fmt.Errorf("server port not defined")
	}

	db.Init()

	if err := loadCatalogSeed(ctx); err != nil {
		return fmt.Errorf("loading catalog seed: %w", err)
	}

	serverErrors, shutdownServer, err := createGameServer(ctx)
	if err != nil {
		return fmt.Errorf("creating game server: %w", err)
	}

	// Channel to listen for an interrupt or terminate signal from the OS.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		shutdownServer()
	}

	slog.Info().Msg("server stopped")
	return nil
}

// loadCatalogSeed imports the catalog definition files at boot. A missing
// seed_dir means the catalog is managed out of band.
func loadCatalogSeed(ctx context.Context) error {
	seedDir := config.Config().Catalog.SeedDir
	if seedDir == "" {
		return nil
	}

	ctx = log.Logger.WithContext(ctx)
	connCtx, err := db.ConnCtx(ctx)
	if err != nil {
		return fmt.Errorf("getting db connection: %w", err)
	}
	defer db.DB(connCtx).Close(connCtx)

	if _, loadErr := catalog.LoadSeedDir(connCtx, db.DB(connCtx), seedDir); loadErr != nil {
		return loadErr
	}
	return nil
}

func createGameServer(ctx context.Context) (chan error, func(), error) {
	slog := log.With().Str("state", "init").Logger()
	s, err := server.CreateNewServer()
	if err != nil {
		return nil, nil, fmt.Errorf("creating server: %w", err)
	}
	s.MountHandlers()

	srv := &http.Server{
		Addr:              config.Config().ServerHostName + ":" + config.Config().ServerPort,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		slog.Info().Str("port", config.Config().ServerPort).Msg("server started")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := func() {
		// Give outstanding requests 5 seconds to complete and initiate the shutdown.
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error().Err(err).Msg("could not stop server gracefully")
			if err := srv.Close(); err != nil {
				slog.Error().Err(err).Msg("could not stop server")
			}
		}
	}

	return serverErrors, shutdown, nil
}

const DefaultConfigFile = "/etc/volticar/volticarsrv.conf"

func parseFlags() cmdoptions {
	var opt cmdoptions
	flag.StringVar(&opt.configFile, "config", DefaultConfigFile, "Path to the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
