package main

import (
	"context"
	"fmt"
	"os"

	authcleanup "github.com/jakobkordez/wmm-reborn/internal/auth/cleanup"
	"github.com/jakobkordez/wmm-reborn/internal/common/bootstrap"
	"github.com/jakobkordez/wmm-reborn/internal/common/config"
	"github.com/jakobkordez/wmm-reborn/internal/common/constants"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
	srv "github.com/jakobkordez/wmm-reborn/internal/common/server"
)

func main() {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env files: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(os.Getenv("LOG_DIR"), bootstrap.ServiceName, os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	go authcleanup.StartRefreshTokenCleanup(ctx, app.RefreshTokenRepo, app.Clock, constants.RefreshTokenCleanupInterval, log)

	server := srv.NewServer(srv.DefaultServerConfig(cfg.HTTPPort), app.Handler)

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("%s: stopping background jobs", bootstrap.ServiceName)
			cancel()
			return nil
		},
	}

	srv.StartWithGracefulShutdownAndHooks(server, log, bootstrap.ServiceName, shutdownHooks)
	app.Close()
}
