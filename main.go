package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/rmcs/config"
	"github.com/wfunc/rmcs/logger"
	"github.com/wfunc/rmcs/persistence"
	"github.com/wfunc/rmcs/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init(false)
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.Log.Debug)
	defer logger.Sync()

	// Initialize Database
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Infof("Round archive using %s store.", cfg.Database.Driver)

	// Initialize Game Server
	gameServer := server.NewGameServer(server.OptionsFromConfig(cfg, db))

	errCh := make(chan error, 1)
	go func() { errCh <- gameServer.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	case sig := <-quit:
		logger.Log.Infof("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := gameServer.Shutdown(ctx); err != nil {
			logger.Log.Errorf("Shutdown: %v", err)
		}
	}
}
