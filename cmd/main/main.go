package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chart-bridge/src/config"
	"chart-bridge/src/interfaces"
	"chart-bridge/src/logger"
	"chart-bridge/src/models"
	"chart-bridge/src/network"
	"chart-bridge/src/server"
	"chart-bridge/src/storage"
	"chart-bridge/src/utils"
	"chart-bridge/src/venue/auth"
	"chart-bridge/src/venue/stream"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Venue identity comes from the environment; .env is optional.
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on process environment")
	}

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	login := models.MLoginRequest{
		Name:       os.Getenv("VENUE_USERNAME"),
		Password:   os.Getenv("VENUE_PASSWORD"),
		Sec:        os.Getenv("VENUE_SECRET"),
		AppID:      cfg.Venue.AppID,
		AppVersion: cfg.Venue.AppVersion,
		CID:        cfg.Venue.CID,
		DeviceID:   cfg.Venue.DeviceID,
	}
	if login.Name == "" || login.Password == "" {
		appLogger.Critical("VENUE_USERNAME and VENUE_PASSWORD must be set")
	}

	// Setup storage
	var store interfaces.ICredentialStore

	switch cfg.Storage.DBType {
	case "postgres":
		store, err = storage.NewPostgresDB(cfg.MConfig, appLogger)
	default:
		// Default to SQLite
		store, err = storage.NewAsyncSQLiteDB(cfg.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := store.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer store.Close()

	// Setup venue clients
	netMgr := network.NewAsyncNetworkManager(cfg.MConfig, appLogger)
	credClient := auth.NewCredentialClient(cfg.MConfig, netMgr, appLogger)

	gate := auth.NewRefreshGate(func(ctx context.Context) (*models.MCredential, error) {
		return credClient.Acquire(ctx, login)
	}, store, appLogger)

	// Validate (and if expired, renew) the credential before serving. A
	// failure is logged, not fatal: the first /api/bars request retries the
	// whole exchange anyway.
	checkCtx, checkCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := gate.Do(checkCtx, func(token string) error {
		return credClient.CheckAccess(checkCtx, token)
	}); err != nil {
		appLogger.Warning("Credential check failed on startup: %v", err)
	}
	checkCancel()

	scheduler := utils.NewMarketScheduler(cfg.Symbols, logger.NewLogger(cfg.LogLevel, "MarketScheduler"))

	barSource := stream.NewVenueBarSource(cfg.MConfig, gate, store, scheduler, appLogger)
	srv := server.NewAPIServer(cfg.MConfig, barSource, scheduler, appLogger)

	// Run until interrupted
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Start()
	})
	group.Go(func() error {
		<-ctx.Done()
		appLogger.Info("Shutting down...")
		return nil
	})

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		appLogger.Error("Server failed: %v", err)
		os.Exit(1)
	}
}
