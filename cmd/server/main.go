package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/filedeck/filedeck/internal/api"
	"github.com/filedeck/filedeck/internal/config"
	"github.com/filedeck/filedeck/internal/logging"
	"github.com/filedeck/filedeck/internal/storage"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "filedeck.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Configure(cfg.Logging.Level, nil)
	logger := logging.New("server")

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		logger.Fatalf("Failed to create directories: %v", err)
	}

	// Initialize metadata index and storage
	index, err := storage.OpenIndex(
		cfg.Storage.Index,
		filepath.Join(cfg.GetDataDir(), "index.msgpack"),
		cfg.Storage.SQLDriver,
		cfg.Storage.SQLDSN,
	)
	if err != nil {
		logger.Fatalf("Failed to open index: %v", err)
	}
	defer index.Close()

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir(), index)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	var issuer *api.TokenIssuer
	if cfg.Security.RequireAuth {
		issuer, err = api.NewTokenIssuer(cfg.Security.JWTSecret, cfg.GetTokenTTL())
		if err != nil {
			logger.Fatalf("Authentication is required but unusable: %v", err)
		}
	}

	hub := api.NewHub(logging.New("events"))
	defer hub.Close()

	e := echo.New()
	e.HideBanner = true
	e.Logger = logging.New("echo")

	api.SetupMiddleware(e, &cfg.Server, cfg.Logging.Level == "debug")
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:       fileStore,
		Hub:         hub,
		Auth:        issuer,
		AllowDelete: cfg.Security.AllowFileDeletion,
		Version:     Version,
		Logger:      logging.New("api"),
	}))

	// Configure server with settings from YAML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	indexDesc := cfg.Storage.Index
	if indexDesc == "sql" {
		indexDesc = "sql (" + cfg.Storage.SQLDriver + ")"
	}
	auth := "off"
	if issuer != nil {
		auth = "bearer (HS256)"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           filedeck Server                                 ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Index:      %-45s║\n", indexDesc)
	fmt.Printf("║  Auth:       %-45s║\n", auth)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", *configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown: %v", err)
	}
}
