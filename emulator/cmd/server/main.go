// Package main Bill Store Emulator Server
//
// @title Bill Store Emulator
// @version 1.0
// @description Local emulator of the expense report bill store for development and testing
//
// @contact.name API Support
// @contact.email support@example.com
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	_ "github.com/pigeonworks-llc/billed/emulator/docs"
	"github.com/pigeonworks-llc/billed/emulator/internal/api"
	"github.com/pigeonworks-llc/billed/emulator/internal/oauth"
	"github.com/pigeonworks-llc/billed/emulator/internal/store"
	"github.com/pigeonworks-llc/billed/pkg/pathutil"
)

const (
	defaultPort   = "8080"
	defaultDBName = "billstore.db"
)

func main() {
	// Setup structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Get configuration from environment variables.
	// Receipts go to UPLOAD_DIR or {BILLED_DATA_ROOT}/receipts.
	paths := pathutil.FromEnv()
	port := getEnvOrDefault("PORT", defaultPort)
	dbPath := getEnvOrDefault("DB_PATH", filepath.Join(paths.GetDataRoot(), defaultDBName))
	uploadDir := paths.GetReceiptsDir()

	if err := paths.EnsureParentDir(dbPath); err != nil {
		slog.Error("failed to create database directory", "error", err, "db_path", dbPath)
		os.Exit(1)
	}
	if err := paths.EnsureDir(uploadDir); err != nil {
		slog.Error("failed to create upload directory", "error", err, "upload_dir", uploadDir)
		os.Exit(1)
	}

	// Initialize store.
	st, err := store.New(dbPath)
	if err != nil {
		slog.Error("failed to initialize store", "error", err, "db_path", dbPath)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	slog.Info("database initialized", "db_path", dbPath)

	var tokenOpts []oauth.TokenOption
	if token := os.Getenv("EMULATOR_STATIC_TOKEN"); token != "" {
		tokenOpts = append(tokenOpts, oauth.WithStaticToken(token))
	}

	var clients []oauth.Client
	if id := os.Getenv("EMULATOR_CLIENT_ID"); id != "" {
		clients = append(clients, oauth.Client{ID: id, Secret: os.Getenv("EMULATOR_CLIENT_SECRET")})
	}

	handler := api.NewRouter(api.RouterConfig{
		Store:     st,
		Tokens:    oauth.NewTokenManager(tokenOpts...),
		Clients:   clients,
		UploadDir: uploadDir,
		PublicURL: os.Getenv("EMULATOR_PUBLIC_URL"),
		Limiter:   rate.NewLimiter(rate.Every(100*time.Millisecond), 30),
		Metrics:   api.NewMetrics(),
	})

	// Start server.
	addr := fmt.Sprintf(":%s", port)
	slog.Info("starting bill store emulator", "addr", addr, "port", port, "upload_dir", uploadDir)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
