package pano

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackvectorops/pano"
	"github.com/blackvectorops/pano/pkg/config"
	panoLogger "github.com/blackvectorops/pano/pkg/logger"
	"github.com/blackvectorops/pano/pkg/server"
	"github.com/blackvectorops/pano/pkg/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Pano HTTP server",
	Long: `Start the Pano HTTP server to provide REST API access to the investigation graph.

The server provides endpoints for:
- Managing nodes and edges
- Running transforms against entities
- Applying enrichment payloads
- Saving and loading investigations
- Timeline management
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Snapshot flags
	serverCmd.Flags().String("snapshot-dir", "", "Directory for investigation snapshots")

	// Geocoding flags
	serverCmd.Flags().String("geo-base-url", "", "Geocoding service base URL")
	serverCmd.Flags().String("static-map-api-key", "", "API key for static map images")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for error telemetry")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeTelemetry := buildLogger(cfg)
	defer closeTelemetry()

	// Initialize the client
	fmt.Println("Initializing Pano...")
	client, err := pano.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Pano: %w", err)
	}

	// Create and setup server
	srv := server.New(cfg, client)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Shutdown server
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		if err := client.Close(shutdownCtx); err != nil {
			return fmt.Errorf("client shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

// buildLogger sets up the colored console logger, chained through the
// Parquet error handler when telemetry is configured.
func buildLogger(cfg *config.Config) (*slog.Logger, func()) {
	colorHandler := panoLogger.NewColorHandler(os.Stderr, &slog.HandlerOptions{
		Level: panoLogger.ParseLevel(cfg.Log.Level),
	})

	if cfg.Telemetry.ParquetPath == "" {
		return slog.New(colorHandler), func() {}
	}

	parquetHandler, err := telemetry.NewParquetHandler(colorHandler, cfg.Telemetry.ParquetPath)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize error tracking: %v\n", err)
		return slog.New(colorHandler), func() {}
	}

	fmt.Printf("Error tracking enabled at: %s\n", cfg.Telemetry.ParquetPath)
	return slog.New(parquetHandler), func() {
		if err := parquetHandler.Close(); err != nil {
			fmt.Printf("Warning: Failed to flush telemetry: %v\n", err)
		}
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Snapshot flags
	if cmd.Flags().Changed("snapshot-dir") {
		cfg.Snapshot.Dir, _ = cmd.Flags().GetString("snapshot-dir")
	}

	// Geocoding flags
	if cmd.Flags().Changed("geo-base-url") {
		cfg.Geo.BaseURL, _ = cmd.Flags().GetString("geo-base-url")
	}
	if cmd.Flags().Changed("static-map-api-key") {
		cfg.Geo.StaticMapAPIKey, _ = cmd.Flags().GetString("static-map-api-key")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	return nil
}
