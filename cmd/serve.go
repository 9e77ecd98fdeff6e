package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/photo-cleanup/internal/analyzer"
	"github.com/kozaktomas/photo-cleanup/internal/cleanup"
	"github.com/kozaktomas/photo-cleanup/internal/config"
	"github.com/kozaktomas/photo-cleanup/internal/database/memory"
	"github.com/kozaktomas/photo-cleanup/internal/database/postgres"
	"github.com/kozaktomas/photo-cleanup/internal/photoindex"
	"github.com/kozaktomas/photo-cleanup/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Photo Cleanup web server.
The web server exposes the cleanup session over HTTP: entering collections,
walking duplicate batches, checkpoints and review progress.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// buildSource picks the photo source from the configuration: a PhotoPrism
// MariaDB connection when one is configured, otherwise a local directory.
func buildSource(cfg *config.Config) (photoindex.Source, error) {
	if cfg.PhotoIndex.MariaDBDSN != "" {
		fmt.Printf("Using PhotoPrism MariaDB photo source\n")
		return photoindex.NewMariaDBSource(cfg.PhotoIndex.MariaDBDSN, cfg.PhotoIndex.OriginalsDir)
	}
	if cfg.PhotoIndex.Dir != "" {
		fmt.Printf("Using directory photo source at %s\n", cfg.PhotoIndex.Dir)
		return photoindex.NewDirectorySource(cfg.PhotoIndex.Dir)
	}
	return nil, errors.New("either PHOTOPRISM_DATABASE_URL or PHOTO_DIR must be set")
}

// buildSession wires the analyzer and review stores into a cleanup session.
// With DATABASE_URL set, checkpoints and processed groups persist in
// PostgreSQL and grouping runs over stored pgvector embeddings; without it,
// everything lives in memory and grouping falls back to perceptual hashes
// computed from the image files themselves.
func buildSession(cfg *config.Config, source photoindex.Source) (*cleanup.Session, func(), error) {
	opts := cleanup.Options{
		BatchImageCap:     cfg.Engine.BatchImageCap,
		PrefetchThreshold: cfg.Engine.PrefetchThreshold,
	}

	if cfg.Database.URL != "" {
		fmt.Printf("Connecting to PostgreSQL database...\n")
		pool, err := postgres.Open(&cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}

		embeddings := postgres.NewEmbeddingRepository(pool)
		a := analyzer.NewEmbeddingAnalyzer(embeddings, cfg.Analyzer.EmbeddingThreshold, cfg.Analyzer.NeighborLimit)
		session := cleanup.NewSession(a, postgres.NewCheckpointRepository(pool), postgres.NewCleanupStateRepository(pool), opts)
		fmt.Printf("Review state persistence enabled (PostgreSQL)\n")
		cleanupFn := func() {
			if err := pool.Close(); err != nil {
				fmt.Printf("Error closing database: %v\n", err)
			}
		}
		return session, cleanupFn, nil
	}

	fmt.Printf("DATABASE_URL not set, using in-memory review state\n")
	a := analyzer.NewFingerprintAnalyzer(source.Open, cfg.Analyzer.HammingThreshold)
	session := cleanup.NewSession(a, memory.NewCheckpointStore(), memory.NewCleanupStateStore(), opts)
	return session, func() {}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	source, err := buildSource(cfg)
	if err != nil {
		return err
	}

	session, teardown, err := buildSession(cfg, source)
	if err != nil {
		return err
	}
	defer teardown()

	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}

	server := web.NewServer(session, source, host, port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Photo Cleanup on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
