package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kozaktomas/photo-cleanup/internal/analyzer"
	"github.com/kozaktomas/photo-cleanup/internal/cleanup"
	"github.com/kozaktomas/photo-cleanup/internal/config"
	"github.com/kozaktomas/photo-cleanup/internal/database/memory"
	"github.com/kozaktomas/photo-cleanup/internal/photoindex"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Review duplicate photos in a local directory",
	Long: `Analyze a directory of photos for near-duplicate groups and walk
through them batch by batch. Without --collection the command lists the
collections (subdirectories) found under the photo directory.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().String("dir", "", "Photo directory root (defaults to PHOTO_DIR)")
	cleanupCmd.Flags().String("collection", "", "Collection to review")
	cleanupCmd.Flags().Int("batch-size", 0, "Photos per review batch (defaults to configuration)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	dir := mustGetString(cmd, "dir")
	if dir == "" {
		dir = cfg.PhotoIndex.Dir
	}
	if dir == "" {
		return fmt.Errorf("photo directory required: pass --dir or set PHOTO_DIR")
	}

	source, err := photoindex.NewDirectorySource(dir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	collectionID := mustGetString(cmd, "collection")
	if collectionID == "" {
		return listCollections(ctx, source)
	}

	opts := cleanup.Options{
		BatchImageCap:     cfg.Engine.BatchImageCap,
		PrefetchThreshold: cfg.Engine.PrefetchThreshold,
	}
	if size := mustGetInt(cmd, "batch-size"); size > 0 {
		opts.BatchImageCap = size
	}

	a := analyzer.NewFingerprintAnalyzer(source.Open, cfg.Analyzer.HammingThreshold)
	session := cleanup.NewSession(a, memory.NewCheckpointStore(), memory.NewCleanupStateStore(), opts)

	photos, err := source.Photos(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("failed to list photos: %w", err)
	}
	if len(photos) == 0 {
		return fmt.Errorf("collection %q not found or empty", collectionID)
	}

	bar := progressbar.NewOptions(len(photos),
		progressbar.OptionSetDescription("Analyzing photos"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	batch, resumeIndex, err := session.EnterCollection(ctx, collectionID, photos, func(p float64) {
		_ = bar.Set(int(p * float64(len(photos))))
	})
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	total := session.TotalGroups(collectionID)
	fmt.Printf("Found %d duplicate groups (%d photos) in %s\n", total, session.TotalImages(collectionID), collectionID)
	if batch == nil {
		fmt.Println("Nothing to review.")
		return nil
	}
	if resumeIndex > 0 {
		fmt.Printf("Resuming earlier review at photo %d\n", resumeIndex+1)
	}

	reader := bufio.NewReader(os.Stdin)
	for batch != nil {
		printBatch(session, batch)

		fmt.Print("Press Enter to mark reviewed and continue, q to quit: ")
		line, _ := reader.ReadString('\n')
		if strings.TrimSpace(line) == "q" {
			if err := session.SaveCheckpoint(ctx, batch.CollectionID, batch.GroupIDs, 0); err != nil {
				return fmt.Errorf("failed to save checkpoint: %w", err)
			}
			fmt.Println("Checkpoint saved, bye.")
			return nil
		}

		batch, err = session.AdvanceBatch(ctx)
		if err != nil {
			return fmt.Errorf("failed to advance: %w", err)
		}
	}

	fmt.Printf("All %d groups reviewed.\n", total)
	return nil
}

func listCollections(ctx context.Context, source photoindex.Source) error {
	collections, err := source.Collections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(collections) == 0 {
		fmt.Println("No collections found.")
		return nil
	}
	for _, c := range collections {
		fmt.Printf("%-40s %5d photos\n", c.ID, c.PhotoCount)
	}
	return nil
}

func printBatch(session *cleanup.Session, batch *cleanup.Batch) {
	fmt.Printf("\nBatch: %d groups, %d photos (%d of %d groups remaining)\n",
		len(batch.GroupIDs), len(batch.Photos),
		session.RemainingGroups(batch.CollectionID), session.TotalGroups(batch.CollectionID))
	for _, p := range batch.Photos {
		fmt.Printf("  %s\n", p.SourceRef)
	}
}
