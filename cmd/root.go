package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "photo-cleanup",
	Short: "A duplicate photo review tool for PhotoPrism and local libraries",
	Long: `Photo Cleanup analyzes photo collections for near-duplicate groups
and walks you through them batch by batch, remembering which groups
you already reviewed so a session can be resumed at any time.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
