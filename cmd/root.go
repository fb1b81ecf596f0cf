package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	dbPath    string
	method    string
	threshold int
	workers   int
)

var rootCmd = &cobra.Command{
	Use:   "imagededup",
	Short: "Find near-duplicate images and plan their removal",
	Long: `imagededup finds near-duplicate images in large collections using
perceptual hashing and produces an auditable, reversible removal plan.

Similar images are grouped by fingerprint distance; each group keeps its
highest quality image and marks the rest for removal. Nothing is deleted
until you run 'clean', and every run can write JSON/CSV reports for audit.

Example usage:
  imagededup scan ./photos              # Analyze a folder
  imagededup list                       # Show duplicate groups
  imagededup report                     # Write JSON/CSV/text reports
  imagededup clean --dry-run            # Preview the removal plan
  imagededup clean --backup ./backup    # Back up, then remove duplicates`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Default database path
	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".imagededup", "images.db")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&method, "method", "phash", "Hashing method: phash, dhash, ahash")
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", 3, "Hamming distance threshold (0-64, lower = stricter)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 8, "Number of parallel workers")
}
