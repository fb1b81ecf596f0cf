package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"imagededup/internal/hash"
	"imagededup/internal/pipeline"
	"imagededup/internal/report"
	"imagededup/internal/resolve"
	"imagededup/internal/scan"
	"imagededup/internal/storage"
	"imagededup/internal/store"
)

var (
	scanReportDir string
	scanNoReport  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <folder>",
	Short: "Scan a folder and build a removal plan",
	Long: `Scan a folder recursively for images and detect near-duplicates.

The scan will:
1. Find all supported images (jpg, png, gif, webp, etc.)
2. Compute perceptual fingerprints in parallel
3. Find all image pairs within the distance threshold
4. Group connected pairs and pick the best image of each group
5. Store the resulting removal plan for 'list', 'report' and 'clean'

Ctrl+C cancels cleanly between stages; nothing is written until the
analysis completes.

Example:
  imagededup scan ./photos
  imagededup scan /data/images --threshold 5 --method dhash`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanReportDir, "report-dir", ".", "Directory for report files")
	scanCmd.Flags().BoolVar(&scanNoReport, "no-report", false, "Skip writing report files")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	folder := args[0]

	absFolder, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absFolder)
	if err != nil {
		return fmt.Errorf("folder not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", absFolder)
	}

	m, err := hash.ParseMethod(method)
	if err != nil {
		return err
	}
	if threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", threshold)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Scanning: %s\n", absFolder)
	fmt.Printf("Method: %s\n", m)
	fmt.Printf("Threshold: %d (Hamming distance, ~%.1f%% similarity)\n",
		threshold, resolve.Similarity(threshold, hash.FingerprintBits)*100)
	fmt.Printf("Workers: %d\n\n", workers)

	db, err := storage.NewStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Stage 1: fingerprint everything into a fresh store
	st := store.New()
	lastLine := ""
	scanner := scan.NewScanner(
		scan.WithMethod(m),
		scan.WithWorkers(workers),
		scan.WithProgress(func(scanned, total int, current string) {
			if lastLine != "" {
				fmt.Print("\r" + strings.Repeat(" ", len(lastLine)) + "\r")
			}
			shortPath := current
			if len(shortPath) > 50 {
				shortPath = "..." + shortPath[len(shortPath)-47:]
			}
			lastLine = fmt.Sprintf("Progress: %d/%d  %s", scanned, total, shortPath)
			fmt.Print(lastLine)
		}),
	)

	if err := scanner.ScanFolder(ctx, absFolder, st); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if lastLine != "" {
		fmt.Print("\r" + strings.Repeat(" ", len(lastLine)) + "\r")
	}
	fmt.Printf("Scanned: %d images\n", st.Len())

	if st.Len() == 0 {
		fmt.Println("No images found.")
		return nil
	}

	// Stages 2-5: pairs, groups, representatives, plan
	fmt.Println("Finding duplicates...")
	p, err := pipeline.Run(ctx, st, pipeline.Options{
		Method:    string(m),
		Threshold: threshold,
		Workers:   workers,
		SourceDir: absFolder,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := db.SaveImages(st.All()); err != nil {
		return fmt.Errorf("failed to save images: %w", err)
	}
	if err := db.SaveGroups(p.Groups); err != nil {
		return fmt.Errorf("failed to save groups: %w", err)
	}
	db.RecordScan(absFolder, string(m), threshold, p.TotalImages, p.TotalGroups, p.TotalDuplicates, p.BytesReclaimed)

	fmt.Println()
	fmt.Println("=== Scan Complete ===")
	fmt.Printf("Total images:     %d\n", p.TotalImages)
	fmt.Printf("Duplicate groups: %d\n", p.TotalGroups)
	fmt.Printf("Duplicates found: %d\n", p.TotalDuplicates)
	fmt.Printf("Reclaimable:      %s\n", humanize.IBytes(uint64(p.BytesReclaimed)))

	if !scanNoReport && p.TotalGroups > 0 {
		w := report.New(scanReportDir)
		files, err := w.WriteAll(p, st.Get)
		if err != nil {
			return fmt.Errorf("failed to write reports: %w", err)
		}
		fmt.Println()
		fmt.Printf("Analysis report:  %s\n", files.JSON)
		fmt.Printf("Removal list:     %s\n", files.CSV)
		fmt.Printf("Summary:          %s\n", files.Summary)
	}

	if p.TotalGroups > 0 {
		fmt.Println()
		fmt.Println("Run 'imagededup list' to see duplicate groups")
		fmt.Println("Run 'imagededup clean --dry-run' to preview deletions")
	}

	return nil
}
