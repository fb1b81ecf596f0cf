package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"imagededup/internal/clean"
	"imagededup/internal/models"
	"imagededup/internal/storage"
)

var (
	dryRun    bool
	backupDir string
	moveTo    string
	permanent bool
	noConfirm bool
	groupIDs  []int
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove or move duplicate images",
	Long: `Execute the removal plan, keeping the best image of each group.

The clean command will:
1. Keep the representative image in each group
2. Optionally back up each duplicate before removing it
3. Move duplicates to trash (default), a folder, or delete permanently

A file that fails to back up is never removed. Individual failures are
reported per file and do not stop the remaining files.

Options:
  --dry-run     Preview what would be removed without actually removing
  --backup      Copy each file to this folder before removal
  --permanent   Delete files permanently instead of moving to trash
  --move-to     Move duplicates to a specific folder
  --yes         Skip confirmation prompt
  --group       Specify group IDs to clean (can be used multiple times)

Example:
  imagededup clean                       # Move to trash (default)
  imagededup clean --backup ./backup     # Back up, then trash
  imagededup clean --permanent           # Delete permanently
  imagededup clean --move-to=./dupes     # Move to specific folder
  imagededup clean --dry-run             # Preview only
  imagededup clean --group=1 --group=3   # Clean only groups 1 and 3`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview without removing")
	cleanCmd.Flags().StringVar(&backupDir, "backup", "", "Copy files to this folder before removal")
	cleanCmd.Flags().BoolVar(&permanent, "permanent", false, "Delete permanently instead of moving to trash")
	cleanCmd.Flags().StringVar(&moveTo, "move-to", "", "Move duplicates to this folder")
	cleanCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	cleanCmd.Flags().IntSliceVarP(&groupIDs, "group", "g", nil, "Group IDs to clean (can be specified multiple times)")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	db, err := storage.NewStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	p, lookup, err := loadPlan(db)
	if err != nil {
		return err
	}

	if p.TotalGroups == 0 {
		fmt.Println("No duplicate groups found.")
		return nil
	}

	// Filter groups if --group is specified, then recompute the removal
	// set from just the selected groups.
	toRemove := p.ToRemove
	if len(groupIDs) > 0 {
		selected := make(map[int]bool)
		for _, id := range groupIDs {
			selected[id] = true
		}

		var filtered []*models.DuplicateGroup
		for _, g := range p.Groups {
			if selected[g.ID] {
				filtered = append(filtered, g)
			}
		}
		if len(filtered) == 0 {
			fmt.Printf("No matching groups found for IDs: %v\n", groupIDs)
			fmt.Println("Run 'imagededup list' to see available group IDs.")
			return nil
		}

		toRemove = nil
		for _, g := range filtered {
			toRemove = append(toRemove, g.Duplicates()...)
		}
		fmt.Printf("Processing %d selected group(s): %v\n\n", len(filtered), groupIDs)
	}

	// Verify files still exist and total up the reclaimable size
	var existing []string
	var totalSize int64
	for _, id := range toRemove {
		if _, err := os.Stat(id); err != nil {
			continue
		}
		existing = append(existing, id)
		if rec, ok := lookup(id); ok {
			totalSize += rec.FileSize
		}
	}

	if len(existing) == 0 {
		fmt.Println("No files to remove (files may have been already deleted).")
		return nil
	}

	opts := clean.Options{BackupDir: backupDir}
	switch {
	case moveTo != "":
		opts.Mode = clean.ModeMove
		opts.MoveTo = moveTo
	case permanent:
		opts.Mode = clean.ModePermanent
	default:
		opts.Mode = clean.ModeTrash
	}

	fmt.Printf("Will %s %d files (%s)\n", opts.Describe(), len(existing), humanize.IBytes(uint64(totalSize)))
	if backupDir != "" {
		fmt.Printf("Backup folder: %s\n", backupDir)
	}
	fmt.Println()

	if dryRun {
		fmt.Println("Files to be removed:")
		for _, path := range existing {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println()
		fmt.Println("(Dry run - no files were modified)")
		fmt.Println("Run without --dry-run to actually remove files.")
		return nil
	}

	if !noConfirm {
		fmt.Printf("Are you sure you want to %s %d files? [y/N]: ", opts.Describe(), len(existing))
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	executor := clean.New(opts)
	executor.OnRemoved = func(path string) {
		db.DeleteImage(path)
	}

	exec := &models.RemovalPlan{ToRemove: existing}
	result := executor.Execute(exec, lookup)

	fmt.Println()
	switch opts.Mode {
	case clean.ModeMove:
		fmt.Printf("Moved %d files to %s\n", result.Processed, moveTo)
	case clean.ModePermanent:
		fmt.Printf("Permanently deleted %d files\n", result.Processed)
	default:
		fmt.Printf("Moved %d files to trash\n", result.Processed)
	}
	if result.Skipped > 0 {
		fmt.Printf("Skipped (already gone): %d files\n", result.Skipped)
	}
	if len(result.Failed) > 0 {
		fmt.Printf("Not processed: %d files\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Fprintf(os.Stderr, "  %s (%s): %s\n", f.Path, f.Stage, f.Reason)
		}
	}
	fmt.Printf("Space reclaimed: %s\n", humanize.IBytes(uint64(result.BytesReclaimed)))

	return nil
}
