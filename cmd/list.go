package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"imagededup/internal/models"
	"imagededup/internal/storage"
)

var (
	listJSON    bool
	listVerbose bool
	listSummary bool
	listLimit   int
	listOffset  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all duplicate groups",
	Long: `Display all detected duplicate groups with their images.

Each group shows:
- Group ID
- Images in the group with their quality scores
- Which image will be kept marked with ✓
- Which images will be removed marked with ✗

Example:
  imagededup list              # Show first 10 groups (default)
  imagededup list -n 0         # Show all groups
  imagededup list -s           # Summary view (compact)
  imagededup list --offset 10  # Groups 11-20`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVarP(&listVerbose, "verbose", "v", false, "Show detailed image info")
	listCmd.Flags().BoolVarP(&listSummary, "summary", "s", false, "Show summary only (group counts and sizes)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 10, "Limit number of groups to display (0 = all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Skip first N groups (for pagination)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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
		fmt.Println("Run 'imagededup scan <folder>' to scan for duplicates.")
		return nil
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	fmt.Printf("Found %d duplicate groups (%d duplicates, %s reclaimable)\n\n",
		p.TotalGroups, p.TotalDuplicates, humanize.IBytes(uint64(p.BytesReclaimed)))

	// Apply pagination
	groups := p.Groups
	totalGroups := len(groups)
	startIdx := listOffset
	if startIdx > len(groups) {
		startIdx = len(groups)
	}
	groups = groups[startIdx:]

	if listLimit > 0 && listLimit < len(groups) {
		groups = groups[:listLimit]
	}

	if len(groups) == 0 {
		fmt.Printf("No groups in range (offset %d exceeds total %d)\n", listOffset, totalGroups)
	} else if listSummary {
		printSummaryTable(groups, lookup)
	} else {
		for _, g := range groups {
			printGroup(g, lookup, listVerbose)
		}
	}

	// Show pagination info
	endIdx := startIdx + len(groups)
	if len(groups) > 0 {
		fmt.Printf("Showing groups %d-%d of %d\n", startIdx+1, endIdx, totalGroups)
		if endIdx < totalGroups {
			limitArg := ""
			if listLimit > 0 {
				limitArg = fmt.Sprintf(" -n %d", listLimit)
			}
			fmt.Printf("Next page: imagededup list%s --offset %d\n", limitArg, endIdx)
		}
	}

	fmt.Println()
	fmt.Println("Run 'imagededup clean --dry-run' to preview deletions")
	fmt.Println("Run 'imagededup clean' to remove duplicates")

	return nil
}

func printSummaryTable(groups []*models.DuplicateGroup, lookup func(string) (*models.ImageRecord, bool)) {
	fmt.Printf("%-8s  %-8s  %-12s  %s\n", "Group", "Images", "Reclaimable", "Keep (best quality)")
	fmt.Println(strings.Repeat("-", 70))

	for _, g := range groups {
		var reclaimable int64
		for _, id := range g.Duplicates() {
			if rec, ok := lookup(id); ok {
				reclaimable += rec.FileSize
			}
		}

		keepName := filepath.Base(g.Representative)
		if len(keepName) > 35 {
			keepName = keepName[:32] + "..."
		}

		fmt.Printf("#%-7d  %-8d  %-12s  %s\n",
			g.ID, len(g.Members), humanize.IBytes(uint64(reclaimable)), keepName)
	}
	fmt.Println()
}

func printGroup(g *models.DuplicateGroup, lookup func(string) (*models.ImageRecord, bool), verbose bool) {
	fmt.Printf("Group #%d (%d images)\n", g.ID, len(g.Members))
	fmt.Println(strings.Repeat("-", 60))

	for _, id := range g.Members {
		marker := "✗"
		if id == g.Representative {
			marker = "✓"
		}

		rec, ok := lookup(id)
		if !ok {
			fmt.Printf("  %s %s (missing from database)\n", marker, id)
			continue
		}

		if verbose {
			fmt.Printf("  %s %s\n", marker, rec.ID)
			fmt.Printf("      Resolution: %dx%d  Format: %s  Size: %s\n",
				rec.Width, rec.Height, strings.ToUpper(rec.Format), humanize.IBytes(uint64(rec.FileSize)))
			fmt.Printf("      Quality: %.0f\n", rec.Quality)
		} else {
			fmt.Printf("  %s %-40s  %dx%d  %-4s  %8s  Quality: %.0f\n",
				marker, shortenPath(rec.ID, 40), rec.Width, rec.Height,
				strings.ToUpper(rec.Format), humanize.IBytes(uint64(rec.FileSize)), rec.Quality)
		}
	}
	fmt.Println()
}

func shortenPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	// Try to show filename and as much of the path as possible
	dir, file := filepath.Split(path)
	if len(file) >= maxLen-3 {
		return "..." + file[len(file)-(maxLen-3):]
	}

	remaining := maxLen - len(file) - 4 // 4 for ".../"
	if remaining > 0 && len(dir) > remaining {
		dir = dir[len(dir)-remaining:]
	}
	return "..." + dir + file
}
