package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"imagededup/internal/report"
	"imagededup/internal/storage"
)

var reportDir string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write analysis reports for the current removal plan",
	Long: `Write the current removal plan to timestamped report files.

Three files are produced:
- duplicate_analysis_<timestamp>.json   full plan for tooling
- duplicates_to_remove_<timestamp>.csv  one row per file to remove
- duplicate_summary_<timestamp>.txt     human readable summary

Example:
  imagededup report                  # Write reports to current directory
  imagededup report --dir ./reports  # Write reports to a folder`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDir, "dir", ".", "Directory to write report files to")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
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

	files, err := report.New(reportDir).WriteAll(p, lookup)
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}

	fmt.Println("Reports written:")
	fmt.Printf("  %s\n", files.JSON)
	fmt.Printf("  %s\n", files.CSV)
	fmt.Printf("  %s\n", files.Summary)

	return nil
}
