// Package report serializes a removal plan into the audit artifacts: a full
// JSON dump, a CSV of files slated for removal, and a text summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"imagededup/internal/models"
)

// Files lists the paths a WriteAll call produced.
type Files struct {
	JSON    string
	CSV     string
	Summary string
}

// Writer writes report files into a directory. Filenames carry a timestamp
// so repeated runs never clobber earlier audits.
type Writer struct {
	dir string
	now func() time.Time
}

// New creates a Writer that writes into dir.
func New(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// WriteAll writes the JSON, CSV and summary reports for the plan. The
// lookup resolves ids to records for the per-file detail columns.
func (w *Writer) WriteAll(p *models.RemovalPlan, lookup func(id string) (*models.ImageRecord, bool)) (*Files, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	ts := w.now().Format("20060102_150405")
	files := &Files{
		JSON:    filepath.Join(w.dir, fmt.Sprintf("duplicate_analysis_%s.json", ts)),
		CSV:     filepath.Join(w.dir, fmt.Sprintf("duplicates_to_remove_%s.csv", ts)),
		Summary: filepath.Join(w.dir, fmt.Sprintf("duplicate_summary_%s.txt", ts)),
	}

	if err := w.writeJSON(files.JSON, p); err != nil {
		return nil, err
	}
	if err := w.writeCSV(files.CSV, p, lookup); err != nil {
		return nil, err
	}
	if err := w.writeSummary(files.Summary, p); err != nil {
		return nil, err
	}

	return files, nil
}

func (w *Writer) writeJSON(path string, p *models.RemovalPlan) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

func (w *Writer) writeCSV(path string, p *models.RemovalPlan, lookup func(id string) (*models.ImageRecord, bool)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV report: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"group_id", "representative", "duplicate", "file_size"}); err != nil {
		return err
	}

	for _, g := range p.Groups {
		for _, id := range g.Duplicates() {
			var size int64
			if rec, ok := lookup(id); ok {
				size = rec.FileSize
			}
			row := []string{
				strconv.Itoa(g.ID),
				g.Representative,
				id,
				strconv.FormatInt(size, 10),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func (w *Writer) writeSummary(path string, p *models.RemovalPlan) error {
	var b strings.Builder

	b.WriteString("Duplicate Image Analysis Summary\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Generated:  %s\n", p.GeneratedAt.Format("2006-01-02 15:04:05"))
	if p.SourceDir != "" {
		fmt.Fprintf(&b, "Source:     %s\n", p.SourceDir)
	}
	fmt.Fprintf(&b, "Method:     %s\n", p.Method)
	fmt.Fprintf(&b, "Threshold:  %d\n\n", p.Threshold)

	fmt.Fprintf(&b, "Total images:      %d\n", p.TotalImages)
	fmt.Fprintf(&b, "Duplicate groups:  %d\n", p.TotalGroups)
	fmt.Fprintf(&b, "Duplicates found:  %d\n", p.TotalDuplicates)
	fmt.Fprintf(&b, "Files to remove:   %d\n", len(p.ToRemove))
	fmt.Fprintf(&b, "Files kept:        %d\n", p.TotalKept)
	fmt.Fprintf(&b, "Reclaimable space: %s\n", humanize.IBytes(uint64(p.BytesReclaimed)))

	if p.TotalGroups == 0 {
		b.WriteString("\nNo duplicate images were found.\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write summary report: %w", err)
	}
	return nil
}
