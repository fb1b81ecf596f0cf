// Package clean executes a removal plan: optional backup copy, then trash,
// move, or permanent delete for every file in to_remove. A single file
// failing is recorded and reported; it never aborts the rest of the plan.
package clean

import (
	"fmt"
	"log/slog"
	"os"

	"imagededup/internal/fileutil"
	"imagededup/internal/models"
)

// Mode selects what happens to each duplicate.
type Mode int

const (
	ModeTrash Mode = iota // system trash / recycle bin (default)
	ModePermanent
	ModeMove
)

// Options configures an execution run.
type Options struct {
	Mode      Mode
	MoveTo    string // destination for ModeMove
	BackupDir string // if set, copy each file here before removal
}

// FileError records one file the executor could not process.
type FileError struct {
	Path   string `json:"path"`
	Stage  string `json:"stage"` // "backup", "remove"
	Reason string `json:"reason"`
}

// Result summarizes an execution run.
type Result struct {
	Processed      int         `json:"processed"`
	Skipped        int         `json:"skipped"` // already gone before execution
	Failed         []FileError `json:"failed,omitempty"`
	BytesReclaimed int64       `json:"bytes_reclaimed"`
}

// OnRemoved, if set, is called after each successful removal (used to keep
// the database in step with the filesystem).
type Executor struct {
	opts      Options
	OnRemoved func(path string)
}

// New creates an Executor.
func New(opts Options) *Executor {
	return &Executor{opts: opts}
}

// Execute processes every file in the plan's to_remove set. The plan itself
// is never mutated; the same plan drives a dry run (by not calling Execute)
// and a real run.
func (e *Executor) Execute(p *models.RemovalPlan, lookup func(id string) (*models.ImageRecord, bool)) *Result {
	res := &Result{}

	for _, path := range p.ToRemove {
		if _, err := os.Stat(path); err != nil {
			res.Skipped++
			continue
		}

		if e.opts.BackupDir != "" {
			if err := fileutil.CopyToDir(path, e.opts.BackupDir); err != nil {
				slog.Warn("backup failed, file not removed", "path", path, "error", err)
				res.Failed = append(res.Failed, FileError{
					Path:   path,
					Stage:  "backup",
					Reason: err.Error(),
				})
				continue // never remove a file whose backup failed
			}
		}

		var err error
		switch e.opts.Mode {
		case ModeMove:
			err = fileutil.MoveFile(path, e.opts.MoveTo)
		case ModePermanent:
			err = os.Remove(path)
		default:
			err = fileutil.MoveToTrash(path)
		}
		if err != nil {
			slog.Warn("failed to remove file", "path", path, "error", err)
			res.Failed = append(res.Failed, FileError{
				Path:   path,
				Stage:  "remove",
				Reason: err.Error(),
			})
			continue
		}

		res.Processed++
		if rec, ok := lookup(path); ok {
			res.BytesReclaimed += rec.FileSize
		}
		if e.OnRemoved != nil {
			e.OnRemoved(path)
		}
	}

	return res
}

// Describe returns the human-readable action for the configured mode.
func (o Options) Describe() string {
	switch o.Mode {
	case ModeMove:
		return fmt.Sprintf("move to %s", o.MoveTo)
	case ModePermanent:
		return "permanently delete"
	default:
		return "move to trash"
	}
}
