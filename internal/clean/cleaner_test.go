package clean

import (
	"os"
	"path/filepath"
	"testing"

	"imagededup/internal/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func planFor(paths ...string) (*models.RemovalPlan, func(string) (*models.ImageRecord, bool)) {
	records := make(map[string]*models.ImageRecord)
	for _, p := range paths {
		records[p] = &models.ImageRecord{ID: p, FileSize: 100}
	}
	lookup := func(id string) (*models.ImageRecord, bool) {
		rec, ok := records[id]
		return rec, ok
	}
	return &models.RemovalPlan{ToRemove: paths}, lookup
}

func TestExecute_Permanent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	writeFile(t, a, "aaa")
	writeFile(t, b, "bbb")

	p, lookup := planFor(a, b)
	e := New(Options{Mode: ModePermanent})
	res := e.Execute(p, lookup)

	if res.Processed != 2 {
		t.Errorf("expected 2 processed, got %d", res.Processed)
	}
	if len(res.Failed) != 0 {
		t.Errorf("expected no failures, got %v", res.Failed)
	}
	if res.BytesReclaimed != 200 {
		t.Errorf("expected 200 bytes reclaimed, got %d", res.BytesReclaimed)
	}
	for _, path := range []string{a, b} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected %s to be deleted", path)
		}
	}
}

func TestExecute_Move(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "moved")
	a := filepath.Join(dir, "a.jpg")
	writeFile(t, a, "aaa")

	p, lookup := planFor(a)
	e := New(Options{Mode: ModeMove, MoveTo: dest})
	res := e.Execute(p, lookup)

	if res.Processed != 1 {
		t.Fatalf("expected 1 processed, got %d: %v", res.Processed, res.Failed)
	}
	if _, err := os.Stat(filepath.Join(dest, "a.jpg")); err != nil {
		t.Errorf("expected file in move destination: %v", err)
	}
}

func TestExecute_Backup(t *testing.T) {
	dir := t.TempDir()
	backup := filepath.Join(dir, "backup")
	a := filepath.Join(dir, "a.jpg")
	writeFile(t, a, "original content")

	p, lookup := planFor(a)
	e := New(Options{Mode: ModePermanent, BackupDir: backup})
	res := e.Execute(p, lookup)

	if res.Processed != 1 {
		t.Fatalf("expected 1 processed, got %d: %v", res.Processed, res.Failed)
	}

	data, err := os.ReadFile(filepath.Join(backup, "a.jpg"))
	if err != nil {
		t.Fatalf("expected backup copy: %v", err)
	}
	if string(data) != "original content" {
		t.Error("backup content does not match original")
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Error("expected original to be deleted after backup")
	}
}

func TestExecute_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	gone := filepath.Join(dir, "already-deleted.jpg")
	writeFile(t, a, "aaa")

	p, lookup := planFor(a, gone)
	e := New(Options{Mode: ModePermanent})
	res := e.Execute(p, lookup)

	if res.Processed != 1 {
		t.Errorf("expected 1 processed, got %d", res.Processed)
	}
	if res.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", res.Skipped)
	}
	if len(res.Failed) != 0 {
		t.Errorf("missing files are skipped, not failed: %v", res.Failed)
	}
}

// One bad file must not stop the rest of the plan, and the failure must be
// recorded with its path and reason.
func TestExecute_PartialFailureContinues(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	locked := filepath.Join(dir, "locked", "b.jpg")
	c := filepath.Join(dir, "c.jpg")
	writeFile(t, a, "aaa")
	if err := os.MkdirAll(filepath.Dir(locked), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, locked, "bbb")
	writeFile(t, c, "ccc")

	// Make the containing directory read-only so removing b.jpg fails.
	if err := os.Chmod(filepath.Dir(locked), 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(filepath.Dir(locked), 0755) })

	p, lookup := planFor(a, locked, c)
	e := New(Options{Mode: ModePermanent})
	res := e.Execute(p, lookup)

	if res.Processed != 2 {
		t.Errorf("expected 2 processed despite failure, got %d", res.Processed)
	}
	if len(res.Failed) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(res.Failed))
	}
	if res.Failed[0].Path != locked || res.Failed[0].Stage != "remove" {
		t.Errorf("unexpected failure record: %+v", res.Failed[0])
	}
	if res.Failed[0].Reason == "" {
		t.Error("failure must carry a reason")
	}
}

func TestExecute_BackupFailurePreservesFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	writeFile(t, a, "aaa")

	// Unwritable backup destination
	backup := filepath.Join(dir, "backup")
	if err := os.MkdirAll(backup, 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(backup, 0755) })

	p, lookup := planFor(a)
	e := New(Options{Mode: ModePermanent, BackupDir: backup})
	res := e.Execute(p, lookup)

	if res.Processed != 0 {
		t.Errorf("expected 0 processed, got %d", res.Processed)
	}
	if len(res.Failed) != 1 || res.Failed[0].Stage != "backup" {
		t.Fatalf("expected backup failure, got %v", res.Failed)
	}
	if _, err := os.Stat(a); err != nil {
		t.Error("file must survive when its backup fails")
	}
}

func TestExecute_OnRemovedCallback(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	writeFile(t, a, "aaa")

	p, lookup := planFor(a)
	e := New(Options{Mode: ModePermanent})
	var removed []string
	e.OnRemoved = func(path string) { removed = append(removed, path) }

	e.Execute(p, lookup)
	if len(removed) != 1 || removed[0] != a {
		t.Errorf("expected callback for %s, got %v", a, removed)
	}
}

func TestOptions_Describe(t *testing.T) {
	tests := []struct {
		opts Options
		want string
	}{
		{Options{Mode: ModeTrash}, "move to trash"},
		{Options{Mode: ModePermanent}, "permanently delete"},
		{Options{Mode: ModeMove, MoveTo: "/backup"}, "move to /backup"},
	}
	for _, tt := range tests {
		if got := tt.opts.Describe(); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}
