package plan

import (
	"errors"
	"testing"

	"imagededup/internal/models"
)

func records() []*models.ImageRecord {
	return []*models.ImageRecord{
		{ID: "a.jpg", Quality: 9, FileSize: 2 << 20},
		{ID: "b.jpg", Quality: 9, FileSize: 2 << 20},
		{ID: "c.jpg", Quality: 5, FileSize: 1 << 20},
		{ID: "d.jpg", Quality: 7, FileSize: 3 << 20},
		{ID: "e.jpg", Quality: 1, FileSize: 512 << 10},
	}
}

func TestCompile_Empty(t *testing.T) {
	p, err := Compile(nil, nil)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if p.TotalImages != 0 || p.TotalGroups != 0 || p.TotalDuplicates != 0 || p.TotalKept != 0 {
		t.Errorf("expected all counts zero, got %+v", p)
	}
	if len(p.ToRemove) != 0 {
		t.Errorf("expected empty to_remove, got %v", p.ToRemove)
	}
	if p.BytesReclaimed != 0 {
		t.Errorf("expected zero bytes reclaimed, got %d", p.BytesReclaimed)
	}
}

// The end-to-end scenario: {A,B,C} grouped, representative A, D and E
// singletons.
func TestCompile_Scenario(t *testing.T) {
	groups := []*models.DuplicateGroup{
		{ID: 1, Members: []string{"a.jpg", "b.jpg", "c.jpg"}, Representative: "a.jpg"},
	}

	p, err := Compile(records(), groups)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if p.TotalImages != 5 {
		t.Errorf("expected 5 total images, got %d", p.TotalImages)
	}
	if p.TotalGroups != 1 {
		t.Errorf("expected 1 group, got %d", p.TotalGroups)
	}
	if p.TotalDuplicates != 2 {
		t.Errorf("expected 2 duplicates, got %d", p.TotalDuplicates)
	}
	if p.TotalKept != 3 {
		t.Errorf("expected 3 kept, got %d", p.TotalKept)
	}

	wantRemove := []string{"b.jpg", "c.jpg"}
	if len(p.ToRemove) != len(wantRemove) {
		t.Fatalf("expected to_remove %v, got %v", wantRemove, p.ToRemove)
	}
	for i, id := range wantRemove {
		if p.ToRemove[i] != id {
			t.Errorf("to_remove[%d]: expected %s, got %s", i, id, p.ToRemove[i])
		}
	}

	wantBytes := int64(2<<20 + 1<<20) // 2MB + 1MB
	if p.BytesReclaimed != wantBytes {
		t.Errorf("expected %d bytes reclaimed, got %d", wantBytes, p.BytesReclaimed)
	}
}

func TestCompile_CountsInvariant(t *testing.T) {
	groups := []*models.DuplicateGroup{
		{ID: 1, Members: []string{"a.jpg", "b.jpg"}, Representative: "a.jpg"},
		{ID: 2, Members: []string{"c.jpg", "d.jpg", "e.jpg"}, Representative: "d.jpg"},
	}

	p, err := Compile(records(), groups)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if len(p.ToRemove)+p.TotalKept != p.TotalImages {
		t.Errorf("|to_remove| + kept = %d + %d != total %d",
			len(p.ToRemove), p.TotalKept, p.TotalImages)
	}

	// Representatives and to_remove must be disjoint
	removed := make(map[string]bool)
	for _, id := range p.ToRemove {
		removed[id] = true
	}
	for _, g := range p.Groups {
		if removed[g.Representative] {
			t.Errorf("representative %s is in to_remove", g.Representative)
		}
	}
}

func TestCompile_Idempotent(t *testing.T) {
	groups := []*models.DuplicateGroup{
		{ID: 1, Members: []string{"a.jpg", "b.jpg", "c.jpg"}, Representative: "a.jpg"},
	}

	p1, err := Compile(records(), groups)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	p2, err := Compile(records(), groups)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if p1.BytesReclaimed != p2.BytesReclaimed {
		t.Errorf("bytes_reclaimed differs: %d vs %d", p1.BytesReclaimed, p2.BytesReclaimed)
	}
	if len(p1.ToRemove) != len(p2.ToRemove) {
		t.Fatalf("to_remove length differs")
	}
	for i := range p1.ToRemove {
		if p1.ToRemove[i] != p2.ToRemove[i] {
			t.Errorf("to_remove[%d] differs: %s vs %s", i, p1.ToRemove[i], p2.ToRemove[i])
		}
	}
}

func TestCompile_UnknownMember(t *testing.T) {
	groups := []*models.DuplicateGroup{
		{ID: 1, Members: []string{"a.jpg", "ghost.jpg"}, Representative: "a.jpg"},
	}

	_, err := Compile(records(), groups)
	var uerr *models.UnknownImageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnknownImageError, got %v", err)
	}
}

func TestCompile_MissingRepresentative(t *testing.T) {
	groups := []*models.DuplicateGroup{
		{ID: 1, Members: []string{"a.jpg", "b.jpg"}},
	}
	if _, err := Compile(records(), groups); err == nil {
		t.Error("expected error for group without representative")
	}
}

func TestCompile_RepresentativeNotMember(t *testing.T) {
	groups := []*models.DuplicateGroup{
		{ID: 1, Members: []string{"a.jpg", "b.jpg"}, Representative: "d.jpg"},
	}
	if _, err := Compile(records(), groups); err == nil {
		t.Error("expected error for representative outside group")
	}
}

func TestCompile_UndersizedGroup(t *testing.T) {
	groups := []*models.DuplicateGroup{
		{ID: 1, Members: []string{"a.jpg"}, Representative: "a.jpg"},
	}
	if _, err := Compile(records(), groups); err == nil {
		t.Error("expected error for group with fewer than 2 members")
	}
}
