package group

import (
	"errors"
	"testing"

	"imagededup/internal/models"
	"imagededup/internal/store"
)

func newStore(t *testing.T, ids ...string) *store.Store {
	t.Helper()
	s := store.New()
	for _, id := range ids {
		if err := s.Put(&models.ImageRecord{ID: id}); err != nil {
			t.Fatalf("Put(%s) failed: %v", id, err)
		}
	}
	return s
}

func pair(a, b string) models.CandidatePair {
	if b < a {
		a, b = b, a
	}
	return models.CandidatePair{A: a, B: b, Distance: 1}
}

func TestBuild_Empty(t *testing.T) {
	s := newStore(t)
	groups, err := Build(s, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if groups != nil {
		t.Errorf("expected nil groups, got %v", groups)
	}
}

func TestBuild_NoPairs(t *testing.T) {
	s := newStore(t, "a.jpg", "b.jpg", "c.jpg")
	groups, err := Build(s, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups without pairs, got %d", len(groups))
	}
}

func TestBuild_SingleGroup(t *testing.T) {
	s := newStore(t, "a.jpg", "b.jpg", "c.jpg", "d.jpg")
	pairs := []models.CandidatePair{
		pair("a.jpg", "b.jpg"),
		pair("b.jpg", "c.jpg"), // c joins through b, may exceed threshold to a directly
	}

	groups, err := Build(s, pairs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}

	g := groups[0]
	if g.ID != 1 {
		t.Errorf("expected group id 1, got %d", g.ID)
	}
	want := []string{"a.jpg", "b.jpg", "c.jpg"}
	if len(g.Members) != len(want) {
		t.Fatalf("expected members %v, got %v", want, g.Members)
	}
	for i, id := range want {
		if g.Members[i] != id {
			t.Errorf("member %d: expected %s, got %s", i, id, g.Members[i])
		}
	}
}

func TestBuild_MultipleGroupsAndSingletons(t *testing.T) {
	s := newStore(t, "a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg")
	pairs := []models.CandidatePair{
		pair("d.jpg", "e.jpg"),
		pair("a.jpg", "b.jpg"),
	}

	groups, err := Build(s, pairs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	// Numbered by smallest member id: {a,b} first, then {d,e}
	if groups[0].ID != 1 || groups[0].Members[0] != "a.jpg" {
		t.Errorf("expected group 1 to start with a.jpg, got %v", groups[0])
	}
	if groups[1].ID != 2 || groups[1].Members[0] != "d.jpg" {
		t.Errorf("expected group 2 to start with d.jpg, got %v", groups[1])
	}

	// c.jpg is a singleton and must appear in no group
	for _, g := range groups {
		for _, id := range g.Members {
			if id == "c.jpg" {
				t.Error("singleton c.jpg must not be in any group")
			}
		}
	}
}

func TestBuild_OrderIndependent(t *testing.T) {
	s := newStore(t, "a.jpg", "b.jpg", "c.jpg", "d.jpg")
	forward := []models.CandidatePair{
		pair("a.jpg", "b.jpg"),
		pair("c.jpg", "d.jpg"),
		pair("b.jpg", "c.jpg"),
	}
	reversed := []models.CandidatePair{forward[2], forward[1], forward[0]}

	g1, err := Build(s, forward)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	g2, err := Build(s, reversed)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(g1) != 1 || len(g2) != 1 {
		t.Fatalf("expected 1 group each, got %d and %d", len(g1), len(g2))
	}
	if len(g1[0].Members) != len(g2[0].Members) {
		t.Fatalf("member count differs across pair orders")
	}
	for i := range g1[0].Members {
		if g1[0].Members[i] != g2[0].Members[i] {
			t.Errorf("member %d differs: %s vs %s", i, g1[0].Members[i], g2[0].Members[i])
		}
	}
}

func TestBuild_UnknownImage(t *testing.T) {
	s := newStore(t, "a.jpg", "b.jpg")
	pairs := []models.CandidatePair{pair("a.jpg", "ghost.jpg")}

	_, err := Build(s, pairs)
	var uerr *models.UnknownImageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnknownImageError, got %v", err)
	}
	if uerr.ID != "ghost.jpg" {
		t.Errorf("expected ghost.jpg in error, got %s", uerr.ID)
	}
}

func TestBuild_GroupsArePartition(t *testing.T) {
	s := newStore(t, "a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg", "f.jpg")
	pairs := []models.CandidatePair{
		pair("a.jpg", "b.jpg"),
		pair("c.jpg", "d.jpg"),
		pair("e.jpg", "f.jpg"),
		pair("b.jpg", "c.jpg"),
	}

	groups, err := Build(s, pairs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	seen := make(map[string]int)
	for _, g := range groups {
		if len(g.Members) < 2 {
			t.Errorf("group %d has %d members, want >= 2", g.ID, len(g.Members))
		}
		for _, id := range g.Members {
			seen[id]++
		}
	}
	for id, count := range seen {
		if count > 1 {
			t.Errorf("%s appears in %d groups, groups must be disjoint", id, count)
		}
	}
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(5)

	for i := 0; i < 5; i++ {
		if uf.find(i) != i {
			t.Errorf("expected %d to be its own root", i)
		}
	}

	uf.union(0, 1)
	if uf.find(0) != uf.find(1) {
		t.Error("expected 0 and 1 to be in same set")
	}

	uf.union(2, 3)
	if uf.find(2) != uf.find(3) {
		t.Error("expected 2 and 3 to be in same set")
	}

	if uf.find(4) == uf.find(0) || uf.find(4) == uf.find(2) {
		t.Error("expected 4 to be separate")
	}

	uf.union(1, 3)
	if uf.find(0) != uf.find(2) {
		t.Error("expected all of 0,1,2,3 to be in same set")
	}
}
