// Package plan compiles representative-tagged duplicate groups into a
// removal plan. Compilation is a pure function: no I/O, nothing destructive,
// so a dry run and a real run compute exactly the same plan.
package plan

import (
	"fmt"
	"sort"
	"time"

	"imagededup/internal/models"
)

// Compile derives the removal plan from the full record set and the groups.
// Every group must already carry a representative that is one of its
// members; a group violating that is rejected before any computation, and a
// member id absent from records fails with *models.UnknownImageError.
func Compile(records []*models.ImageRecord, groups []*models.DuplicateGroup) (*models.RemovalPlan, error) {
	byID := make(map[string]*models.ImageRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	p := &models.RemovalPlan{
		Groups:      groups,
		ToRemove:    []string{},
		TotalImages: len(records),
		TotalGroups: len(groups),
		GeneratedAt: time.Now(),
	}

	for _, g := range groups {
		if len(g.Members) < 2 {
			return nil, fmt.Errorf("group %d has %d members, want at least 2", g.ID, len(g.Members))
		}
		if g.Representative == "" {
			return nil, fmt.Errorf("group %d has no representative", g.ID)
		}

		repFound := false
		for _, id := range g.Members {
			rec, ok := byID[id]
			if !ok {
				return nil, &models.UnknownImageError{ID: id}
			}
			if id == g.Representative {
				repFound = true
				continue
			}
			p.ToRemove = append(p.ToRemove, id)
			p.BytesReclaimed += rec.FileSize
		}
		if !repFound {
			return nil, fmt.Errorf("group %d: representative %s is not a member", g.ID, g.Representative)
		}

		p.TotalDuplicates += len(g.Members) - 1
	}

	sort.Strings(p.ToRemove)
	p.TotalKept = p.TotalImages - len(p.ToRemove)

	return p, nil
}
