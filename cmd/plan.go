package cmd

import (
	"fmt"

	"imagededup/internal/models"
	"imagededup/internal/plan"
	"imagededup/internal/storage"
)

// loadPlan recompiles the removal plan from the stored images and groups.
// The plan is derived data: whatever was persisted, recompiling from the
// same groups yields the same to_remove set and byte counts.
func loadPlan(db *storage.Storage) (*models.RemovalPlan, func(string) (*models.ImageRecord, bool), error) {
	records, err := db.GetAllImages()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load images: %w", err)
	}
	groups, err := db.GetGroups()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load groups: %w", err)
	}

	p, err := plan.Compile(records, groups)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compile plan: %w", err)
	}

	if last, err := db.LastScan(); err == nil && last != nil {
		p.Method = last.Method
		p.Threshold = last.Threshold
		p.SourceDir = last.Folder
	}

	byID := make(map[string]*models.ImageRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	lookup := func(id string) (*models.ImageRecord, bool) {
		rec, ok := byID[id]
		return rec, ok
	}

	return p, lookup, nil
}
