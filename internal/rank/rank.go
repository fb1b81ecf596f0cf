// Package rank picks the representative image to keep in each duplicate
// group. The ranking is a pure total order over records so two runs on the
// same data always keep the same file.
package rank

import "imagededup/internal/models"

// Policy reports whether a should be kept over b. Implementations must be a
// total order: for a != b exactly one of Policy(a, b), Policy(b, a) is true.
type Policy func(a, b *models.ImageRecord) bool

// Default keeps the highest quality score, breaking ties by largest file
// size, then by lexically smallest id. The id tiebreak makes the order
// total, so selection is deterministic regardless of member order.
func Default(a, b *models.ImageRecord) bool {
	if a.Quality != b.Quality {
		return a.Quality > b.Quality
	}
	if a.FileSize != b.FileSize {
		return a.FileSize > b.FileSize
	}
	return a.ID < b.ID
}

// Best returns the record ranked first by the policy.
func Best(records []*models.ImageRecord, policy Policy) *models.ImageRecord {
	if len(records) == 0 {
		return nil
	}
	best := records[0]
	for _, rec := range records[1:] {
		if policy(rec, best) {
			best = rec
		}
	}
	return best
}

// Assign sets the representative on every group. The lookup resolves member
// ids to records; a member it cannot resolve fails with
// *models.UnknownImageError.
func Assign(groups []*models.DuplicateGroup, lookup func(id string) (*models.ImageRecord, bool), policy Policy) error {
	for _, g := range groups {
		members := make([]*models.ImageRecord, 0, len(g.Members))
		for _, id := range g.Members {
			rec, ok := lookup(id)
			if !ok {
				return &models.UnknownImageError{ID: id}
			}
			members = append(members, rec)
		}
		g.Representative = Best(members, policy).ID
	}
	return nil
}
