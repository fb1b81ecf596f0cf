// Package group partitions fingerprinted images into duplicate groups: the
// connected components of the candidate-pair graph.
package group

import (
	"sort"

	"imagededup/internal/models"
	"imagededup/internal/store"
)

// Build unions the candidate pairs into connected components and returns
// every component of size >= 2 as a DuplicateGroup. Singletons are not
// duplicates and are excluded. Pair order does not affect the result; group
// ids are assigned 1..n ordered by each group's smallest member id, so
// identical input always yields identical numbering. A pair referencing an
// id absent from the store fails with *models.UnknownImageError.
func Build(st *store.Store, pairs []models.CandidatePair) ([]*models.DuplicateGroup, error) {
	n := st.Len()
	if n < 2 || len(pairs) == 0 {
		return nil, nil
	}

	uf := newUnionFind(n)
	for _, p := range pairs {
		ia, ok := st.Index(p.A)
		if !ok {
			return nil, &models.UnknownImageError{ID: p.A}
		}
		ib, ok := st.Index(p.B)
		if !ok {
			return nil, &models.UnknownImageError{ID: p.B}
		}
		uf.union(ia, ib)
	}

	components := make(map[int][]string)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		components[root] = append(components[root], st.At(i).ID)
	}

	var groups []*models.DuplicateGroup
	for _, members := range components {
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		groups = append(groups, &models.DuplicateGroup{Members: members})
	}

	// Number groups by smallest member id for reproducible reports.
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Members[0] < groups[j].Members[0]
	})
	for i, g := range groups {
		g.ID = i + 1
	}

	return groups, nil
}
