// Package resolve turns a fingerprint set and a distance threshold into the
// exhaustive set of near-duplicate candidate pairs.
package resolve

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"imagededup/internal/hash"
	"imagededup/internal/models"
)

// bruteForceCutoff is the input size below which the pairwise scan is
// cheaper than building the BK-tree.
const bruteForceCutoff = 64

// Resolver finds all candidate pairs within a Hamming distance threshold.
// The search is exact: every pair with true distance <= threshold is
// reported, each unordered pair exactly once, never a self-pair.
type Resolver struct {
	workers int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWorkers sets the number of parallel query workers.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{workers: 8}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindPairs returns every unordered pair of records whose fingerprint
// distance is <= threshold, sorted by id for reproducible output. All
// records must carry the requested method and a uniform fingerprint width;
// a mismatch fails with *models.UnsupportedMethodError before any search.
func (r *Resolver) FindPairs(ctx context.Context, records []*models.ImageRecord, method string, threshold int) ([]models.CandidatePair, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("threshold must be non-negative, got %d", threshold)
	}
	if err := validateFingerprints(records, method); err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	var pairs []models.CandidatePair
	var err error
	if len(records) <= bruteForceCutoff {
		pairs = bruteForcePairs(records, threshold)
	} else {
		pairs, err = r.treePairs(ctx, records, threshold)
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs, nil
}

// treePairs builds one BK-tree over all fingerprints, then shards the
// queries across workers. The tree is read-only after construction, so
// concurrent lookups need no locking.
func (r *Resolver) treePairs(ctx context.Context, records []*models.ImageRecord, threshold int) ([]models.CandidatePair, error) {
	tree := newBKTree(hash.HammingDistance)
	for i, rec := range records {
		tree.insert(rec.Fingerprint, i)
	}

	workers := r.workers
	if workers > len(records) {
		workers = len(records)
	}

	shards := make([][]models.CandidatePair, workers)
	g, ctx := errgroup.WithContext(ctx)

	chunk := (len(records) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunk
		end := start + chunk
		if end > len(records) {
			end = len(records)
		}
		if start >= end {
			break
		}

		g.Go(func() error {
			var local []models.CandidatePair
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for _, j := range tree.findWithinDistance(records[i].Fingerprint, threshold) {
					// Each unordered pair shows up in both members' query
					// results; keeping only j < i reports it once.
					if j >= i {
						continue
					}
					local = append(local, canonicalPair(records[i], records[j]))
				}
			}
			shards[w] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge shards, dropping any cross-shard duplicates by canonical key.
	seen := make(map[[2]string]bool)
	var pairs []models.CandidatePair
	for _, shard := range shards {
		for _, p := range shard {
			key := [2]string{p.A, p.B}
			if seen[key] {
				continue
			}
			seen[key] = true
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}

// bruteForcePairs compares every pair directly. Also the reference
// implementation the tree search is tested against.
func bruteForcePairs(records []*models.ImageRecord, threshold int) []models.CandidatePair {
	var pairs []models.CandidatePair
	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			if hash.HammingDistance(records[i].Fingerprint, records[j].Fingerprint) <= threshold {
				pairs = append(pairs, canonicalPair(records[i], records[j]))
			}
		}
	}
	return pairs
}

// canonicalPair orders the pair with the lexically smaller id first.
func canonicalPair(a, b *models.ImageRecord) models.CandidatePair {
	if b.ID < a.ID {
		a, b = b, a
	}
	return models.CandidatePair{
		A:        a.ID,
		B:        b.ID,
		Distance: hash.HammingDistance(a.Fingerprint, b.Fingerprint),
	}
}

// validateFingerprints rejects records whose method or fingerprint width is
// incompatible with the requested comparison.
func validateFingerprints(records []*models.ImageRecord, method string) error {
	if _, err := hash.ParseMethod(method); err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Method != method {
			return &models.UnsupportedMethodError{
				Method: method,
				Reason: fmt.Sprintf("record %s was fingerprinted with %q", rec.ID, rec.Method),
			}
		}
		if rec.Bits != hash.FingerprintBits {
			return &models.UnsupportedMethodError{
				Method: method,
				Reason: fmt.Sprintf("record %s has %d-bit fingerprint, want %d", rec.ID, rec.Bits, hash.FingerprintBits),
			}
		}
	}
	return nil
}

// Similarity reports the documented distance-to-similarity mapping for
// fixed-width fingerprints: 1 - distance/bits. Diagnostic only; nothing in
// the pipeline branches on it.
func Similarity(distance, bits int) float64 {
	if bits <= 0 {
		return 0
	}
	return 1 - float64(distance)/float64(bits)
}
