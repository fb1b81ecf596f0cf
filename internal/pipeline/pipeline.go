// Package pipeline runs the duplicate-detection stages over one fingerprint
// store: pair search, grouping, representative selection, plan compilation.
package pipeline

import (
	"context"

	"imagededup/internal/group"
	"imagededup/internal/models"
	"imagededup/internal/plan"
	"imagededup/internal/rank"
	"imagededup/internal/resolve"
	"imagededup/internal/store"
)

// Options configures one pipeline run.
type Options struct {
	Method    string
	Threshold int
	Workers   int
	Policy    rank.Policy // nil means rank.Default
	SourceDir string
}

// Run computes the removal plan for the records in the store. The context
// is checked between stages: a full pair search over a large collection can
// take a long time, and cancellation must not leave partially grouped state
// behind. The store is never mutated here, only read.
func Run(ctx context.Context, st *store.Store, opts Options) (*models.RemovalPlan, error) {
	policy := opts.Policy
	if policy == nil {
		policy = rank.Default
	}

	records := st.All()

	resolver := resolve.New(resolve.WithWorkers(opts.Workers))
	pairs, err := resolver.FindPairs(ctx, records, opts.Method, opts.Threshold)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups, err := group.Build(st, pairs)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := rank.Assign(groups, st.Get, policy); err != nil {
		return nil, err
	}

	p, err := plan.Compile(records, groups)
	if err != nil {
		return nil, err
	}
	p.Method = opts.Method
	p.Threshold = opts.Threshold
	p.SourceDir = opts.SourceDir
	return p, nil
}
