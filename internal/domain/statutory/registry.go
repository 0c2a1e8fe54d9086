package statutory

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"
)

// Source loads rule sets from somewhere outside the process.
type Source interface {
	Load(ctx context.Context) ([]RuleSet, error)
}

// Registry holds the known rule sets, ordered by effective date. Readers get
// immutable snapshots; Replace swaps the whole list at once so a calculation
// in flight keeps the snapshot it started with.
type Registry struct {
	sets atomic.Pointer[[]RuleSet]
}

func NewRegistry(sets ...RuleSet) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(sets); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Replace(sets []RuleSet) error {
	if len(sets) == 0 {
		return fmt.Errorf("%w: no rule sets supplied", ErrInvalidRuleSet)
	}
	next := make([]RuleSet, 0, len(sets))
	seen := make(map[string]struct{}, len(sets))
	for _, set := range sets {
		if err := set.Validate(); err != nil {
			return err
		}
		if _, dup := seen[set.Version]; dup {
			return fmt.Errorf("%w: duplicate version %s", ErrInvalidRuleSet, set.Version)
		}
		seen[set.Version] = struct{}{}
		next = append(next, set.Clone())
	}
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].EffectiveFrom.Before(next[j].EffectiveFrom)
	})
	r.sets.Store(&next)
	return nil
}

// Reload replaces the registry contents with whatever src returns. The
// current snapshot is kept if loading or validation fails.
func (r *Registry) Reload(ctx context.Context, src Source) error {
	sets, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load rule sets: %w", err)
	}
	return r.Replace(sets)
}

// Active returns the latest rule set whose EffectiveFrom is on or before at.
func (r *Registry) Active(at time.Time) (RuleSet, error) {
	sets := r.snapshot()
	for i := len(sets) - 1; i >= 0; i-- {
		if !sets[i].EffectiveFrom.After(at) {
			return sets[i], nil
		}
	}
	return RuleSet{}, fmt.Errorf("%w: %s", ErrNoRuleSet, at.Format("2006-01-02"))
}

func (r *Registry) Version(version string) (RuleSet, bool) {
	for _, set := range r.snapshot() {
		if set.Version == version {
			return set, true
		}
	}
	return RuleSet{}, false
}

func (r *Registry) All() []RuleSet {
	sets := r.snapshot()
	out := make([]RuleSet, len(sets))
	copy(out, sets)
	return out
}

func (r *Registry) snapshot() []RuleSet {
	if p := r.sets.Load(); p != nil {
		return *p
	}
	return nil
}

// StaticSource serves a fixed list, typically the built-in defaults.
type StaticSource []RuleSet

func (s StaticSource) Load(context.Context) ([]RuleSet, error) {
	out := make([]RuleSet, len(s))
	copy(out, s)
	return out, nil
}
