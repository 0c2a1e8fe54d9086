package statutory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"kepayroll/internal/platform/querier"
)

// PGStore keeps rule sets in the statutory_rule_sets table. Concurrent Loads
// share a single query.
type PGStore struct {
	DB    querier.Querier
	group singleflight.Group
}

func NewPGStore(db querier.Querier) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Load(ctx context.Context) ([]RuleSet, error) {
	v, err, _ := s.group.Do("rule_sets", func() (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	sets := v.([]RuleSet)
	out := make([]RuleSet, len(sets))
	copy(out, sets)
	return out, nil
}

func (s *PGStore) load(ctx context.Context) ([]RuleSet, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT version, effective_from, rules
    FROM statutory_rule_sets
    WHERE active
    ORDER BY effective_from
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []RuleSet
	for rows.Next() {
		var version string
		var effectiveFrom time.Time
		var rulesJSON []byte
		if err := rows.Scan(&version, &effectiveFrom, &rulesJSON); err != nil {
			return nil, err
		}
		var set RuleSet
		if err := json.Unmarshal(rulesJSON, &set); err != nil {
			return nil, fmt.Errorf("rule set %s: %w", version, err)
		}
		set.Version = version
		set.EffectiveFrom = effectiveFrom.UTC()
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// Save inserts or replaces a rule set by version.
func (s *PGStore) Save(ctx context.Context, set RuleSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	rulesJSON, err := json.Marshal(set)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO statutory_rule_sets (version, effective_from, rules, active)
    VALUES ($1,$2,$3,true)
    ON CONFLICT (version) DO UPDATE
    SET effective_from = EXCLUDED.effective_from, rules = EXCLUDED.rules, active = true, updated_at = now()
  `, set.Version, set.EffectiveFrom, rulesJSON)
	return err
}

func (s *PGStore) Deactivate(ctx context.Context, version string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE statutory_rule_sets SET active = false, updated_at = now() WHERE version = $1", version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rule set %s not found", version)
	}
	return nil
}
