// Package audit keeps the change history of published statutory rule sets.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kepayroll/internal/platform/querier"
)

const (
	ActionSeeded      = "rule_set.seeded"
	ActionPublished   = "rule_set.published"
	ActionDeactivated = "rule_set.deactivated"
)

type Event struct {
	ID        int64           `json:"id"`
	Version   string          `json:"version"`
	Action    string          `json:"action"`
	Actor     string          `json:"actor"`
	Source    string          `json:"source"`
	CreatedAt time.Time       `json:"createdAt"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
}

// Entry is one change to record. Before and After are stored as JSON; nil
// leaves the column NULL.
type Entry struct {
	Version string
	Action  string
	Actor   string
	Source  string
	Before  any
	After   any
}

type Filter struct {
	Version string
	Action  string
	Actor   string
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, entry Entry) error {
	if entry.Version == "" || entry.Action == "" {
		return fmt.Errorf("audit entry needs a version and an action")
	}
	beforeJSON, err := marshalOptional(entry.Before)
	if err != nil {
		return fmt.Errorf("encode before: %w", err)
	}
	afterJSON, err := marshalOptional(entry.After)
	if err != nil {
		return fmt.Errorf("encode after: %w", err)
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO rule_set_events (version, action, actor, source, before_json, after_json)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, entry.Version, entry.Action, entry.Actor, entry.Source, beforeJSON, afterJSON)
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns matching events newest first. The JSON snapshots are only
// read when includeDetails is set.
func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	selectCols := "id, version, action, actor, source, created_at"
	if includeDetails {
		selectCols += ", before_json, after_json"
	}
	query, args := buildBaseQuery("SELECT "+selectCols, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.Version, &evt.Action, &evt.Actor, &evt.Source, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("version", filter.Version)
	add("action", filter.Action)
	add("actor", filter.Actor)

	query := prefix + " FROM rule_set_events"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	return query, args
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
