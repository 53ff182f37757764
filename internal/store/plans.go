package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/beltline/beltline/internal/plan"
)

// ErrNotFound is returned when a named plan does not exist.
var ErrNotFound = errors.New("plan not found")

// PlanInfo is a listing entry for one saved plan.
type PlanInfo struct {
	Name    string
	Hash    string
	SavedAt time.Time
}

// SavePlan upserts a plan document under the given name and reports
// whether the stored row changed. Saving a document whose canonical
// hash matches the stored hash is a no-op, so the saved_at timestamp
// only moves when the content does.
func (s *Store) SavePlan(ctx context.Context, name string, doc plan.Document) (changed bool, err error) {
	hash, err := plan.DocumentHash(doc)
	if err != nil {
		return false, fmt.Errorf("save plan %s: %w", name, err)
	}

	var existing string
	err = s.db.QueryRowContext(ctx, `SELECT hash FROM plans WHERE name = ?`, name).Scan(&existing)
	switch {
	case err == nil:
		if existing == hash {
			return false, nil
		}
	case errors.Is(err, sql.ErrNoRows):
		// New plan, fall through to the upsert.
	default:
		return false, fmt.Errorf("save plan %s: %w", name, err)
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("save plan %s: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (name, doc, hash, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			doc = excluded.doc,
			hash = excluded.hash,
			saved_at = excluded.saved_at
	`, name, string(docJSON), hash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("save plan %s: %w", name, err)
	}

	return true, nil
}

// LoadPlan returns the named plan document.
// Returns ErrNotFound if no plan is stored under that name.
func (s *Store) LoadPlan(ctx context.Context, name string) (plan.Document, error) {
	var docJSON string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM plans WHERE name = ?`, name).Scan(&docJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return plan.Document{}, fmt.Errorf("load plan %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return plan.Document{}, fmt.Errorf("load plan %s: %w", name, err)
	}

	var doc plan.Document
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return plan.Document{}, fmt.Errorf("load plan %s: decode document: %w", name, err)
	}
	return doc, nil
}

// ListPlans returns every saved plan ordered by name.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListPlans(ctx context.Context) ([]PlanInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, hash, saved_at
		FROM plans
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := []PlanInfo{}
	for rows.Next() {
		var info PlanInfo
		var savedAt string
		if err := rows.Scan(&info.Name, &info.Hash, &savedAt); err != nil {
			return nil, fmt.Errorf("scan plan row: %w", err)
		}
		info.SavedAt, err = time.Parse(time.RFC3339, savedAt)
		if err != nil {
			return nil, fmt.Errorf("parse saved_at for plan %s: %w", info.Name, err)
		}
		plans = append(plans, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}

	return plans, nil
}

// DeletePlan removes the named plan.
// Returns ErrNotFound if no plan is stored under that name.
func (s *Store) DeletePlan(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete plan %s: %w", name, ErrNotFound)
	}
	return nil
}
