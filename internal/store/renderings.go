package store

import (
	"context"
	"fmt"

	"github.com/roach88/ratelens/internal/render"
)

// SaveRenderings stores the rendered text of each step of a version.
// Existing rows for the same (version, step) are kept unchanged.
func (s *Store) SaveRenderings(ctx context.Context, versionID, templateVersion string, steps []render.Rendering) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save renderings: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO renderings (version_id, step, text, template_version)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(version_id, step) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("save renderings: %w", err)
	}
	defer stmt.Close()

	for _, r := range steps {
		if _, err := stmt.ExecContext(ctx, versionID, r.Step, r.Text, templateVersion); err != nil {
			return fmt.Errorf("save renderings: step %d: %w", r.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save renderings: commit: %w", err)
	}
	return nil
}

// ReadRenderings returns the stored renderings of a version in step order.
// Returns an empty slice (not nil) when none exist.
func (s *Store) ReadRenderings(ctx context.Context, versionID string) ([]render.Rendering, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, text
		FROM renderings
		WHERE version_id = ?
		ORDER BY step ASC
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("query renderings: %w", err)
	}
	defer rows.Close()

	out := []render.Rendering{}
	for rows.Next() {
		var r render.Rendering
		if err := rows.Scan(&r.Step, &r.Text); err != nil {
			return nil, fmt.Errorf("scan rendering: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renderings: %w", err)
	}
	return out, nil
}
