package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/ratelens/internal/ir"
)

var (
	// ErrNotFound is returned when a requested version does not exist.
	ErrNotFound = errors.New("version not found")

	// ErrVersionConflict is returned when a (program, version) pair is
	// saved again with different content.
	ErrVersionConflict = errors.New("version already saved with different content")
)

// VersionRecord describes one stored program version.
type VersionRecord struct {
	ID          string `json:"id"`
	Program     string `json:"program"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	ContentHash string `json:"content_hash"`
	Seq         int64  `json:"seq"`
	IRVersion   string `json:"ir_version"`
}

// SaveVersion stores a program version. Saving identical content again
// returns the existing record. Saving different content under the same
// program and version fails with ErrVersionConflict.
func (s *Store) SaveVersion(ctx context.Context, p ir.Program) (VersionRecord, error) {
	if p.Name == "" || p.Version == "" {
		return VersionRecord{}, fmt.Errorf("save version: program and version are required")
	}

	hash, err := ir.ProgramHash(p)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("save version: %w", err)
	}
	instructions, err := ir.CanonicalInstructions(p.Instructions)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("save version: %w", err)
	}
	dict := p.Dictionary
	if dict == nil {
		dict = map[string]string{}
	}
	dictionary, err := ir.MarshalCanonical(dict)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("save version: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("save version: %w", err)
	}
	defer tx.Rollback()

	existing, err := findVersion(ctx, tx, p.Name, p.Version)
	switch {
	case err == nil:
		if existing.ContentHash != hash {
			return VersionRecord{}, fmt.Errorf("%w: %s@%s", ErrVersionConflict, p.Name, p.Version)
		}
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return VersionRecord{}, fmt.Errorf("save version: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM program_versions`).Scan(&seq); err != nil {
		return VersionRecord{}, fmt.Errorf("save version: next seq: %w", err)
	}

	rec := VersionRecord{
		ID:          s.newID(),
		Program:     p.Name,
		Version:     p.Version,
		Description: p.Description,
		ContentHash: hash,
		Seq:         seq,
		IRVersion:   ir.IRVersion,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO program_versions
		(id, program, version, description, content_hash, instructions, dictionary, seq, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(program, version) DO NOTHING
	`,
		rec.ID,
		rec.Program,
		rec.Version,
		rec.Description,
		rec.ContentHash,
		string(instructions),
		string(dictionary),
		rec.Seq,
		rec.IRVersion,
	)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("save version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return VersionRecord{}, fmt.Errorf("save version: commit: %w", err)
	}
	return rec, nil
}

// LoadVersion returns a stored program and its record.
func (s *Store) LoadVersion(ctx context.Context, program, version string) (ir.Program, VersionRecord, error) {
	var (
		rec          VersionRecord
		instructions string
		dictionary   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, program, version, description, content_hash, seq, ir_version, instructions, dictionary
		FROM program_versions
		WHERE program = ? AND version = ?
	`, program, version).Scan(
		&rec.ID, &rec.Program, &rec.Version, &rec.Description, &rec.ContentHash, &rec.Seq, &rec.IRVersion,
		&instructions, &dictionary,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Program{}, VersionRecord{}, fmt.Errorf("%w: %s@%s", ErrNotFound, program, version)
	}
	if err != nil {
		return ir.Program{}, VersionRecord{}, fmt.Errorf("load version: %w", err)
	}

	p := ir.Program{Name: rec.Program, Version: rec.Version, Description: rec.Description}
	if err := json.Unmarshal([]byte(instructions), &p.Instructions); err != nil {
		return ir.Program{}, VersionRecord{}, fmt.Errorf("load version: decode instructions: %w", err)
	}
	if err := json.Unmarshal([]byte(dictionary), &p.Dictionary); err != nil {
		return ir.Program{}, VersionRecord{}, fmt.Errorf("load version: decode dictionary: %w", err)
	}
	if len(p.Dictionary) == 0 {
		p.Dictionary = nil
	}
	return p, rec, nil
}

// ListVersions returns every stored version of program, or of all
// programs when program is empty, in save order.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListVersions(ctx context.Context, program string) ([]VersionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program, version, description, content_hash, seq, ir_version
		FROM program_versions
		WHERE ? = '' OR program = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, program, program)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	records := []VersionRecord{}
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return records, nil
}

// FindByHash returns every version whose content hash equals hash.
func (s *Store) FindByHash(ctx context.Context, hash string) ([]VersionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program, version, description, content_hash, seq, ir_version
		FROM program_versions
		WHERE content_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("query versions by hash: %w", err)
	}
	defer rows.Close()

	records := []VersionRecord{}
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (VersionRecord, error) {
	var rec VersionRecord
	if err := row.Scan(&rec.ID, &rec.Program, &rec.Version, &rec.Description, &rec.ContentHash, &rec.Seq, &rec.IRVersion); err != nil {
		return VersionRecord{}, fmt.Errorf("scan version: %w", err)
	}
	return rec, nil
}

func findVersion(ctx context.Context, tx *sql.Tx, program, version string) (VersionRecord, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, program, version, description, content_hash, seq, ir_version
		FROM program_versions
		WHERE program = ? AND version = ?
	`, program, version)
	rec, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return VersionRecord{}, ErrNotFound
	}
	return rec, err
}
