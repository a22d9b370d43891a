// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists successful registry lookups in a local SQLite
// database so repeated runs over the same reagent list skip the network.
// Implements: prd006-cache (R1-R3).
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/autochemlab/pkg/types"
)

// DefaultPath is the cache database filename used when config leaves it empty.
const DefaultPath = "autochemlab-cache.db"

// Store manages the lookup cache database. Only successful lookups are
// stored: failures must stay re-checkable on the next run (R1.3).
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at path, creating the schema if
// it does not exist.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS cas_lookups (
			name TEXT PRIMARY KEY,
			casrn TEXT NOT NULL,
			matched_name TEXT,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS properties (
			casrn TEXT PRIMARY KEY,
			molecular_weight REAL,
			boiling_point REAL,
			melting_point REAL,
			density REAL,
			fetched_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// GetCAS returns the cached registry match for a normalized name. The ok
// result is false on a cache miss.
func (s *Store) GetCAS(ctx context.Context, name string) (casrn, matchedName string, ok bool, err error) {
	var matched sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT casrn, matched_name FROM cas_lookups WHERE name = ?`, name,
	).Scan(&casrn, &matched)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("reading cas_lookups: %w", err)
	}
	return casrn, matched.String, true, nil
}

// PutCAS stores a resolved registry match under the normalized name.
func (s *Store) PutCAS(ctx context.Context, name, casrn, matchedName string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cas_lookups (name, casrn, matched_name, fetched_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			casrn=excluded.casrn, matched_name=excluded.matched_name,
			fetched_at=excluded.fetched_at`,
		name, casrn, matchedName, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cas_lookups: %w", err)
	}
	return nil
}

// GetProperties returns cached properties for a CASRN, or nil on a miss.
// Absent property columns come back as nil fields, same as a live fetch.
func (s *Store) GetProperties(ctx context.Context, casrn string) (*types.ChemicalProperties, error) {
	var mw, bp, mp, density sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT molecular_weight, boiling_point, melting_point, density
		 FROM properties WHERE casrn = ?`, casrn,
	).Scan(&mw, &bp, &mp, &density)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading properties: %w", err)
	}

	props := &types.ChemicalProperties{}
	if mw.Valid {
		props.MolecularWeight = &mw.Float64
	}
	if bp.Valid {
		props.BoilingPoint = &bp.Float64
	}
	if mp.Valid {
		props.MeltingPoint = &mp.Float64
	}
	if density.Valid {
		props.Density = &density.Float64
	}
	return props, nil
}

// PutProperties stores fetched properties under the CASRN.
func (s *Store) PutProperties(ctx context.Context, casrn string, props types.ChemicalProperties) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO properties (casrn, molecular_weight, boiling_point, melting_point, density, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(casrn) DO UPDATE SET
			molecular_weight=excluded.molecular_weight,
			boiling_point=excluded.boiling_point,
			melting_point=excluded.melting_point,
			density=excluded.density,
			fetched_at=excluded.fetched_at`,
		casrn, nullable(props.MolecularWeight), nullable(props.BoilingPoint),
		nullable(props.MeltingPoint), nullable(props.Density),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing properties: %w", err)
	}
	return nil
}

// Stats holds cache entry counts for the cache stats command.
type Stats struct {
	Lookups    int
	Properties int
}

// Stats counts the cached entries.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM cas_lookups`).Scan(&st.Lookups); err != nil {
		return Stats{}, fmt.Errorf("counting cas_lookups: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM properties`).Scan(&st.Properties); err != nil {
		return Stats{}, fmt.Errorf("counting properties: %w", err)
	}
	return st, nil
}

// Clear removes all cached entries.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"cas_lookups", "properties"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
