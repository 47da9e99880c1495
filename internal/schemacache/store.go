// Package schemacache persists describe metadata in a local SQLite file so
// introspection tooling can work offline and repeated runs do not re-fetch
// every object. One snapshot is kept per org host; refreshing replaces it.
package schemacache

import (
	"database/sql"
	"encoding/json"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/forceql/forceql/pkg/core"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed describe cache.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the cache database, creating the schema if needed.
// Use ":memory:" for an in-memory cache.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema cache: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema cache: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the cache database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot identifies one cached describe run.
type Snapshot struct {
	ID         string
	Host       string
	APIVersion string
	CreatedAt  time.Time
}

// CurrentSnapshot returns the cached snapshot for a host, if any.
func (s *Store) CurrentSnapshot(host string) (*Snapshot, error) {
	row := s.db.QueryRow(
		"SELECT id, host, api_version, created_at FROM snapshots WHERE host = ?", host)

	var (
		snap    Snapshot
		created int64
	)
	if err := row.Scan(&snap.ID, &snap.Host, &snap.APIVersion, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	snap.CreatedAt = time.Unix(created, 0).UTC()
	return &snap, nil
}

// SaveSnapshot replaces the host's cached metadata with a fresh describe run.
func (s *Store) SaveSnapshot(host, apiVersion string, metas []*core.ObjectMetadata) (*Snapshot, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM snapshots WHERE host = ?", host); err != nil {
		return nil, fmt.Errorf("failed to drop previous snapshot: %w", err)
	}

	snap := &Snapshot{
		ID:         uuid.New().String(),
		Host:       host,
		APIVersion: apiVersion,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if _, err := tx.Exec(
		"INSERT INTO snapshots (id, host, api_version, created_at) VALUES (?, ?, ?, ?)",
		snap.ID, snap.Host, snap.APIVersion, snap.CreatedAt.Unix()); err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for _, meta := range metas {
		if err := insertObject(tx, snap.ID, meta); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return snap, nil
}

func insertObject(tx *sql.Tx, snapshotID string, meta *core.ObjectMetadata) error {
	_, err := tx.Exec(`INSERT INTO objects
		(snapshot_id, name, label, key_prefix, custom, queryable, createable, updateable, deletable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshotID, meta.Name, meta.Label, meta.KeyPrefix,
		meta.Custom, meta.Queryable, meta.Createable, meta.Updateable, meta.Deletable)
	if err != nil {
		return fmt.Errorf("failed to insert object %s: %w", meta.Name, err)
	}

	for i, f := range meta.Fields {
		refs, err := json.Marshal(f.ReferenceTo)
		if err != nil {
			return fmt.Errorf("failed to encode references for %s.%s: %w", meta.Name, f.Name, err)
		}
		picks, err := json.Marshal(f.PicklistValues)
		if err != nil {
			return fmt.Errorf("failed to encode picklist for %s.%s: %w", meta.Name, f.Name, err)
		}
		if _, err := tx.Exec(`INSERT INTO fields
			(snapshot_id, object_name, position, name, label, type, length,
			 nillable, custom, createable, updateable, defaulted_on_create,
			 reference_to, relationship_name, picklist_values)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snapshotID, meta.Name, i, f.Name, f.Label, f.Type, f.Length,
			f.Nillable, f.Custom, f.Createable, f.Updateable, f.DefaultedOnCreate,
			string(refs), f.RelationshipName, string(picks)); err != nil {
			return fmt.Errorf("failed to insert field %s.%s: %w", meta.Name, f.Name, err)
		}
	}
	return nil
}

// ListObjects returns cached object summaries for a host, sorted by name.
func (s *Store) ListObjects(host string) ([]core.ObjectSummary, error) {
	rows, err := s.db.Query(`SELECT o.name, o.label, o.key_prefix, o.custom, o.queryable
		FROM objects o JOIN snapshots s ON s.id = o.snapshot_id
		WHERE s.host = ? ORDER BY o.name`, host)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached objects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.ObjectSummary
	for rows.Next() {
		var o core.ObjectSummary
		if err := rows.Scan(&o.Name, &o.Label, &o.KeyPrefix, &o.Custom, &o.Queryable); err != nil {
			return nil, fmt.Errorf("failed to scan cached object: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetObject returns cached metadata for one object, or nil when the cache
// has no entry.
func (s *Store) GetObject(host, name string) (*core.ObjectMetadata, error) {
	row := s.db.QueryRow(`SELECT o.snapshot_id, o.name, o.label, o.key_prefix,
			o.custom, o.queryable, o.createable, o.updateable, o.deletable
		FROM objects o JOIN snapshots s ON s.id = o.snapshot_id
		WHERE s.host = ? AND o.name = ?`, host, name)

	var (
		snapshotID string
		meta       core.ObjectMetadata
	)
	if err := row.Scan(&snapshotID, &meta.Name, &meta.Label, &meta.KeyPrefix,
		&meta.Custom, &meta.Queryable, &meta.Createable, &meta.Updateable, &meta.Deletable); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached object: %w", err)
	}

	rows, err := s.db.Query(`SELECT name, label, type, length, nillable, custom,
			createable, updateable, defaulted_on_create,
			reference_to, relationship_name, picklist_values
		FROM fields WHERE snapshot_id = ? AND object_name = ? ORDER BY position`,
		snapshotID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			f     core.Field
			refs  string
			picks string
		)
		if err := rows.Scan(&f.Name, &f.Label, &f.Type, &f.Length, &f.Nillable, &f.Custom,
			&f.Createable, &f.Updateable, &f.DefaultedOnCreate,
			&refs, &f.RelationshipName, &picks); err != nil {
			return nil, fmt.Errorf("failed to scan cached field: %w", err)
		}
		if err := json.Unmarshal([]byte(refs), &f.ReferenceTo); err != nil {
			return nil, fmt.Errorf("corrupt reference list for %s.%s: %w", name, f.Name, err)
		}
		if err := json.Unmarshal([]byte(picks), &f.PicklistValues); err != nil {
			return nil, fmt.Errorf("corrupt picklist for %s.%s: %w", name, f.Name, err)
		}
		meta.Fields = append(meta.Fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &meta, nil
}
