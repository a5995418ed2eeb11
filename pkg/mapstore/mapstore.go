// Package mapstore persists named mappings in a local SQLite catalog. Each
// entry stores the native channel dump of one mapping graph, so anything a
// channel can round trip can be kept on disk under a name and restored
// later.
package mapstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/warpmap/warp"
)

// ErrNotFound is returned when the catalog has no mapping under the
// requested name.
var ErrNotFound = errors.New("mapstore: mapping not found")

// Store is a named-mapping catalog backed by a single SQLite file.
// Store methods are safe for concurrent use; the mappings they return are
// fresh objects owned by the caller.
type Store struct {
	db  *sql.DB
	log warp.Logger
}

// Entry describes one catalog row.
type Entry struct {
	Name      string
	Class     string
	UpdatedAt time.Time
}

// Option configures a Store.
type Option interface {
	apply(*config)
}

type config struct {
	log warp.Logger
}

type optionFunc func(*config)

func (f optionFunc) apply(cfg *config) { f(cfg) }

// WithLogger directs the store's diagnostics to l.
func WithLogger(l warp.Logger) Option {
	return optionFunc(func(cfg *config) { cfg.log = l })
}

// Open opens or creates the catalog at path.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{log: warp.NopLogger()}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS mappings (
		name TEXT PRIMARY KEY,
		class TEXT NOT NULL,
		dump TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create mappings table: %w", err)
	}
	return &Store{db: db, log: cfg.log}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores m under name, replacing any previous entry of that name.
func (s *Store) Put(ctx context.Context, name string, m warp.Mapping) error {
	if name == "" {
		return errors.New("mapstore: name must not be empty")
	}
	var buf bytes.Buffer
	if err := warp.NewChannel(&buf).Write(m); err != nil {
		return fmt.Errorf("serialize %s: %w", name, err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mappings(name, class, dump, updated_at) VALUES(?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET class = excluded.class, dump = excluded.dump, updated_at = excluded.updated_at`,
		name, m.ClassName(), buf.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	s.log.Debugf("stored mapping %q class=%s", name, m.ClassName())
	return nil
}

// Get restores the mapping stored under name. The result is a fresh object
// graph; the caller owns its handle.
func (s *Store) Get(ctx context.Context, name string) (warp.Mapping, error) {
	var dump string
	err := s.db.QueryRowContext(ctx, `SELECT dump FROM mappings WHERE name = ?`, name).Scan(&dump)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	obj, err := warp.NewChannel(bytes.NewBufferString(dump)).Read()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	m, ok := obj.(warp.Mapping)
	if !ok {
		obj.Release()
		return nil, fmt.Errorf("decode %s: stored object %s is not a mapping", name, obj.ClassName())
	}
	return m, nil
}

// List returns every catalog entry, ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, class, updated_at FROM mappings ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Class, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the entry under name, failing with ErrNotFound when there
// is none.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mappings WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
