package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bazaarscan/internal/services"
)

// Store is the SQLite-backed catalog. Rows are keyed by name; importing the
// same name again updates its kind and image.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenStore opens or creates the catalog database at path.
func OpenStore(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalogQueryFailed, "catalog", "open store", path, err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Upsert inserts or updates entries by name and returns how many rows changed.
func (s *Store) Upsert(ctx context.Context, entries []Entry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	timestamp := s.now().UTC().Format(time.RFC3339Nano)
	changed := 0
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" || strings.TrimSpace(entry.ImageURL) == "" {
			continue
		}
		var res sql.Result
		err := retryOnBusy(ctx, func() error {
			var execErr error
			res, execErr = tx.ExecContext(ctx,
				`INSERT INTO catalog_items (name, kind, image_url, created_at, updated_at)
                 VALUES (?, ?, ?, ?, ?)
                 ON CONFLICT(name) DO UPDATE SET
                    kind = excluded.kind,
                    image_url = excluded.image_url,
                    updated_at = excluded.updated_at
                 WHERE catalog_items.kind != excluded.kind
                    OR catalog_items.image_url != excluded.image_url`,
				name, entry.Kind, entry.ImageURL, timestamp, timestamp)
			return execErr
		})
		if err != nil {
			return 0, fmt.Errorf("upsert %q: %w", name, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			changed += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return changed, nil
}

// List implements Source, returning entries ordered by id.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, name, kind, image_url FROM catalog_items ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalogQueryFailed, "catalog", "list store", "", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			id    int64
			entry Entry
		)
		if err := rows.Scan(&id, &entry.Name, &entry.Kind, &entry.ImageURL); err != nil {
			return nil, services.Wrap(services.ErrCatalogQueryFailed, "catalog", "scan entry", "", err)
		}
		entry.ID = strconv.FormatInt(id, 10)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrCatalogQueryFailed, "catalog", "list store", "", err)
	}
	return entries, nil
}

// Count returns the number of catalog rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM catalog_items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count catalog items: %w", err)
	}
	return count, nil
}
