package catalog

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/logging"
)

const sqliteCacheOpTimeout = 5 * time.Second

// SQLiteCache persists reference fingerprints across process restarts.
// Storage errors are logged and treated as cache misses.
type SQLiteCache struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// OpenSQLiteCache opens the fingerprint cache database at path.
func OpenSQLiteCache(path string, ttl time.Duration, logger *slog.Logger) (*SQLiteCache, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SQLiteCache{
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "fingerprint-cache"),
	}, nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get implements Cache.
func (c *SQLiteCache) Get(key string) (fingerprint.Fingerprint, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteCacheOpTimeout)
	defer cancel()

	var a, d, p string
	err := c.db.QueryRowContext(ctx,
		`SELECT ahash, dhash, phash FROM fingerprint_cache WHERE cache_key = ? AND expires_at > ?`,
		key, c.now().UnixNano(),
	).Scan(&a, &d, &p)
	if errors.Is(err, sql.ErrNoRows) {
		return fingerprint.Fingerprint{}, false
	}
	if err != nil {
		c.warn("fingerprint cache read failed", key, err)
		return fingerprint.Fingerprint{}, false
	}
	fp, err := fingerprint.ParseFingerprint(a + ":" + d + ":" + p)
	if err != nil {
		c.warn("fingerprint cache row unreadable", key, err)
		return fingerprint.Fingerprint{}, false
	}
	return fp, true
}

// Set implements Cache.
func (c *SQLiteCache) Set(key string, fp fingerprint.Fingerprint) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteCacheOpTimeout)
	defer cancel()

	err := retryOnBusy(ctx, func() error {
		_, execErr := c.db.ExecContext(ctx,
			`INSERT INTO fingerprint_cache (cache_key, ahash, dhash, phash, expires_at)
             VALUES (?, ?, ?, ?, ?)
             ON CONFLICT(cache_key) DO UPDATE SET
                ahash = excluded.ahash,
                dhash = excluded.dhash,
                phash = excluded.phash,
                expires_at = excluded.expires_at`,
			key, fp.AHash.String(), fp.DHash.String(), fp.PHash.String(), c.now().Add(c.ttl).UnixNano())
		return execErr
	})
	if err != nil {
		c.warn("fingerprint cache write failed", key, err)
	}
}

// Expire implements Cache.
func (c *SQLiteCache) Expire() int {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteCacheOpTimeout)
	defer cancel()

	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = c.db.ExecContext(ctx, `DELETE FROM fingerprint_cache WHERE expires_at <= ?`, c.now().UnixNano())
		return execErr
	})
	if err != nil {
		c.warn("fingerprint cache expiry failed", "", err)
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

// Purge removes every cached fingerprint.
func (c *SQLiteCache) Purge(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM fingerprint_cache`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (c *SQLiteCache) warn(msg, key string, err error) {
	logging.WarnWithContext(c.logger, msg, "fingerprint_cache_error",
		logging.String("cache_key", key),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check cache_dir permissions or delete fingerprints.db"),
		logging.String(logging.FieldImpact, "reference images will be fetched again"),
	)
}
