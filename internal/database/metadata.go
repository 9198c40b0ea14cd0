package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	keyLastRefresh    = "last_refresh"
	keyLastGeneration = "last_helper_generation"
)

// GetMetadata retrieves a metadata value by key.
// Returns ErrNotFound if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (value string, err error) {
	start := time.Now()
	defer func() { recordQuery("get_metadata", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { recordQuery("set_metadata", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (d *Database) getTime(ctx context.Context, key string) (time.Time, error) {
	value, err := d.GetMetadata(ctx, key)
	if errors.Is(err, ErrNotFound) || (err == nil && value == "") {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

func (d *Database) setTime(ctx context.Context, key string, t time.Time) error {
	if t.IsZero() {
		return d.SetMetadata(ctx, key, "")
	}
	return d.SetMetadata(ctx, key, t.UTC().Format(time.RFC3339))
}

// GetLastRefresh returns when the project was last rescanned.
// Returns zero time if never run.
func (d *Database) GetLastRefresh(ctx context.Context) (time.Time, error) {
	return d.getTime(ctx, keyLastRefresh)
}

// SetLastRefresh stores the time of the last project rescan.
func (d *Database) SetLastRefresh(ctx context.Context, t time.Time) error {
	return d.setTime(ctx, keyLastRefresh, t)
}

// GetLastGeneration returns when the helper file was last written.
func (d *Database) GetLastGeneration(ctx context.Context) (time.Time, error) {
	return d.getTime(ctx, keyLastGeneration)
}

// SetLastGeneration stores the time the helper file was last written.
func (d *Database) SetLastGeneration(ctx context.Context, t time.Time) error {
	return d.setTime(ctx, keyLastGeneration, t)
}
