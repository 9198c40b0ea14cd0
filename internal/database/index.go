package database

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SaveIndexEntries replaces the stored entry list of the named index.
func (d *Database) SaveIndexEntries(ctx context.Context, indexName string, guids []string) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_index", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save index: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM index_entries WHERE index_name = ?", indexName); err != nil {
		return fmt.Errorf("clearing index %q: %w", indexName, err)
	}

	for i, guid := range guids {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO index_entries (index_name, position, guid) VALUES (?, ?, ?)",
			indexName, i, guid); err != nil {
			return fmt.Errorf("inserting index entry %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save index: %w", err)
	}
	return nil
}

// IndexEntries returns the stored entry list of the named index in order.
func (d *Database) IndexEntries(ctx context.Context, indexName string) (guids []string, err error) {
	start := time.Now()
	defer func() { recordQuery("load_index", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT guid FROM index_entries WHERE index_name = ? ORDER BY position", indexName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var guid string
		if err = rows.Scan(&guid); err != nil {
			return nil, err
		}
		guids = append(guids, guid)
	}
	return guids, rows.Err()
}
