package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a catalog row does not exist.
var ErrNotFound = errors.New("asset not found")

// SyncAssets replaces the catalog with assets in a single transaction.
func (d *Database) SyncAssets(ctx context.Context, assets []Asset) (err error) {
	start := time.Now()
	defer func() { recordQuery("sync_assets", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM assets"); err != nil {
		return fmt.Errorf("clearing assets: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO assets (guid, path, type, mod_time) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing asset insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range assets {
		if _, err = stmt.ExecContext(ctx, a.GUID, a.Path, a.Type, a.ModTime.Unix()); err != nil {
			return fmt.Errorf("inserting asset %s: %w", a.Path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sync: %w", err)
	}
	return nil
}

// GetAssetByGUID returns the catalog row for guid.
func (d *Database) GetAssetByGUID(ctx context.Context, guid string) (*Asset, error) {
	return d.getAsset(ctx, "guid", guid)
}

// GetAssetByPath returns the catalog row for path.
func (d *Database) GetAssetByPath(ctx context.Context, path string) (*Asset, error) {
	return d.getAsset(ctx, "path", path)
}

func (d *Database) getAsset(ctx context.Context, column, value string) (a *Asset, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			recordQuery("get_asset", start, nil)
			return
		}
		recordQuery("get_asset", start, err)
	}()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// column is one of two constants chosen by the callers above
	query := "SELECT guid, path, type, mod_time FROM assets WHERE " + column + " = ?"

	var asset Asset
	var modTime int64
	err = d.db.QueryRowContext(ctx, query, value).Scan(&asset.GUID, &asset.Path, &asset.Type, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	asset.ModTime = time.Unix(modTime, 0)
	return &asset, nil
}

// AssetsByType lists the assets of one type ordered by path.
func (d *Database) AssetsByType(ctx context.Context, assetType string) (assets []Asset, err error) {
	start := time.Now()
	defer func() { recordQuery("assets_by_type", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT guid, path, type, mod_time FROM assets WHERE type = ? ORDER BY path", assetType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a Asset
		var modTime int64
		if err = rows.Scan(&a.GUID, &a.Path, &a.Type, &modTime); err != nil {
			return nil, err
		}
		a.ModTime = time.Unix(modTime, 0)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// CountByType returns asset counts keyed by type.
func (d *Database) CountByType(ctx context.Context) (counts map[string]int, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT type, COUNT(*) FROM assets GROUP BY type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts = make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err = rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// DeleteAsset removes the catalog row for guid.
func (d *Database) DeleteAsset(ctx context.Context, guid string) (err error) {
	start := time.Now()
	defer func() { recordQuery("delete_asset", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM assets WHERE guid = ?", guid)
	return err
}
