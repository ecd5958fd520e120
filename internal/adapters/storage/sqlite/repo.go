package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/treeview/internal/app"
	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores tree items in sqlite and implements app.Catalog.
type Repository struct {
	db *sql.DB
}

// Open opens the catalog at path, creating the parent directory and schema.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory catalog.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Each connection gets its own memory database.
	db.SetMaxOpenConns(1)
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the items schema.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			value_json TEXT NOT NULL DEFAULT 'null',
			disabled INTEGER NOT NULL DEFAULT 0,
			checked INTEGER NOT NULL DEFAULT 1,
			collapsed INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_parent_position ON items(parent_id, position);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// ListItems returns every row ordered by parent and position.
func (r *Repository) ListItems(ctx context.Context) ([]app.CatalogItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, position, label, value_json, disabled, checked, collapsed, created_at, updated_at
		FROM items
		ORDER BY parent_id ASC, position ASC, created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]app.CatalogItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// CreateItem inserts one row. A negative position appends after the siblings.
func (r *Repository) CreateItem(ctx context.Context, item app.CatalogItem) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if item.ParentID != "" {
		var exists int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM items WHERE id = ?`, item.ParentID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("parent %q: %w", item.ParentID, app.ErrNotFound)
		}
	}
	if item.Position < 0 {
		err = tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(position), -1) + 1 FROM items WHERE parent_id = ?
		`, item.ParentID).Scan(&item.Position)
		if err != nil {
			return err
		}
	}
	if err = insertItem(ctx, tx, item); err != nil {
		return err
	}
	return tx.Commit()
}

// RenameItem updates the label of one row.
func (r *Repository) RenameItem(ctx context.Context, id, label string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE items SET label = ?, updated_at = ? WHERE id = ?
	`, label, ts(at), id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// DeleteItem removes a row and every row below it.
func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM items WHERE id = ?
			UNION ALL
			SELECT items.id FROM items JOIN subtree ON items.parent_id = subtree.id
		)
		DELETE FROM items WHERE id IN (SELECT id FROM subtree)
	`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// ReplaceItems swaps the whole catalog in one transaction.
func (r *Repository) ReplaceItems(ctx context.Context, items []app.CatalogItem) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return err
	}
	for _, item := range items {
		if err = insertItem(ctx, tx, item); err != nil {
			return fmt.Errorf("insert item %q: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

// execerContext describes the exec surface shared by *sql.DB and *sql.Tx.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// scanner describes the scan surface shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func insertItem(ctx context.Context, execer execerContext, item app.CatalogItem) error {
	valueJSON, err := json.Marshal(item.Value)
	if err != nil {
		return fmt.Errorf("encode item value: %w", err)
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO items(id, parent_id, position, label, value_json, disabled, checked, collapsed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.ParentID, item.Position, item.Label, string(valueJSON),
		boolToInt(item.Disabled), boolToInt(item.Checked), boolToInt(item.Collapsed),
		ts(item.CreatedAt), ts(item.UpdatedAt))
	return err
}

func scanItem(s scanner) (app.CatalogItem, error) {
	var (
		item                         app.CatalogItem
		valueJSON                    string
		disabled, checked, collapsed int
		createdAt, updatedAt         string
	)
	if err := s.Scan(
		&item.ID, &item.ParentID, &item.Position, &item.Label, &valueJSON,
		&disabled, &checked, &collapsed, &createdAt, &updatedAt,
	); err != nil {
		return app.CatalogItem{}, err
	}
	if err := json.Unmarshal([]byte(valueJSON), &item.Value); err != nil {
		return app.CatalogItem{}, fmt.Errorf("decode item %q value: %w", item.ID, err)
	}
	item.Disabled = disabled != 0
	item.Checked = checked != 0
	item.Collapsed = collapsed != 0
	item.CreatedAt = parseTS(createdAt)
	item.UpdatedAt = parseTS(updatedAt)
	return item, nil
}

// translateNoRows maps an update that touched nothing to app.ErrNotFound.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
