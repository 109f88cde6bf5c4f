package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"homeledger/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the persistent store collaborator: two tables,
// expense_categories and expenses, addressed by the canonical day key.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListCategories returns all categories ordered by sort_order ascending.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, sort_order FROM expense_categories ORDER BY sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

// InsertCategory creates a new category appended after the current maximum
// sort order. The id is derived from the name and made unique here; duplicate
// names are allowed, duplicate ids are not.
func (r *SQLiteRepository) InsertCategory(ctx context.Context, name, icon string) (core.Category, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Category{}, fmt.Errorf("begin insert category: %w", err)
	}
	defer tx.Rollback()

	var nextOrder int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM expense_categories`).Scan(&nextOrder); err != nil {
		return core.Category{}, fmt.Errorf("next sort order: %w", err)
	}

	base := slugify(name)
	id := base
	for n := 2; ; n++ {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM expense_categories WHERE id = ?`, id).Scan(&exists); err != nil {
			return core.Category{}, fmt.Errorf("check category id: %w", err)
		}
		if exists == 0 {
			break
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}

	cat := core.Category{ID: id, Name: name, Icon: icon, SortOrder: nextOrder}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO expense_categories (id, name, icon, sort_order) VALUES (?, ?, ?, ?)`,
		cat.ID, cat.Name, cat.Icon, cat.SortOrder); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Category{}, fmt.Errorf("commit insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"id", cat.ID, "name", cat.Name, "sort_order", cat.SortOrder)
	return cat, nil
}

// EntriesByDate returns the persisted ledger for one day.
func (r *SQLiteRepository) EntriesByDate(ctx context.Context, date string) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, category_id, amount_cents, description, created_at
		 FROM expenses WHERE date = ? ORDER BY category_id`, date)
	if err != nil {
		return nil, fmt.Errorf("entries by date %s: %w", date, err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		var e core.Entry
		if err := rows.Scan(&e.Date, &e.CategoryID, &e.AmountCents, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// DeleteEntriesByDate removes every entry for one day.
func (r *SQLiteRepository) DeleteEntriesByDate(ctx context.Context, date string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE date = ?`, date); err != nil {
		return fmt.Errorf("delete entries for %s: %w", date, err)
	}
	return nil
}

// InsertEntries bulk-inserts entries for one day.
func (r *SQLiteRepository) InsertEntries(ctx context.Context, entries []core.Entry) error {
	for _, e := range entries {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO expenses (date, category_id, amount_cents, description, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			e.Date, e.CategoryID, e.AmountCents, e.Description, e.CreatedAt); err != nil {
			return fmt.Errorf("insert entry %s/%s: %w", e.Date, e.CategoryID, err)
		}
	}
	return nil
}

// ReplaceDayEntries swaps a whole day's ledger in one transaction. The
// delete and the inserts either both land or neither does, which closes the
// delete-then-insert consistency gap for this store.
func (r *SQLiteRepository) ReplaceDayEntries(ctx context.Context, date string, entries []core.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace day %s: %w", date, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE date = ?`, date); err != nil {
		return fmt.Errorf("delete entries for %s: %w", date, err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (date, category_id, amount_cents, description, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			e.Date, e.CategoryID, e.AmountCents, e.Description, e.CreatedAt); err != nil {
			return fmt.Errorf("insert entry %s/%s: %w", e.Date, e.CategoryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace day %s: %w", date, err)
	}

	slog.InfoContext(ctx, "Day ledger replaced", "date", date, "entries", len(entries))
	return nil
}

// SumAmountBetween sums amount_cents over the inclusive [first, last] date
// range. Canonical YYYY-MM-DD keys compare lexicographically, so plain
// string comparison is a correct range query.
func (r *SQLiteRepository) SumAmountBetween(ctx context.Context, first, last string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE date >= ? AND date <= ?`,
		first, last).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum amounts between %s and %s: %w", first, last, err)
	}
	return total, nil
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		s = "category"
	}
	return s
}
