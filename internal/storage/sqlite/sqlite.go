// Package sqlite provides the SQLite-backed implementation of
// storage.Store, including the schema manager that brings older databases
// forward to the current shape.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"gastos/internal/core"
	"gastos/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens the database at dbPath, creating parent directories as
// needed, runs the schema manager and seeds the recognised categories.
func New(dbPath string) (*Store, error) {
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

	if err := ensureSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := seedCategories(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RegisterUser persists a new user record. The password field is expected
// to already be hashed by the auth layer.
func (s *Store) RegisterUser(ctx context.Context, user core.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE username = ?", user.Username,
	).Scan(&exists)
	if err == nil {
		return storage.ErrUserExists
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check username: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (username, name, email, password) VALUES (?, ?, ?, ?)",
		user.Username, user.Name, user.Email, user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "username", user.Username)
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (core.User, error) {
	var u core.User
	err := s.db.QueryRowContext(ctx,
		"SELECT username, name, email, password FROM users WHERE username = ?",
		username,
	).Scan(&u.Username, &u.Name, &u.Email, &u.PasswordHash)
	if err == sql.ErrNoRows {
		return core.User{}, storage.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// AddExpense persists a new expense and returns the store-assigned id.
// The expense must carry a resolved category id.
func (s *Store) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO expenses (username, item, price, date, category_id) VALUES (?, ?, ?, ?, ?)",
		e.Username, e.Item, e.Price.Float(), e.Date.String(), e.CategoryID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"username", e.Username,
		"item", e.Item,
		"amount_cents", e.Price.Cents,
		"date", e.Date.String())

	return id, nil
}

// DeleteExpense removes the expense with the given id. Deleting an absent
// id is a no-op, mirroring the confirm-then-delete UI flow.
func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (s *Store) ListMonth(ctx context.Context, username string, year, month int) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.username, e.item, e.price, e.date, e.category_id, c.name
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.username = ?
		  AND strftime('%Y', e.date) = ?
		  AND strftime('%m', e.date) = ?
		ORDER BY e.category_id, e.date, e.id`,
		username, yearKey(year), monthKey(month),
	)
	if err != nil {
		return nil, fmt.Errorf("list month expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Store) MonthTotal(ctx context.Context, username string, year, month int) (core.Money, error) {
	var total float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(price), 0)
		FROM expenses
		WHERE username = ?
		  AND strftime('%Y', date) = ?
		  AND strftime('%m', date) = ?`,
		username, yearKey(year), monthKey(month),
	).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("month total: %w", err)
	}
	return core.Money{Cents: core.CentsFromFloat(total)}, nil
}

func (s *Store) CategoryTotals(ctx context.Context, username string, year, month int) ([]core.CategoryTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, SUM(e.price)
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.username = ?
		  AND strftime('%Y', e.date) = ?
		  AND strftime('%m', e.date) = ?
		GROUP BY c.id, c.name
		ORDER BY c.id`,
		username, yearKey(year), monthKey(month),
	)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var (
			ct  core.CategoryTotal
			sum float64
		)
		if err := rows.Scan(&ct.CategoryID, &ct.Category, &sum); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ct.Total = core.Money{Cents: core.CentsFromFloat(sum)}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func (s *Store) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ResolveCategory returns the category with the given name, inserting it
// when no category of that name exists yet.
func (s *Store) ResolveCategory(ctx context.Context, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyCategory
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Category{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM categories WHERE name = ?", name).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, ierr := tx.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", name)
		if ierr != nil {
			return core.Category{}, fmt.Errorf("insert category: %w", ierr)
		}
		if id, ierr = res.LastInsertId(); ierr != nil {
			return core.Category{}, fmt.Errorf("category id: %w", ierr)
		}
		slog.InfoContext(ctx, "Category created", "id", id, "name", name)
	case err != nil:
		return core.Category{}, fmt.Errorf("lookup category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Category{}, fmt.Errorf("commit category: %w", err)
	}

	return core.Category{ID: id, Name: name}, nil
}

func scanExpense(rows *sql.Rows) (core.Expense, error) {
	var (
		e     core.Expense
		price float64
		date  string
	)
	if err := rows.Scan(&e.ID, &e.Username, &e.Item, &price, &date, &e.CategoryID, &e.Category); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	e.Price = core.Money{Cents: core.CentsFromFloat(price)}
	e.Date = d
	return e, nil
}

func yearKey(year int) string {
	return fmt.Sprintf("%04d", year)
}

func monthKey(month int) string {
	return fmt.Sprintf("%02d", month)
}
