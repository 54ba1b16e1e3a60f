// Package storage provides abstractions for persistent expense data.
package storage

import (
	"context"
	"errors"

	"gastos/internal/core"
)

var (
	// ErrUserExists is returned when registering a username that is
	// already taken.
	ErrUserExists = errors.New("username already exists")

	// ErrUserNotFound is returned when looking up an unknown username.
	ErrUserNotFound = errors.New("user not found")

	// ErrMigrationFailure is returned when a schema upgrade could not
	// complete. The store is left in its previous shape and the upgrade
	// is retried on the next startup.
	ErrMigrationFailure = errors.New("schema migration failed")
)

// Store defines the persistence operations over users, categories and
// expenses. This abstraction allows swapping storage backends (SQLite,
// flat files) without changing the service layer.
//
// Deleting an expense whose id does not exist is not an error; deletes are
// idempotent.
type Store interface {
	// RegisterUser persists a new user. Returns ErrUserExists when the
	// username is already taken.
	RegisterUser(ctx context.Context, user core.User) error

	// GetUser retrieves a user by username. Returns ErrUserNotFound when
	// no such user exists.
	GetUser(ctx context.Context, username string) (core.User, error)

	// AddExpense persists a new expense and returns its assigned id.
	AddExpense(ctx context.Context, e core.Expense) (int64, error)

	// DeleteExpense removes an expense by id. Absent ids are a no-op.
	DeleteExpense(ctx context.Context, id int64) error

	// ListMonth returns the expenses of one owner in one calendar month,
	// ordered by category id, then date, then id.
	ListMonth(ctx context.Context, username string, year, month int) ([]core.Expense, error)

	// MonthTotal sums the prices of one owner's expenses in one calendar
	// month. Zero when there are no matches.
	MonthTotal(ctx context.Context, username string, year, month int) (core.Money, error)

	// CategoryTotals returns per-category subtotals for one owner and
	// month, in category-id order. Categories without expenses in the
	// month are omitted.
	CategoryTotals(ctx context.Context, username string, year, month int) ([]core.CategoryTotal, error)

	// Categories lists all categories in id order.
	Categories(ctx context.Context) ([]core.Category, error)

	// ResolveCategory returns the category with the given name, creating
	// it when it does not exist yet.
	ResolveCategory(ctx context.Context, name string) (core.Category, error)

	// Close releases any resources held by the store.
	Close() error
}
