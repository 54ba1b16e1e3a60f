// Package services holds the operations the UI layer calls. All writes to
// the store go through here; the UI only ever holds transient copies of
// what these operations return.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gastos/internal/core"
	"gastos/internal/storage"
)

// ExpenseService validates input, resolves category references and drives
// the expense store. Every owner-scoped call takes the session returned by
// authentication.
type ExpenseService struct {
	store storage.Store
}

func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// AddExpense records a new expense for the session's user. price is the
// raw text the user typed; category is either a category id or a name, and
// an unrecognised name creates the category on the fly.
func (s *ExpenseService) AddExpense(ctx context.Context, sess core.Session, item, price string, date core.Date, category string) (int64, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return 0, core.ErrEmptyItem
	}

	cents, err := core.ParseDecimalToCents(price)
	if err != nil {
		return 0, err
	}

	if err := date.Validate(); err != nil {
		return 0, err
	}

	cat, err := s.resolveCategoryRef(ctx, category)
	if err != nil {
		return 0, err
	}

	id, err := s.store.AddExpense(ctx, core.Expense{
		Username:   sess.Username,
		Item:       item,
		Price:      core.Money{Cents: cents},
		Date:       date,
		CategoryID: cat.ID,
	})
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"id", id,
		"username", sess.Username,
		"category", cat.Name)
	return id, nil
}

// DeleteExpense removes an expense. Absent ids are a no-op, mirroring the
// confirm-then-delete UI flow.
func (s *ExpenseService) DeleteExpense(ctx context.Context, sess core.Session, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id, "username", sess.Username)
	return nil
}

// MonthReport returns everything a month view renders: the session user's
// expenses for the month in display order, the total, and per-category
// subtotals in category-id order.
func (s *ExpenseService) MonthReport(ctx context.Context, sess core.Session, year, month int) (core.MonthReport, error) {
	report := core.MonthReport{Year: year, Month: month}
	if month < 1 || month > 12 {
		return report, core.ErrInvalidMonth
	}

	expenses, err := s.store.ListMonth(ctx, sess.Username, year, month)
	if err != nil {
		return report, fmt.Errorf("list month: %w", err)
	}
	total, err := s.store.MonthTotal(ctx, sess.Username, year, month)
	if err != nil {
		return report, fmt.Errorf("month total: %w", err)
	}
	byCategory, err := s.store.CategoryTotals(ctx, sess.Username, year, month)
	if err != nil {
		return report, fmt.Errorf("category totals: %w", err)
	}

	report.Expenses = expenses
	report.Total = total
	report.ByCategory = byCategory
	return report, nil
}

// Categories lists all categories in display order for entry forms.
func (s *ExpenseService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.Categories(ctx)
}

func (s *ExpenseService) resolveCategoryRef(ctx context.Context, category string) (core.Category, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.Category{}, core.ErrEmptyCategory
	}

	// A numeric reference must match an existing category; only names are
	// created lazily.
	if id, err := strconv.ParseInt(category, 10, 64); err == nil {
		categories, err := s.store.Categories(ctx)
		if err != nil {
			return core.Category{}, fmt.Errorf("list categories: %w", err)
		}
		for _, c := range categories {
			if c.ID == id {
				return c, nil
			}
		}
		return core.Category{}, core.ErrUnknownCategory
	}

	return s.store.ResolveCategory(ctx, category)
}

// Close releases the underlying store.
func (s *ExpenseService) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
