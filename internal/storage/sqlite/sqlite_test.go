package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gastos/internal/core"
	"gastos/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustRegister(t *testing.T, store *Store, username string) {
	t.Helper()
	err := store.RegisterUser(context.Background(), core.User{
		Username:     username,
		Name:         "Test User",
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
	})
	if err != nil {
		t.Fatalf("RegisterUser(%s) failed: %v", username, err)
	}
}

func mustAdd(t *testing.T, store *Store, username, item string, cents int64, date core.Date, categoryID int64) int64 {
	t.Helper()
	id, err := store.AddExpense(context.Background(), core.Expense{
		Username:   username,
		Item:       item,
		Price:      core.Money{Cents: cents},
		Date:       date,
		CategoryID: categoryID,
	})
	if err != nil {
		t.Fatalf("AddExpense(%s) failed: %v", item, err)
	}
	return id
}

func TestRegisterUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustRegister(t, store, "ana")

	t.Run("duplicate username", func(t *testing.T) {
		err := store.RegisterUser(ctx, core.User{Username: "ana", Name: "Other"})
		if !errors.Is(err, storage.ErrUserExists) {
			t.Fatalf("expected ErrUserExists, got %v", err)
		}

		// The stored record must be unchanged
		u, err := store.GetUser(ctx, "ana")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if u.Name != "Test User" {
			t.Errorf("expected original record, got name %q", u.Name)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := store.GetUser(ctx, "nobody")
		if !errors.Is(err, storage.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("empty username", func(t *testing.T) {
		err := store.RegisterUser(ctx, core.User{Username: "  "})
		if !errors.Is(err, core.ErrEmptyUsername) {
			t.Fatalf("expected ErrEmptyUsername, got %v", err)
		}
	})
}

func TestAddAndListExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustRegister(t, store, "ana")
	mustRegister(t, store, "ben")

	id := mustAdd(t, store, "ana", "groceries", 2550, core.NewDate(2025, 3, 5), 1)
	mustAdd(t, store, "ana", "bus fare", 1500, core.NewDate(2025, 3, 12), 4)
	mustAdd(t, store, "ana", "electricity", 8000, core.NewDate(2025, 4, 1), 2) // other month
	mustAdd(t, store, "ben", "snacks", 500, core.NewDate(2025, 3, 5), 1)       // other user

	t.Run("new expense appears exactly once", func(t *testing.T) {
		expenses, err := store.ListMonth(ctx, "ana", 2025, 3)
		if err != nil {
			t.Fatalf("ListMonth failed: %v", err)
		}
		seen := 0
		for _, e := range expenses {
			if e.ID == id {
				seen++
				if e.Item != "groceries" || e.Price.Cents != 2550 || e.Category != "Food" {
					t.Errorf("unexpected expense: %+v", e)
				}
			}
		}
		if seen != 1 {
			t.Fatalf("expected expense %d exactly once, saw it %d times", id, seen)
		}
		if len(expenses) != 2 {
			t.Fatalf("expected 2 expenses for ana in 2025-03, got %d", len(expenses))
		}
	})

	t.Run("ordered by category then date", func(t *testing.T) {
		mustAdd(t, store, "ana", "market run", 1000, core.NewDate(2025, 3, 1), 1)

		expenses, err := store.ListMonth(ctx, "ana", 2025, 3)
		if err != nil {
			t.Fatalf("ListMonth failed: %v", err)
		}
		for i := 1; i < len(expenses); i++ {
			prev, cur := expenses[i-1], expenses[i]
			if prev.CategoryID > cur.CategoryID {
				t.Fatalf("expenses not ordered by category: %+v before %+v", prev, cur)
			}
			if prev.CategoryID == cur.CategoryID && prev.Date.After(cur.Date.Time) {
				t.Fatalf("expenses not ordered by date within category: %+v before %+v", prev, cur)
			}
		}
	})

	t.Run("month with no expenses", func(t *testing.T) {
		expenses, err := store.ListMonth(ctx, "ana", 2025, 7)
		if err != nil {
			t.Fatalf("ListMonth failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Fatalf("expected no expenses, got %d", len(expenses))
		}
	})
}

func TestMonthTotal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustRegister(t, store, "ana")

	mustAdd(t, store, "ana", "groceries", 2550, core.NewDate(2025, 3, 5), 1)
	mustAdd(t, store, "ana", "bus fare", 1500, core.NewDate(2025, 3, 12), 4)
	mustAdd(t, store, "ana", "rent", 500000, core.NewDate(2025, 2, 28), 3)   // other month
	mustAdd(t, store, "ana", "groceries", 2550, core.NewDate(2024, 3, 5), 1) // other year

	total, err := store.MonthTotal(ctx, "ana", 2025, 3)
	if err != nil {
		t.Fatalf("MonthTotal failed: %v", err)
	}
	if total.Cents != 4050 {
		t.Fatalf("expected 4050 cents, got %d", total.Cents)
	}

	empty, err := store.MonthTotal(ctx, "ana", 2025, 9)
	if err != nil {
		t.Fatalf("MonthTotal failed: %v", err)
	}
	if empty.Cents != 0 {
		t.Fatalf("expected 0 for empty month, got %d", empty.Cents)
	}
}

func TestCategoryTotals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustRegister(t, store, "ana")

	mustAdd(t, store, "ana", "groceries", 2000, core.NewDate(2025, 3, 5), 1)
	mustAdd(t, store, "ana", "takeout", 1000, core.NewDate(2025, 3, 8), 1)
	mustAdd(t, store, "ana", "bus fare", 1500, core.NewDate(2025, 3, 12), 4)

	totals, err := store.CategoryTotals(ctx, "ana", 2025, 3)
	if err != nil {
		t.Fatalf("CategoryTotals failed: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 categories, got %d: %+v", len(totals), totals)
	}
	if totals[0].Category != "Food" || totals[0].Total.Cents != 3000 {
		t.Errorf("unexpected first group: %+v", totals[0])
	}
	if totals[1].Category != "Transportation" || totals[1].Total.Cents != 1500 {
		t.Errorf("unexpected second group: %+v", totals[1])
	}
}

func TestDeleteExpense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustRegister(t, store, "ana")

	id := mustAdd(t, store, "ana", "groceries", 2000, core.NewDate(2025, 3, 5), 1)

	if err := store.DeleteExpense(ctx, id); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	t.Run("absent id is a no-op", func(t *testing.T) {
		keep := mustAdd(t, store, "ana", "bus fare", 1500, core.NewDate(2025, 3, 12), 4)

		if err := store.DeleteExpense(ctx, 99999); err != nil {
			t.Fatalf("DeleteExpense on absent id failed: %v", err)
		}

		expenses, err := store.ListMonth(ctx, "ana", 2025, 3)
		if err != nil {
			t.Fatalf("ListMonth failed: %v", err)
		}
		if len(expenses) != 1 || expenses[0].ID != keep {
			t.Fatalf("existing records altered: %+v", expenses)
		}
	})
}

func TestCategories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("seeded set in fixed order", func(t *testing.T) {
		categories, err := store.Categories(ctx)
		if err != nil {
			t.Fatalf("Categories failed: %v", err)
		}
		want := []string{"Food", "Utilities", "Necessities", "Transportation"}
		if len(categories) != len(want) {
			t.Fatalf("expected %d categories, got %d", len(want), len(categories))
		}
		for i, name := range want {
			if categories[i].ID != int64(i+1) || categories[i].Name != name {
				t.Errorf("category %d: expected (%d, %s), got (%d, %s)",
					i, i+1, name, categories[i].ID, categories[i].Name)
			}
		}
	})

	t.Run("resolve existing", func(t *testing.T) {
		c, err := store.ResolveCategory(ctx, "Utilities")
		if err != nil {
			t.Fatalf("ResolveCategory failed: %v", err)
		}
		if c.ID != 2 {
			t.Fatalf("expected id 2, got %d", c.ID)
		}
	})

	t.Run("auto-create on unknown name", func(t *testing.T) {
		c, err := store.ResolveCategory(ctx, "Subscriptions")
		if err != nil {
			t.Fatalf("ResolveCategory failed: %v", err)
		}
		if c.ID <= 4 {
			t.Fatalf("expected a new id after the seeded set, got %d", c.ID)
		}

		mustRegister(t, store, "ana")
		id := mustAdd(t, store, "ana", "streaming", 999, core.NewDate(2025, 3, 1), c.ID)

		expenses, err := store.ListMonth(ctx, "ana", 2025, 3)
		if err != nil {
			t.Fatalf("ListMonth failed: %v", err)
		}
		if len(expenses) != 1 || expenses[0].ID != id || expenses[0].Category != "Subscriptions" {
			t.Fatalf("expected expense linked to new category, got %+v", expenses)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		if _, err := store.ResolveCategory(ctx, "  "); !errors.Is(err, core.ErrEmptyCategory) {
			t.Fatalf("expected ErrEmptyCategory, got %v", err)
		}
	})
}
