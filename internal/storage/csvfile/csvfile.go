// Package csvfile provides the flat-file implementation of storage.Store:
// delimited text records with fixed column headers, one file per entity.
// Every operation reads or rewrites whole files, which fits the one-call,
// single-process resource model this store is designed for.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gastos/internal/core"
	"gastos/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

const (
	usersFile      = "users.csv"
	expensesFile   = "expenses.csv"
	categoriesFile = "categories.csv"
)

var (
	usersHeader      = []string{"username", "name", "email", "password"}
	expensesHeader   = []string{"id", "username", "item", "price", "date", "category_id"}
	categoriesHeader = []string{"id", "name"}
)

// Store implements storage.Store over CSV files in a single directory.
type Store struct {
	dir string
}

// New ensures the data files exist with their headers and the recognised
// categories are seeded, then returns the store.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{dir: dataDir}
	for file, header := range map[string][]string{
		usersFile:      usersHeader,
		expensesFile:   expensesHeader,
		categoriesFile: categoriesHeader,
	} {
		if err := s.ensureFile(file, header); err != nil {
			return nil, err
		}
	}

	if err := s.seedCategories(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) RegisterUser(ctx context.Context, user core.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	users, err := s.readAll(usersFile, usersHeader)
	if err != nil {
		return err
	}
	for _, row := range users {
		if row[0] == user.Username {
			return storage.ErrUserExists
		}
	}

	return s.appendRow(usersFile, []string{user.Username, user.Name, user.Email, user.PasswordHash})
}

func (s *Store) GetUser(ctx context.Context, username string) (core.User, error) {
	users, err := s.readAll(usersFile, usersHeader)
	if err != nil {
		return core.User{}, err
	}
	for _, row := range users {
		if row[0] == username {
			return core.User{Username: row[0], Name: row[1], Email: row[2], PasswordHash: row[3]}, nil
		}
	}
	return core.User{}, storage.ErrUserNotFound
}

func (s *Store) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	rows, err := s.readAll(expensesFile, expensesHeader)
	if err != nil {
		return 0, err
	}
	var id int64 = 1
	for _, row := range rows {
		if n, err := strconv.ParseInt(row[0], 10, 64); err == nil && n >= id {
			id = n + 1
		}
	}

	err = s.appendRow(expensesFile, []string{
		strconv.FormatInt(id, 10),
		e.Username,
		e.Item,
		strconv.FormatFloat(e.Price.Float(), 'f', 2, 64),
		e.Date.String(),
		strconv.FormatInt(e.CategoryID, 10),
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	rows, err := s.readAll(expensesFile, expensesHeader)
	if err != nil {
		return err
	}

	key := strconv.FormatInt(id, 10)
	kept := rows[:0]
	for _, row := range rows {
		if row[0] != key {
			kept = append(kept, row)
		}
	}
	return s.writeAll(expensesFile, expensesHeader, kept)
}

func (s *Store) ListMonth(ctx context.Context, username string, year, month int) ([]core.Expense, error) {
	rows, err := s.monthRows(username, year, month)
	if err != nil {
		return nil, err
	}

	names, err := s.categoryNames()
	if err != nil {
		return nil, err
	}

	expenses := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := parseExpenseRow(row)
		if err != nil {
			return nil, err
		}
		e.Category = names[e.CategoryID]
		expenses = append(expenses, e)
	}

	sort.Slice(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if a.CategoryID != b.CategoryID {
			return a.CategoryID < b.CategoryID
		}
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.ID < b.ID
	})
	return expenses, nil
}

func (s *Store) MonthTotal(ctx context.Context, username string, year, month int) (core.Money, error) {
	expenses, err := s.ListMonth(ctx, username, year, month)
	if err != nil {
		return core.Money{}, err
	}
	var total core.Money
	for _, e := range expenses {
		total.Cents += e.Price.Cents
	}
	return total, nil
}

func (s *Store) CategoryTotals(ctx context.Context, username string, year, month int) ([]core.CategoryTotal, error) {
	expenses, err := s.ListMonth(ctx, username, year, month)
	if err != nil {
		return nil, err
	}

	sums := make(map[int64]*core.CategoryTotal)
	for _, e := range expenses {
		ct, ok := sums[e.CategoryID]
		if !ok {
			ct = &core.CategoryTotal{CategoryID: e.CategoryID, Category: e.Category}
			sums[e.CategoryID] = ct
		}
		ct.Total.Cents += e.Price.Cents
	}

	totals := make([]core.CategoryTotal, 0, len(sums))
	for _, ct := range sums {
		totals = append(totals, *ct)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].CategoryID < totals[j].CategoryID })
	return totals, nil
}

func (s *Store) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.readAll(categoriesFile, categoriesHeader)
	if err != nil {
		return nil, err
	}
	categories := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse category id %q: %w", row[0], err)
		}
		categories = append(categories, core.Category{ID: id, Name: row[1]})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (s *Store) ResolveCategory(ctx context.Context, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyCategory
	}

	categories, err := s.Categories(ctx)
	if err != nil {
		return core.Category{}, err
	}
	var next int64 = 1
	for _, c := range categories {
		if c.Name == name {
			return c, nil
		}
		if c.ID >= next {
			next = c.ID + 1
		}
	}

	err = s.appendRow(categoriesFile, []string{strconv.FormatInt(next, 10), name})
	if err != nil {
		return core.Category{}, err
	}
	return core.Category{ID: next, Name: name}, nil
}

// seedCategories rewrites the names of the fixed ids and adds any that
// are missing. Lazily created categories are kept as-is.
func (s *Store) seedCategories() error {
	seed := []core.Category{
		{ID: 1, Name: "Food"},
		{ID: 2, Name: "Utilities"},
		{ID: 3, Name: "Necessities"},
		{ID: 4, Name: "Transportation"},
	}

	rows, err := s.readAll(categoriesFile, categoriesHeader)
	if err != nil {
		return err
	}

	byID := make(map[int64][]string, len(rows))
	order := make([]int64, 0, len(rows))
	for _, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return fmt.Errorf("parse category id %q: %w", row[0], err)
		}
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = row
	}
	for _, c := range seed {
		if _, ok := byID[c.ID]; !ok {
			order = append(order, c.ID)
		}
		byID[c.ID] = []string{strconv.FormatInt(c.ID, 10), c.Name}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([][]string, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return s.writeAll(categoriesFile, categoriesHeader, out)
}

func (s *Store) monthRows(username string, year, month int) ([][]string, error) {
	rows, err := s.readAll(expensesFile, expensesHeader)
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	matched := make([][]string, 0, len(rows))
	for _, row := range rows {
		if row[1] == username && strings.HasPrefix(row[4], prefix) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func (s *Store) categoryNames() (map[int64]string, error) {
	categories, err := s.Categories(context.Background())
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

func parseExpenseRow(row []string) (core.Expense, error) {
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense id %q: %w", row[0], err)
	}
	price, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense price %q: %w", row[3], err)
	}
	date, err := core.ParseDate(row[4])
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", row[4], err)
	}
	categoryID, err := strconv.ParseInt(row[5], 10, 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense category %q: %w", row[5], err)
	}
	return core.Expense{
		ID:         id,
		Username:   row[1],
		Item:       row[2],
		Price:      core.Money{Cents: core.CentsFromFloat(price)},
		Date:       date,
		CategoryID: categoryID,
	}, nil
}

func (s *Store) path(file string) string {
	return filepath.Join(s.dir, file)
}

// ensureFile creates the file with its header when absent and verifies the
// header when present.
func (s *Store) ensureFile(file string, header []string) error {
	path := s.path(file)
	if _, err := os.Stat(path); err == nil {
		rows, err := s.readHeader(file)
		if err != nil {
			return err
		}
		for i, col := range header {
			if i >= len(rows) || rows[i] != col {
				return fmt.Errorf("%s: unexpected header %v, want %v", file, rows, header)
			}
		}
		return nil
	}
	return s.writeAll(file, header, nil)
}

func (s *Store) readHeader(file string) ([]string, error) {
	f, err := os.Open(s.path(file))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()
	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", file, err)
	}
	return header, nil
}

// readAll returns every record after the header row.
func (s *Store) readAll(file string, header []string) ([][]string, error) {
	f, err := os.Open(s.path(file))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header", file)
	}
	return records[1:], nil
}

func (s *Store) appendRow(file string, row []string) error {
	f, err := os.OpenFile(s.path(file), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", file, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("append to %s: %w", file, err)
	}
	w.Flush()
	return w.Error()
}

func (s *Store) writeAll(file string, header []string, rows [][]string) error {
	f, err := os.Create(s.path(file))
	if err != nil {
		return fmt.Errorf("create %s: %w", file, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s header: %w", file, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	return nil
}
