// Command gastos is the interactive terminal front-end of the expense
// tracker. It is UI glue only: every write goes through the service
// layer, and the session returned by login is passed into each call.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gastos/internal/auth"
	"gastos/internal/cli"
	"gastos/internal/core"
	"gastos/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg)
	expenses := services.NewExpenseService(store)
	defer expenses.Close()

	app := &app{
		expenses: expenses,
		auth:     auth.NewService(store, cfg.BcryptCost),
		symbol:   cfg.CurrencySymbol,
		in:       bufio.NewScanner(os.Stdin),
	}

	fmt.Println("gastos — expense tracker")
	app.run(context.Background())
}

type app struct {
	expenses *services.ExpenseService
	auth     *auth.Service
	symbol   string
	in       *bufio.Scanner
	session  *core.Session
}

func (a *app) run(ctx context.Context) {
	for {
		var line string
		if a.session == nil {
			line = a.prompt("(login | register | quit) > ")
		} else {
			line = a.prompt(a.session.Username + " (add | list | del | categories | logout | quit) > ")
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch cmd := fields[0]; {
		case cmd == "quit" || cmd == "exit":
			return
		case a.session == nil && cmd == "register":
			a.register(ctx)
		case a.session == nil && cmd == "login":
			a.login(ctx)
		case a.session != nil && cmd == "add":
			a.addExpense(ctx)
		case a.session != nil && cmd == "list":
			a.listMonth(ctx, fields[1:])
		case a.session != nil && cmd == "del":
			a.deleteExpense(ctx, fields[1:])
		case a.session != nil && cmd == "categories":
			a.listCategories(ctx)
		case a.session != nil && cmd == "logout":
			a.session = nil
		default:
			fmt.Println("unknown command:", cmd)
		}
	}
}

func (a *app) register(ctx context.Context) {
	username := a.prompt("username: ")
	name := a.prompt("full name: ")
	email := a.prompt("email: ")
	password := a.prompt("password: ")

	if _, err := a.auth.Register(ctx, username, name, email, password); err != nil {
		fmt.Println("registration failed:", err)
		return
	}
	fmt.Println("registered successfully, you can log in now")
}

func (a *app) login(ctx context.Context) {
	username := a.prompt("username: ")
	password := a.prompt("password: ")

	sess, err := a.auth.Authenticate(ctx, username, password)
	if err != nil {
		fmt.Println("login failed:", err)
		return
	}
	a.session = &sess
	fmt.Println("welcome,", sess.Username)
}

func (a *app) addExpense(ctx context.Context) {
	item := a.prompt("item: ")
	price := a.prompt("price: ")
	date, err := a.promptDate()
	if err != nil {
		fmt.Println("invalid date:", err)
		return
	}
	category := a.prompt("category (name or id): ")

	id, err := a.expenses.AddExpense(ctx, *a.session, item, price, date, category)
	if err != nil {
		fmt.Println("could not add expense:", err)
		return
	}
	fmt.Printf("expense #%d recorded\n", id)
}

func (a *app) promptDate() (core.Date, error) {
	text := a.prompt("date (YYYY-MM-DD, empty for today): ")
	if text == "" {
		now := time.Now()
		return core.NewDate(now.Year(), int(now.Month()), now.Day()), nil
	}
	var year, month, day int
	if _, err := fmt.Sscanf(text, "%d-%d-%d", &year, &month, &day); err != nil {
		return core.Date{}, fmt.Errorf("expected YYYY-MM-DD: %w", err)
	}
	return core.MakeDate(year, month, day)
}

func (a *app) listMonth(ctx context.Context, args []string) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	// Accept "list 2025 3" and "list March 2025"
	if len(args) == 2 {
		if m, err := core.ParseMonthName(args[0]); err == nil {
			month = int(m)
			if y, err := strconv.Atoi(args[1]); err == nil {
				year = y
			}
		} else {
			if y, err := strconv.Atoi(args[0]); err == nil {
				year = y
			}
			if m, err := strconv.Atoi(args[1]); err == nil {
				month = m
			}
		}
	}

	report, err := a.expenses.MonthReport(ctx, *a.session, year, month)
	if err != nil {
		fmt.Println("could not load month:", err)
		return
	}

	fmt.Printf("\n%s %d\n", time.Month(report.Month), report.Year)
	if len(report.Expenses) == 0 {
		fmt.Println("  no expenses")
		return
	}

	current := int64(0)
	for _, e := range report.Expenses {
		if e.CategoryID != current {
			current = e.CategoryID
			fmt.Printf("  %s\n", e.Category)
		}
		fmt.Printf("    #%-4d %-12s %-24s %s\n",
			e.ID, e.Date.Format("Jan 02"), e.Item, e.Price.Format(a.symbol))
	}

	fmt.Println("  ----")
	for _, ct := range report.ByCategory {
		fmt.Printf("  %-26s %s\n", ct.Category, ct.Total.Format(a.symbol))
	}
	fmt.Printf("  %-26s %s\n\n", "Total", report.Total.Format(a.symbol))
}

func (a *app) deleteExpense(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: del <expense id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("invalid expense id:", args[0])
		return
	}

	if a.prompt(fmt.Sprintf("delete expense #%d? (y/N): ", id)) != "y" {
		return
	}
	if err := a.expenses.DeleteExpense(ctx, *a.session, id); err != nil {
		fmt.Println("could not delete expense:", err)
		return
	}
	fmt.Println("deleted")
}

func (a *app) listCategories(ctx context.Context) {
	categories, err := a.expenses.Categories(ctx)
	if err != nil {
		fmt.Println("could not load categories:", err)
		return
	}
	for _, c := range categories {
		fmt.Printf("  %d. %s\n", c.ID, c.Name)
	}
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	if !a.in.Scan() {
		// stdin closed; treat as quit
		os.Exit(0)
	}
	return strings.TrimSpace(a.in.Text())
}
