package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar date with day precision. The time of day is
	// always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// User is a registered account. Username is the immutable identifier.
	User struct {
		Username     string
		Name         string
		Email        string
		PasswordHash string
	}

	// Session identifies an authenticated user. It is returned by
	// authentication and passed explicitly into every owner-scoped
	// operation; there is no process-wide current user.
	Session struct {
		Username string
	}

	Category struct {
		ID   int64
		Name string
	}

	Expense struct {
		ID         int64
		Username   string
		Item       string
		Price      Money
		Date       Date
		CategoryID int64
		Category   string // category name, populated on read paths
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyItem       = errors.New("empty item")
	ErrEmptyUsername   = errors.New("empty username")
	ErrEmptyPassword   = errors.New("empty password")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
)

// NewDate creates a new Date from year, month, day. Out-of-range values
// are normalized the way time.Date does; use MakeDate to reject them
// instead.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// MakeDate builds a Date from user input, rejecting months outside 1-12
// and days outside the month's length for that year.
func MakeDate(year, month, day int) (Date, error) {
	if month < 1 || month > 12 {
		return Date{}, ErrInvalidMonth
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, ErrInvalidDay
	}
	return NewDate(year, month, day), nil
}

// ParseDate parses a date in the stored YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String returns the date in the stored YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	month := d.Month()
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	if day := d.Day(); day < 1 || day > DaysInMonth(d.Year(), month) {
		return ErrInvalidDay
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Username) == "" {
		return ErrEmptyUsername
	}
	if len(strings.TrimSpace(e.Item)) == 0 {
		return ErrEmptyItem
	}
	if err := e.Price.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}
