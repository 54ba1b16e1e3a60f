package core

import (
	"strings"
	"time"
)

// DaysInMonth returns the number of days in the given month, honouring
// leap years for February.
func DaysInMonth(year, month int) int {
	switch month {
	case 2:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// ParseMonthName maps an English month name ("March") to its number.
// Matching is case-insensitive. Returns ErrInvalidMonth for anything else.
func ParseMonthName(name string) (time.Month, error) {
	name = strings.TrimSpace(name)
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return 0, ErrInvalidMonth
}
