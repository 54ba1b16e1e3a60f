package core

// CategoryTotal is an amount aggregated under one category.
type CategoryTotal struct {
	CategoryID int64
	Category   string
	Total      Money
}

// MonthReport bundles everything a month view renders: the expenses of one
// calendar month in display order, the month total and per-category
// subtotals in category-id order.
type MonthReport struct {
	Year       int
	Month      int // 1-12
	Expenses   []Expense
	Total      Money
	ByCategory []CategoryTotal
}
