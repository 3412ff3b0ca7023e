package core

// CategoryAmount is one slice of the monthly breakdown.
type CategoryAmount struct {
	CategoryID string
	Name       string
	Amount     Money
}

// MonthOverview aggregates one billing month of a household's ledger.
type MonthOverview struct {
	Year       int
	Month      int
	Income     Money
	Expense    Money
	ByCategory []CategoryAmount
}

// Balance returns income minus expense in cents. It can be negative, which
// is why it is not a Money.
func (o MonthOverview) Balance() int64 {
	return o.Income.Cents - o.Expense.Cents
}
