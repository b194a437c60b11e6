package model

import "time"

// PeriodType is the recurrence window of a budget.
type PeriodType string

const (
	// PeriodWeekly covers Sunday through Saturday.
	PeriodWeekly PeriodType = "weekly"
	// PeriodMonthly covers a calendar month.
	PeriodMonthly PeriodType = "monthly"
	// PeriodYearly covers a calendar year.
	PeriodYearly PeriodType = "yearly"
)

// BudgetStatusLevel classifies how close spending is to the budgeted amount.
type BudgetStatusLevel string

const (
	// StatusSafe means spending is below 70% of the budget.
	StatusSafe BudgetStatusLevel = "safe"
	// StatusWarning means spending reached 70% of the budget.
	StatusWarning BudgetStatusLevel = "warning"
	// StatusDanger means spending reached 90% of the budget.
	StatusDanger BudgetStatusLevel = "danger"
	// StatusExceeded means spending is strictly over the budget.
	StatusExceeded BudgetStatusLevel = "exceeded"
)

// Budget caps spending for a category and currency over a repeating period.
// At most one budget may exist per (CategoryID, Currency, PeriodType) among
// active budgets; the engine checks this at create and update time.
type Budget struct {
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Amount          string
	Currency        string
	PeriodType      PeriodType
	StartDate       string
	EndDate         *string
	CategoryID      int64
	ID              int64
	IsRecurring     bool
	RolloverEnabled bool
	IncludeChildren bool
}

// BudgetStatus is a derived, non-persisted view of a budget against the
// operations in its current period window.
type BudgetStatus struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Spent       string
	Remaining   string
	Status      BudgetStatusLevel
	Percentage  float64
	BudgetID    int64
	IsExceeded  bool
}
