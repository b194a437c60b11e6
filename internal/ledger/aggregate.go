package ledger

import (
	"context"

	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/money"
	"github.com/kasaledger/kasa/internal/service"
)

// AccountTotals holds a date-range summary for one account.
type AccountTotals struct {
	Expense string
	Income  string
}

// TotalsForAccount sums expense and income amounts for an account between two
// inclusive ISO dates. Operations remain the single source of truth: sums are
// recomputed from rows, never read from a cached rollup.
func (e *Engine) TotalsForAccount(ctx context.Context, accountID int64, fromDate, toDate string) (*AccountTotals, error) {
	expenseAmounts, err := e.store.GetAmounts(ctx, service.AmountQuery{
		Type:      model.OperationExpense,
		AccountID: &accountID,
		FromDate:  fromDate,
		ToDate:    toDate,
	})
	if err != nil {
		return nil, err
	}
	expense, err := money.Sum(expenseAmounts...)
	if err != nil {
		return nil, err
	}

	incomeAmounts, err := e.store.GetAmounts(ctx, service.AmountQuery{
		Type:      model.OperationIncome,
		AccountID: &accountID,
		FromDate:  fromDate,
		ToDate:    toDate,
	})
	if err != nil {
		return nil, err
	}
	income, err := money.Sum(incomeAmounts...)
	if err != nil {
		return nil, err
	}

	return &AccountTotals{Expense: expense, Income: income}, nil
}

// CategoryTotal is a per-category sum. A nil CategoryID collects operations
// whose category was removed.
type CategoryTotal struct {
	CategoryID *int64
	Total      string
}

// SpendByCategory sums expense amounts grouped by category for a date range,
// optionally filtered to operations whose account currency matches.
func (e *Engine) SpendByCategory(ctx context.Context, fromDate, toDate, currency string) ([]CategoryTotal, error) {
	return e.totalsByCategory(ctx, model.OperationExpense, fromDate, toDate, currency)
}

// IncomeByCategory sums income amounts grouped by category for a date range.
func (e *Engine) IncomeByCategory(ctx context.Context, fromDate, toDate, currency string) ([]CategoryTotal, error) {
	return e.totalsByCategory(ctx, model.OperationIncome, fromDate, toDate, currency)
}

func (e *Engine) totalsByCategory(ctx context.Context, opType model.OperationType, fromDate, toDate, currency string) ([]CategoryTotal, error) {
	rows, err := e.store.GetAmountsByCategory(ctx, service.AmountQuery{
		Type:     opType,
		Currency: currency,
		FromDate: fromDate,
		ToDate:   toDate,
	})
	if err != nil {
		return nil, err
	}

	// Group in insertion order, summing with exact decimals.
	totals := make(map[int64]string)
	var order []int64
	const uncategorized = int64(-1)

	for _, row := range rows {
		key := uncategorized
		if row.CategoryID != nil {
			key = *row.CategoryID
		}
		current, ok := totals[key]
		if !ok {
			current = money.Zero
			order = append(order, key)
		}
		sum, sumErr := money.Add(current, row.Amount)
		if sumErr != nil {
			return nil, sumErr
		}
		totals[key] = sum
	}

	results := make([]CategoryTotal, 0, len(order))
	for _, key := range order {
		total := CategoryTotal{Total: totals[key]}
		if key != uncategorized {
			id := key
			total.CategoryID = &id
		}
		results = append(results, total)
	}

	return results, nil
}

// SumForCategories sums expense amounts for a set of categories, an account
// currency, and an inclusive date range. This is the budget engine's spend
// query.
func (e *Engine) SumForCategories(ctx context.Context, categoryIDs []int64, currency, fromDate, toDate string) (string, error) {
	if len(categoryIDs) == 0 {
		return money.Zero, nil
	}

	amounts, err := e.store.GetAmounts(ctx, service.AmountQuery{
		Type:        model.OperationExpense,
		Currency:    currency,
		CategoryIDs: categoryIDs,
		FromDate:    fromDate,
		ToDate:      toDate,
	})
	if err != nil {
		return "", err
	}

	return money.Sum(amounts...)
}
