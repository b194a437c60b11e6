package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kasaledger/kasa/internal/model"
)

const budgetColumns = `id, category_id, amount, currency, period_type, start_date, end_date,
	is_recurring, rollover_enabled, include_children, created_at, updated_at`

// CreateBudget inserts a new budget and fills in its generated ID. Uniqueness
// over (category, currency, period type) is the budget engine's check, made
// before this call.
func (s *queries) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO budgets (category_id, amount, currency, period_type, start_date, end_date,
			is_recurring, rollover_enabled, include_children, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		budget.CategoryID, budget.Amount, budget.Currency, string(budget.PeriodType),
		budget.StartDate, budget.EndDate, budget.IsRecurring, budget.RolloverEnabled,
		budget.IncludeChildren, now, now)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get budget ID: %w", err)
	}
	budget.ID = id
	budget.CreatedAt = now
	budget.UpdatedAt = now

	slog.Info("created budget", "id", id, "category_id", budget.CategoryID,
		"amount", budget.Amount, "period", budget.PeriodType)
	return nil
}

// GetBudget returns a budget by ID, or nil when it does not exist.
func (s *queries) GetBudget(ctx context.Context, id int64) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE id = ?`, id)

	budget, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query budget: %w", err)
	}
	return budget, nil
}

// GetBudgets returns all budgets.
func (s *queries) GetBudgets(ctx context.Context) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		budget, scanErr := scanBudget(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", scanErr)
		}
		budgets = append(budgets, *budget)
	}

	return budgets, rows.Err()
}

// UpdateBudget rewrites a budget's fields.
func (s *queries) UpdateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE budgets
		SET category_id = ?, amount = ?, currency = ?, period_type = ?, start_date = ?, end_date = ?,
			is_recurring = ?, rollover_enabled = ?, include_children = ?, updated_at = ?
		WHERE id = ?`,
		budget.CategoryID, budget.Amount, budget.Currency, string(budget.PeriodType),
		budget.StartDate, budget.EndDate, budget.IsRecurring, budget.RolloverEnabled,
		budget.IncludeChildren, time.Now(), budget.ID)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}

	return requireRowChanged(result, "budget", budget.ID)
}

// DeleteBudget removes a budget.
func (s *queries) DeleteBudget(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}

	return requireRowChanged(result, "budget", id)
}

// FindBudgetByKey returns a budget matching the (category, currency, period
// type) triple, excluding excludeID (pass 0 to exclude nothing). Nil when no
// match exists.
func (s *queries) FindBudgetByKey(ctx context.Context, categoryID int64, currency string, periodType model.PeriodType, excludeID int64) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE category_id = ? AND currency = ? AND period_type = ? AND id != ?
		LIMIT 1`,
		categoryID, currency, string(periodType), excludeID)

	budget, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query budget by key: %w", err)
	}
	return budget, nil
}

func scanBudget(row scannable) (*model.Budget, error) {
	var budget model.Budget
	var periodType string
	var endDate sql.NullString

	err := row.Scan(&budget.ID, &budget.CategoryID, &budget.Amount, &budget.Currency,
		&periodType, &budget.StartDate, &endDate, &budget.IsRecurring,
		&budget.RolloverEnabled, &budget.IncludeChildren, &budget.CreatedAt, &budget.UpdatedAt)
	if err != nil {
		return nil, err
	}

	budget.PeriodType = model.PeriodType(periodType)
	if endDate.Valid {
		budget.EndDate = &endDate.String
	}
	return &budget, nil
}
