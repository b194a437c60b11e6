package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kasaledger/kasa/internal/model"
)

const plannedColumns = `id, name, type, amount, account_id, category_id, to_account_id,
	is_recurring, last_executed_month, display_order`

// CreatePlannedOperation inserts a template and fills in its generated ID.
// New templates go to the end of the display order.
func (s *queries) CreatePlannedOperation(ctx context.Context, planned *model.PlannedOperation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePlanned(planned); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		INSERT INTO planned_operations (name, type, amount, account_id, category_id, to_account_id,
			is_recurring, last_executed_month, display_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?,
			COALESCE((SELECT MAX(display_order) + 1 FROM planned_operations), 0))`,
		planned.Name, string(planned.Type), planned.Amount, planned.AccountID,
		planned.CategoryID, planned.ToAccountID, planned.IsRecurring, planned.LastExecutedMonth)
	if err != nil {
		return fmt.Errorf("failed to create planned operation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get planned operation ID: %w", err)
	}
	planned.ID = id

	slog.Info("created planned operation", "id", id, "name", planned.Name,
		"recurring", planned.IsRecurring)
	return nil
}

// GetPlannedOperation returns a template by ID, or nil when it does not exist.
func (s *queries) GetPlannedOperation(ctx context.Context, id int64) (*model.PlannedOperation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `
		SELECT `+plannedColumns+`
		FROM planned_operations
		WHERE id = ?`, id)

	planned, err := scanPlanned(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query planned operation: %w", err)
	}
	return planned, nil
}

// GetPlannedOperations returns all templates in display order.
func (s *queries) GetPlannedOperations(ctx context.Context) ([]model.PlannedOperation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT `+plannedColumns+`
		FROM planned_operations
		ORDER BY display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query planned operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var planned []model.PlannedOperation
	for rows.Next() {
		p, scanErr := scanPlanned(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan planned operation: %w", scanErr)
		}
		planned = append(planned, *p)
	}

	return planned, rows.Err()
}

// UpdatePlannedOperation rewrites a template's fields.
func (s *queries) UpdatePlannedOperation(ctx context.Context, planned *model.PlannedOperation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePlanned(planned); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE planned_operations
		SET name = ?, type = ?, amount = ?, account_id = ?, category_id = ?, to_account_id = ?,
			is_recurring = ?, last_executed_month = ?, display_order = ?
		WHERE id = ?`,
		planned.Name, string(planned.Type), planned.Amount, planned.AccountID,
		planned.CategoryID, planned.ToAccountID, planned.IsRecurring,
		planned.LastExecutedMonth, planned.DisplayOrder, planned.ID)
	if err != nil {
		return fmt.Errorf("failed to update planned operation: %w", err)
	}

	return requireRowChanged(result, "planned operation", planned.ID)
}

// DeletePlannedOperation removes a template.
func (s *queries) DeletePlannedOperation(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM planned_operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete planned operation: %w", err)
	}

	return requireRowChanged(result, "planned operation", id)
}

// MarkPlannedExecuted conditionally stamps the template with the given month.
// The WHERE clause is the monotonic guard against double execution: a
// concurrent caller that lost the race changes zero rows and gets false.
func (s *queries) MarkPlannedExecuted(ctx context.Context, id int64, month string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(month, "month"); err != nil {
		return false, err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE planned_operations
		SET last_executed_month = ?
		WHERE id = ? AND (last_executed_month IS NULL OR last_executed_month != ?)`,
		month, id, month)
	if err != nil {
		return false, fmt.Errorf("failed to mark planned operation executed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected > 0, nil
}

// ReorderPlannedOperations rewrites display_order to match the given ID order.
func (s *queries) ReorderPlannedOperations(ctx context.Context, ids []int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	for i, id := range ids {
		if _, err := s.q.ExecContext(ctx, `
			UPDATE planned_operations SET display_order = ? WHERE id = ?`, int64(i), id); err != nil {
			return fmt.Errorf("failed to reorder planned operation %d: %w", id, err)
		}
	}
	return nil
}

func scanPlanned(row scannable) (*model.PlannedOperation, error) {
	var planned model.PlannedOperation
	var opType string
	var categoryID, toAccountID sql.NullInt64
	var lastExecuted sql.NullString

	err := row.Scan(&planned.ID, &planned.Name, &opType, &planned.Amount, &planned.AccountID,
		&categoryID, &toAccountID, &planned.IsRecurring, &lastExecuted, &planned.DisplayOrder)
	if err != nil {
		return nil, err
	}

	planned.Type = model.OperationType(opType)
	if categoryID.Valid {
		planned.CategoryID = &categoryID.Int64
	}
	if toAccountID.Valid {
		planned.ToAccountID = &toAccountID.Int64
	}
	if lastExecuted.Valid {
		planned.LastExecutedMonth = &lastExecuted.String
	}
	return &planned, nil
}
