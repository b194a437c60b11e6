package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/service"
)

const operationColumns = `id, type, amount, account_id, category_id, to_account_id, date,
	description, exchange_rate, destination_amount, source_currency, destination_currency, created_at`

// CreateOperation inserts a ledger entry and fills in its generated ID. It
// records the row only; balance movement is the ledger engine's job.
func (s *queries) CreateOperation(ctx context.Context, op *model.Operation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOperation(op); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO operations (type, amount, account_id, category_id, to_account_id, date,
			description, exchange_rate, destination_amount, source_currency, destination_currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(op.Type), op.Amount, op.AccountID, op.CategoryID, op.ToAccountID, op.Date,
		op.Description, op.ExchangeRate, op.DestinationAmount,
		op.SourceCurrency, op.DestinationCurrency, now)
	if err != nil {
		return fmt.Errorf("failed to insert operation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get operation ID: %w", err)
	}
	op.ID = id
	op.CreatedAt = now

	slog.Debug("inserted operation", "id", id, "type", op.Type, "amount", op.Amount)
	return nil
}

// GetOperation returns an operation by ID, or nil when it does not exist.
func (s *queries) GetOperation(ctx context.Context, id int64) (*model.Operation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `
		SELECT `+operationColumns+`
		FROM operations
		WHERE id = ?`, id)

	op, err := scanOperation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query operation: %w", err)
	}
	return op, nil
}

// GetOperations returns operations matching the filter, newest first.
func (s *queries) GetOperations(ctx context.Context, filter service.OperationFilter) ([]model.Operation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE 1=1`
	args := []any{}

	if filter.AccountID != nil {
		query += ` AND (account_id = ? OR to_account_id = ?)`
		args = append(args, *filter.AccountID, *filter.AccountID)
	}
	if filter.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	if filter.Type != nil {
		query += ` AND type = ?`
		args = append(args, string(*filter.Type))
	}
	if filter.FromDate != "" {
		query += ` AND date >= ?`
		args = append(args, filter.FromDate)
	}
	if filter.ToDate != "" {
		query += ` AND date <= ?`
		args = append(args, filter.ToDate)
	}

	query += `
		ORDER BY date DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ops []model.Operation
	for rows.Next() {
		op, scanErr := scanOperation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", scanErr)
		}
		ops = append(ops, *op)
	}

	return ops, rows.Err()
}

// UpdateOperation rewrites an operation record in place.
func (s *queries) UpdateOperation(ctx context.Context, op *model.Operation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOperation(op); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE operations
		SET type = ?, amount = ?, account_id = ?, category_id = ?, to_account_id = ?, date = ?,
			description = ?, exchange_rate = ?, destination_amount = ?, source_currency = ?, destination_currency = ?
		WHERE id = ?`,
		string(op.Type), op.Amount, op.AccountID, op.CategoryID, op.ToAccountID, op.Date,
		op.Description, op.ExchangeRate, op.DestinationAmount,
		op.SourceCurrency, op.DestinationCurrency, op.ID)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}

	return requireRowChanged(result, "operation", op.ID)
}

// DeleteOperation removes an operation record.
func (s *queries) DeleteOperation(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}

	return requireRowChanged(result, "operation", id)
}

// GetAmounts returns the raw amount strings matched by the query. Summation
// happens in the engines with exact decimals; SUM() over a float cast would
// reintroduce the drift the decimal-string representation exists to avoid.
func (s *queries) GetAmounts(ctx context.Context, q service.AmountQuery) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query, args := buildAmountQuery("o.amount", q)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var amounts []string
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return nil, fmt.Errorf("failed to scan amount: %w", err)
		}
		amounts = append(amounts, amount)
	}

	return amounts, rows.Err()
}

// GetAmountsByCategory returns (category, amount) pairs matched by the query
// for grouped reporting.
func (s *queries) GetAmountsByCategory(ctx context.Context, q service.AmountQuery) ([]service.CategoryAmount, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query, args := buildAmountQuery("o.category_id, o.amount", q)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query amounts by category: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []service.CategoryAmount
	for rows.Next() {
		var categoryID sql.NullInt64
		var amount string
		if err := rows.Scan(&categoryID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan category amount: %w", err)
		}
		ca := service.CategoryAmount{Amount: amount}
		if categoryID.Valid {
			ca.CategoryID = &categoryID.Int64
		}
		results = append(results, ca)
	}

	return results, rows.Err()
}

// buildAmountQuery assembles the shared WHERE clause for aggregation queries.
// The account join supplies the currency filter; date bounds are inclusive and
// compare lexicographically over ISO dates.
func buildAmountQuery(selectCols string, q service.AmountQuery) (string, []any) {
	query := `
		SELECT ` + selectCols + `
		FROM operations o
		JOIN accounts a ON a.id = o.account_id
		WHERE o.type = ?`
	args := []any{string(q.Type)}

	if q.Currency != "" {
		query += ` AND a.currency = ?`
		args = append(args, q.Currency)
	}
	if q.AccountID != nil {
		query += ` AND o.account_id = ?`
		args = append(args, *q.AccountID)
	}
	if len(q.CategoryIDs) > 0 {
		query += ` AND o.category_id IN (?` + repeatPlaceholder(len(q.CategoryIDs)-1) + `)`
		for _, id := range q.CategoryIDs {
			args = append(args, id)
		}
	}
	if q.FromDate != "" {
		query += ` AND o.date >= ?`
		args = append(args, q.FromDate)
	}
	if q.ToDate != "" {
		query += ` AND o.date <= ?`
		args = append(args, q.ToDate)
	}

	return query, args
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}

func scanOperation(row scannable) (*model.Operation, error) {
	var op model.Operation
	var opType string
	var categoryID, toAccountID sql.NullInt64
	var exchangeRate, destinationAmount sql.NullString

	err := row.Scan(&op.ID, &opType, &op.Amount, &op.AccountID, &categoryID, &toAccountID,
		&op.Date, &op.Description, &exchangeRate, &destinationAmount,
		&op.SourceCurrency, &op.DestinationCurrency, &op.CreatedAt)
	if err != nil {
		return nil, err
	}

	op.Type = model.OperationType(opType)
	if categoryID.Valid {
		op.CategoryID = &categoryID.Int64
	}
	if toAccountID.Valid {
		op.ToAccountID = &toAccountID.Int64
	}
	if exchangeRate.Valid {
		op.ExchangeRate = &exchangeRate.String
	}
	if destinationAmount.Valid {
		op.DestinationAmount = &destinationAmount.String
	}
	return &op, nil
}
