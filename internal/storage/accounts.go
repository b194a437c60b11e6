package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kasaledger/kasa/internal/common"
	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/money"
)

// CreateAccount inserts a new account and fills in its generated ID.
func (s *queries) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO accounts (name, balance, currency, display_order, hidden, monthly_target, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.Name, account.Balance, account.Currency,
		account.DisplayOrder, account.Hidden, account.MonthlyTarget, now, now)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get account ID: %w", err)
	}

	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now

	slog.Info("created account", "id", id, "name", account.Name, "currency", account.Currency)
	return nil
}

// GetAccount returns an account by ID, or nil when it does not exist.
func (s *queries) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, balance, currency, display_order, hidden, monthly_target, created_at, updated_at
		FROM accounts
		WHERE id = ?`, id)

	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

// GetAccounts returns all accounts ordered by display order, then name.
func (s *queries) GetAccounts(ctx context.Context, includeHidden bool) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, balance, currency, display_order, hidden, monthly_target, created_at, updated_at
		FROM accounts`
	if !includeHidden {
		query += `
		WHERE hidden = 0`
	}
	query += `
		ORDER BY display_order IS NULL, display_order, name`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		account, scanErr := scanAccount(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan account: %w", scanErr)
		}
		accounts = append(accounts, *account)
	}

	return accounts, rows.Err()
}

// UpdateAccount rewrites an account's mutable fields. The balance column is
// included so the ledger engine's reconciliation path can correct drift, but
// normal balance movement goes through AdjustAccountBalance.
func (s *queries) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, balance = ?, currency = ?, display_order = ?, hidden = ?, monthly_target = ?, updated_at = ?
		WHERE id = ?`,
		account.Name, account.Balance, account.Currency,
		account.DisplayOrder, account.Hidden, account.MonthlyTarget, time.Now(), account.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	return requireRowChanged(result, "account", account.ID)
}

// DeleteAccount removes an account. Operations referencing it cascade away at
// the storage layer.
func (s *queries) DeleteAccount(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return requireRowChanged(result, "account", id)
}

// AdjustAccountBalance applies a signed decimal-string delta to the stored
// balance. Returns false when the account does not exist; the caller decides
// whether that is fatal.
func (s *queries) AdjustAccountBalance(ctx context.Context, id int64, delta string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateAmount(delta, "delta"); err != nil {
		return false, err
	}

	var balance string
	err := s.q.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, id).Scan(&balance)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read balance for account %d: %w", id, err)
	}

	updated, err := money.Add(balance, delta)
	if err != nil {
		return false, fmt.Errorf("failed to adjust balance for account %d: %w", id, err)
	}

	if _, err := s.q.ExecContext(ctx, `
		UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		updated, time.Now(), id); err != nil {
		return false, fmt.Errorf("failed to write balance for account %d: %w", id, err)
	}

	slog.Debug("adjusted account balance", "account_id", id, "delta", delta, "balance", updated)
	return true, nil
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanAccount(row scannable) (*model.Account, error) {
	var account model.Account
	var displayOrder sql.NullInt64
	var monthlyTarget sql.NullString

	err := row.Scan(&account.ID, &account.Name, &account.Balance, &account.Currency,
		&displayOrder, &account.Hidden, &monthlyTarget, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if displayOrder.Valid {
		account.DisplayOrder = &displayOrder.Int64
	}
	if monthlyTarget.Valid {
		account.MonthlyTarget = &monthlyTarget.String
	}
	return &account, nil
}

// requireRowChanged converts a zero-row result into a not-found error.
func requireRowChanged(result sql.Result, entity string, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, common.ErrNotFound)
	}
	return nil
}
