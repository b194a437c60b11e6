// Package ledger owns the balance invariant: an account's balance always
// equals the sum of signed effects of all operations referencing it. Every
// operation mutation adjusts the touched balances inside one database
// transaction.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kasaledger/kasa/internal/common"
	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/money"
	"github.com/kasaledger/kasa/internal/service"
)

// Engine performs ledger mutations with atomic balance reconciliation.
type Engine struct {
	store    service.Store
	notifier service.Notifier
}

// NewEngine creates a ledger engine. A nil notifier discards events.
func NewEngine(store service.Store, notifier service.Notifier) *Engine {
	if notifier == nil {
		notifier = service.NopNotifier{}
	}
	return &Engine{store: store, notifier: notifier}
}

// effect is the signed balance delta an operation applies to one account.
type effect struct {
	delta     string
	accountID int64
}

// effects derives the signed effects of an operation:
//
//	expense   -amount on the source account
//	income    +amount on the source account
//	transfer  -amount on the source, +(destinationAmount ?? amount) on the destination
func effects(op *model.Operation) ([]effect, error) {
	switch op.Type {
	case model.OperationExpense:
		neg, err := money.Neg(op.Amount)
		if err != nil {
			return nil, err
		}
		return []effect{{accountID: op.AccountID, delta: neg}}, nil

	case model.OperationIncome:
		return []effect{{accountID: op.AccountID, delta: op.Amount}}, nil

	case model.OperationTransfer:
		if op.ToAccountID == nil {
			return nil, fmt.Errorf("transfer without destination: %w", common.ErrInvalidOperation)
		}
		neg, err := money.Neg(op.Amount)
		if err != nil {
			return nil, err
		}
		incoming := op.Amount
		if op.DestinationAmount != nil {
			incoming = *op.DestinationAmount
		}
		return []effect{
			{accountID: op.AccountID, delta: neg},
			{accountID: *op.ToAccountID, delta: incoming},
		}, nil

	default:
		return nil, fmt.Errorf("unknown operation type %q: %w", op.Type, common.ErrInvalidOperation)
	}
}

// negated returns the reversal of a set of effects.
func negated(effs []effect) ([]effect, error) {
	out := make([]effect, len(effs))
	for i, e := range effs {
		neg, err := money.Neg(e.delta)
		if err != nil {
			return nil, err
		}
		out[i] = effect{accountID: e.accountID, delta: neg}
	}
	return out, nil
}

// validate checks an operation's shape before any write. Failures are
// ValidationErrors carrying opaque message keys.
func validate(op *model.Operation) error {
	if op == nil {
		return common.NewValidationError("valid_operation_required")
	}
	if !money.IsPositive(op.Amount) {
		return common.NewValidationError("valid_amount_required")
	}
	if op.Date == "" {
		return common.NewValidationError("valid_date_required")
	}
	if op.AccountID == 0 {
		return common.NewValidationError("valid_account_required")
	}

	switch op.Type {
	case model.OperationExpense, model.OperationIncome:
		if op.CategoryID == nil {
			return common.NewValidationError("valid_category_required")
		}
	case model.OperationTransfer:
		if op.ToAccountID == nil {
			return common.NewValidationError("valid_to_account_required")
		}
		if *op.ToAccountID == op.AccountID {
			return common.NewValidationError("valid_transfer_same_account")
		}
		if op.DestinationAmount != nil && !money.IsPositive(*op.DestinationAmount) {
			return common.NewValidationError("valid_destination_amount_invalid")
		}
	default:
		return common.NewValidationError("valid_type_invalid")
	}

	return nil
}

// MutationResult reports a completed ledger mutation. SkippedAccounts lists
// accounts whose balance update was skipped because the account no longer
// exists: the operation is still persisted, which tolerates orphaned
// references from partial data. It is an explicit outcome, never silent.
type MutationResult struct {
	Operation       *model.Operation
	SkippedAccounts []int64
}

// applyEffects applies each effect within the given transaction handle,
// collecting the accounts that could not be found.
func applyEffects(ctx context.Context, tx service.Tx, effs []effect) ([]int64, error) {
	var skipped []int64
	for _, e := range effs {
		found, err := tx.AdjustAccountBalance(ctx, e.accountID, e.delta)
		if err != nil {
			return nil, err
		}
		if !found {
			slog.Warn("balance update skipped, account missing",
				"account_id", e.accountID, "delta", e.delta)
			skipped = append(skipped, e.accountID)
		}
	}
	return skipped, nil
}

// Create validates the operation, inserts it, and applies its signed effects
// to the referenced accounts, all in one transaction.
func (e *Engine) Create(ctx context.Context, op *model.Operation) (*MutationResult, error) {
	if err := validate(op); err != nil {
		return nil, err
	}

	effs, err := effects(op)
	if err != nil {
		return nil, err
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.CreateOperation(ctx, op); err != nil {
		return nil, err
	}

	skipped, err := applyEffects(ctx, tx, effs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit operation create: %w", err)
	}

	e.notifier.OperationChanged(ctx, service.OperationEvent{
		Kind:        service.EventCreated,
		OperationID: op.ID,
		AccountIDs:  touchedAccounts(effs),
	})

	return &MutationResult{Operation: op, SkippedAccounts: skipped}, nil
}

// Update loads the prior operation, reverses its effects, applies the changes,
// and applies the new effects, all in one transaction. When the account
// references changed, up to four balance touches occur.
func (e *Engine) Update(ctx context.Context, id int64, changes model.OperationUpdate) (*MutationResult, error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	prior, err := tx.GetOperation(ctx, id)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		return nil, fmt.Errorf("operation %d: %w", id, common.ErrNotFound)
	}

	oldEffects, err := effects(prior)
	if err != nil {
		return nil, err
	}

	merged := merge(prior, changes)
	if err := validate(merged); err != nil {
		return nil, err
	}

	newEffects, err := effects(merged)
	if err != nil {
		return nil, err
	}

	reversal, err := negated(oldEffects)
	if err != nil {
		return nil, err
	}

	skippedOld, err := applyEffects(ctx, tx, reversal)
	if err != nil {
		return nil, err
	}

	if err := tx.UpdateOperation(ctx, merged); err != nil {
		return nil, err
	}

	skippedNew, err := applyEffects(ctx, tx, newEffects)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit operation update: %w", err)
	}

	e.notifier.OperationChanged(ctx, service.OperationEvent{
		Kind:        service.EventUpdated,
		OperationID: merged.ID,
		AccountIDs:  touchedAccounts(append(oldEffects, newEffects...)),
	})

	return &MutationResult{
		Operation:       merged,
		SkippedAccounts: append(skippedOld, skippedNew...),
	}, nil
}

// Delete removes the operation and reverses its balance impact, all in one
// transaction.
func (e *Engine) Delete(ctx context.Context, id int64) (*MutationResult, error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	prior, err := tx.GetOperation(ctx, id)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		return nil, fmt.Errorf("operation %d: %w", id, common.ErrNotFound)
	}

	effs, err := effects(prior)
	if err != nil {
		return nil, err
	}
	reversal, err := negated(effs)
	if err != nil {
		return nil, err
	}

	if err := tx.DeleteOperation(ctx, id); err != nil {
		return nil, err
	}

	skipped, err := applyEffects(ctx, tx, reversal)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit operation delete: %w", err)
	}

	e.notifier.OperationChanged(ctx, service.OperationEvent{
		Kind:        service.EventDeleted,
		OperationID: id,
		AccountIDs:  touchedAccounts(effs),
	})

	return &MutationResult{Operation: prior, SkippedAccounts: skipped}, nil
}

// Get returns an operation by ID.
func (e *Engine) Get(ctx context.Context, id int64) (*model.Operation, error) {
	op, err := e.store.GetOperation(ctx, id)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("operation %d: %w", id, common.ErrNotFound)
	}
	return op, nil
}

// List returns operations matching the filter.
func (e *Engine) List(ctx context.Context, filter service.OperationFilter) ([]model.Operation, error) {
	return e.store.GetOperations(ctx, filter)
}

// AdjustBalance sets an account's balance to newBalance by recording the
// difference as an expense or income against the shadow adjustment category,
// so history explains every balance change.
func (e *Engine) AdjustBalance(ctx context.Context, accountID int64, newBalance string) (*MutationResult, error) {
	account, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, common.ErrNotFound)
	}

	delta, err := money.Sub(newBalance, account.Balance)
	if err != nil {
		return nil, err
	}
	cmp, err := money.Cmp(delta, money.Zero)
	if err != nil {
		return nil, err
	}
	if cmp == 0 {
		return &MutationResult{}, nil
	}

	shadow, err := e.shadowCategory(ctx)
	if err != nil {
		return nil, err
	}

	op := &model.Operation{
		AccountID:      accountID,
		CategoryID:     &shadow.ID,
		Date:           time.Now().Format(model.DateLayout),
		Description:    "Balance adjustment",
		SourceCurrency: account.Currency,
	}
	if cmp > 0 {
		op.Type = model.OperationIncome
		op.Amount = delta
	} else {
		op.Type = model.OperationExpense
		if op.Amount, err = money.Neg(delta); err != nil {
			return nil, err
		}
	}

	return e.Create(ctx, op)
}

func (e *Engine) shadowCategory(ctx context.Context) (*model.Category, error) {
	categories, err := e.store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].IsShadow {
			return &categories[i], nil
		}
	}
	return nil, fmt.Errorf("shadow adjustment category: %w", common.ErrNotFound)
}

// merge builds the post-update operation from the prior record and the
// requested changes.
func merge(prior *model.Operation, changes model.OperationUpdate) *model.Operation {
	merged := *prior

	if changes.Type != nil {
		merged.Type = *changes.Type
	}
	if changes.Amount != nil {
		merged.Amount = *changes.Amount
	}
	if changes.Date != nil {
		merged.Date = *changes.Date
	}
	if changes.Description != nil {
		merged.Description = *changes.Description
	}
	if changes.AccountID != nil {
		merged.AccountID = *changes.AccountID
	}
	if changes.CategoryID != nil {
		merged.CategoryID = changes.CategoryID
	} else if changes.ClearCategory {
		merged.CategoryID = nil
	}
	if changes.ToAccountID != nil {
		merged.ToAccountID = changes.ToAccountID
	} else if changes.ClearToAccount {
		merged.ToAccountID = nil
	}
	if changes.DestinationAmount != nil {
		merged.DestinationAmount = changes.DestinationAmount
	} else if changes.ClearDestinationAmount {
		merged.DestinationAmount = nil
	}
	if changes.ExchangeRate != nil {
		merged.ExchangeRate = changes.ExchangeRate
	} else if changes.ClearExchangeRate {
		merged.ExchangeRate = nil
	}

	return &merged
}

func touchedAccounts(effs []effect) []int64 {
	seen := make(map[int64]bool, len(effs))
	var ids []int64
	for _, e := range effs {
		if !seen[e.accountID] {
			seen[e.accountID] = true
			ids = append(ids, e.accountID)
		}
	}
	return ids
}
