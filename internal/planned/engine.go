// Package planned turns reusable operation templates into concrete ledger
// entries: at most once per calendar month for recurring templates, exactly
// once ever for one-time templates.
package planned

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kasaledger/kasa/internal/common"
	"github.com/kasaledger/kasa/internal/ledger"
	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/service"
)

// Engine executes planned-operation templates through the ledger.
type Engine struct {
	store  service.Store
	ledger *ledger.Engine
}

// NewEngine creates a planned-operation engine.
func NewEngine(store service.Store, ledgerEngine *ledger.Engine) *Engine {
	return &Engine{store: store, ledger: ledgerEngine}
}

// Result reports the outcome of an execution attempt. AlreadyExecuted means
// the template was already run this month and the ledger was not touched.
// Consumed means a one-time template was deleted after execution.
type Result struct {
	Operation       *model.Operation
	AlreadyExecuted bool
	Consumed        bool
}

// Execute runs a template for the month containing ref.
//
// The ledger entry is created before the template is marked executed, so a
// create failure never marks the template. The mark itself is a conditional
// update (no row changes when the month is already stamped); a mark failure
// after a successful create is returned as an error with Result.Operation
// set, so the caller can see the entry exists and retry the mark rather than
// re-execute.
func (e *Engine) Execute(ctx context.Context, templateID int64, ref time.Time) (*Result, error) {
	template, err := e.store.GetPlannedOperation(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("planned operation %d: %w", templateID, common.ErrNotFound)
	}

	currentMonth := ref.Format(model.MonthLayout)
	if template.LastExecutedMonth != nil && *template.LastExecutedMonth == currentMonth {
		slog.Debug("planned operation already executed this month",
			"id", templateID, "month", currentMonth)
		return &Result{AlreadyExecuted: true}, nil
	}

	op := &model.Operation{
		Type:        template.Type,
		Amount:      template.Amount,
		AccountID:   template.AccountID,
		CategoryID:  template.CategoryID,
		ToAccountID: template.ToAccountID,
		Date:        ref.Format(model.DateLayout),
		Description: template.Name,
	}
	if account, accErr := e.store.GetAccount(ctx, template.AccountID); accErr == nil && account != nil {
		op.SourceCurrency = account.Currency
	}

	created, err := e.ledger.Create(ctx, op)
	if err != nil {
		return nil, err
	}

	marked, err := e.store.MarkPlannedExecuted(ctx, templateID, currentMonth)
	if err != nil {
		return &Result{Operation: created.Operation},
			fmt.Errorf("operation %d created but template %d not marked executed: %w",
				created.Operation.ID, templateID, err)
	}
	if !marked {
		// A concurrent execution stamped the month between our eligibility
		// check and the mark. Our ledger entry already exists; surface it.
		return &Result{Operation: created.Operation},
			fmt.Errorf("operation %d created but template %d was concurrently marked for %s",
				created.Operation.ID, templateID, currentMonth)
	}

	result := &Result{Operation: created.Operation}

	if !template.IsRecurring {
		if delErr := e.store.DeletePlannedOperation(ctx, templateID); delErr != nil {
			return result, fmt.Errorf("operation %d created but one-time template %d not deleted: %w",
				created.Operation.ID, templateID, delErr)
		}
		result.Consumed = true
	}

	slog.Info("executed planned operation",
		"template_id", templateID, "operation_id", created.Operation.ID,
		"month", currentMonth, "recurring", template.IsRecurring)
	return result, nil
}

// Eligible reports whether a template may execute in the month containing ref.
// It is a pure date comparison, not stored state.
func Eligible(template *model.PlannedOperation, ref time.Time) bool {
	if template.LastExecutedMonth == nil {
		return true
	}
	return *template.LastExecutedMonth != ref.Format(model.MonthLayout)
}

// Create persists a new template.
func (e *Engine) Create(ctx context.Context, template *model.PlannedOperation) error {
	if template != nil && template.Type == model.OperationTransfer && template.ToAccountID == nil {
		return common.NewValidationError("valid_to_account_required")
	}
	if template != nil && (template.Type == model.OperationExpense || template.Type == model.OperationIncome) && template.CategoryID == nil {
		return common.NewValidationError("valid_category_required")
	}
	return e.store.CreatePlannedOperation(ctx, template)
}

// List returns all templates in display order.
func (e *Engine) List(ctx context.Context) ([]model.PlannedOperation, error) {
	return e.store.GetPlannedOperations(ctx)
}

// Delete removes a template.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	template, err := e.store.GetPlannedOperation(ctx, id)
	if err != nil {
		return err
	}
	if template == nil {
		return fmt.Errorf("planned operation %d: %w", id, common.ErrNotFound)
	}
	return e.store.DeletePlannedOperation(ctx, id)
}

// Reorder rewrites the display order to match the given ID sequence.
func (e *Engine) Reorder(ctx context.Context, ids []int64) error {
	return e.store.ReorderPlannedOperations(ctx, ids)
}
