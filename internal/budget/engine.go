package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kasaledger/kasa/internal/category"
	"github.com/kasaledger/kasa/internal/common"
	"github.com/kasaledger/kasa/internal/ledger"
	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/money"
	"github.com/kasaledger/kasa/internal/service"
)

// Engine derives budget statuses from operations on demand. It never caches a
// rollup; every status is recomputed from the ledger (pull model).
type Engine struct {
	store  service.Store
	tree   *category.Tree
	ledger *ledger.Engine
}

// NewEngine creates a budget engine over the given collaborators.
func NewEngine(store service.Store, tree *category.Tree, ledgerEngine *ledger.Engine) *Engine {
	return &Engine{store: store, tree: tree, ledger: ledgerEngine}
}

// Validate checks a budget's fields and returns an opaque message key, or ""
// when the budget is valid. It never returns an error.
func Validate(budget *model.Budget) string {
	if budget == nil {
		return "valid_budget_required"
	}
	if budget.CategoryID == 0 {
		return "valid_category_required"
	}
	if !money.IsPositive(budget.Amount) {
		return "valid_amount_required"
	}
	if budget.Currency == "" {
		return "valid_currency_required"
	}
	switch budget.PeriodType {
	case model.PeriodWeekly, model.PeriodMonthly, model.PeriodYearly:
	default:
		return "valid_period_type_invalid"
	}
	if budget.StartDate == "" {
		return "valid_start_date_required"
	}
	if budget.EndDate != nil && *budget.EndDate <= budget.StartDate {
		return "valid_end_before_start"
	}
	return ""
}

// FindDuplicate checks the one-budget-per-(category, currency, period type)
// invariant, ignoring excludeID so an update does not collide with itself.
// A match is ErrDuplicateBudget; the caller never auto-resolves it.
func (e *Engine) FindDuplicate(ctx context.Context, categoryID int64, currency string, periodType model.PeriodType, excludeID int64) error {
	existing, err := e.store.FindBudgetByKey(ctx, categoryID, currency, periodType, excludeID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("budget %d already covers category %d in %s %s: %w",
			existing.ID, categoryID, currency, periodType, common.ErrDuplicateBudget)
	}
	return nil
}

// Create validates the budget, enforces uniqueness, and persists it.
func (e *Engine) Create(ctx context.Context, budget *model.Budget) error {
	if key := Validate(budget); key != "" {
		return common.NewValidationError(key)
	}
	if err := e.FindDuplicate(ctx, budget.CategoryID, budget.Currency, budget.PeriodType, 0); err != nil {
		return err
	}
	return e.store.CreateBudget(ctx, budget)
}

// Update validates the budget, re-checks uniqueness against everyone else,
// and persists the changes.
func (e *Engine) Update(ctx context.Context, budget *model.Budget) error {
	if key := Validate(budget); key != "" {
		return common.NewValidationError(key)
	}

	existing, err := e.store.GetBudget(ctx, budget.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("budget %d: %w", budget.ID, common.ErrNotFound)
	}

	if err := e.FindDuplicate(ctx, budget.CategoryID, budget.Currency, budget.PeriodType, budget.ID); err != nil {
		return err
	}
	return e.store.UpdateBudget(ctx, budget)
}

// Delete removes a budget.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	budget, err := e.store.GetBudget(ctx, id)
	if err != nil {
		return err
	}
	if budget == nil {
		return fmt.Errorf("budget %d: %w", id, common.ErrNotFound)
	}
	return e.store.DeleteBudget(ctx, id)
}

// List returns all budgets.
func (e *Engine) List(ctx context.Context) ([]model.Budget, error) {
	return e.store.GetBudgets(ctx)
}

// Spending sums expense operations for the category (expanded to its
// descendants when includeChildren is set), matched to the account currency,
// within the inclusive window.
func (e *Engine) Spending(ctx context.Context, categoryID int64, currency string, start, end time.Time, includeChildren bool) (string, error) {
	ids := []int64{categoryID}

	if includeChildren {
		descendants, err := e.tree.Descendants(ctx, categoryID)
		if err != nil {
			return "", err
		}
		for _, d := range descendants {
			ids = append(ids, d.ID)
		}
	}

	return e.ledger.SumForCategories(ctx, ids, currency,
		start.Format(model.DateLayout), end.Format(model.DateLayout))
}

// Status computes a budget's derived status for the period containing ref.
func (e *Engine) Status(ctx context.Context, budgetID int64, ref time.Time) (*model.BudgetStatus, error) {
	budget, err := e.store.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, fmt.Errorf("budget %d: %w", budgetID, common.ErrNotFound)
	}
	return e.statusFor(ctx, budget, ref)
}

func (e *Engine) statusFor(ctx context.Context, budget *model.Budget, ref time.Time) (*model.BudgetStatus, error) {
	start, end, err := CurrentPeriod(budget.PeriodType, ref)
	if err != nil {
		return nil, err
	}

	spent, err := e.Spending(ctx, budget.CategoryID, budget.Currency, start, end, budget.IncludeChildren)
	if err != nil {
		return nil, err
	}

	remaining, err := money.Sub(budget.Amount, spent)
	if err != nil {
		return nil, err
	}
	percentage, err := money.Percentage(spent, budget.Amount)
	if err != nil {
		return nil, err
	}
	overBy, err := money.Cmp(spent, budget.Amount)
	if err != nil {
		return nil, err
	}
	isExceeded := overBy > 0

	status := model.StatusSafe
	switch {
	case isExceeded:
		status = model.StatusExceeded
	case percentage >= 90:
		status = model.StatusDanger
	case percentage >= 70:
		status = model.StatusWarning
	}

	return &model.BudgetStatus{
		BudgetID:    budget.ID,
		Spent:       spent,
		Remaining:   remaining,
		Percentage:  percentage,
		IsExceeded:  isExceeded,
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      status,
	}, nil
}

// AllStatuses computes the status of every budget active at ref. A budget is
// active when its [startDate, endDate] window contains ref's calendar date
// (nil endDate is open-ended). Per-budget failures are collected, not fatal:
// one corrupt budget must not blank out the whole report.
func (e *Engine) AllStatuses(ctx context.Context, ref time.Time) (map[int64]*model.BudgetStatus, map[int64]error) {
	statuses := make(map[int64]*model.BudgetStatus)
	failures := make(map[int64]error)

	budgets, err := e.store.GetBudgets(ctx)
	if err != nil {
		failures[0] = err
		return statuses, failures
	}

	refDate := ref.Format(model.DateLayout)
	for i := range budgets {
		budget := &budgets[i]
		if budget.StartDate > refDate {
			continue
		}
		if budget.EndDate != nil && *budget.EndDate < refDate {
			continue
		}

		status, statusErr := e.statusFor(ctx, budget, ref)
		if statusErr != nil {
			slog.Warn("budget status computation failed",
				"budget_id", budget.ID, "error", statusErr)
			failures[budget.ID] = statusErr
			continue
		}
		statuses[budget.ID] = status
	}

	return statuses, failures
}
