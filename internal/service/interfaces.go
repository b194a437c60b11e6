// Package service defines the boundary interfaces between the engines and
// their collaborators: the persistence layer and the mutation observer.
package service

import (
	"context"

	"github.com/kasaledger/kasa/internal/model"
)

// OperationFilter defines filtering options for operation queries.
type OperationFilter struct {
	AccountID  *int64
	CategoryID *int64
	Type       *model.OperationType
	FromDate   string
	ToDate     string
	Limit      int
}

// AmountQuery selects operation amounts for aggregation. Dates are inclusive
// ISO bounds; empty strings mean unbounded. Currency, when set, is matched
// against the currency of the operation's account. CategoryIDs, when
// non-empty, restricts to operations tagged with one of the given categories.
type AmountQuery struct {
	Type        model.OperationType
	Currency    string
	FromDate    string
	ToDate      string
	CategoryIDs []int64
	AccountID   *int64
}

// CategoryAmount is one operation's amount with its category, returned by
// grouped aggregation queries. Amounts stay decimal strings; summing is the
// engine's job so no float ever enters the pipeline.
type CategoryAmount struct {
	CategoryID *int64
	Amount     string
}

// EntityStore is the persistence contract shared by the root store and
// transaction-scoped handles.
type EntityStore interface {
	// Account operations
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
	GetAccounts(ctx context.Context, includeHidden bool) ([]model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	DeleteAccount(ctx context.Context, id int64) error
	// AdjustAccountBalance applies a signed decimal-string delta to the stored
	// balance. It returns false when the account does not exist.
	AdjustAccountBalance(ctx context.Context, id int64, delta string) (bool, error)

	// Category operations
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoriesByParent(ctx context.Context, parentID *int64, includeShadow bool) ([]model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	UpdateCategoryParent(ctx context.Context, id int64, parentID *int64) error
	DeleteCategory(ctx context.Context, id int64) error
	CountCategoryChildren(ctx context.Context, id int64) (int, error)
	CountOperationsByCategory(ctx context.Context, id int64) (int, error)

	// Operation records
	CreateOperation(ctx context.Context, op *model.Operation) error
	GetOperation(ctx context.Context, id int64) (*model.Operation, error)
	GetOperations(ctx context.Context, filter OperationFilter) ([]model.Operation, error)
	UpdateOperation(ctx context.Context, op *model.Operation) error
	DeleteOperation(ctx context.Context, id int64) error

	// Aggregation: raw amount strings for engine-side decimal summation.
	GetAmounts(ctx context.Context, q AmountQuery) ([]string, error)
	GetAmountsByCategory(ctx context.Context, q AmountQuery) ([]CategoryAmount, error)

	// Budget operations
	CreateBudget(ctx context.Context, budget *model.Budget) error
	GetBudget(ctx context.Context, id int64) (*model.Budget, error)
	GetBudgets(ctx context.Context) ([]model.Budget, error)
	UpdateBudget(ctx context.Context, budget *model.Budget) error
	DeleteBudget(ctx context.Context, id int64) error
	FindBudgetByKey(ctx context.Context, categoryID int64, currency string, periodType model.PeriodType, excludeID int64) (*model.Budget, error)

	// Planned operations
	CreatePlannedOperation(ctx context.Context, planned *model.PlannedOperation) error
	GetPlannedOperation(ctx context.Context, id int64) (*model.PlannedOperation, error)
	GetPlannedOperations(ctx context.Context) ([]model.PlannedOperation, error)
	UpdatePlannedOperation(ctx context.Context, planned *model.PlannedOperation) error
	DeletePlannedOperation(ctx context.Context, id int64) error
	// MarkPlannedExecuted sets last_executed_month to month only when it is not
	// already that month. Returns false when no row changed.
	MarkPlannedExecuted(ctx context.Context, id int64, month string) (bool, error)
	ReorderPlannedOperations(ctx context.Context, ids []int64) error
}

// Store is the root persistence handle.
type Store interface {
	EntityStore

	BeginTx(ctx context.Context) (Tx, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Tx is a transaction-scoped store. Commit or Rollback must be called exactly
// once.
type Tx interface {
	EntityStore

	Commit() error
	Rollback() error
}

// EventKind labels a ledger mutation.
type EventKind string

const (
	// EventCreated fires after an operation insert.
	EventCreated EventKind = "created"
	// EventUpdated fires after an operation edit.
	EventUpdated EventKind = "updated"
	// EventDeleted fires after an operation delete.
	EventDeleted EventKind = "deleted"
)

// OperationEvent describes a committed ledger mutation so owners of derived
// aggregates (budget statuses, balance history) can recompute on demand.
type OperationEvent struct {
	Kind        EventKind
	OperationID int64
	AccountIDs  []int64
}

// Notifier observes ledger mutations. The engines never push recomputed
// values; they only announce that operations changed.
type Notifier interface {
	OperationChanged(ctx context.Context, event OperationEvent)
}

// NopNotifier discards all events.
type NopNotifier struct{}

// OperationChanged implements Notifier.
func (NopNotifier) OperationChanged(context.Context, OperationEvent) {}
