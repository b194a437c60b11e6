package planned_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasaledger/kasa/internal/common"
	"github.com/kasaledger/kasa/internal/ledger"
	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/money"
	"github.com/kasaledger/kasa/internal/planned"
	"github.com/kasaledger/kasa/internal/service"
	"github.com/kasaledger/kasa/internal/storage"
	"github.com/kasaledger/kasa/internal/testutil"
)

var (
	march = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.Local)
	april = time.Date(2025, time.April, 2, 10, 0, 0, 0, time.Local)
)

type fixture struct {
	store   *storage.SQLiteStorage
	ledger  *ledger.Engine
	engine  *planned.Engine
	account *model.Account
}

func setup(t *testing.T) *fixture {
	t.Helper()

	store := testutil.SetupTestDB(t)
	ledgerEngine := ledger.NewEngine(store, nil)
	return &fixture{
		store:   store,
		ledger:  ledgerEngine,
		engine:  planned.NewEngine(store, ledgerEngine),
		account: testutil.CreateAccount(t, store, "Checking", "1000", "USD"),
	}
}

func (f *fixture) template(t *testing.T, name string, recurring bool) *model.PlannedOperation {
	t.Helper()

	category := testutil.CreateCategory(t, f.store, name+" category", nil)
	template := &model.PlannedOperation{
		Name:        name,
		Type:        model.OperationExpense,
		Amount:      "50",
		AccountID:   f.account.ID,
		CategoryID:  &category.ID,
		IsRecurring: recurring,
	}
	require.NoError(t, f.engine.Create(context.Background(), template))
	return template
}

func requireBalance(t *testing.T, store *storage.SQLiteStorage, accountID int64, want string) {
	t.Helper()

	account, err := store.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	require.NotNil(t, account)

	equal, err := money.Equal(account.Balance, want)
	require.NoError(t, err)
	assert.True(t, equal, "balance = %s, want %s", account.Balance, want)
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("first execution creates a ledger entry and stamps the month", func(t *testing.T) {
		f := setup(t)
		template := f.template(t, "Rent", true)

		result, err := f.engine.Execute(ctx, template.ID, march)
		require.NoError(t, err)
		assert.False(t, result.AlreadyExecuted)
		assert.False(t, result.Consumed)
		require.NotNil(t, result.Operation)
		assert.Equal(t, "2025-03-15", result.Operation.Date)
		assert.Equal(t, "USD", result.Operation.SourceCurrency)
		assert.Equal(t, "Rent", result.Operation.Description)

		requireBalance(t, f.store, f.account.ID, "950")

		stored, err := f.store.GetPlannedOperation(ctx, template.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastExecutedMonth)
		assert.Equal(t, "2025-03", *stored.LastExecutedMonth)
	})

	t.Run("second execution in the same month is a no-op", func(t *testing.T) {
		f := setup(t)
		template := f.template(t, "Rent", true)

		_, err := f.engine.Execute(ctx, template.ID, march)
		require.NoError(t, err)

		result, err := f.engine.Execute(ctx, template.ID, march)
		require.NoError(t, err)
		assert.True(t, result.AlreadyExecuted)
		assert.Nil(t, result.Operation)

		requireBalance(t, f.store, f.account.ID, "950")

		ops, err := f.ledger.List(ctx, service.OperationFilter{})
		require.NoError(t, err)
		assert.Len(t, ops, 1)
	})

	t.Run("a new month makes the template eligible again", func(t *testing.T) {
		f := setup(t)
		template := f.template(t, "Rent", true)

		_, err := f.engine.Execute(ctx, template.ID, march)
		require.NoError(t, err)

		result, err := f.engine.Execute(ctx, template.ID, april)
		require.NoError(t, err)
		assert.False(t, result.AlreadyExecuted)

		requireBalance(t, f.store, f.account.ID, "900")

		stored, err := f.store.GetPlannedOperation(ctx, template.ID)
		require.NoError(t, err)
		assert.Equal(t, "2025-04", *stored.LastExecutedMonth)
	})

	t.Run("one-time template is consumed", func(t *testing.T) {
		f := setup(t)
		template := f.template(t, "Deposit", false)

		result, err := f.engine.Execute(ctx, template.ID, march)
		require.NoError(t, err)
		assert.True(t, result.Consumed)

		stored, err := f.store.GetPlannedOperation(ctx, template.ID)
		require.NoError(t, err)
		assert.Nil(t, stored)

		// The produced ledger entry outlives the template.
		ops, err := f.ledger.List(ctx, service.OperationFilter{})
		require.NoError(t, err)
		assert.Len(t, ops, 1)
	})

	t.Run("ledger rejection leaves the template unmarked", func(t *testing.T) {
		f := setup(t)
		category := testutil.CreateCategory(t, f.store, "Bad", nil)

		template := &model.PlannedOperation{
			Name:        "Broken",
			Type:        model.OperationExpense,
			Amount:      "50",
			AccountID:   f.account.ID,
			CategoryID:  &category.ID,
			IsRecurring: true,
		}
		require.NoError(t, f.engine.Create(ctx, template))

		// Sabotage the amount behind the engine's back so the ledger
		// validation fails at execution time.
		template.Amount = "-5"
		require.NoError(t, f.store.UpdatePlannedOperation(ctx, template))

		_, err := f.engine.Execute(ctx, template.ID, march)
		var validationErr *common.ValidationError
		require.ErrorAs(t, err, &validationErr)

		stored, err := f.store.GetPlannedOperation(ctx, template.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.LastExecutedMonth)
		requireBalance(t, f.store, f.account.ID, "1000")
	})

	t.Run("unknown template", func(t *testing.T) {
		f := setup(t)
		_, err := f.engine.Execute(ctx, 9999, march)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestEligible(t *testing.T) {
	stamp := func(s string) *string { return &s }

	tests := []struct {
		name     string
		last     *string
		ref      time.Time
		eligible bool
	}{
		{"never executed", nil, march, true},
		{"executed this month", stamp("2025-03"), march, false},
		{"executed last month", stamp("2025-02"), march, true},
		{"executed same month last year", stamp("2024-03"), march, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			template := &model.PlannedOperation{LastExecutedMonth: tt.last}
			assert.Equal(t, tt.eligible, planned.Eligible(template, tt.ref))
		})
	}
}

func TestCreateTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("transfer requires a destination", func(t *testing.T) {
		f := setup(t)

		err := f.engine.Create(ctx, &model.PlannedOperation{
			Name:      "Move",
			Type:      model.OperationTransfer,
			Amount:    "10",
			AccountID: f.account.ID,
		})
		var validationErr *common.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "valid_to_account_required", validationErr.Key)
	})

	t.Run("expense requires a category", func(t *testing.T) {
		f := setup(t)

		err := f.engine.Create(ctx, &model.PlannedOperation{
			Name:      "Rent",
			Type:      model.OperationExpense,
			Amount:    "10",
			AccountID: f.account.ID,
		})
		var validationErr *common.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "valid_category_required", validationErr.Key)
	})

	t.Run("templates get sequential display order", func(t *testing.T) {
		f := setup(t)
		first := f.template(t, "First", true)
		second := f.template(t, "Second", true)

		templates, err := f.engine.List(ctx)
		require.NoError(t, err)
		require.Len(t, templates, 2)
		assert.Equal(t, first.ID, templates[0].ID)
		assert.Equal(t, second.ID, templates[1].ID)
		assert.Less(t, templates[0].DisplayOrder, templates[1].DisplayOrder)
	})
}

func TestReorder(t *testing.T) {
	ctx := context.Background()

	f := setup(t)
	first := f.template(t, "First", true)
	second := f.template(t, "Second", true)
	third := f.template(t, "Third", true)

	require.NoError(t, f.engine.Reorder(ctx, []int64{third.ID, first.ID, second.ID}))

	templates, err := f.engine.List(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 3)
	assert.Equal(t, third.ID, templates[0].ID)
	assert.Equal(t, first.ID, templates[1].ID)
	assert.Equal(t, second.ID, templates[2].ID)
}
