package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasaledger/kasa/internal/common"
	"github.com/kasaledger/kasa/internal/ledger"
	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/money"
	"github.com/kasaledger/kasa/internal/service"
	"github.com/kasaledger/kasa/internal/storage"
	"github.com/kasaledger/kasa/internal/testutil"
)

func requireBalance(t *testing.T, store *storage.SQLiteStorage, accountID int64, want string) {
	t.Helper()

	account, err := store.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	require.NotNil(t, account)

	equal, err := money.Equal(account.Balance, want)
	require.NoError(t, err)
	assert.True(t, equal, "account %d balance = %s, want %s", accountID, account.Balance, want)
}

func TestCreateOperation(t *testing.T) {
	ctx := context.Background()

	t.Run("expense decreases the source balance", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		account := testutil.CreateAccount(t, store, "Checking", "100.00", "USD")
		category := testutil.CreateCategory(t, store, "Groceries", nil)
		engine := ledger.NewEngine(store, nil)

		result, err := engine.Create(ctx, &model.Operation{
			Type:       model.OperationExpense,
			Amount:     "25.50",
			Date:       "2025-03-10",
			AccountID:  account.ID,
			CategoryID: &category.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, result.Operation)
		assert.NotZero(t, result.Operation.ID)
		assert.Empty(t, result.SkippedAccounts)

		requireBalance(t, store, account.ID, "74.50")
	})

	t.Run("income increases the source balance", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		account := testutil.CreateAccount(t, store, "Checking", "100.00", "USD")
		category := testutil.CreateCategory(t, store, "Salary", nil)
		engine := ledger.NewEngine(store, nil)

		_, err := engine.Create(ctx, &model.Operation{
			Type:       model.OperationIncome,
			Amount:     "1500",
			Date:       "2025-03-01",
			AccountID:  account.ID,
			CategoryID: &category.ID,
		})
		require.NoError(t, err)

		requireBalance(t, store, account.ID, "1600")
	})

	t.Run("transfer moves money between accounts", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		source := testutil.CreateAccount(t, store, "Checking", "500.00", "USD")
		dest := testutil.CreateAccount(t, store, "Savings", "0", "USD")
		engine := ledger.NewEngine(store, nil)

		_, err := engine.Create(ctx, &model.Operation{
			Type:        model.OperationTransfer,
			Amount:      "200",
			Date:        "2025-03-10",
			AccountID:   source.ID,
			ToAccountID: &dest.ID,
		})
		require.NoError(t, err)

		requireBalance(t, store, source.ID, "300")
		requireBalance(t, store, dest.ID, "200")
	})

	t.Run("cross-currency transfer credits the destination amount", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		source := testutil.CreateAccount(t, store, "Checking", "500.00", "USD")
		dest := testutil.CreateAccount(t, store, "Euro", "0", "EUR")
		engine := ledger.NewEngine(store, nil)

		destAmount := "92.35"
		_, err := engine.Create(ctx, &model.Operation{
			Type:              model.OperationTransfer,
			Amount:            "100",
			DestinationAmount: &destAmount,
			Date:              "2025-03-10",
			AccountID:         source.ID,
			ToAccountID:       &dest.ID,
		})
		require.NoError(t, err)

		requireBalance(t, store, source.ID, "400")
		requireBalance(t, store, dest.ID, "92.35")
	})

	t.Run("missing account is skipped, operation persists", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		category := testutil.CreateCategory(t, store, "Groceries", nil)
		engine := ledger.NewEngine(store, nil)

		result, err := engine.Create(ctx, &model.Operation{
			Type:       model.OperationExpense,
			Amount:     "10",
			Date:       "2025-03-10",
			AccountID:  9999,
			CategoryID: &category.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{9999}, result.SkippedAccounts)

		persisted, err := engine.Get(ctx, result.Operation.ID)
		require.NoError(t, err)
		assert.Equal(t, "10", persisted.Amount)
	})

	t.Run("validation rejections", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		account := testutil.CreateAccount(t, store, "Checking", "100", "USD")
		category := testutil.CreateCategory(t, store, "Groceries", nil)
		engine := ledger.NewEngine(store, nil)

		categoryID := category.ID
		tests := []struct {
			name    string
			op      model.Operation
			wantKey string
		}{
			{
				name:    "zero amount",
				op:      model.Operation{Type: model.OperationExpense, Amount: "0", Date: "2025-03-10", AccountID: account.ID, CategoryID: &categoryID},
				wantKey: "valid_amount_required",
			},
			{
				name:    "negative amount",
				op:      model.Operation{Type: model.OperationExpense, Amount: "-5", Date: "2025-03-10", AccountID: account.ID, CategoryID: &categoryID},
				wantKey: "valid_amount_required",
			},
			{
				name:    "non-numeric amount",
				op:      model.Operation{Type: model.OperationExpense, Amount: "abc", Date: "2025-03-10", AccountID: account.ID, CategoryID: &categoryID},
				wantKey: "valid_amount_required",
			},
			{
				name:    "missing date",
				op:      model.Operation{Type: model.OperationExpense, Amount: "5", AccountID: account.ID, CategoryID: &categoryID},
				wantKey: "valid_date_required",
			},
			{
				name:    "expense without category",
				op:      model.Operation{Type: model.OperationExpense, Amount: "5", Date: "2025-03-10", AccountID: account.ID},
				wantKey: "valid_category_required",
			},
			{
				name:    "transfer without destination",
				op:      model.Operation{Type: model.OperationTransfer, Amount: "5", Date: "2025-03-10", AccountID: account.ID},
				wantKey: "valid_to_account_required",
			},
			{
				name:    "transfer onto itself",
				op:      model.Operation{Type: model.OperationTransfer, Amount: "5", Date: "2025-03-10", AccountID: account.ID, ToAccountID: &account.ID},
				wantKey: "valid_transfer_same_account",
			},
			{
				name:    "unknown type",
				op:      model.Operation{Type: "loan", Amount: "5", Date: "2025-03-10", AccountID: account.ID},
				wantKey: "valid_type_invalid",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				op := tt.op
				_, err := engine.Create(ctx, &op)
				var validationErr *common.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.wantKey, validationErr.Key)

				// A rejected operation must leave the balance untouched.
				requireBalance(t, store, account.ID, "100")
			})
		}
	})
}

func TestDeleteOperation(t *testing.T) {
	ctx := context.Background()

	t.Run("create then delete restores the balance", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		account := testutil.CreateAccount(t, store, "Checking", "100.00", "USD")
		category := testutil.CreateCategory(t, store, "Groceries", nil)
		engine := ledger.NewEngine(store, nil)

		created, err := engine.Create(ctx, &model.Operation{
			Type:       model.OperationExpense,
			Amount:     "33.33",
			Date:       "2025-03-10",
			AccountID:  account.ID,
			CategoryID: &category.ID,
		})
		require.NoError(t, err)
		requireBalance(t, store, account.ID, "66.67")

		_, err = engine.Delete(ctx, created.Operation.ID)
		require.NoError(t, err)
		requireBalance(t, store, account.ID, "100.00")

		_, err = engine.Get(ctx, created.Operation.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("deleting a transfer reverses both sides", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		source := testutil.CreateAccount(t, store, "Checking", "500", "USD")
		dest := testutil.CreateAccount(t, store, "Savings", "100", "USD")
		engine := ledger.NewEngine(store, nil)

		created, err := engine.Create(ctx, &model.Operation{
			Type:        model.OperationTransfer,
			Amount:      "50",
			Date:        "2025-03-10",
			AccountID:   source.ID,
			ToAccountID: &dest.ID,
		})
		require.NoError(t, err)

		_, err = engine.Delete(ctx, created.Operation.ID)
		require.NoError(t, err)

		requireBalance(t, store, source.ID, "500")
		requireBalance(t, store, dest.ID, "100")
	})

	t.Run("unknown operation", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		engine := ledger.NewEngine(store, nil)

		_, err := engine.Delete(ctx, 424242)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestUpdateOperation(t *testing.T) {
	ctx := context.Background()

	t.Run("amount change on the same account", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		account := testutil.CreateAccount(t, store, "Checking", "100", "USD")
		category := testutil.CreateCategory(t, store, "Groceries", nil)
		engine := ledger.NewEngine(store, nil)

		created, err := engine.Create(ctx, &model.Operation{
			Type:       model.OperationExpense,
			Amount:     "30",
			Date:       "2025-03-10",
			AccountID:  account.ID,
			CategoryID: &category.ID,
		})
		require.NoError(t, err)
		requireBalance(t, store, account.ID, "70")

		newAmount := "45"
		_, err = engine.Update(ctx, created.Operation.ID, model.OperationUpdate{Amount: &newAmount})
		require.NoError(t, err)

		// Net effect equals delete-then-recreate with the new amount.
		requireBalance(t, store, account.ID, "55")
	})

	t.Run("moving an expense to another account touches both balances", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		first := testutil.CreateAccount(t, store, "Checking", "100", "USD")
		second := testutil.CreateAccount(t, store, "Wallet", "100", "USD")
		category := testutil.CreateCategory(t, store, "Groceries", nil)
		engine := ledger.NewEngine(store, nil)

		created, err := engine.Create(ctx, &model.Operation{
			Type:       model.OperationExpense,
			Amount:     "20",
			Date:       "2025-03-10",
			AccountID:  first.ID,
			CategoryID: &category.ID,
		})
		require.NoError(t, err)

		_, err = engine.Update(ctx, created.Operation.ID, model.OperationUpdate{AccountID: &second.ID})
		require.NoError(t, err)

		requireBalance(t, store, first.ID, "100")
		requireBalance(t, store, second.ID, "80")
	})

	t.Run("rerouting a transfer touches all four balances", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		oldSource := testutil.CreateAccount(t, store, "Checking", "100", "USD")
		oldDest := testutil.CreateAccount(t, store, "Savings", "100", "USD")
		newSource := testutil.CreateAccount(t, store, "Wallet", "100", "USD")
		newDest := testutil.CreateAccount(t, store, "Vacation", "100", "USD")
		engine := ledger.NewEngine(store, nil)

		created, err := engine.Create(ctx, &model.Operation{
			Type:        model.OperationTransfer,
			Amount:      "25",
			Date:        "2025-03-10",
			AccountID:   oldSource.ID,
			ToAccountID: &oldDest.ID,
		})
		require.NoError(t, err)
		requireBalance(t, store, oldSource.ID, "75")
		requireBalance(t, store, oldDest.ID, "125")

		_, err = engine.Update(ctx, created.Operation.ID, model.OperationUpdate{
			AccountID:   &newSource.ID,
			ToAccountID: &newDest.ID,
		})
		require.NoError(t, err)

		// The old endpoints are fully reversed, the new ones carry the transfer.
		requireBalance(t, store, oldSource.ID, "100")
		requireBalance(t, store, oldDest.ID, "100")
		requireBalance(t, store, newSource.ID, "75")
		requireBalance(t, store, newDest.ID, "125")
	})

	t.Run("changing the destination amount reverses the old credit", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		source := testutil.CreateAccount(t, store, "Checking", "500", "USD")
		dest := testutil.CreateAccount(t, store, "Euro", "0", "EUR")
		engine := ledger.NewEngine(store, nil)

		destAmount := "92.35"
		created, err := engine.Create(ctx, &model.Operation{
			Type:              model.OperationTransfer,
			Amount:            "100",
			DestinationAmount: &destAmount,
			Date:              "2025-03-10",
			AccountID:         source.ID,
			ToAccountID:       &dest.ID,
		})
		require.NoError(t, err)
		requireBalance(t, store, dest.ID, "92.35")

		newDestAmount := "90"
		_, err = engine.Update(ctx, created.Operation.ID, model.OperationUpdate{
			DestinationAmount: &newDestAmount,
		})
		require.NoError(t, err)

		requireBalance(t, store, source.ID, "400")
		requireBalance(t, store, dest.ID, "90")
	})

	t.Run("clearing the destination amount credits the full amount again", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		source := testutil.CreateAccount(t, store, "Checking", "500", "USD")
		euroDest := testutil.CreateAccount(t, store, "Euro", "0", "EUR")
		usdDest := testutil.CreateAccount(t, store, "Savings", "0", "USD")
		engine := ledger.NewEngine(store, nil)

		destAmount := "92.35"
		created, err := engine.Create(ctx, &model.Operation{
			Type:              model.OperationTransfer,
			Amount:            "100",
			DestinationAmount: &destAmount,
			Date:              "2025-03-10",
			AccountID:         source.ID,
			ToAccountID:       &euroDest.ID,
		})
		require.NoError(t, err)

		_, err = engine.Update(ctx, created.Operation.ID, model.OperationUpdate{
			ToAccountID:            &usdDest.ID,
			ClearDestinationAmount: true,
		})
		require.NoError(t, err)

		// Without the converted amount the destination gets the source amount,
		// not the stale 92.35.
		requireBalance(t, store, euroDest.ID, "0")
		requireBalance(t, store, usdDest.ID, "100")

		persisted, err := engine.Get(ctx, created.Operation.ID)
		require.NoError(t, err)
		assert.Nil(t, persisted.DestinationAmount)
	})

	t.Run("invalid change leaves everything untouched", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		account := testutil.CreateAccount(t, store, "Checking", "100", "USD")
		category := testutil.CreateCategory(t, store, "Groceries", nil)
		engine := ledger.NewEngine(store, nil)

		created, err := engine.Create(ctx, &model.Operation{
			Type:       model.OperationExpense,
			Amount:     "30",
			Date:       "2025-03-10",
			AccountID:  account.ID,
			CategoryID: &category.ID,
		})
		require.NoError(t, err)

		badAmount := "-1"
		_, err = engine.Update(ctx, created.Operation.ID, model.OperationUpdate{Amount: &badAmount})
		var validationErr *common.ValidationError
		require.ErrorAs(t, err, &validationErr)

		requireBalance(t, store, account.ID, "70")
		op, err := engine.Get(ctx, created.Operation.ID)
		require.NoError(t, err)
		assert.Equal(t, "30", op.Amount)
	})

	t.Run("unknown operation", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		engine := ledger.NewEngine(store, nil)

		amount := "5"
		_, err := engine.Update(ctx, 424242, model.OperationUpdate{Amount: &amount})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestAdjustBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("raising the balance records an income", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		account := testutil.CreateAccount(t, store, "Checking", "100", "USD")
		engine := ledger.NewEngine(store, nil)

		result, err := engine.AdjustBalance(ctx, account.ID, "150.25")
		require.NoError(t, err)
		require.NotNil(t, result.Operation)
		assert.Equal(t, model.OperationIncome, result.Operation.Type)
		assert.Equal(t, "50.25", result.Operation.Amount)

		requireBalance(t, store, account.ID, "150.25")
	})

	t.Run("lowering the balance records an expense", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		account := testutil.CreateAccount(t, store, "Checking", "100", "USD")
		engine := ledger.NewEngine(store, nil)

		result, err := engine.AdjustBalance(ctx, account.ID, "80")
		require.NoError(t, err)
		require.NotNil(t, result.Operation)
		assert.Equal(t, model.OperationExpense, result.Operation.Type)
		assert.Equal(t, "20", result.Operation.Amount)

		requireBalance(t, store, account.ID, "80")
	})

	t.Run("no-op when the balance already matches", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		account := testutil.CreateAccount(t, store, "Checking", "100", "USD")
		engine := ledger.NewEngine(store, nil)

		result, err := engine.AdjustBalance(ctx, account.ID, "100.00")
		require.NoError(t, err)
		assert.Nil(t, result.Operation)

		ops, err := engine.List(ctx, service.OperationFilter{})
		require.NoError(t, err)
		assert.Empty(t, ops)
	})

	t.Run("unknown account", func(t *testing.T) {
		store := testutil.SetupTestDB(t)
		engine := ledger.NewEngine(store, nil)

		_, err := engine.AdjustBalance(ctx, 9999, "10")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

type recordingNotifier struct {
	events []service.OperationEvent
}

func (n *recordingNotifier) OperationChanged(_ context.Context, event service.OperationEvent) {
	n.events = append(n.events, event)
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()

	store := testutil.SetupTestDB(t)
	account := testutil.CreateAccount(t, store, "Checking", "100", "USD")
	category := testutil.CreateCategory(t, store, "Groceries", nil)
	notifier := &recordingNotifier{}
	engine := ledger.NewEngine(store, notifier)

	created, err := engine.Create(ctx, &model.Operation{
		Type:       model.OperationExpense,
		Amount:     "10",
		Date:       "2025-03-10",
		AccountID:  account.ID,
		CategoryID: &category.ID,
	})
	require.NoError(t, err)

	_, err = engine.Delete(ctx, created.Operation.ID)
	require.NoError(t, err)

	require.Len(t, notifier.events, 2)
	assert.Equal(t, service.EventCreated, notifier.events[0].Kind)
	assert.Equal(t, service.EventDeleted, notifier.events[1].Kind)
	assert.Equal(t, []int64{account.ID}, notifier.events[0].AccountIDs)

	// Validation failures publish nothing.
	_, err = engine.Create(ctx, &model.Operation{Type: model.OperationExpense, Amount: "0"})
	require.True(t, errors.As(err, new(*common.ValidationError)))
	assert.Len(t, notifier.events, 2)
}
