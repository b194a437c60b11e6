package ledger

import (
	"context"
	"log/slog"

	"github.com/kasaledger/kasa/internal/money"
	"github.com/kasaledger/kasa/internal/service"
)

// Drift reports an account whose stored balance disagrees with the balance
// recomputed from its operations.
type Drift struct {
	Name     string
	Stored   string
	Computed string
	ID       int64
}

// Reconcile recomputes every account's balance from the signed effects of all
// operations and reports accounts whose stored balance disagrees. It is a
// read-only check; Repair applies the computed values. progress, if non-nil,
// is called once per operation replayed.
func (e *Engine) Reconcile(ctx context.Context, progress func(done, total int)) ([]Drift, error) {
	accounts, err := e.store.GetAccounts(ctx, true)
	if err != nil {
		return nil, err
	}

	ops, err := e.store.GetOperations(ctx, service.OperationFilter{})
	if err != nil {
		return nil, err
	}

	computed := make(map[int64]string, len(accounts))
	for _, account := range accounts {
		computed[account.ID] = money.Zero
	}

	for i := range ops {
		if progress != nil {
			progress(i+1, len(ops))
		}
		effs, effErr := effects(&ops[i])
		if effErr != nil {
			return nil, effErr
		}
		for _, eff := range effs {
			current, ok := computed[eff.accountID]
			if !ok {
				// Orphaned reference; there is no stored balance to compare.
				continue
			}
			sum, sumErr := money.Add(current, eff.delta)
			if sumErr != nil {
				return nil, sumErr
			}
			computed[eff.accountID] = sum
		}
	}

	var drifts []Drift
	for _, account := range accounts {
		equal, cmpErr := money.Equal(account.Balance, computed[account.ID])
		if cmpErr != nil {
			return nil, cmpErr
		}
		if !equal {
			drifts = append(drifts, Drift{
				ID:       account.ID,
				Name:     account.Name,
				Stored:   account.Balance,
				Computed: computed[account.ID],
			})
		}
	}

	return drifts, nil
}

// Repair rewrites the stored balances of the given drifted accounts to their
// computed values, one transaction for the whole batch.
func (e *Engine) Repair(ctx context.Context, drifts []Drift) error {
	if len(drifts) == 0 {
		return nil
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, drift := range drifts {
		account, getErr := tx.GetAccount(ctx, drift.ID)
		if getErr != nil {
			return getErr
		}
		if account == nil {
			continue
		}
		account.Balance = drift.Computed
		if updErr := tx.UpdateAccount(ctx, account); updErr != nil {
			return updErr
		}
		slog.Info("repaired account balance",
			"account_id", drift.ID, "stored", drift.Stored, "computed", drift.Computed)
	}

	return tx.Commit()
}
