// Package model defines the core domain types for the ledger.
package model

import "time"

// Account is a money container. Balance is the authoritative running total,
// stored as a decimal string and mutated exclusively through the ledger
// engine's balance-adjustment path.
type Account struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Name          string
	Balance       string
	Currency      string
	MonthlyTarget *string
	DisplayOrder  *int64
	ID            int64
	Hidden        bool
}
