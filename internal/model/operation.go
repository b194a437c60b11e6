package model

import "time"

// OperationType is the kind of ledger entry.
type OperationType string

const (
	// OperationExpense decreases the source account balance.
	OperationExpense OperationType = "expense"
	// OperationIncome increases the source account balance.
	OperationIncome OperationType = "income"
	// OperationTransfer moves money between two accounts.
	OperationTransfer OperationType = "transfer"
)

// DateLayout is the wire format for operation and budget dates. Dates are kept
// as strings so range queries can compare lexicographically.
const DateLayout = "2006-01-02"

// MonthLayout is the wire format for planned-operation execution months.
const MonthLayout = "2006-01"

// Operation is an immutable ledger entry. Its effect on account balances must
// always be derivable by replaying Type/Amount/AccountID/ToAccountID.
type Operation struct {
	CreatedAt           time.Time
	Type                OperationType
	Amount              string
	Date                string
	Description         string
	SourceCurrency      string
	DestinationCurrency string
	ExchangeRate        *string
	DestinationAmount   *string
	CategoryID          *int64
	ToAccountID         *int64
	AccountID           int64
	ID                  int64
}

// OperationUpdate carries the fields of an operation that may change. Nil
// pointers mean "keep the current value"; the Clear flags reset the nullable
// fields. A transfer moved back to a same-currency destination must clear
// DestinationAmount, or the stale converted amount keeps overriding the
// credited side.
type OperationUpdate struct {
	Type                   *OperationType
	Amount                 *string
	Date                   *string
	Description            *string
	AccountID              *int64
	CategoryID             *int64
	ToAccountID            *int64
	DestinationAmount      *string
	ExchangeRate           *string
	ClearCategory          bool
	ClearToAccount         bool
	ClearDestinationAmount bool
	ClearExchangeRate      bool
}
