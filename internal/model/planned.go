package model

// PlannedOperation is a reusable template for producing a concrete Operation
// on demand. LastExecutedMonth ("YYYY-MM") is the sole piece of execution
// state; eligibility is a pure function of it and the current calendar month.
type PlannedOperation struct {
	Name              string
	Type              OperationType
	Amount            string
	LastExecutedMonth *string
	CategoryID        *int64
	ToAccountID       *int64
	AccountID         int64
	DisplayOrder      int64
	ID                int64
	IsRecurring       bool
}
