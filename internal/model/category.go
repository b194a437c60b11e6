package model

// CategoryKind distinguishes folders (grouping nodes) from entries (pickable leaves).
type CategoryKind string

const (
	// CategoryKindFolder groups other categories and cannot be attached to operations directly.
	CategoryKindFolder CategoryKind = "folder"
	// CategoryKindEntry is a leaf category operations can reference.
	CategoryKindEntry CategoryKind = "entry"
)

// CategoryType indicates whether a category applies to expenses or income.
type CategoryType string

const (
	// CategoryTypeExpense represents categories for expense operations.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeIncome represents categories for income operations.
	CategoryTypeIncome CategoryType = "income"
)

// Category is a node in the category forest. ParentID is nil for roots.
// IsShadow marks system-generated categories (balance adjustments) that are
// hidden from pickers but still participate in aggregation.
type Category struct {
	Name     string
	Kind     CategoryKind
	Type     CategoryType
	Icon     string
	Color    string
	ParentID *int64
	ID       int64
	IsShadow bool
}
