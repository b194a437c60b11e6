package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/money"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidAmount    = errors.New("amount must be a decimal string")
	ErrInvalidDate      = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidAccount   = errors.New("invalid account")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidBudget    = errors.New("invalid budget")
	ErrInvalidPlanned   = errors.New("invalid planned operation")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateAmount ensures a string parses as a decimal amount.
func validateAmount(s string, paramName string) error {
	if _, err := money.Parse(s); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidAmount, paramName, err)
	}
	return nil
}

// validateDate ensures a date string has the YYYY-MM-DD shape. Storage only
// checks shape; calendar validity is the engines' concern.
func validateDate(s string, paramName string) error {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return fmt.Errorf("%w: %s (%q)", ErrInvalidDate, paramName, s)
	}
	return nil
}

func validateAccount(account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if strings.TrimSpace(account.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAccount)
	}
	if strings.TrimSpace(account.Currency) == "" {
		return fmt.Errorf("%w: missing currency", ErrInvalidAccount)
	}
	if account.Balance == "" {
		return fmt.Errorf("%w: missing balance", ErrInvalidAccount)
	}
	return validateAmount(account.Balance, "balance")
}

func validateCategory(category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	switch category.Kind {
	case model.CategoryKindFolder, model.CategoryKindEntry:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidCategory, category.Kind)
	}
	switch category.Type {
	case model.CategoryTypeExpense, model.CategoryTypeIncome:
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidCategory, category.Type)
	}
	return nil
}

func validateOperation(op *model.Operation) error {
	if op == nil {
		return fmt.Errorf("%w: operation", ErrNilParameter)
	}
	switch op.Type {
	case model.OperationExpense, model.OperationIncome, model.OperationTransfer:
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidOperation, op.Type)
	}
	if err := validateAmount(op.Amount, "amount"); err != nil {
		return err
	}
	if err := validateDate(op.Date, "date"); err != nil {
		return err
	}
	if op.AccountID == 0 {
		return fmt.Errorf("%w: missing account", ErrInvalidOperation)
	}
	return nil
}

func validateBudget(budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if budget.CategoryID == 0 {
		return fmt.Errorf("%w: missing category", ErrInvalidBudget)
	}
	if err := validateAmount(budget.Amount, "amount"); err != nil {
		return err
	}
	if strings.TrimSpace(budget.Currency) == "" {
		return fmt.Errorf("%w: missing currency", ErrInvalidBudget)
	}
	switch budget.PeriodType {
	case model.PeriodWeekly, model.PeriodMonthly, model.PeriodYearly:
	default:
		return fmt.Errorf("%w: period type %q", ErrInvalidBudget, budget.PeriodType)
	}
	return validateDate(budget.StartDate, "startDate")
}

func validatePlanned(planned *model.PlannedOperation) error {
	if planned == nil {
		return fmt.Errorf("%w: planned operation", ErrNilParameter)
	}
	if strings.TrimSpace(planned.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidPlanned)
	}
	switch planned.Type {
	case model.OperationExpense, model.OperationIncome, model.OperationTransfer:
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidPlanned, planned.Type)
	}
	if err := validateAmount(planned.Amount, "amount"); err != nil {
		return err
	}
	if planned.AccountID == 0 {
		return fmt.Errorf("%w: missing account", ErrInvalidPlanned)
	}
	return nil
}
