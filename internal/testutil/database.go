// Package testutil provides test database helpers and fixture builders.
package testutil

import (
	"context"
	"testing"

	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/storage"
)

// SetupTestDB creates a migrated in-memory database and registers cleanup.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// CreateAccount seeds an account with the given balance and currency.
func CreateAccount(t *testing.T, store *storage.SQLiteStorage, name, balance, currency string) *model.Account {
	t.Helper()

	account := &model.Account{
		Name:     name,
		Balance:  balance,
		Currency: currency,
	}
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("failed to seed account %q: %v", name, err)
	}
	return account
}

// CreateCategory seeds an expense entry category under the given parent.
func CreateCategory(t *testing.T, store *storage.SQLiteStorage, name string, parentID *int64) *model.Category {
	t.Helper()

	category := &model.Category{
		Name:     name,
		Kind:     model.CategoryKindEntry,
		Type:     model.CategoryTypeExpense,
		ParentID: parentID,
		Icon:     "tag",
		Color:    "#607D8B",
	}
	if err := store.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("failed to seed category %q: %v", name, err)
	}
	return category
}

// CreateFolderCategory seeds a folder category under the given parent.
func CreateFolderCategory(t *testing.T, store *storage.SQLiteStorage, name string, parentID *int64) *model.Category {
	t.Helper()

	category := &model.Category{
		Name:     name,
		Kind:     model.CategoryKindFolder,
		Type:     model.CategoryTypeExpense,
		ParentID: parentID,
		Icon:     "folder",
		Color:    "#607D8B",
	}
	if err := store.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("failed to seed folder category %q: %v", name, err)
	}
	return category
}
