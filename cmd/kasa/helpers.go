package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kasaledger/kasa/internal/budget"
	"github.com/kasaledger/kasa/internal/category"
	"github.com/kasaledger/kasa/internal/common"
	"github.com/kasaledger/kasa/internal/ledger"
	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/planned"
	"github.com/kasaledger/kasa/internal/service"
	"github.com/kasaledger/kasa/internal/storage"
	"github.com/spf13/viper"
)

// Output styles shared by the commands.
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	safeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dangerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	exceededStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func setupLoggerFromConfig(level slog.Level, format string) error {
	return common.SetupLogger(level, format)
}

// databasePath resolves the configured database path, falling back to the
// per-user data directory.
func databasePath(configured string) (string, error) {
	if configured == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configured = filepath.Join(home, ".local", "share", "kasa", "kasa.db")
	}
	return os.ExpandEnv(configured), nil
}

// initStorage opens the database with auto-migration.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath, err := databasePath(viper.GetString("database.path"))
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// logNotifier announces ledger mutations through slog so shells and scripts
// watching the log can trigger recomputation of derived views.
type logNotifier struct{}

func (logNotifier) OperationChanged(_ context.Context, event service.OperationEvent) {
	slog.Debug("operation changed", "kind", event.Kind,
		"operation_id", event.OperationID, "accounts", event.AccountIDs)
}

// engines wires the full engine stack over one storage handle.
type engines struct {
	store   *storage.SQLiteStorage
	tree    *category.Tree
	ledger  *ledger.Engine
	budgets *budget.Engine
	planned *planned.Engine
}

func initEngines(ctx context.Context) (*engines, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}

	tree := category.NewTree(store)
	ledgerEngine := ledger.NewEngine(store, logNotifier{})
	return &engines{
		store:   store,
		tree:    tree,
		ledger:  ledgerEngine,
		budgets: budget.NewEngine(store, tree, ledgerEngine),
		planned: planned.NewEngine(store, ledgerEngine),
	}, nil
}

func (e *engines) Close() {
	_ = e.store.Close()
}

// statusStyle maps a budget status level to its display style.
func statusStyle(level model.BudgetStatusLevel) lipgloss.Style {
	switch level {
	case model.StatusWarning:
		return warningStyle
	case model.StatusDanger:
		return dangerStyle
	case model.StatusExceeded:
		return exceededStyle
	default:
		return safeStyle
	}
}

// validationMessage maps a validation key to display text. This is the CLI's
// stand-in for the app's localization layer.
func validationMessage(key string) string {
	messages := map[string]string{
		"valid_amount_required":            "amount must be a positive number",
		"valid_date_required":              "date is required",
		"valid_account_required":           "account is required",
		"valid_category_required":          "category is required",
		"valid_to_account_required":        "destination account is required for transfers",
		"valid_transfer_same_account":      "transfer source and destination must differ",
		"valid_destination_amount_invalid": "destination amount must be a positive number",
		"valid_type_invalid":               "unknown operation type",
		"valid_currency_required":          "currency is required",
		"valid_period_type_invalid":        "period type must be weekly, monthly, or yearly",
		"valid_start_date_required":        "start date is required",
		"valid_end_before_start":           "end date must be after start date",
		"valid_budget_required":            "budget is required",
		"valid_parent_must_be_folder":      "parent category must be a folder",
		"valid_parent_type_mismatch":       "parent and child category types must match",
		"valid_operation_required":         "operation is required",
	}
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}

// renderError unwraps validation errors into readable messages.
func renderError(err error) error {
	var validationErr *common.ValidationError
	if errors.As(err, &validationErr) {
		return fmt.Errorf("invalid input: %s", validationMessage(validationErr.Key))
	}
	return err
}

// parseID parses a positional numeric ID argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// optionalID converts a flag value into a nullable ID (0 means unset).
func optionalID(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

// separator renders a dashed table divider.
func separator(widths ...int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return strings.Join(parts, "\t")
}
