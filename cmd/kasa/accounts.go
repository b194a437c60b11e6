package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/money"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
		Long:  `List, add, adjust, and delete money accounts.`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(adjustAccountCmd())
	cmd.AddCommand(deleteAccountCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	var includeHidden bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts, err := store.GetAccounts(ctx, includeHidden)
			if err != nil {
				return fmt.Errorf("failed to get accounts: %w", err)
			}

			if len(accounts) == 0 {
				fmt.Println(infoStyle.Render("No accounts found. Use 'kasa accounts add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Balance"),
				headerStyle.Render("Currency"))
			fmt.Fprintln(w, separator(4, 20, 14, 8))

			for _, account := range accounts {
				name := account.Name
				if account.Hidden {
					name = infoStyle.Render(name + " (hidden)")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", account.ID, name, account.Balance, account.Currency)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&includeHidden, "all", false, "include hidden accounts")
	return cmd
}

func addAccountCmd() *cobra.Command {
	var (
		balance  string
		currency string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if _, err := money.Parse(balance); err != nil {
				return fmt.Errorf("invalid opening balance %q", balance)
			}

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			account := &model.Account{
				Name:     args[0],
				Balance:  money.Zero,
				Currency: currency,
			}
			if err := eng.store.CreateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			// The opening balance goes through a shadow adjustment operation so
			// replaying the ledger reproduces it.
			if _, err := eng.ledger.AdjustBalance(ctx, account.ID, balance); err != nil {
				return fmt.Errorf("failed to record opening balance: %w", err)
			}

			fmt.Printf("Created account %d (%s, %s %s)\n", account.ID, account.Name, balance, account.Currency)
			return nil
		},
	}

	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance")
	cmd.Flags().StringVar(&currency, "currency", "USD", "ISO 4217 currency code")
	return cmd
}

func adjustAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adjust <id> <new-balance>",
		Short: "Set an account balance via a shadow adjustment operation",
		Long: `Sets the account balance to the given value by recording the difference
as an operation against the balance-adjustment category, so history explains
the change.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			accountID, err := parseID(args[0])
			if err != nil {
				return err
			}

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			result, err := eng.ledger.AdjustBalance(ctx, accountID, args[1])
			if err != nil {
				return renderError(err)
			}

			if result.Operation == nil {
				fmt.Println(infoStyle.Render("Balance unchanged."))
				return nil
			}
			fmt.Printf("Recorded %s of %s (operation %d)\n",
				result.Operation.Type, result.Operation.Amount, result.Operation.ID)
			return nil
		},
	}
}

func deleteAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account and its operations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			accountID, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteAccount(ctx, accountID); err != nil {
				return fmt.Errorf("failed to delete account: %w", err)
			}

			fmt.Printf("Deleted account %d\n", accountID)
			return nil
		},
	}
}
