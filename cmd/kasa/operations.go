package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/service"
	"github.com/spf13/cobra"
)

func operationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "Manage ledger operations",
		Long:  `Record, list, and delete expenses, income, and transfers.`,
	}

	cmd.AddCommand(listOperationsCmd())
	cmd.AddCommand(addOperationCmd())
	cmd.AddCommand(deleteOperationCmd())

	return cmd
}

func listOperationsCmd() *cobra.Command {
	var (
		accountID int64
		fromDate  string
		toDate    string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List operations, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			ops, err := eng.ledger.List(ctx, service.OperationFilter{
				AccountID: optionalID(accountID),
				FromDate:  fromDate,
				ToDate:    toDate,
				Limit:     limit,
			})
			if err != nil {
				return fmt.Errorf("failed to get operations: %w", err)
			}

			if len(ops) == 0 {
				fmt.Println(infoStyle.Render("No operations found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Date"),
				headerStyle.Render("Type"),
				headerStyle.Render("Amount"),
				headerStyle.Render("Description"))
			fmt.Fprintln(w, separator(6, 10, 8, 12, 30))

			for _, op := range ops {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", op.ID, op.Date, op.Type, op.Amount, op.Description)
			}

			return nil
		},
	}

	cmd.Flags().Int64Var(&accountID, "account", 0, "filter by account id")
	cmd.Flags().StringVar(&fromDate, "from", "", "start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&toDate, "to", "", "end date (YYYY-MM-DD, inclusive)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func addOperationCmd() *cobra.Command {
	var (
		opType            string
		accountID         int64
		categoryID        int64
		toAccountID       int64
		date              string
		description       string
		destinationAmount string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record an operation and update balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if date == "" {
				date = time.Now().Format(model.DateLayout)
			}

			op := &model.Operation{
				Type:        model.OperationType(opType),
				Amount:      args[0],
				AccountID:   accountID,
				CategoryID:  optionalID(categoryID),
				ToAccountID: optionalID(toAccountID),
				Date:        date,
				Description: description,
			}
			if destinationAmount != "" {
				op.DestinationAmount = &destinationAmount
			}

			result, err := eng.ledger.Create(ctx, op)
			if err != nil {
				return renderError(err)
			}

			fmt.Printf("Recorded %s %s (operation %d)\n", op.Type, op.Amount, op.ID)
			for _, skipped := range result.SkippedAccounts {
				fmt.Println(warningStyle.Render(
					fmt.Sprintf("balance update skipped: account %d not found", skipped)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opType, "type", "expense", "operation type (expense, income, transfer)")
	cmd.Flags().Int64Var(&accountID, "account", 0, "source account id")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "category id (expense/income)")
	cmd.Flags().Int64Var(&toAccountID, "to-account", 0, "destination account id (transfer)")
	cmd.Flags().StringVar(&date, "date", "", "operation date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	cmd.Flags().StringVar(&destinationAmount, "destination-amount", "", "amount credited to the destination for cross-currency transfers")
	return cmd
}

func deleteOperationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an operation and reverse its balance impact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if _, err := eng.ledger.Delete(ctx, id); err != nil {
				return renderError(err)
			}

			fmt.Printf("Deleted operation %d\n", id)
			return nil
		},
	}
}
