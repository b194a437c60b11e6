package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/planned"
	"github.com/spf13/cobra"
)

func plannedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "planned",
		Short: "Manage planned operations",
		Long:  `Create and execute reusable operation templates.`,
	}

	cmd.AddCommand(listPlannedCmd())
	cmd.AddCommand(addPlannedCmd())
	cmd.AddCommand(executePlannedCmd())
	cmd.AddCommand(deletePlannedCmd())

	return cmd
}

func listPlannedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List planned operations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			templates, err := eng.planned.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to get planned operations: %w", err)
			}

			if len(templates) == 0 {
				fmt.Println(infoStyle.Render("No planned operations. Use 'kasa planned add' to create one."))
				return nil
			}

			now := time.Now()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Amount"),
				headerStyle.Render("Recurring"),
				headerStyle.Render("Eligible"))
			fmt.Fprintln(w, separator(4, 24, 12, 9, 8))

			for _, template := range templates {
				eligible := "no"
				if planned.Eligible(&template, now) {
					eligible = safeStyle.Render("yes")
				}
				recurring := "no"
				if template.IsRecurring {
					recurring = "yes"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					template.ID, template.Name, template.Amount, recurring, eligible)
			}

			return nil
		},
	}
}

func addPlannedCmd() *cobra.Command {
	var (
		opType      string
		accountID   int64
		categoryID  int64
		toAccountID int64
		oneTime     bool
	)

	cmd := &cobra.Command{
		Use:   "add <name> <amount>",
		Short: "Create a planned operation template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			template := &model.PlannedOperation{
				Name:        args[0],
				Type:        model.OperationType(opType),
				Amount:      args[1],
				AccountID:   accountID,
				CategoryID:  optionalID(categoryID),
				ToAccountID: optionalID(toAccountID),
				IsRecurring: !oneTime,
			}
			if err := eng.planned.Create(ctx, template); err != nil {
				return renderError(err)
			}

			fmt.Printf("Created planned operation %d (%s)\n", template.ID, template.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&opType, "type", "expense", "operation type (expense, income, transfer)")
	cmd.Flags().Int64Var(&accountID, "account", 0, "source account id")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "category id (expense/income)")
	cmd.Flags().Int64Var(&toAccountID, "to-account", 0, "destination account id (transfer)")
	cmd.Flags().BoolVar(&oneTime, "one-time", false, "delete the template after first execution")
	return cmd
}

func executePlannedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <id>",
		Short: "Execute a planned operation for the current month",
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

			result, err := eng.planned.Execute(ctx, id, time.Now())
			if err != nil {
				if result != nil && result.Operation != nil {
					fmt.Println(warningStyle.Render(
						fmt.Sprintf("operation %d was created; see error below", result.Operation.ID)))
				}
				return renderError(err)
			}

			if result.AlreadyExecuted {
				fmt.Println(infoStyle.Render("Already executed this month; nothing to do."))
				return nil
			}

			fmt.Printf("Executed planned operation %d (ledger operation %d)\n", id, result.Operation.ID)
			if result.Consumed {
				fmt.Println(infoStyle.Render("One-time template removed."))
			}
			return nil
		},
	}
}

func deletePlannedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a planned operation template",
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

			if err := eng.planned.Delete(ctx, id); err != nil {
				return renderError(err)
			}

			fmt.Printf("Deleted planned operation %d\n", id)
			return nil
		},
	}
}
