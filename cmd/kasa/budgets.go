package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/kasaledger/kasa/internal/model"
	"github.com/spf13/cobra"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage budgets",
		Long:  `Create budgets and check spending against them.`,
	}

	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(addBudgetCmd())
	cmd.AddCommand(budgetStatusCmd())
	cmd.AddCommand(deleteBudgetCmd())

	return cmd
}

func listBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			budgets, err := eng.budgets.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to get budgets: %w", err)
			}

			if len(budgets) == 0 {
				fmt.Println(infoStyle.Render("No budgets found. Use 'kasa budgets add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Category"),
				headerStyle.Render("Amount"),
				headerStyle.Render("Currency"),
				headerStyle.Render("Period"))
			fmt.Fprintln(w, separator(4, 8, 12, 8, 8))

			for _, b := range budgets {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", b.ID, b.CategoryID, b.Amount, b.Currency, b.PeriodType)
			}

			return nil
		},
	}
}

func addBudgetCmd() *cobra.Command {
	var (
		categoryID  int64
		currency    string
		periodType  string
		startDate   string
		endDate     string
		childrenOff bool
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Create a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if startDate == "" {
				startDate = time.Now().Format(model.DateLayout)
			}

			b := &model.Budget{
				CategoryID:      categoryID,
				Amount:          args[0],
				Currency:        currency,
				PeriodType:      model.PeriodType(periodType),
				StartDate:       startDate,
				IsRecurring:     true,
				IncludeChildren: !childrenOff,
			}
			if endDate != "" {
				b.EndDate = &endDate
			}

			if err := eng.budgets.Create(ctx, b); err != nil {
				return renderError(err)
			}

			fmt.Printf("Created budget %d (%s %s %s)\n", b.ID, b.Amount, b.Currency, b.PeriodType)
			return nil
		},
	}

	cmd.Flags().Int64Var(&categoryID, "category", 0, "category id")
	cmd.Flags().StringVar(&currency, "currency", "USD", "ISO 4217 currency code")
	cmd.Flags().StringVar(&periodType, "period", "monthly", "period type (weekly, monthly, yearly)")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD, empty for open-ended)")
	cmd.Flags().BoolVar(&childrenOff, "no-children", false, "track only direct entries, not subcategories")
	return cmd
}

func budgetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the status of every active budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			statuses, failures := eng.budgets.AllStatuses(ctx, time.Now())

			if len(statuses) == 0 && len(failures) == 0 {
				fmt.Println(infoStyle.Render("No active budgets."))
				return nil
			}

			ids := make([]int64, 0, len(statuses))
			for id := range statuses {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("Budget"),
				headerStyle.Render("Spent"),
				headerStyle.Render("Remaining"),
				headerStyle.Render("Used"),
				headerStyle.Render("Status"))
			fmt.Fprintln(w, separator(6, 12, 12, 8, 10))

			for _, id := range ids {
				s := statuses[id]
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f%%\t%s\n",
					s.BudgetID, s.Spent, s.Remaining, s.Percentage,
					statusStyle(s.Status).Render(string(s.Status)))
			}

			for id, failure := range failures {
				fmt.Fprintln(w, exceededStyle.Render(
					fmt.Sprintf("budget %d: %v", id, failure)))
			}

			return nil
		},
	}
}

func deleteBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget",
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

			if err := eng.budgets.Delete(ctx, id); err != nil {
				return renderError(err)
			}

			fmt.Printf("Deleted budget %d\n", id)
			return nil
		},
	}
}
