package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kasaledger/kasa/internal/common"
)

func verifyCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check stored balances against the operation history",
		Long: `Replay every operation and compare the computed balance of each account
with the stored one. With --fix, drifted balances are rewritten to the
computed values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			var bar *progressbar.ProgressBar
			drifts, err := eng.ledger.Reconcile(ctx, func(done, total int) {
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetDescription("Replaying operations"),
						progressbar.OptionSetWriter(os.Stderr),
						progressbar.OptionShowCount(),
						progressbar.OptionClearOnFinish(),
					)
				}
				_ = bar.Set(done)
			})
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}

			if len(drifts) == 0 {
				fmt.Println(safeStyle.Render("All account balances match the operation history."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				headerStyle.Render("Account"),
				headerStyle.Render("Stored"),
				headerStyle.Render("Computed"))
			fmt.Fprintln(w, separator(24, 12, 12))
			for _, drift := range drifts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", drift.Name, drift.Stored, drift.Computed)
			}
			_ = w.Flush()

			if !fix {
				fmt.Println(warningStyle.Render("Run 'kasa verify --fix' to repair."))
				return fmt.Errorf("%w: %d account balance(s) drifted", common.ErrDatabaseCorrupted, len(drifts))
			}

			if err := eng.ledger.Repair(ctx, drifts); err != nil {
				return fmt.Errorf("repair failed: %w", err)
			}
			fmt.Println(safeStyle.Render(fmt.Sprintf("Repaired %d account balance(s).", len(drifts))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "rewrite drifted balances to the computed values")
	return cmd
}
