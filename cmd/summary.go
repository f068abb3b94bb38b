// =============================================================================
// catatkeu - Summary Command
// =============================================================================
//
// This file defines the 'summary' command, which prints the dashboard totals
// of the stored records.
//
// COMMAND USAGE:
//   catatkeu summary
//
// OUTPUT:
//   Hutang        2 records   Rp151.200.000,00 total   Rp1.250.000,00 paid   ...
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/spf13/cobra"

	"github.com/catatkeu/catatkeu/internal/storage"
	"github.com/catatkeu/catatkeu/internal/types"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show dashboard totals of the stored records",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.New(appConfig.Database, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		s, err := store.Summary(cmd.Context())
		if err != nil {
			return err
		}

		writeSummary(cmd.OutOrStdout(), s)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

// writeSummary prints the dashboard block.
func writeSummary(w io.Writer, s types.Summary) {
	fmt.Fprintln(w, "=== catatkeu summary ===")
	fmt.Fprintf(w, "Hutang:       %d records, total %s, paid %s, outstanding %s\n",
		s.DebtCount, formatIDR(s.DebtTotal), formatIDR(s.DebtPaid), formatIDR(s.DebtOutstanding()))
	fmt.Fprintf(w, "Piutang:      %d records, total %s, received %s, outstanding %s\n",
		s.ReceivableCount, formatIDR(s.ReceivableTotal), formatIDR(s.ReceivablePaid), formatIDR(s.ReceivableOutstanding()))
	fmt.Fprintf(w, "Pemasukan:    %s\n", formatIDR(s.IncomeTotal))
	fmt.Fprintf(w, "Pengeluaran:  %s\n", formatIDR(s.ExpenseTotal))
	fmt.Fprintf(w, "Saldo:        %s\n", formatIDR(s.Balance()))
	fmt.Fprintf(w, "Maintenance:  %d records", s.MaintenanceCount)
	if s.NextServiceOdometer > 0 {
		fmt.Fprintf(w, ", next service at %d km", s.NextServiceOdometer)
	}
	fmt.Fprintln(w)
}

// formatIDR renders whole rupiah with go-money's IDR formatting.
func formatIDR(rupiah int64) string {
	factor := int64(1)
	if cur := money.GetCurrency(money.IDR); cur != nil {
		factor = int64(math.Pow10(cur.Fraction))
	}
	return money.New(rupiah*factor, money.IDR).Display()
}
