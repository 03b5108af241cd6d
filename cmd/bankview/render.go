package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"bankview/internal/core"
	"bankview/internal/view"
)

func renderTransactions(w io.Writer, snap view.Snapshot, page int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tCATEGORY\tBANK\tAMOUNT\tBALANCE")
	for _, t := range snap.Transactions {
		date := ""
		if !t.Date.IsZero() {
			date = t.Date.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.2f\n",
			date, truncate(t.Description, 48), t.Category, t.Bank, t.Amount, t.Balance)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nPage %d of %d | %d transactions | credits %.2f | debits %.2f\n",
		page, snap.TotalPages, snap.TotalCount, snap.TotalCredits, snap.TotalDebits)
}

func renderFilterOptions(w io.Writer, options core.FilterOptions) {
	fmt.Fprintf(w, "\nCategories: %s\n", joinOrNone(options.Categories))
	fmt.Fprintf(w, "Banks:      %s\n", joinOrNone(options.Banks))
}

func renderDashboard(w io.Writer, summary core.OverallSummary) {
	fmt.Fprintf(w, "Total Spends:       %.2f\n", summary.TotalSpends)
	fmt.Fprintf(w, "Total Credits:      %.2f\n", summary.TotalCredits)
	fmt.Fprintf(w, "Net Change:         %.2f\n", summary.NetChange)
	fmt.Fprintf(w, "Total Transactions: %d\n", summary.TotalTransactions)
	if summary.FilterInfo.FromDate != "" || summary.FilterInfo.ToDate != "" {
		fmt.Fprintf(w, "Period:             %s to %s\n", summary.FilterInfo.FromDate, summary.FilterInfo.ToDate)
	}

	if len(summary.TopCategories) > 0 {
		fmt.Fprintln(w, "\nTop categories:")
		renderCategories(w, summary.TopCategories)
	}
}

func renderCategories(w io.Writer, rows []core.CategoryTotal) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tDEBIT\tCREDIT")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n", row.Category, row.TotalDebit, row.TotalCredit)
	}
	tw.Flush()
}

func renderUPI(w io.Writer, analysis core.UPIAnalysis) {
	if len(analysis.Hierarchy) == 0 {
		fmt.Fprintln(w, "No UPI transactions found")
		return
	}

	names := make([]string, 0, len(analysis.Hierarchy))
	for name := range analysis.Hierarchy {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return analysis.Hierarchy[names[i]].TotalDebit > analysis.Hierarchy[names[j]].TotalDebit
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range names {
		category := analysis.Hierarchy[name]
		fmt.Fprintf(tw, "%s\t%.2f\t\n", name, category.TotalDebit)

		subNames := make([]string, 0, len(category.Subcategories))
		for sub := range category.Subcategories {
			subNames = append(subNames, sub)
		}
		sort.Slice(subNames, func(i, j int) bool {
			return category.Subcategories[subNames[i]].TotalDebit > category.Subcategories[subNames[j]].TotalDebit
		})
		for _, sub := range subNames {
			detail := category.Subcategories[sub]
			fmt.Fprintf(tw, "  %s\t%.2f\t%d txns\n", sub, detail.TotalDebit, detail.Count)
		}
	}
	tw.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-1]) + "…"
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
