package core

import "math"

// Page is one page of transactions together with the backend's
// pagination metadata. When a client-side bank filter was applied the
// row count may be smaller than the requested page size, because
// filtering happens after the backend has already paginated.
type Page struct {
	Transactions []Transaction
	TotalCount   int
	TotalPages   int
}

// Summary holds the aggregate counters shown above the transaction
// table. TotalCount comes from backend metadata and is exact;
// TotalCredits and TotalDebits are computed from a capped sample (see
// SummarySampleSize) and are exact only when the full result set fits
// in the sample.
type Summary struct {
	TotalCount   int
	TotalCredits float64
	TotalDebits  float64
}

// Summarize computes credit and debit totals over a set of rows.
// Credits sum the positive amounts; debits are the absolute value of
// the summed negative amounts.
func Summarize(ts []Transaction) (credits, debits float64) {
	for _, t := range ts {
		switch {
		case t.Amount > 0:
			credits += t.Amount
		case t.Amount < 0:
			debits += t.Amount
		}
	}
	return credits, math.Abs(debits)
}

// FilterOptions lists the distinct category and bank values offered in
// filter dropdowns. Both slices are sorted. The values come from
// sampled pages, not a full scan, so rare values confined to unsampled
// pages may be missing.
type FilterOptions struct {
	Categories []string
	Banks      []string
}

// OverallSummary is the dashboard rollup served by the backend.
type OverallSummary struct {
	TotalSpends       float64
	TotalCredits      float64
	NetChange         float64
	TotalTransactions int
	FilterInfo        FilterInfo
	TopCategories     []CategoryTotal
}

// FilterInfo describes the date window the backend applied when
// computing a summary.
type FilterInfo struct {
	FromDate          string
	ToDate            string
	TotalTransactions int
}

// CategoryTotal is one row of a per-category rollup.
type CategoryTotal struct {
	Category    string
	TotalDebit  float64
	TotalCredit float64
}

// UPIAnalysis is the two-level UPI spending breakdown. Keys of
// Hierarchy are broad categories; each holds its subcategories.
type UPIAnalysis struct {
	Hierarchy map[string]UPICategory
}

// UPICategory aggregates one broad UPI category.
type UPICategory struct {
	TotalDebit    float64
	Subcategories map[string]UPISubcategory
}

// UPISubcategory aggregates one UPI subcategory.
type UPISubcategory struct {
	Count      int
	TotalDebit float64
}
