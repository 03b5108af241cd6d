package client

import (
	"encoding/json"
	"strings"
	"time"

	"bankview/internal/core"
)

// Wire payloads for the analysis backend's JSON responses. The backend
// has gone through several response shapes, so decoding is confined to
// this file and everything past it sees core types only.

// flexID tolerates ids arriving as either JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type transactionPayload struct {
	ID          flexID   `json:"id"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Bank        string   `json:"bank"`
	Amount      float64  `json:"amount"`
	Balance     *float64 `json:"balance"`
}

func (p transactionPayload) toTransaction() core.Transaction {
	t := core.Transaction{
		ID:          string(p.ID),
		Date:        parseDate(p.Date),
		Description: p.Description,
		Category:    p.Category,
		Bank:        p.Bank,
		Amount:      p.Amount,
	}
	if p.Balance != nil {
		t.Balance = *p.Balance
	}
	return t
}

// parseDate accepts the date formats seen across backend versions.
// An unparseable date becomes the zero time, which sorts first.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, time.RFC3339, "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type transactionListPayload struct {
	Transactions []transactionPayload `json:"transactions"`
	TotalCount   int                  `json:"total_count"`
	TotalPages   int                  `json:"total_pages"`
}

func (p transactionListPayload) toPage() core.Page {
	rows := make([]core.Transaction, 0, len(p.Transactions))
	for _, tp := range p.Transactions {
		rows = append(rows, tp.toTransaction())
	}
	return core.Page{
		Transactions: rows,
		TotalCount:   p.TotalCount,
		TotalPages:   p.TotalPages,
	}
}

type errorPayload struct {
	Detail string `json:"detail"`
}

type uploadPayload struct {
	AnalysisID flexID `json:"analysis_id"`
	Message    string `json:"message"`
}

// categoryRowPayload matches the spreadsheet-style column names the
// backend emits in its rollups.
type categoryRowPayload struct {
	Category    string  `json:"Category"`
	TotalDebit  float64 `json:"Total Debit"`
	TotalCredit float64 `json:"Total Credit"`
}

func (p categoryRowPayload) toCategoryTotal() core.CategoryTotal {
	return core.CategoryTotal{
		Category:    p.Category,
		TotalDebit:  p.TotalDebit,
		TotalCredit: p.TotalCredit,
	}
}

type overallSummaryPayload struct {
	OverallSummary struct {
		TotalSpends       float64 `json:"Total Spends (Debits)"`
		TotalCredits      float64 `json:"Total Credits"`
		NetChange         float64 `json:"Net Change"`
		TotalTransactions int     `json:"Total Transactions"`
	} `json:"overall_summary"`
	FilterInfo struct {
		FromDate          string `json:"from_date"`
		ToDate            string `json:"to_date"`
		TotalTransactions int    `json:"total_transactions"`
	} `json:"filter_info"`
	TopCategories []categoryRowPayload `json:"top_categories"`
}

func (p overallSummaryPayload) toOverallSummary() core.OverallSummary {
	top := make([]core.CategoryTotal, 0, len(p.TopCategories))
	for _, row := range p.TopCategories {
		top = append(top, row.toCategoryTotal())
	}
	return core.OverallSummary{
		TotalSpends:       p.OverallSummary.TotalSpends,
		TotalCredits:      p.OverallSummary.TotalCredits,
		NetChange:         p.OverallSummary.NetChange,
		TotalTransactions: p.OverallSummary.TotalTransactions,
		FilterInfo: core.FilterInfo{
			FromDate:          p.FilterInfo.FromDate,
			ToDate:            p.FilterInfo.ToDate,
			TotalTransactions: p.FilterInfo.TotalTransactions,
		},
		TopCategories: top,
	}
}

// categorySummaryPayload carries the doubly-nested category_summary
// shape the backend serves.
type categorySummaryPayload struct {
	CategorySummary struct {
		CategorySummary []categoryRowPayload `json:"category_summary"`
	} `json:"category_summary"`
}

func (p categorySummaryPayload) toCategoryTotals() []core.CategoryTotal {
	out := make([]core.CategoryTotal, 0, len(p.CategorySummary.CategorySummary))
	for _, row := range p.CategorySummary.CategorySummary {
		out = append(out, row.toCategoryTotal())
	}
	return out
}

type upiSubcategoryPayload struct {
	Count      int     `json:"count"`
	TotalDebit float64 `json:"total_debit"`
}

type upiCategoryPayload struct {
	TotalDebit    float64                          `json:"total_debit"`
	Subcategories map[string]upiSubcategoryPayload `json:"subcategories"`
}

type upiAnalysisPayload struct {
	UPIAnalysis struct {
		Hierarchy map[string]upiCategoryPayload `json:"upi_hierarchy"`
	} `json:"upi_analysis"`
}

func (p upiAnalysisPayload) toUPIAnalysis() core.UPIAnalysis {
	hierarchy := make(map[string]core.UPICategory, len(p.UPIAnalysis.Hierarchy))
	for name, cat := range p.UPIAnalysis.Hierarchy {
		subs := make(map[string]core.UPISubcategory, len(cat.Subcategories))
		for sub, s := range cat.Subcategories {
			subs[sub] = core.UPISubcategory{Count: s.Count, TotalDebit: s.TotalDebit}
		}
		hierarchy[name] = core.UPICategory{TotalDebit: cat.TotalDebit, Subcategories: subs}
	}
	return core.UPIAnalysis{Hierarchy: hierarchy}
}
