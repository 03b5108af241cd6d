package core

import (
	"errors"
	"fmt"
	"time"
)

// All is the sentinel meaning "no filter" for category, bank and
// transaction type.
const All = "all"

const (
	DefaultPageSize = 50

	// SummarySampleSize is the page size used when approximating totals
	// without a dedicated aggregation endpoint. Result sets larger than
	// this under-report credit/debit totals; see Summarize.
	SummarySampleSize = 1000
)

var (
	// ErrNoActiveAnalysis is returned when no analysis id has been stored
	// yet, i.e. nothing has been uploaded.
	ErrNoActiveAnalysis = errors.New("no active analysis")
)

type (
	TransactionType string
	SortField       string
	SortOrder       string
)

const (
	TypeAll    TransactionType = All
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

const (
	SortByDate        SortField = "date"
	SortByDescription SortField = "description"
	SortByCategory    SortField = "category"
	SortByBank        SortField = "bank"
	SortByAmount      SortField = "amount"
	SortByBalance     SortField = "balance"
)

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// IsValid returns true if the transaction type is known.
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeAll, TypeCredit, TypeDebit:
		return true
	default:
		return false
	}
}

// IsValid returns true if the sort field is known.
func (f SortField) IsValid() bool {
	switch f {
	case SortByDate, SortByDescription, SortByCategory, SortByBank, SortByAmount, SortByBalance:
		return true
	default:
		return false
	}
}

// IsValid returns true if the sort order is known.
func (o SortOrder) IsValid() bool {
	return o == Ascending || o == Descending
}

// Transaction is a single statement row as produced by the analysis
// backend. The sign of Amount is authoritative: positive means credit
// (inflow), negative means debit (outflow). Balance is the running
// account balance after the transaction and is zero when the statement
// did not carry one.
type Transaction struct {
	ID          string
	Date        time.Time
	Description string
	Category    string
	Bank        string
	Amount      float64
	Balance     float64
}

// IsCredit reports whether the transaction is an inflow.
func (t Transaction) IsCredit() bool { return t.Amount > 0 }

// IsDebit reports whether the transaction is an outflow.
func (t Transaction) IsDebit() bool { return t.Amount < 0 }

// Criteria holds the filter, sort and pagination state for a
// transaction query. Zero-valued string filters and the All sentinel
// both mean "unfiltered". The struct is JSON-serializable so it can
// travel inside export job messages.
type Criteria struct {
	SearchTerm      string          `json:"search_term,omitempty"`
	Category        string          `json:"category,omitempty"`
	TransactionType TransactionType `json:"transaction_type,omitempty"`
	Bank            string          `json:"bank,omitempty"`
	SortField       SortField       `json:"sort_field,omitempty"`
	SortOrder       SortOrder       `json:"sort_order,omitempty"`
	Page            int             `json:"page,omitempty"`
	PageSize        int             `json:"page_size,omitempty"`
}

// DefaultCriteria returns the initial query state: unfiltered, newest
// first, first page.
func DefaultCriteria() Criteria {
	return Criteria{
		Category:        All,
		TransactionType: TypeAll,
		Bank:            All,
		SortField:       SortByDate,
		SortOrder:       Descending,
		Page:            1,
		PageSize:        DefaultPageSize,
	}
}

// Validate checks that the criteria can be turned into a backend query.
func (c Criteria) Validate() error {
	if c.Page < 1 {
		return fmt.Errorf("invalid page %d: must be at least 1", c.Page)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("invalid page size %d: must be at least 1", c.PageSize)
	}
	if c.TransactionType != "" && !c.TransactionType.IsValid() {
		return fmt.Errorf("invalid transaction type %q", c.TransactionType)
	}
	if c.SortField != "" && !c.SortField.IsValid() {
		return fmt.Errorf("invalid sort field %q", c.SortField)
	}
	if c.SortOrder != "" && !c.SortOrder.IsValid() {
		return fmt.Errorf("invalid sort order %q", c.SortOrder)
	}
	return nil
}

// HasCategory reports whether a category filter is set.
func (c Criteria) HasCategory() bool { return c.Category != "" && c.Category != All }

// HasBank reports whether a bank filter is set.
func (c Criteria) HasBank() bool { return c.Bank != "" && c.Bank != All }

// HasType reports whether a credit/debit filter is set.
func (c Criteria) HasType() bool {
	return c.TransactionType != "" && c.TransactionType != TypeAll
}

// FetchError reports a failed backend request. Message carries the
// backend's own detail text when one was present in the response body.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("fetch failed: %s", e.Message)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch failed: backend returned status %d", e.StatusCode)
	}
	return "fetch failed"
}
