package core

import (
	"math"
	"sort"
	"strings"
)

// SortTransactions orders ts in place by the given field and order.
// The sort is stable, so rows that compare equal keep the order the
// backend returned them in.
//
// Comparison rules:
//   - date: calendar-date ordering
//   - description, category, bank: case-insensitive lexicographic
//   - amount: by absolute value, so a -500 debit outranks a +100 credit
//   - balance: raw signed value
//
// Missing values compare as the field's zero/empty equivalent. An
// unknown field leaves the slice untouched.
func SortTransactions(ts []Transaction, field SortField, order SortOrder) {
	less := lessFunc(field)
	if less == nil {
		return
	}
	sort.SliceStable(ts, func(i, j int) bool {
		if order == Ascending {
			return less(ts[i], ts[j])
		}
		return less(ts[j], ts[i])
	})
}

func lessFunc(field SortField) func(a, b Transaction) bool {
	switch field {
	case SortByDate:
		return func(a, b Transaction) bool {
			ad, bd := dateOnly(a), dateOnly(b)
			return ad.Before(bd)
		}
	case SortByDescription:
		return func(a, b Transaction) bool {
			return strings.ToLower(a.Description) < strings.ToLower(b.Description)
		}
	case SortByCategory:
		return func(a, b Transaction) bool {
			return strings.ToLower(a.Category) < strings.ToLower(b.Category)
		}
	case SortByBank:
		return func(a, b Transaction) bool {
			return strings.ToLower(a.Bank) < strings.ToLower(b.Bank)
		}
	case SortByAmount:
		return func(a, b Transaction) bool {
			return math.Abs(a.Amount) < math.Abs(b.Amount)
		}
	case SortByBalance:
		return func(a, b Transaction) bool {
			return a.Balance < b.Balance
		}
	default:
		return nil
	}
}

func dateOnly(t Transaction) Date {
	y, m, d := t.Date.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// Date is a calendar date without a time-of-day component, used only
// for ordering.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Before reports whether d is an earlier calendar date than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}
