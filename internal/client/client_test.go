package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankview/internal/cache"
	"bankview/internal/core"
)

func newOptionsCache() *cache.LRUCache[core.FilterOptions] {
	return cache.NewLRUCache[core.FilterOptions](16, time.Hour)
}

type wireTx struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Bank        string  `json:"bank"`
	Amount      float64 `json:"amount"`
	Balance     float64 `json:"balance"`
}

func writeList(w http.ResponseWriter, txs []wireTx, totalCount, totalPages int) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"transactions": txs,
		"total_count":  totalCount,
		"total_pages":  totalPages,
	})
}

func TestFetchPage_QueryParameters(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions/abc123", r.URL.Path)
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		writeList(w, nil, 0, 0)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())
	criteria := core.DefaultCriteria()
	criteria.Page = 3
	criteria.PageSize = 25
	criteria.Category = "Food"
	criteria.TransactionType = core.TypeDebit
	criteria.SearchTerm = "  swiggy  "
	criteria.Bank = "HDFC" // must not reach the backend

	_, err := c.FetchPage(context.Background(), "abc123", criteria)
	require.NoError(t, err)

	assert.Equal(t, "3", gotQuery["page"])
	assert.Equal(t, "25", gotQuery["page_size"])
	assert.Equal(t, "Food", gotQuery["category"])
	assert.Equal(t, "debit", gotQuery["transaction_type"])
	assert.Equal(t, "swiggy", gotQuery["search"], "search should be trimmed")
	_, hasBank := gotQuery["bank"]
	assert.False(t, hasBank, "bank filter is client-side only")
}

func TestFetchPage_SentinelsOmitted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.False(t, q.Has("category"))
		assert.False(t, q.Has("transaction_type"))
		assert.False(t, q.Has("search"))
		writeList(w, nil, 0, 0)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())
	_, err := c.FetchPage(context.Background(), "abc123", core.DefaultCriteria())
	require.NoError(t, err)
}

func TestFetchPage_DefaultsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("page_size"))
		writeList(w, nil, 0, 0)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())
	_, err := c.FetchPage(context.Background(), "abc123", core.Criteria{})
	require.NoError(t, err)
}

func TestFetchPage_BankFilterShrinksPage(t *testing.T) {
	rows := make([]wireTx, 0, 50)
	for i := 0; i < 50; i++ {
		bank := "ICICI"
		if i < 20 {
			bank = "HDFC"
		}
		rows = append(rows, wireTx{
			ID:     fmt.Sprintf("t%d", i),
			Date:   "2024-01-15",
			Bank:   bank,
			Amount: -100,
		})
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeList(w, rows, 200, 4)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())
	criteria := core.DefaultCriteria()
	criteria.Bank = "HDFC"

	page, err := c.FetchPage(context.Background(), "abc123", criteria)
	require.NoError(t, err)

	// Filtering happens after pagination, so the page shrinks below the
	// requested size instead of being refilled.
	assert.Len(t, page.Transactions, 20)
	for _, tx := range page.Transactions {
		assert.Equal(t, "HDFC", tx.Bank)
	}
	assert.Equal(t, 200, page.TotalCount)
	assert.Equal(t, 4, page.TotalPages)
}

func TestFetchPage_SortsClientSide(t *testing.T) {
	rows := []wireTx{
		{ID: "credit", Date: "2024-01-01", Amount: 100},
		{ID: "bigdebit", Date: "2024-01-02", Amount: -500},
		{ID: "smalldebit", Date: "2024-01-03", Amount: -50},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeList(w, rows, 3, 1)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())
	criteria := core.DefaultCriteria()
	criteria.SortField = core.SortByAmount
	criteria.SortOrder = core.Descending

	page, err := c.FetchPage(context.Background(), "abc123", criteria)
	require.NoError(t, err)

	// Amount sorts by absolute value: the -500 debit outranks the +100
	// credit.
	require.Len(t, page.Transactions, 3)
	assert.Equal(t, "bigdebit", page.Transactions[0].ID)
	assert.Equal(t, "credit", page.Transactions[1].ID)
	assert.Equal(t, "smalldebit", page.Transactions[2].ID)
}

func TestFetchPage_RejectsBadCriteria(t *testing.T) {
	c := New("http://localhost:0", newOptionsCache())

	_, err := c.FetchPage(context.Background(), "abc123", core.Criteria{Page: -1, PageSize: 50})
	require.Error(t, err)

	_, err = c.FetchPage(context.Background(), "abc123", core.Criteria{Page: 1, PageSize: 10, SortField: "nope"})
	require.Error(t, err)
}

func TestFetchPage_BackendErrorSurfacesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Analysis not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())
	_, err := c.FetchPage(context.Background(), "gone", core.DefaultCriteria())

	var fe *core.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Contains(t, fe.Error(), "Analysis not found")
}

func TestFetchSummary_CapUndercountsLargeResultSets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "1000", r.URL.Query().Get("page_size"))

		// 1500 debit rows exist; the backend caps the page at 1000.
		rows := make([]wireTx, 0, 1000)
		for i := 0; i < 1000; i++ {
			rows = append(rows, wireTx{ID: fmt.Sprintf("t%d", i), Date: "2024-01-01", Amount: -100})
		}
		writeList(w, rows, 1500, 2)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())
	sum, err := c.FetchSummary(context.Background(), "abc123", core.DefaultCriteria())
	require.NoError(t, err)

	assert.Equal(t, 1500, sum.TotalCount, "count comes from metadata and stays exact")
	assert.Equal(t, float64(100000), sum.TotalDebits, "totals only cover the sampled 1000 rows")
	assert.Equal(t, float64(0), sum.TotalCredits)
}

func TestFetchSummary_MixedAmounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeList(w, []wireTx{
			{ID: "a", Amount: 1000},
			{ID: "b", Amount: -400},
			{ID: "c", Amount: 250},
		}, 3, 1)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())
	sum, err := c.FetchSummary(context.Background(), "abc123", core.DefaultCriteria())
	require.NoError(t, err)

	assert.Equal(t, float64(1250), sum.TotalCredits)
	assert.Equal(t, float64(400), sum.TotalDebits)
}

func TestFetchFilterOptions_SamplesAndCaches(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		page := r.URL.Query().Get("page")
		var rows []wireTx
		switch page {
		case "1":
			rows = []wireTx{
				{ID: "a", Category: "Food", Bank: "HDFC"},
				{ID: "b", Category: "Travel", Bank: "ICICI"},
			}
		case "5":
			rows = []wireTx{{ID: "c", Category: "Rent", Bank: "HDFC"}}
		case "10":
			rows = []wireTx{{ID: "d", Category: "food", Bank: "SBI"}}
		}
		writeList(w, rows, 1000, 10)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())

	opts, err := c.FetchFilterOptions(context.Background(), "abc123")
	require.NoError(t, err)

	// Probe plus three sampled pages (1, 5, 10).
	assert.Equal(t, int64(4), calls.Load())
	assert.Equal(t, []string{"Food", "Rent", "Travel", "food"}, opts.Categories)
	assert.Equal(t, []string{"HDFC", "ICICI", "SBI"}, opts.Banks)

	// Second call is served from the cache.
	again, err := c.FetchFilterOptions(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, opts, again)
	assert.Equal(t, int64(4), calls.Load(), "cache hit must not issue network calls")
}

func TestFetchFilterOptions_SinglePageDataset(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeList(w, []wireTx{{ID: "a", Category: "Food", Bank: "HDFC"}}, 1, 1)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())
	opts, err := c.FetchFilterOptions(context.Background(), "abc123")
	require.NoError(t, err)

	// Probe plus one sample page; first, middle and last all collapse
	// to page 1.
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, []string{"Food"}, opts.Categories)
}

func TestFetchFilterOptions_DegradesToEmptyOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())
	opts, err := c.FetchFilterOptions(context.Background(), "abc123")

	require.NoError(t, err, "sampling failures are not surfaced as errors")
	assert.Empty(t, opts.Categories)
	assert.Empty(t, opts.Banks)
}

func TestFetchFilterOptions_FailuresAreNotCached(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeList(w, []wireTx{{ID: "a", Category: "Food", Bank: "HDFC"}}, 1, 1)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())

	opts, err := c.FetchFilterOptions(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Empty(t, opts.Categories)

	opts, err = c.FetchFilterOptions(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"Food"}, opts.Categories, "retry after failure should sample again")
}

func TestInvalidateFilterOptions(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeList(w, []wireTx{{ID: "a", Category: "Food", Bank: "HDFC"}}, 1, 1)
	}))
	defer srv.Close()

	c := New(srv.URL, newOptionsCache())

	_, err := c.FetchFilterOptions(context.Background(), "abc123")
	require.NoError(t, err)
	sampled := calls.Load()

	c.InvalidateFilterOptions("abc123")

	_, err = c.FetchFilterOptions(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Greater(t, calls.Load(), sampled, "invalidation should force a fresh sample")
}
