package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"bankview/internal/cache"
	"bankview/internal/core"
	"bankview/internal/log"
)

const (
	defaultTimeout = 30 * time.Second

	// Filter option sampling: one probe page to learn the page count,
	// then up to three sample pages across the dataset.
	optionsProbeSize  = 100
	optionsSampleSize = 200
)

// Client talks to the analysis backend. Filters the backend does not
// support (bank) and the full sort contract are finished client-side,
// so a page returned under a bank filter may hold fewer rows than the
// requested page size.
type Client struct {
	httpClient *http.Client
	baseURL    string
	options    cache.Cache[core.FilterOptions]
	logger     *log.Logger
}

// New creates a backend client. The cache holds sampled filter options
// per analysis id and is injected so callers control its lifetime.
func New(baseURL string, options cache.Cache[core.FilterOptions]) *Client {
	return NewWithHTTPClient(baseURL, options, &http.Client{Timeout: defaultTimeout})
}

// NewWithHTTPClient creates a backend client with a caller-supplied
// HTTP client.
func NewWithHTTPClient(baseURL string, options cache.Cache[core.FilterOptions], httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		options:    options,
		logger:     log.New(log.Config{Component: log.ComponentClient}),
	}
}

// FetchPage returns one page of transactions for the given criteria.
// analysisID must be non-empty; callers resolve the active analysis
// before reaching this layer.
func (c *Client) FetchPage(ctx context.Context, analysisID string, criteria core.Criteria) (core.Page, error) {
	if criteria.Page == 0 {
		criteria.Page = 1
	}
	if criteria.PageSize == 0 {
		criteria.PageSize = core.DefaultPageSize
	}
	if err := criteria.Validate(); err != nil {
		return core.Page{}, err
	}

	payload, err := c.fetchTransactions(ctx, analysisID, criteria)
	if err != nil {
		return core.Page{}, err
	}

	page := payload.toPage()

	// The backend has no bank column in its query surface, so the bank
	// filter runs after pagination.
	if criteria.HasBank() {
		page.Transactions = filterByBank(page.Transactions, criteria.Bank)
	}

	if criteria.SortField != "" {
		order := criteria.SortOrder
		if order == "" {
			order = core.Descending
		}
		core.SortTransactions(page.Transactions, criteria.SortField, order)
	}

	return page, nil
}

// FetchSummary approximates aggregate totals for the given filters by
// pulling one oversized page. TotalCount comes from backend metadata
// and is exact; the credit/debit totals are exact only when the result
// set fits within core.SummarySampleSize rows.
func (c *Client) FetchSummary(ctx context.Context, analysisID string, criteria core.Criteria) (core.Summary, error) {
	criteria.Page = 1
	criteria.PageSize = core.SummarySampleSize
	criteria.SortField = ""
	criteria.SortOrder = ""

	page, err := c.FetchPage(ctx, analysisID, criteria)
	if err != nil {
		return core.Summary{}, err
	}

	credits, debits := core.Summarize(page.Transactions)
	return core.Summary{
		TotalCount:   page.TotalCount,
		TotalCredits: credits,
		TotalDebits:  debits,
	}, nil
}

// FetchFilterOptions returns the distinct category and bank values for
// an analysis, for building filter dropdowns. Results are cached per
// analysis id; on a miss the dataset is sampled (first, middle and last
// pages) rather than scanned, so rare values can be missing. Sampling
// failures degrade to empty options instead of an error.
func (c *Client) FetchFilterOptions(ctx context.Context, analysisID string) (core.FilterOptions, error) {
	key := optionsCacheKey(analysisID)
	if opts, ok := c.options.Get(key); ok {
		return opts, nil
	}

	probe, err := c.fetchTransactions(ctx, analysisID, core.Criteria{Page: 1, PageSize: optionsProbeSize})
	if err != nil {
		c.logger.WarnContext(ctx, "Filter option sampling failed",
			log.FieldAnalysisID, analysisID,
			log.FieldError, err)
		return core.FilterOptions{}, nil
	}

	pages := samplePages(probe.TotalPages)

	g, ctx := errgroup.WithContext(ctx)
	sampled := make([]core.Page, len(pages))
	for i, pageNum := range pages {
		i, pageNum := i, pageNum
		g.Go(func() error {
			payload, err := c.fetchTransactions(ctx, analysisID, core.Criteria{Page: pageNum, PageSize: optionsSampleSize})
			if err != nil {
				return err
			}
			sampled[i] = payload.toPage()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.WarnContext(ctx, "Filter option sampling failed",
			log.FieldAnalysisID, analysisID,
			log.FieldError, err)
		return core.FilterOptions{}, nil
	}

	categories := make(map[string]struct{})
	banks := make(map[string]struct{})
	for _, page := range sampled {
		for _, t := range page.Transactions {
			if t.Category != "" {
				categories[t.Category] = struct{}{}
			}
			if t.Bank != "" {
				banks[t.Bank] = struct{}{}
			}
		}
	}

	opts := core.FilterOptions{
		Categories: sortedKeys(categories),
		Banks:      sortedKeys(banks),
	}
	c.options.Set(key, opts)
	return opts, nil
}

// InvalidateFilterOptions drops the cached options for one analysis.
func (c *Client) InvalidateFilterOptions(analysisID string) {
	c.options.Delete(optionsCacheKey(analysisID))
}

// ClearFilterOptions drops every cached filter option set.
func (c *Client) ClearFilterOptions() {
	c.options.Clear()
}

func optionsCacheKey(analysisID string) string {
	return "filters_" + analysisID
}

// samplePages picks up to three distinct page numbers spread across the
// dataset: first, middle, last.
func samplePages(totalPages int) []int {
	if totalPages < 1 {
		totalPages = 1
	}

	candidates := []int{1, totalPages / 2, totalPages}
	seen := make(map[int]bool)
	var pages []int
	for _, p := range candidates {
		if p < 1 || seen[p] {
			continue
		}
		seen[p] = true
		pages = append(pages, p)
	}
	return pages
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func filterByBank(ts []core.Transaction, bank string) []core.Transaction {
	filtered := make([]core.Transaction, 0, len(ts))
	for _, t := range ts {
		if t.Bank == bank {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func (c *Client) fetchTransactions(ctx context.Context, analysisID string, criteria core.Criteria) (transactionListPayload, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(criteria.Page))
	params.Set("page_size", strconv.Itoa(criteria.PageSize))
	if criteria.HasCategory() {
		params.Set("category", criteria.Category)
	}
	if criteria.HasType() {
		params.Set("transaction_type", strings.ToLower(string(criteria.TransactionType)))
	}
	if search := strings.TrimSpace(criteria.SearchTerm); search != "" {
		params.Set("search", search)
	}

	var payload transactionListPayload
	err := c.getJSON(ctx, fmt.Sprintf("/transactions/%s", url.PathEscape(analysisID)), params, &payload)
	if err != nil {
		return transactionListPayload{}, err
	}
	return payload, nil
}

// getJSON issues a GET against the backend and decodes the response
// into out. Non-2xx responses become core.FetchError carrying the
// backend's detail message when one was present.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &core.FetchError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fetchErrorFromResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &core.FetchError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func fetchErrorFromResponse(resp *http.Response) error {
	fe := &core.FetchError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fe
	}
	var ep errorPayload
	if err := json.Unmarshal(body, &ep); err == nil && ep.Detail != "" {
		fe.Message = ep.Detail
	}
	return fe
}
