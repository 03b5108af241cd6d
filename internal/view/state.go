// Package view owns the filter/sort/pagination state behind the
// transaction table and keeps it in sync with the backend: criteria
// changes trigger a paired page+summary fetch, search input is
// debounced, and late results from superseded fetches are dropped.
package view

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bankview/internal/core"
	"bankview/internal/log"
)

// DefaultSearchDebounce is the quiet period applied to search-term
// changes before a fetch is issued.
const DefaultSearchDebounce = 300 * time.Millisecond

// TransactionSource is the slice of the backend client the view needs.
type TransactionSource interface {
	FetchPage(ctx context.Context, analysisID string, criteria core.Criteria) (core.Page, error)
	FetchSummary(ctx context.Context, analysisID string, criteria core.Criteria) (core.Summary, error)
}

// Snapshot is one consistent view of the loaded data. Either Loading
// is true, or Err is set and Transactions is empty, or the fields hold
// the latest loaded page and aggregates.
type Snapshot struct {
	Transactions []core.Transaction
	TotalPages   int
	TotalCount   int
	TotalCredits float64
	TotalDebits  float64
	Loading      bool
	Err          error
}

// Options tunes a State. Zero values select defaults.
type Options struct {
	PageSize       int
	SearchDebounce time.Duration
}

// State holds the current criteria and snapshot for one analysis.
// All methods are safe for concurrent use.
type State struct {
	source         TransactionSource
	analysisID     string
	searchDebounce time.Duration
	logger         *log.Logger

	mu       sync.Mutex
	criteria core.Criteria
	snap     Snapshot
	gen      uint64

	debounce debounceTimer
	changes  chan struct{}
}

// New creates a view state with default options. An empty analysisID
// is allowed; every load then settles into the no-active-analysis
// state without touching the network.
func New(source TransactionSource, analysisID string) *State {
	return NewWithOptions(source, analysisID, Options{})
}

// NewWithOptions creates a view state with explicit options.
func NewWithOptions(source TransactionSource, analysisID string, opts Options) *State {
	if opts.PageSize <= 0 {
		opts.PageSize = core.DefaultPageSize
	}
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = DefaultSearchDebounce
	}

	criteria := core.DefaultCriteria()
	criteria.PageSize = opts.PageSize

	return &State{
		source:         source,
		analysisID:     analysisID,
		searchDebounce: opts.SearchDebounce,
		logger:         log.New(log.Config{Component: log.ComponentView}),
		criteria:       criteria,
		snap:           Snapshot{Loading: true, TotalPages: 1},
		changes:        make(chan struct{}, 1),
	}
}

// Snapshot returns the current snapshot.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Criteria returns the current query criteria.
func (s *State) Criteria() core.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// Changes signals whenever a new snapshot is published. Notifications
// coalesce; consumers re-read Snapshot after each receive.
func (s *State) Changes() <-chan struct{} {
	return s.changes
}

// CriteriaUpdate is a partial change to the current criteria. Nil
// fields are left untouched. Any update that does not explicitly set
// Page resets pagination to the first page, since changed filters
// invalidate the old position.
type CriteriaUpdate struct {
	SearchTerm      *string
	Category        *string
	TransactionType *core.TransactionType
	Bank            *string
	SortField       *core.SortField
	SortOrder       *core.SortOrder
	Page            *int
}

// searchOnly reports whether the update touches nothing but the search
// term. Only such updates are debounced.
func (u CriteriaUpdate) searchOnly() bool {
	return u.SearchTerm != nil &&
		u.Category == nil && u.TransactionType == nil && u.Bank == nil &&
		u.SortField == nil && u.SortOrder == nil && u.Page == nil
}

// UpdateCriteria merges the partial update and schedules a reload:
// debounced for search-term typing, immediate for everything else. An
// immediate change cancels any pending debounced fetch.
func (s *State) UpdateCriteria(ctx context.Context, u CriteriaUpdate) {
	s.mu.Lock()
	if u.SearchTerm != nil {
		s.criteria.SearchTerm = *u.SearchTerm
	}
	if u.Category != nil {
		s.criteria.Category = *u.Category
	}
	if u.TransactionType != nil {
		s.criteria.TransactionType = *u.TransactionType
	}
	if u.Bank != nil {
		s.criteria.Bank = *u.Bank
	}
	if u.SortField != nil {
		s.criteria.SortField = *u.SortField
	}
	if u.SortOrder != nil {
		s.criteria.SortOrder = *u.SortOrder
	}
	if u.Page != nil {
		s.criteria.Page = *u.Page
	} else {
		s.criteria.Page = 1
	}
	s.mu.Unlock()

	if u.searchOnly() {
		s.debounce.Schedule(s.searchDebounce, func() { s.reload(ctx) })
		return
	}
	s.debounce.Cancel()
	s.reload(ctx)
}

// ClearCriteria resets every filter to its default and reloads.
func (s *State) ClearCriteria(ctx context.Context) {
	s.mu.Lock()
	pageSize := s.criteria.PageSize
	s.criteria = core.DefaultCriteria()
	s.criteria.PageSize = pageSize
	s.mu.Unlock()

	s.debounce.Cancel()
	s.reload(ctx)
}

// Refresh reloads with the current criteria. It doubles as the initial
// load and as the manual retry after a failure.
func (s *State) Refresh(ctx context.Context) {
	s.debounce.Cancel()
	s.reload(ctx)
}

// reload starts a new fetch generation. The page fetch and the summary
// fetch run concurrently and both must settle before a snapshot is
// published. A fetch that was superseded by a newer one publishes
// nothing.
func (s *State) reload(ctx context.Context) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	criteria := s.criteria

	if s.analysisID == "" {
		s.snap = Snapshot{Err: core.ErrNoActiveAnalysis, TotalPages: 1}
		s.mu.Unlock()
		s.notify()
		return
	}

	s.snap.Loading = true
	s.snap.Err = nil
	s.mu.Unlock()
	s.notify()

	go func() {
		var (
			page    core.Page
			summary core.Summary
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			page, err = s.source.FetchPage(gctx, s.analysisID, criteria)
			return err
		})
		g.Go(func() error {
			var err error
			summary, err = s.source.FetchSummary(gctx, s.analysisID, criteria)
			return err
		})

		if err := g.Wait(); err != nil {
			s.logger.WarnContext(ctx, "Transaction load failed",
				log.FieldAnalysisID, s.analysisID,
				log.FieldError, err)
			s.publish(gen, Snapshot{Err: err, TotalPages: 1})
			return
		}

		totalPages := page.TotalPages
		if totalPages < 1 {
			totalPages = 1
		}
		s.publish(gen, Snapshot{
			Transactions: page.Transactions,
			TotalPages:   totalPages,
			TotalCount:   summary.TotalCount,
			TotalCredits: summary.TotalCredits,
			TotalDebits:  summary.TotalDebits,
		})
	}()
}

// publish installs a snapshot unless a newer fetch generation has been
// started since, which suppresses stale results.
func (s *State) publish(gen uint64, snap Snapshot) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.snap = snap
	s.mu.Unlock()
	s.notify()
}

func (s *State) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
