package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"bankview/internal/amqp"
	"bankview/internal/cache"
	"bankview/internal/cli"
	"bankview/internal/client"
	"bankview/internal/config"
	"bankview/internal/core"
	"bankview/internal/log"
	"bankview/internal/scope"
	"bankview/internal/view"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: bankview <command> [flags]

Commands:
  upload <file>...   Upload bank statements and make the new analysis current
  transactions       List transactions of the current analysis
  dashboard          Show the overall spending summary
  categories         Show per-category totals
  upi                Show the UPI spending breakdown
  export             Queue a spreadsheet export of the current filtered view
  scope              Show, set or clear the current analysis id

Run 'bankview <command> -h' for command flags.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	if cmd := os.Args[1]; cmd == "-h" || cmd == "--help" || cmd == "help" {
		usage()
		return
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	optionsCache := cache.NewLRUCache[core.FilterOptions](cfg.FilterCacheSize, cfg.FilterCacheTTL)
	api := client.NewWithHTTPClient(cfg.APIBaseURL, optionsCache, &http.Client{Timeout: cfg.HTTPTimeout})

	store := cli.InitScope(logger, cfg.ScopeDBPath)
	defer store.Close()

	ctx := context.Background()

	var err error
	switch cmd := os.Args[1]; cmd {
	case "upload":
		err = runUpload(ctx, api, store, os.Args[2:])
	case "transactions":
		err = runTransactions(ctx, cfg, api, store, os.Args[2:])
	case "dashboard":
		err = runDashboard(ctx, api, store)
	case "categories":
		err = runCategories(ctx, api, store)
	case "upi":
		err = runUPI(ctx, api, store)
	case "export":
		err = runExport(ctx, cfg, store, os.Args[2:])
	case "scope":
		err = runScope(ctx, store, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "bankview: unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, core.ErrNoActiveAnalysis) {
			fmt.Fprintln(os.Stderr, "bankview: no active analysis; upload statements first")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "bankview: %v\n", err)
		os.Exit(1)
	}
}

func runUpload(ctx context.Context, api *client.Client, store *scope.Store, paths []string) error {
	if len(paths) == 0 {
		return errors.New("upload: at least one statement file is required")
	}

	analysisID, err := api.Upload(ctx, paths)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	if err := store.Set(ctx, analysisID); err != nil {
		return fmt.Errorf("set current analysis: %w", err)
	}
	api.InvalidateFilterOptions(analysisID)

	fmt.Printf("Analysis %s is now current (%d file(s) uploaded)\n", analysisID, len(paths))
	return nil
}

// transactionFilters holds the flags shared by the transactions and
// export subcommands.
type transactionFilters struct {
	search   string
	category string
	txnType  string
	bank     string
	sortBy   string
	order    string
	page     int
}

func (f *transactionFilters) register(fs *flag.FlagSet) {
	fs.StringVar(&f.search, "search", "", "search term matched against descriptions")
	fs.StringVar(&f.category, "category", core.All, "category filter")
	fs.StringVar(&f.txnType, "type", core.All, "transaction type: all, credit or debit")
	fs.StringVar(&f.bank, "bank", core.All, "bank filter")
	fs.StringVar(&f.sortBy, "sort", string(core.SortByDate), "sort field: date, description, category, bank, amount or balance")
	fs.StringVar(&f.order, "order", string(core.Descending), "sort order: asc or desc")
	fs.IntVar(&f.page, "page", 1, "page number")
}

func (f *transactionFilters) criteria(pageSize int) (core.Criteria, error) {
	criteria := core.Criteria{
		SearchTerm:      strings.TrimSpace(f.search),
		Category:        f.category,
		TransactionType: core.TransactionType(strings.ToLower(f.txnType)),
		Bank:            f.bank,
		SortField:       core.SortField(strings.ToLower(f.sortBy)),
		SortOrder:       core.SortOrder(strings.ToLower(f.order)),
		Page:            f.page,
		PageSize:        pageSize,
	}
	if err := criteria.Validate(); err != nil {
		return core.Criteria{}, err
	}
	return criteria, nil
}

func runTransactions(ctx context.Context, cfg *config.Config, api *client.Client, store *scope.Store, args []string) error {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	var filters transactionFilters
	filters.register(fs)
	showOptions := fs.Bool("filters", false, "also print the available category and bank filter values")
	if err := fs.Parse(args); err != nil {
		return err
	}

	criteria, err := filters.criteria(cfg.PageSize)
	if err != nil {
		return err
	}

	analysisID, err := store.Current(ctx)
	if err != nil {
		return err
	}

	state := view.NewWithOptions(api, analysisID, view.Options{PageSize: cfg.PageSize})
	state.UpdateCriteria(ctx, criteriaUpdateFrom(criteria))

	snap := awaitSnapshot(ctx, state)
	if snap.Err != nil {
		return snap.Err
	}

	renderTransactions(os.Stdout, snap, criteria.Page)

	if *showOptions {
		options, err := api.FetchFilterOptions(ctx, analysisID)
		if err != nil {
			return err
		}
		renderFilterOptions(os.Stdout, options)
	}
	return nil
}

// criteriaUpdateFrom expresses fully-resolved criteria as one update,
// so a single load runs with every flag applied.
func criteriaUpdateFrom(c core.Criteria) view.CriteriaUpdate {
	return view.CriteriaUpdate{
		SearchTerm:      &c.SearchTerm,
		Category:        &c.Category,
		TransactionType: &c.TransactionType,
		Bank:            &c.Bank,
		SortField:       &c.SortField,
		SortOrder:       &c.SortOrder,
		Page:            &c.Page,
	}
}

// awaitSnapshot blocks until the state settles out of its loading
// phase.
func awaitSnapshot(ctx context.Context, state *view.State) view.Snapshot {
	for {
		snap := state.Snapshot()
		if !snap.Loading {
			return snap
		}
		select {
		case <-state.Changes():
		case <-ctx.Done():
			return view.Snapshot{Err: ctx.Err()}
		}
	}
}

func runDashboard(ctx context.Context, api *client.Client, store *scope.Store) error {
	analysisID, err := store.Current(ctx)
	if err != nil {
		return err
	}
	summary, err := api.FetchOverallSummary(ctx, analysisID)
	if err != nil {
		return err
	}
	renderDashboard(os.Stdout, summary)
	return nil
}

func runCategories(ctx context.Context, api *client.Client, store *scope.Store) error {
	analysisID, err := store.Current(ctx)
	if err != nil {
		return err
	}
	rows, err := api.FetchCategorySummary(ctx, analysisID)
	if err != nil {
		return err
	}
	renderCategories(os.Stdout, rows)
	return nil
}

func runUPI(ctx context.Context, api *client.Client, store *scope.Store) error {
	analysisID, err := store.Current(ctx)
	if err != nil {
		return err
	}
	analysis, err := api.FetchUPIAnalysis(ctx, analysisID)
	if err != nil {
		return err
	}
	renderUPI(os.Stdout, analysis)
	return nil
}

func runExport(ctx context.Context, cfg *config.Config, store *scope.Store, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var filters transactionFilters
	filters.register(fs)
	sheetName := fs.String("sheet", "", "target sheet tab name (default: derived from the analysis id)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	criteria, err := filters.criteria(cfg.PageSize)
	if err != nil {
		return err
	}

	analysisID, err := store.Current(ctx)
	if err != nil {
		return err
	}

	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect export queue: %w", err)
	}
	defer queue.Close()

	msg := amqp.NewExportRequestMessage(analysisID, criteria, *sheetName)
	if err := queue.PublishExportRequest(ctx, msg); err != nil {
		return fmt.Errorf("queue export: %w", err)
	}

	fmt.Printf("Export of analysis %s queued\n", analysisID)
	return nil
}

func runScope(ctx context.Context, store *scope.Store, args []string) error {
	if len(args) == 0 {
		analysisID, err := store.Current(ctx)
		if err != nil {
			return err
		}
		fmt.Println(analysisID)
		return nil
	}

	switch args[0] {
	case "set":
		if len(args) != 2 {
			return errors.New("scope set: exactly one analysis id is required")
		}
		if err := store.Set(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("Analysis %s is now current\n", args[1])
		return nil
	case "clear":
		if err := store.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Current analysis cleared")
		return nil
	default:
		return fmt.Errorf("scope: unknown subcommand %q (want set or clear)", args[0])
	}
}
