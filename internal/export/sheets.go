// Package export writes a filtered transaction report to a Google
// Sheets spreadsheet. It backs the "export report" action; the actual
// work runs in the worker process, fed by export request messages.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bankview/internal/core"
	"bankview/internal/log"
)

const (
	exportPageSize = 200

	// MaxExportRows bounds how much of an analysis one export pulls
	// from the backend.
	MaxExportRows = 5000
)

// TransactionSource is the slice of the backend client the exporter
// needs.
type TransactionSource interface {
	FetchPage(ctx context.Context, analysisID string, criteria core.Criteria) (core.Page, error)
	FetchSummary(ctx context.Context, analysisID string, criteria core.Criteria) (core.Summary, error)
}

// SheetsExporter renders transaction reports into spreadsheet tabs.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

// NewFromEnv creates an exporter using Service Account credentials.
// Required: GOOGLE_SPREADSHEET_ID. Auth: GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*SheetsExporter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        log.New(log.Config{Component: log.ComponentExport}),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Export pulls the filtered transactions of an analysis from the
// backend and writes them, with a summary header, to the named sheet
// tab. An empty sheetName derives one from the analysis id. The tab is
// created if missing and overwritten if present.
func (e *SheetsExporter) Export(ctx context.Context, src TransactionSource, analysisID string, criteria core.Criteria, sheetName string) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if sheetName == "" {
		sheetName = fmt.Sprintf("Transactions %s", analysisID)
	}

	rows, err := fetchAllRows(ctx, src, analysisID, criteria)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}

	summary, err := src.FetchSummary(ctx, analysisID, criteria)
	if err != nil {
		return fmt.Errorf("fetch summary: %w", err)
	}

	if err := e.ensureSheet(ctx, sheetName); err != nil {
		return err
	}

	values := buildReportValues(rows, summary)

	// Clear first so a shorter report does not leave stale rows behind.
	clearRange := fmt.Sprintf("%s!A:F", sheetName)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	writeRange := fmt.Sprintf("%s!A1", sheetName)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write sheet %s: %w", sheetName, err)
	}

	e.logger.InfoContext(ctx, "Report exported",
		log.FieldAnalysisID, analysisID,
		log.FieldSheetName, sheetName,
		log.FieldRowCount, len(rows))

	return nil
}

// fetchAllRows walks the backend pages until the dataset (or the
// export cap) is exhausted.
func fetchAllRows(ctx context.Context, src TransactionSource, analysisID string, criteria core.Criteria) ([]core.Transaction, error) {
	criteria.PageSize = exportPageSize

	var rows []core.Transaction
	for page := 1; ; page++ {
		criteria.Page = page
		result, err := src.FetchPage(ctx, analysisID, criteria)
		if err != nil {
			return nil, err
		}
		rows = append(rows, result.Transactions...)

		if page >= result.TotalPages || len(rows) >= MaxExportRows {
			break
		}
	}

	if len(rows) > MaxExportRows {
		rows = rows[:MaxExportRows]
	}
	return rows, nil
}

func buildReportValues(rows []core.Transaction, summary core.Summary) [][]any {
	values := [][]any{
		{"Total Transactions", summary.TotalCount},
		{"Total Credits", summary.TotalCredits},
		{"Total Debits", summary.TotalDebits},
		{},
		{"Date", "Description", "Category", "Bank", "Amount", "Balance"},
	}

	for _, t := range rows {
		date := ""
		if !t.Date.IsZero() {
			date = t.Date.Format(time.DateOnly)
		}
		values = append(values, []any{
			date, t.Description, t.Category, t.Bank, t.Amount, t.Balance,
		})
	}
	return values
}

// ensureSheet adds the tab if the spreadsheet does not have it yet.
func (e *SheetsExporter) ensureSheet(ctx context.Context, sheetName string) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sheet := range ss.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheetName},
			},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheetName, err)
	}
	return nil
}
