package client

import (
	"context"
	"fmt"
	"net/url"

	"bankview/internal/core"
)

// FetchOverallSummary returns the dashboard rollup for an analysis.
func (c *Client) FetchOverallSummary(ctx context.Context, analysisID string) (core.OverallSummary, error) {
	var payload overallSummaryPayload
	err := c.getJSON(ctx, fmt.Sprintf("/summary/overall/%s", url.PathEscape(analysisID)), nil, &payload)
	if err != nil {
		return core.OverallSummary{}, err
	}
	return payload.toOverallSummary(), nil
}

// FetchCategorySummary returns per-category debit/credit totals.
func (c *Client) FetchCategorySummary(ctx context.Context, analysisID string) ([]core.CategoryTotal, error) {
	var payload categorySummaryPayload
	err := c.getJSON(ctx, fmt.Sprintf("/summary/categories/%s", url.PathEscape(analysisID)), nil, &payload)
	if err != nil {
		return nil, err
	}
	return payload.toCategoryTotals(), nil
}

// FetchUPIAnalysis returns the broad-category/subcategory UPI spending
// hierarchy.
func (c *Client) FetchUPIAnalysis(ctx context.Context, analysisID string) (core.UPIAnalysis, error) {
	var payload upiAnalysisPayload
	err := c.getJSON(ctx, fmt.Sprintf("/analysis/upi/%s", url.PathEscape(analysisID)), nil, &payload)
	if err != nil {
		return core.UPIAnalysis{}, err
	}
	return payload.toUPIAnalysis(), nil
}
