package api

import (
	"context"
	"strconv"

	"github.com/Veraticus/bankctl/internal/model"
)

// DashboardSummary fetches the headline analytics.
func (c *Client) DashboardSummary(ctx context.Context) (model.DashboardSummary, error) {
	var summary model.DashboardSummary
	err := c.getJSON(ctx, c.bankURL+"/dashboard/summary", &summary)
	return summary, err
}

// BillsByMonth fetches monthly bill totals for year.
func (c *Client) BillsByMonth(ctx context.Context, year int) ([]model.MonthlyTotal, error) {
	totals := []model.MonthlyTotal{}
	err := c.getJSON(ctx, c.bankURL+"/dashboard/bills-by-month?year="+strconv.Itoa(year), &totals)
	if err != nil {
		return nil, err
	}
	return totals, nil
}
