package model

// DashboardSummary holds the headline analytics shown on the dashboard.
type DashboardSummary struct {
	TotalUsers        int     `json:"totalUsers" yaml:"totalUsers"`
	ActiveUsers       int     `json:"activeUsers" yaml:"activeUsers"`
	TotalBills        int     `json:"totalBills" yaml:"totalBills"`
	PaidBills         int     `json:"paidBills" yaml:"paidBills"`
	UnpaidBills       int     `json:"unpaidBills" yaml:"unpaidBills"`
	TotalAmount       float64 `json:"totalAmount" yaml:"totalAmount"`
	OutstandingAmount float64 `json:"outstandingAmount" yaml:"outstandingAmount"`
}

// PaidRatio returns the share of bills that are paid, in [0, 1].
func (s DashboardSummary) PaidRatio() float64 {
	if s.TotalBills <= 0 {
		return 0
	}
	return float64(s.PaidBills) / float64(s.TotalBills)
}

// MonthlyTotal aggregates bills created in one calendar month ("2006-01").
type MonthlyTotal struct {
	Month  string  `json:"month" yaml:"month"`
	Amount float64 `json:"amount" yaml:"amount"`
	Count  int     `json:"count" yaml:"count"`
}
