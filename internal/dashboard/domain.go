package dashboard

import "time"

// Range bounds a dashboard read; zero values leave the bound open.
type Range struct {
	From time.Time
	To   time.Time
}

// FinanceSummary combines transaction totals with actual money movement.
// Revenue and expenses come from grand totals; received and spent come
// from the payment flows, so the gap between the pairs is the outstanding
// balance on each side.
type FinanceSummary struct {
	Revenue   float64 `json:"revenue"`
	Expenses  float64 `json:"expenses"`
	NetIncome float64 `json:"netIncome"`
	Received  float64 `json:"received"`
	Spent     float64 `json:"spent"`
	NetFlow   float64 `json:"netFlow"`
}

// CustomerBalance is one customer's open position. Receivable is what the
// customer still owes on SELL transactions; payable is what is still owed
// to them on BUY transactions.
type CustomerBalance struct {
	CustomerID   int64   `json:"customerId"`
	CustomerName string  `json:"customerName"`
	Receivable   float64 `json:"receivable"`
	Payable      float64 `json:"payable"`
}

// PaymentSummary aggregates open balances per customer with overall totals.
type PaymentSummary struct {
	Customers       []CustomerBalance `json:"customers"`
	TotalReceivable float64           `json:"totalReceivable"`
	TotalPayable    float64           `json:"totalPayable"`
}

// FlowPoint is one payment-flow bucket.
type FlowPoint struct {
	Bucket  time.Time `json:"bucket"`
	Inflow  float64   `json:"inflow"`
	Outflow float64   `json:"outflow"`
	Net     float64   `json:"net"`
}
