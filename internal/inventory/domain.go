package inventory

import "time"

// History is one append-only ledger row. Quantity is signed: negative rows
// decrease stock, positive rows increase it. The current balance of a
// (product, unit) pair is always the sum of its rows; no separate counter
// is maintained anywhere.
type History struct {
	ID             int64     `json:"id"`
	ProductID      int64     `json:"productId"`
	Quantity       float64   `json:"quantity"`
	UnitQuantityID int64     `json:"unitQuantityId"`
	Remark         string    `json:"remark,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	CreatedBy      int64     `json:"createdBy,omitempty"`
}

// HistoryRow is a ledger row joined with display names for listings.
type HistoryRow struct {
	History
	ProductName string `json:"productName"`
	UnitName    string `json:"unitName"`
	CreatorName string `json:"creatorName,omitempty"`
}

// SummaryRow reports the summed balance of one (product, unit) pair.
// Pairs whose rows cancel out to zero are omitted from summaries.
type SummaryRow struct {
	ProductID      int64   `json:"productId"`
	ProductName    string  `json:"productName"`
	UnitQuantityID int64   `json:"unitQuantityId"`
	UnitName       string  `json:"unitName"`
	Total          float64 `json:"total"`
}

// SeriesPoint is one bucket of the cumulative stock series. Total carries
// the running balance up to and including the bucket, not the bucket's own
// net movement.
type SeriesPoint struct {
	Bucket time.Time `json:"bucket"`
	Total  float64   `json:"total"`
}

// ManipulateItem is one manual stock adjustment line.
type ManipulateItem struct {
	ProductID      int64
	Quantity       float64
	UnitQuantityID int64
	Remark         string
}

// ManipulateInput is a batch of manual adjustments applied atomically.
type ManipulateInput struct {
	Items          []ManipulateItem
	Remark         string
	IdempotencyKey string
}

// SeriesFilter selects ledger rows for the cumulative time series.
type SeriesFilter struct {
	ProductID      int64
	UnitQuantityID *int64
	From           time.Time
	To             time.Time
	Interval       Interval
}

// Interval is the bucket width for time series queries.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalMonth Interval = "month"
)

// Valid reports whether the interval is supported.
func (i Interval) Valid() bool {
	return i == IntervalDay || i == IntervalMonth
}

// LogFilter selects raw history rows for the paginated listing.
type LogFilter struct {
	ProductID      *int64
	UnitQuantityID *int64
	Page           int
	Limit          int
}
