package transaction

import "time"

// Type enumerates transaction directions.
type Type string

const (
	TypeSell Type = "SELL"
	TypeBuy  Type = "BUY"
)

// Valid reports whether the type is a known value.
func (t Type) Valid() bool {
	return t == TypeSell || t == TypeBuy
}

// Status enumerates payment states. A transaction is immutable once created
// except for this field, which transitions only as a side effect of payment
// creation.
type Status string

const (
	StatusUnpaid        Status = "UNPAID"
	StatusPartiallyPaid Status = "PARTIALLY_PAID"
	StatusPaid          Status = "PAID"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPartiallyPaid, StatusPaid:
		return true
	}
	return false
}

// DiscountType enumerates supported discount resolutions.
type DiscountType string

const (
	DiscountTotalFixed      DiscountType = "TOTAL_FIXED"
	DiscountTotalPercentage DiscountType = "TOTAL_PERCENTAGE"
	DiscountItemFixed       DiscountType = "ITEM_FIXED"
	DiscountItemPercentage  DiscountType = "ITEM_PERCENTAGE"
)

// Valid reports whether the discount type is a known value.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountTotalFixed, DiscountTotalPercentage, DiscountItemFixed, DiscountItemPercentage:
		return true
	}
	return false
}

// Transaction is the header row. Totals are always recomputed server-side;
// grand total satisfies grandTotal = subtotal - totalDiscount + totalTax.
type Transaction struct {
	ID            int64     `json:"id"`
	CustomerID    *int64    `json:"customerId,omitempty"`
	Type          Type      `json:"type"`
	Status        Status    `json:"status"`
	Subtotal      float64   `json:"subtotal"`
	TotalDiscount float64   `json:"totalDiscount"`
	TotalTax      float64   `json:"totalTax"`
	GrandTotal    float64   `json:"grandTotal"`
	Remark        string    `json:"remark,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     int64     `json:"createdBy,omitempty"`
}

// Item is one transaction line. Quantity is stored positive; the sign is
// applied when the line is written to the inventory ledger.
type Item struct {
	ID             int64   `json:"id"`
	TransactionID  int64   `json:"transactionId"`
	ProductID      int64   `json:"productId"`
	Quantity       float64 `json:"quantity"`
	UnitQuantityID int64   `json:"unitQuantityId"`
	PricePerUnit   float64 `json:"pricePerUnit"`
	Total          float64 `json:"total"`
	Remark         string  `json:"remark,omitempty"`
}

// ItemDetail joins an item with display names.
type ItemDetail struct {
	Item
	ProductName string `json:"productName"`
	UnitName    string `json:"unitName"`
}

// Discount is one resolved discount row. Amount always carries the resolved
// absolute value; Percentage is retained for percentage types.
type Discount struct {
	ID                int64        `json:"id"`
	TransactionID     int64        `json:"transactionId"`
	Type              DiscountType `json:"type"`
	Percentage        *float64     `json:"percentage,omitempty"`
	Amount            float64      `json:"amount"`
	TransactionItemID *int64       `json:"transactionItemId,omitempty"`
}

// Detail is a fully populated transaction response.
type Detail struct {
	Transaction
	CustomerName string       `json:"customerName,omitempty"`
	CreatorName  string       `json:"creatorName,omitempty"`
	Items        []ItemDetail `json:"items"`
	Discounts    []Discount   `json:"discounts"`
}

// ItemInput is one requested line.
type ItemInput struct {
	ProductID      int64
	Quantity       float64
	UnitQuantityID int64
	PricePerUnit   float64
	Remark         string
}

// DiscountInput is one requested discount. Fixed types carry Amount,
// percentage types carry Percentage, ITEM_* types reference an item by its
// position in the request (resolved to an item id after items persist).
type DiscountInput struct {
	Type       DiscountType
	Percentage *float64
	Amount     *float64
	ItemIndex  *int
}

// CreateInput is the request for creating a transaction.
type CreateInput struct {
	Type           Type
	CustomerID     *int64
	Items          []ItemInput
	Discounts      []DiscountInput
	TaxIDs         []int64
	Remark         string
	IdempotencyKey string
}

// ListFilter selects transactions for listing.
type ListFilter struct {
	Type       *Type
	Status     *Status
	CustomerID *int64
	From       time.Time
	To         time.Time
	Page       int
	Limit      int
}

// RangeFilter bounds aggregation reads; zero values leave the bound open.
type RangeFilter struct {
	From time.Time
	To   time.Time
}

// Summary aggregates totals across the range.
type Summary struct {
	Revenue   float64 `json:"revenue"`
	Expenses  float64 `json:"expenses"`
	NetIncome float64 `json:"netIncome"`
}

// ProductSummaryFilter bounds the per-product rollup.
type ProductSummaryFilter struct {
	RangeFilter
	ProductID *int64
}

// ProductSummaryRow aggregates one product's movement across the range.
type ProductSummaryRow struct {
	ProductID      int64   `json:"productId"`
	ProductName    string  `json:"productName"`
	SoldQuantity   float64 `json:"soldQuantity"`
	SoldAmount     float64 `json:"soldAmount"`
	BoughtQuantity float64 `json:"boughtQuantity"`
	BoughtAmount   float64 `json:"boughtAmount"`
}

// Interval is the bucket width for the transaction series.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalMonth Interval = "month"
)

// Valid reports whether the interval is supported.
func (i Interval) Valid() bool {
	return i == IntervalDay || i == IntervalMonth
}

// SeriesFilter bounds the bucketed series.
type SeriesFilter struct {
	RangeFilter
	Interval Interval
}

// SeriesPoint is one non-cumulative bucket of revenue and expenses.
type SeriesPoint struct {
	Bucket    time.Time `json:"bucket"`
	Revenue   float64   `json:"revenue"`
	Expenses  float64   `json:"expenses"`
	NetIncome float64   `json:"netIncome"`
}
