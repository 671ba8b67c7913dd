package products

import "time"

// Type classifies how a product participates in transactions.
type Type string

const (
	TypeSellable   Type = "SELLABLE"
	TypeConsumable Type = "CONSUMABLE"
	TypeBoth       Type = "BOTH"
)

// Valid reports whether the product type is a known value.
func (t Type) Valid() bool {
	switch t {
	case TypeSellable, TypeConsumable, TypeBoth:
		return true
	}
	return false
}

// Product represents a good tracked by the inventory ledger and sold or
// bought through transactions.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Type        Type      `json:"type"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
