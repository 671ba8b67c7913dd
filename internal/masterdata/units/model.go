package units

import "time"

// Unit represents a sellable unit of quantity (PCS, BOX, ...).
type Unit struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Multiplier float64   `json:"multiplier"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
