package taxes

import "time"

// Tax represents a flat percentage tax applied to transactions.
type Tax struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Percentage float64   `json:"percentage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
