package payment

import "time"

// Type enumerates accepted payment methods.
type Type string

const (
	TypeCash     Type = "CASH"
	TypeCard     Type = "CARD"
	TypeTransfer Type = "TRANSFER"
	TypeQRIS     Type = "QRIS"
	TypePaper    Type = "PAPER"
)

// Valid reports whether the type is a known value.
func (t Type) Valid() bool {
	switch t {
	case TypeCash, TypeCard, TypeTransfer, TypeQRIS, TypePaper:
		return true
	}
	return false
}

// Direction encodes money movement. Amounts are stored absolute; the
// signed contribution is +amount for INFLOW and -amount for OUTFLOW.
type Direction string

const (
	DirectionInflow  Direction = "INFLOW"
	DirectionOutflow Direction = "OUTFLOW"
)

// Valid reports whether the direction is a known value.
func (d Direction) Valid() bool {
	return d == DirectionInflow || d == DirectionOutflow
}

// Signed applies the direction to an absolute amount.
func (d Direction) Signed(amount float64) float64 {
	if d == DirectionOutflow {
		return -amount
	}
	return amount
}

// Payment is one recorded money movement. TransactionID is optional:
// standalone payments are recorded and classified by direction, without
// any status work.
type Payment struct {
	ID            int64     `json:"id"`
	TransactionID *int64    `json:"transactionId,omitempty"`
	Type          Type      `json:"type"`
	Direction     Direction `json:"direction"`
	Amount        float64   `json:"amount"`
	Remark        string    `json:"remark,omitempty"`
	FileID        *string   `json:"fileId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     int64     `json:"createdBy,omitempty"`
}

// DetailRow is one key/value attribute of a payment, e.g. a card approval
// code or a transfer reference.
type DetailRow struct {
	ID         int64  `json:"id"`
	PaymentID  int64  `json:"paymentId"`
	Identifier string `json:"identifier"`
	Value      string `json:"value"`
}

// Detail is a fully populated payment response.
type Detail struct {
	Payment
	Details []DetailRow `json:"details"`
}

// DetailInput is one requested payment attribute.
type DetailInput struct {
	Identifier string
	Value      string
}

// CreateInput is the request for recording a payment.
type CreateInput struct {
	TransactionID  *int64
	Type           Type
	Direction      Direction
	Amount         float64
	Details        []DetailInput
	Remark         string
	FileID         *string
	IdempotencyKey string
}

// ListFilter selects payments for listing.
type ListFilter struct {
	TransactionID *int64
	Type          *Type
	Direction     *Direction
	From          time.Time
	To            time.Time
	Page          int
	Limit         int
}
