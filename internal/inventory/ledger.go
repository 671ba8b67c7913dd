package inventory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sentosa-erp/sentosa/internal/shared"
)

// Ledger bundles the tx-scoped ledger statements shared between manual
// manipulation and the transaction engine. Every write path follows the
// same sequence of Lock, Balance, check, Append, all on the caller's
// transaction so a rollback discards the appended rows.
type Ledger struct{}

// Lock takes the transaction-scoped advisory lock for the (product, unit)
// stock aggregate. It serialises concurrent sum-then-append sequences
// against the same pair and releases automatically at commit or rollback.
func (Ledger) Lock(ctx context.Context, tx pgx.Tx, productID, unitQuantityID int64) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, shared.StockLockKey(productID, unitQuantityID))
	return err
}

// Balance sums the ledger for a (product, unit) pair. Rows appended earlier
// in the same transaction are visible to the sum.
func (Ledger) Balance(ctx context.Context, tx pgx.Tx, productID, unitQuantityID int64) (float64, error) {
	var total float64
	err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM inventory_histories
WHERE product_id=$1 AND unit_quantity_id=$2`, productID, unitQuantityID).Scan(&total)
	return total, err
}

// Append inserts one signed ledger row.
func (Ledger) Append(ctx context.Context, tx pgx.Tx, h History) (int64, error) {
	var createdAt any
	if !h.CreatedAt.IsZero() {
		createdAt = h.CreatedAt
	} else {
		createdAt = time.Now().UTC()
	}
	var id int64
	err := tx.QueryRow(ctx, `INSERT INTO inventory_histories (product_id, quantity, unit_quantity_id, remark, created_at, created_by)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		h.ProductID, h.Quantity, h.UnitQuantityID, h.Remark, createdAt, nullInt(h.CreatedBy)).Scan(&id)
	return id, err
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
