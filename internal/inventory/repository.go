package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentosa-erp/sentosa/internal/platform/db"
	"github.com/sentosa-erp/sentosa/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Summary(ctx context.Context, productID *int64) ([]SummaryRow, error)
	TotalQuantity(ctx context.Context, productID, unitQuantityID int64) (float64, error)
	OpeningBalance(ctx context.Context, filter SeriesFilter) (float64, error)
	BucketNets(ctx context.Context, filter SeriesFilter) ([]BucketNet, error)
	Log(ctx context.Context, filter LogFilter) ([]HistoryRow, int64, error)
}

// TxRepository exposes the transactional operations used inside one atomic
// manipulation batch.
type TxRepository interface {
	ProductName(ctx context.Context, id int64) (string, error)
	EnsureUnit(ctx context.Context, id int64) error
	LockStock(ctx context.Context, productID, unitQuantityID int64) error
	StockBalance(ctx context.Context, productID, unitQuantityID int64) (float64, error)
	AppendHistory(ctx context.Context, h History) (int64, error)
}

// BucketNet is the per-bucket net movement before the running-total scan.
type BucketNet struct {
	Bucket time.Time
	Net    float64
}

// Repository persists the ledger in PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	ledger Ledger
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx     pgx.Tx
	ledger Ledger
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledger: r.ledger})
	})
}

// Summary groups the ledger by (product, unit) over live rows. Pairs that
// sum to zero are filtered out by the HAVING clause, so untouched
// product/unit combinations never appear.
func (r *Repository) Summary(ctx context.Context, productID *int64) ([]SummaryRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT h.product_id, p.name, h.unit_quantity_id, u.name, SUM(h.quantity)
FROM inventory_histories h
JOIN products p ON p.id = h.product_id AND p.deleted_at IS NULL
JOIN unit_quantities u ON u.id = h.unit_quantity_id AND u.deleted_at IS NULL
WHERE ($1::bigint IS NULL OR h.product_id = $1)
GROUP BY h.product_id, p.name, h.unit_quantity_id, u.name
HAVING SUM(h.quantity) <> 0
ORDER BY p.name, u.name`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	summary := []SummaryRow{}
	for rows.Next() {
		var row SummaryRow
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.UnitQuantityID, &row.UnitName, &row.Total); err != nil {
			return nil, err
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

// TotalQuantity sums the ledger for one (product, unit) pair.
func (r *Repository) TotalQuantity(ctx context.Context, productID, unitQuantityID int64) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM inventory_histories
WHERE product_id=$1 AND unit_quantity_id=$2`, productID, unitQuantityID).Scan(&total)
	return total, err
}

// OpeningBalance sums all rows strictly before the series range so the
// running total can start from the correct carry-in.
func (r *Repository) OpeningBalance(ctx context.Context, filter SeriesFilter) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM inventory_histories
WHERE product_id=$1 AND ($2::bigint IS NULL OR unit_quantity_id=$2) AND created_at < $3`,
		filter.ProductID, filter.UnitQuantityID, filter.From).Scan(&total)
	return total, err
}

// BucketNets returns per-bucket net movement inside the range, ordered by
// bucket. Empty buckets are absent; the service gap-fills them.
func (r *Repository) BucketNets(ctx context.Context, filter SeriesFilter) ([]BucketNet, error) {
	trunc := "day"
	if filter.Interval == IntervalMonth {
		trunc = "month"
	}
	rows, err := r.pool.Query(ctx, `SELECT date_trunc($1, created_at) AS bucket, SUM(quantity)
FROM inventory_histories
WHERE product_id=$2 AND ($3::bigint IS NULL OR unit_quantity_id=$3) AND created_at >= $4 AND created_at < $5
GROUP BY bucket
ORDER BY bucket`, trunc, filter.ProductID, filter.UnitQuantityID, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	nets := []BucketNet{}
	for rows.Next() {
		var n BucketNet
		if err := rows.Scan(&n.Bucket, &n.Net); err != nil {
			return nil, err
		}
		nets = append(nets, n)
	}
	return nets, rows.Err()
}

// Log lists raw ledger rows, newest first, with joined names.
func (r *Repository) Log(ctx context.Context, filter LogFilter) ([]HistoryRow, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0
	if filter.ProductID != nil {
		argCount++
		where += ` AND h.product_id=$` + strconv.Itoa(argCount)
		args = append(args, *filter.ProductID)
	}
	if filter.UnitQuantityID != nil {
		argCount++
		where += ` AND h.unit_quantity_id=$` + strconv.Itoa(argCount)
		args = append(args, *filter.UnitQuantityID)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_histories h`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPageRequest(filter.Page, filter.Limit)
	query := `SELECT h.id, h.product_id, h.quantity, h.unit_quantity_id, h.remark, h.created_at, COALESCE(h.created_by, 0),
p.name, u.name, COALESCE(c.name, '')
FROM inventory_histories h
JOIN products p ON p.id = h.product_id
JOIN unit_quantities u ON u.id = h.unit_quantity_id
LEFT JOIN users c ON c.id = h.created_by` + where
	argCount++
	query += ` ORDER BY h.created_at DESC, h.id DESC LIMIT $` + strconv.Itoa(argCount)
	args = append(args, page.Limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	histories := []HistoryRow{}
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.ID, &h.ProductID, &h.Quantity, &h.UnitQuantityID, &h.Remark, &h.CreatedAt, &h.CreatedBy,
			&h.ProductName, &h.UnitName, &h.CreatorName); err != nil {
			return nil, 0, err
		}
		histories = append(histories, h)
	}
	return histories, total, rows.Err()
}

func (r *txRepository) ProductName(ctx context.Context, id int64) (string, error) {
	var name string
	err := r.tx.QueryRow(ctx, `SELECT name FROM products WHERE id=$1 AND deleted_at IS NULL`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.NotFoundf("product %d not found", id)
	}
	return name, err
}

func (r *txRepository) EnsureUnit(ctx context.Context, id int64) error {
	var found int64
	err := r.tx.QueryRow(ctx, `SELECT id FROM unit_quantities WHERE id=$1 AND deleted_at IS NULL`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.NotFoundf("unit quantity %d not found", id)
	}
	return err
}

func (r *txRepository) LockStock(ctx context.Context, productID, unitQuantityID int64) error {
	return r.ledger.Lock(ctx, r.tx, productID, unitQuantityID)
}

func (r *txRepository) StockBalance(ctx context.Context, productID, unitQuantityID int64) (float64, error) {
	return r.ledger.Balance(ctx, r.tx, productID, unitQuantityID)
}

func (r *txRepository) AppendHistory(ctx context.Context, h History) (int64, error) {
	return r.ledger.Append(ctx, r.tx, h)
}
