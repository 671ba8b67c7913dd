package transaction

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentosa-erp/sentosa/internal/inventory"
	"github.com/sentosa-erp/sentosa/internal/platform/db"
	"github.com/sentosa-erp/sentosa/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Detail, error)
	List(ctx context.Context, filter ListFilter) ([]Detail, int64, error)
	Summary(ctx context.Context, filter RangeFilter) (Summary, error)
	ProductSummary(ctx context.Context, filter ProductSummaryFilter) ([]ProductSummaryRow, error)
	Series(ctx context.Context, filter SeriesFilter) ([]SeriesPoint, error)
}

// TxRepository exposes the operations of one atomic create sequence. The
// stock methods run against the same database transaction as the inserts,
// so a failed validation rolls back every row.
type TxRepository interface {
	EnsureCustomer(ctx context.Context, id int64) error
	ProductName(ctx context.Context, id int64) (string, error)
	EnsureUnit(ctx context.Context, id int64) error
	TaxRates(ctx context.Context, ids []int64) (map[int64]float64, error)
	LockStock(ctx context.Context, productID, unitQuantityID int64) error
	StockBalance(ctx context.Context, productID, unitQuantityID int64) (float64, error)
	AppendHistory(ctx context.Context, h inventory.History) (int64, error)
	InsertTransaction(ctx context.Context, t Transaction) (int64, error)
	InsertItem(ctx context.Context, item Item) (int64, error)
	InsertDiscount(ctx context.Context, d Discount) error
}

// Repository persists transactions in PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	ledger inventory.Ledger
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx     pgx.Tx
	ledger inventory.Ledger
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledger: r.ledger})
	})
}

const headerColumns = `t.id, t.customer_id, t.type, t.status, t.subtotal, t.total_discount, t.total_tax, t.grand_total, t.remark, t.created_at, COALESCE(t.created_by, 0),
COALESCE(c.name, ''), COALESCE(u.name, '')`

const headerJoins = `
FROM transactions t
LEFT JOIN customers c ON c.id = t.customer_id
LEFT JOIN users u ON u.id = t.created_by`

// Get loads one transaction with its items and discounts.
func (r *Repository) Get(ctx context.Context, id int64) (Detail, error) {
	var d Detail
	err := r.pool.QueryRow(ctx, `SELECT `+headerColumns+headerJoins+` WHERE t.id=$1`, id).
		Scan(&d.ID, &d.CustomerID, &d.Type, &d.Status, &d.Subtotal, &d.TotalDiscount, &d.TotalTax, &d.GrandTotal,
			&d.Remark, &d.CreatedAt, &d.CreatedBy, &d.CustomerName, &d.CreatorName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, shared.NotFoundf("transaction %d not found", id)
	}
	if err != nil {
		return Detail{}, err
	}
	details, err := r.attachLines(ctx, []Detail{d})
	if err != nil {
		return Detail{}, err
	}
	return details[0], nil
}

// List pages through transactions newest first, items and discounts
// attached per returned page.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Detail, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0
	add := func(cond string, value any) {
		argCount++
		where += ` AND ` + cond + `$` + strconv.Itoa(argCount)
		args = append(args, value)
	}
	if filter.Type != nil {
		add("t.type=", *filter.Type)
	}
	if filter.Status != nil {
		add("t.status=", *filter.Status)
	}
	if filter.CustomerID != nil {
		add("t.customer_id=", *filter.CustomerID)
	}
	if !filter.From.IsZero() {
		add("t.created_at>=", filter.From)
	}
	if !filter.To.IsZero() {
		add("t.created_at<", filter.To)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions t`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPageRequest(filter.Page, filter.Limit)
	query := `SELECT ` + headerColumns + headerJoins + where
	argCount++
	query += ` ORDER BY t.created_at DESC, t.id DESC LIMIT $` + strconv.Itoa(argCount)
	args = append(args, page.Limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	details := []Detail{}
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.ID, &d.CustomerID, &d.Type, &d.Status, &d.Subtotal, &d.TotalDiscount, &d.TotalTax,
			&d.GrandTotal, &d.Remark, &d.CreatedAt, &d.CreatedBy, &d.CustomerName, &d.CreatorName); err != nil {
			return nil, 0, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	details, err = r.attachLines(ctx, details)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (r *Repository) attachLines(ctx context.Context, details []Detail) ([]Detail, error) {
	if len(details) == 0 {
		return details, nil
	}
	ids := make([]int64, 0, len(details))
	index := make(map[int64]int, len(details))
	for i := range details {
		details[i].Items = []ItemDetail{}
		details[i].Discounts = []Discount{}
		ids = append(ids, details[i].ID)
		index[details[i].ID] = i
	}

	itemRows, err := r.pool.Query(ctx, `SELECT i.id, i.transaction_id, i.product_id, i.quantity, i.unit_quantity_id, i.price_per_unit, i.total, i.remark, p.name, uq.name
FROM transaction_items i
JOIN products p ON p.id = i.product_id
JOIN unit_quantities uq ON uq.id = i.unit_quantity_id
WHERE i.transaction_id = ANY($1)
ORDER BY i.id`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var item ItemDetail
		if err := itemRows.Scan(&item.ID, &item.TransactionID, &item.ProductID, &item.Quantity, &item.UnitQuantityID,
			&item.PricePerUnit, &item.Total, &item.Remark, &item.ProductName, &item.UnitName); err != nil {
			return nil, err
		}
		i := index[item.TransactionID]
		details[i].Items = append(details[i].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	discountRows, err := r.pool.Query(ctx, `SELECT id, transaction_id, type, percentage, amount, transaction_item_id
FROM discounts WHERE transaction_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer discountRows.Close()
	for discountRows.Next() {
		var d Discount
		if err := discountRows.Scan(&d.ID, &d.TransactionID, &d.Type, &d.Percentage, &d.Amount, &d.TransactionItemID); err != nil {
			return nil, err
		}
		i := index[d.TransactionID]
		details[i].Discounts = append(details[i].Discounts, d)
	}
	return details, discountRows.Err()
}

// Summary aggregates revenue and expenses across the range.
func (r *Repository) Summary(ctx context.Context, filter RangeFilter) (Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `SELECT
COALESCE(SUM(grand_total) FILTER (WHERE type='SELL'), 0),
COALESCE(SUM(grand_total) FILTER (WHERE type='BUY'), 0)
FROM transactions
WHERE ($1::timestamptz IS NULL OR created_at >= $1) AND ($2::timestamptz IS NULL OR created_at < $2)`,
		nullTime(filter.From), nullTime(filter.To)).Scan(&s.Revenue, &s.Expenses)
	if err != nil {
		return Summary{}, err
	}
	s.NetIncome = s.Revenue - s.Expenses
	return s, nil
}

// ProductSummary rolls up quantities and amounts per product.
func (r *Repository) ProductSummary(ctx context.Context, filter ProductSummaryFilter) ([]ProductSummaryRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT i.product_id, p.name,
COALESCE(SUM(i.quantity) FILTER (WHERE t.type='SELL'), 0),
COALESCE(SUM(i.total) FILTER (WHERE t.type='SELL'), 0),
COALESCE(SUM(i.quantity) FILTER (WHERE t.type='BUY'), 0),
COALESCE(SUM(i.total) FILTER (WHERE t.type='BUY'), 0)
FROM transaction_items i
JOIN transactions t ON t.id = i.transaction_id
JOIN products p ON p.id = i.product_id
WHERE ($1::timestamptz IS NULL OR t.created_at >= $1) AND ($2::timestamptz IS NULL OR t.created_at < $2)
AND ($3::bigint IS NULL OR i.product_id = $3)
GROUP BY i.product_id, p.name
ORDER BY p.name`, nullTime(filter.From), nullTime(filter.To), filter.ProductID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	summary := []ProductSummaryRow{}
	for rows.Next() {
		var row ProductSummaryRow
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.SoldQuantity, &row.SoldAmount,
			&row.BoughtQuantity, &row.BoughtAmount); err != nil {
			return nil, err
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

// Series buckets revenue and expenses by interval. Buckets are independent
// deltas, not running totals.
func (r *Repository) Series(ctx context.Context, filter SeriesFilter) ([]SeriesPoint, error) {
	trunc := "day"
	if filter.Interval == IntervalMonth {
		trunc = "month"
	}
	rows, err := r.pool.Query(ctx, `SELECT date_trunc($1, created_at) AS bucket,
COALESCE(SUM(grand_total) FILTER (WHERE type='SELL'), 0),
COALESCE(SUM(grand_total) FILTER (WHERE type='BUY'), 0)
FROM transactions
WHERE created_at >= $2 AND created_at < $3
GROUP BY bucket
ORDER BY bucket`, trunc, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	points := []SeriesPoint{}
	for rows.Next() {
		var p SeriesPoint
		if err := rows.Scan(&p.Bucket, &p.Revenue, &p.Expenses); err != nil {
			return nil, err
		}
		p.NetIncome = p.Revenue - p.Expenses
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *txRepository) EnsureCustomer(ctx context.Context, id int64) error {
	var found int64
	err := r.tx.QueryRow(ctx, `SELECT id FROM customers WHERE id=$1 AND deleted_at IS NULL`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.NotFoundf("customer %d not found", id)
	}
	return err
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

func (r *txRepository) TaxRates(ctx context.Context, ids []int64) (map[int64]float64, error) {
	rates := make(map[int64]float64, len(ids))
	if len(ids) == 0 {
		return rates, nil
	}
	rows, err := r.tx.Query(ctx, `SELECT id, percentage FROM taxes WHERE id = ANY($1) AND deleted_at IS NULL`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var rate float64
		if err := rows.Scan(&id, &rate); err != nil {
			return nil, err
		}
		rates[id] = rate
	}
	return rates, rows.Err()
}

func (r *txRepository) LockStock(ctx context.Context, productID, unitQuantityID int64) error {
	return r.ledger.Lock(ctx, r.tx, productID, unitQuantityID)
}

func (r *txRepository) StockBalance(ctx context.Context, productID, unitQuantityID int64) (float64, error) {
	return r.ledger.Balance(ctx, r.tx, productID, unitQuantityID)
}

func (r *txRepository) AppendHistory(ctx context.Context, h inventory.History) (int64, error) {
	return r.ledger.Append(ctx, r.tx, h)
}

func (r *txRepository) InsertTransaction(ctx context.Context, t Transaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO transactions (customer_id, type, status, subtotal, total_discount, total_tax, grand_total, remark, created_at, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		t.CustomerID, t.Type, t.Status, t.Subtotal, t.TotalDiscount, t.TotalTax, t.GrandTotal, t.Remark, t.CreatedAt, nullInt(t.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertItem(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO transaction_items (transaction_id, product_id, quantity, unit_quantity_id, price_per_unit, total, remark)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		item.TransactionID, item.ProductID, item.Quantity, item.UnitQuantityID, item.PricePerUnit, item.Total, item.Remark).Scan(&id)
	return id, err
}

func (r *txRepository) InsertDiscount(ctx context.Context, d Discount) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO discounts (transaction_id, type, percentage, amount, transaction_item_id)
VALUES ($1, $2, $3, $4, $5)`, d.TransactionID, d.Type, d.Percentage, d.Amount, d.TransactionItemID)
	return err
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
