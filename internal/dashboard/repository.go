package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort abstracts the dashboard aggregation queries.
type RepositoryPort interface {
	PaymentFlows(ctx context.Context, r Range) (received, spent float64, err error)
	CustomerBalances(ctx context.Context, r Range) ([]CustomerBalance, error)
	PaymentSeries(ctx context.Context, from, to time.Time, trunc string) ([]FlowPoint, error)
}

// Repository runs the dashboard queries against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// PaymentFlows sums absolute inflow and outflow amounts across the range.
func (r *Repository) PaymentFlows(ctx context.Context, rng Range) (float64, float64, error) {
	var received, spent float64
	err := r.pool.QueryRow(ctx, `SELECT
COALESCE(SUM(amount) FILTER (WHERE direction='INFLOW'), 0),
COALESCE(SUM(amount) FILTER (WHERE direction='OUTFLOW'), 0)
FROM payments
WHERE deleted_at IS NULL
AND ($1::timestamptz IS NULL OR created_at >= $1) AND ($2::timestamptz IS NULL OR created_at < $2)`,
		nullTime(rng.From), nullTime(rng.To)).Scan(&received, &spent)
	return received, spent, err
}

// CustomerBalances computes open positions per customer across unpaid and
// partially paid transactions. The signed payment sum per transaction is
// folded into the grand total: SELL leaves grand - paid receivable, BUY
// leaves grand + paid payable (BUY payments sum negative).
func (r *Repository) CustomerBalances(ctx context.Context, rng Range) ([]CustomerBalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT COALESCE(t.customer_id, 0), COALESCE(c.name, ''),
COALESCE(SUM(t.grand_total - COALESCE(ps.signed, 0)) FILTER (WHERE t.type='SELL'), 0),
COALESCE(SUM(t.grand_total + COALESCE(ps.signed, 0)) FILTER (WHERE t.type='BUY'), 0)
FROM transactions t
LEFT JOIN customers c ON c.id = t.customer_id
LEFT JOIN (
	SELECT transaction_id, SUM(CASE WHEN direction='INFLOW' THEN amount ELSE -amount END) AS signed
	FROM payments WHERE deleted_at IS NULL GROUP BY transaction_id
) ps ON ps.transaction_id = t.id
WHERE t.status <> 'PAID'
AND ($1::timestamptz IS NULL OR t.created_at >= $1) AND ($2::timestamptz IS NULL OR t.created_at < $2)
GROUP BY t.customer_id, c.name
ORDER BY c.name`, nullTime(rng.From), nullTime(rng.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	balances := []CustomerBalance{}
	for rows.Next() {
		var b CustomerBalance
		if err := rows.Scan(&b.CustomerID, &b.CustomerName, &b.Receivable, &b.Payable); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// PaymentSeries buckets payment flows by the given date_trunc unit.
func (r *Repository) PaymentSeries(ctx context.Context, from, to time.Time, trunc string) ([]FlowPoint, error) {
	rows, err := r.pool.Query(ctx, `SELECT date_trunc($1, created_at) AS bucket,
COALESCE(SUM(amount) FILTER (WHERE direction='INFLOW'), 0),
COALESCE(SUM(amount) FILTER (WHERE direction='OUTFLOW'), 0)
FROM payments
WHERE deleted_at IS NULL AND created_at >= $2 AND created_at < $3
GROUP BY bucket
ORDER BY bucket`, trunc, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	points := []FlowPoint{}
	for rows.Next() {
		var p FlowPoint
		if err := rows.Scan(&p.Bucket, &p.Inflow, &p.Outflow); err != nil {
			return nil, err
		}
		p.Net = p.Inflow - p.Outflow
		points = append(points, p)
	}
	return points, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
