package payment

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentosa-erp/sentosa/internal/platform/db"
	"github.com/sentosa-erp/sentosa/internal/shared"
	"github.com/sentosa-erp/sentosa/internal/transaction"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Detail, error)
	List(ctx context.Context, filter ListFilter) ([]Detail, int64, error)
}

// TransactionHeader is the slice of the transaction row the payment engine
// needs for status derivation.
type TransactionHeader struct {
	ID         int64
	Type       transaction.Type
	Status     transaction.Status
	GrandTotal float64
}

// TxRepository exposes the operations of one atomic payment sequence. The
// transaction row is locked for the duration so two concurrent payments
// against the same transaction serialise their balance checks.
type TxRepository interface {
	TransactionForUpdate(ctx context.Context, id int64) (TransactionHeader, error)
	PriorSignedTotal(ctx context.Context, transactionID int64) (float64, error)
	InsertPayment(ctx context.Context, p Payment) (int64, error)
	InsertDetail(ctx context.Context, d DetailRow) error
	UpdateTransactionStatus(ctx context.Context, transactionID int64, status transaction.Status) error
}

// Repository persists payments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const paymentColumns = `id, transaction_id, type, direction, amount, remark, file_id, created_at, COALESCE(created_by, 0)`

// Get loads one payment with its detail rows.
func (r *Repository) Get(ctx context.Context, id int64) (Detail, error) {
	var d Detail
	err := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1 AND deleted_at IS NULL`, id).
		Scan(&d.ID, &d.TransactionID, &d.Type, &d.Direction, &d.Amount, &d.Remark, &d.FileID, &d.CreatedAt, &d.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, shared.NotFoundf("payment %d not found", id)
	}
	if err != nil {
		return Detail{}, err
	}
	details, err := r.attachDetails(ctx, []Detail{d})
	if err != nil {
		return Detail{}, err
	}
	return details[0], nil
}

// List pages through payments newest first, detail rows attached per
// returned page.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Detail, int64, error) {
	where := ` WHERE deleted_at IS NULL`
	args := []any{}
	argCount := 0
	add := func(cond string, value any) {
		argCount++
		where += ` AND ` + cond + `$` + strconv.Itoa(argCount)
		args = append(args, value)
	}
	if filter.TransactionID != nil {
		add("transaction_id=", *filter.TransactionID)
	}
	if filter.Type != nil {
		add("type=", *filter.Type)
	}
	if filter.Direction != nil {
		add("direction=", *filter.Direction)
	}
	if !filter.From.IsZero() {
		add("created_at>=", filter.From)
	}
	if !filter.To.IsZero() {
		add("created_at<", filter.To)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPageRequest(filter.Page, filter.Limit)
	query := `SELECT ` + paymentColumns + ` FROM payments` + where
	argCount++
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(argCount)
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
		if err := rows.Scan(&d.ID, &d.TransactionID, &d.Type, &d.Direction, &d.Amount, &d.Remark,
			&d.FileID, &d.CreatedAt, &d.CreatedBy); err != nil {
			return nil, 0, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	details, err = r.attachDetails(ctx, details)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (r *Repository) attachDetails(ctx context.Context, details []Detail) ([]Detail, error) {
	if len(details) == 0 {
		return details, nil
	}
	ids := make([]int64, 0, len(details))
	index := make(map[int64]int, len(details))
	for i := range details {
		details[i].Details = []DetailRow{}
		ids = append(ids, details[i].ID)
		index[details[i].ID] = i
	}
	rows, err := r.pool.Query(ctx, `SELECT id, payment_id, identifier, value
FROM payment_details WHERE payment_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var row DetailRow
		if err := rows.Scan(&row.ID, &row.PaymentID, &row.Identifier, &row.Value); err != nil {
			return nil, err
		}
		i := index[row.PaymentID]
		details[i].Details = append(details[i].Details, row)
	}
	return details, rows.Err()
}

func (r *txRepository) TransactionForUpdate(ctx context.Context, id int64) (TransactionHeader, error) {
	var h TransactionHeader
	err := r.tx.QueryRow(ctx, `SELECT id, type, status, grand_total FROM transactions WHERE id=$1 FOR UPDATE`, id).
		Scan(&h.ID, &h.Type, &h.Status, &h.GrandTotal)
	if errors.Is(err, pgx.ErrNoRows) {
		return TransactionHeader{}, shared.NotFoundf("transaction %d not found", id)
	}
	return h, err
}

func (r *txRepository) PriorSignedTotal(ctx context.Context, transactionID int64) (float64, error) {
	var total float64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN direction='INFLOW' THEN amount ELSE -amount END), 0)
FROM payments WHERE transaction_id=$1 AND deleted_at IS NULL`, transactionID).Scan(&total)
	return total, err
}

func (r *txRepository) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO payments (transaction_id, type, direction, amount, remark, file_id, created_at, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		p.TransactionID, p.Type, p.Direction, p.Amount, p.Remark, p.FileID, p.CreatedAt, nullInt(p.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertDetail(ctx context.Context, d DetailRow) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO payment_details (payment_id, identifier, value) VALUES ($1, $2, $3)`,
		d.PaymentID, d.Identifier, d.Value)
	return err
}

func (r *txRepository) UpdateTransactionStatus(ctx context.Context, transactionID int64, status transaction.Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE transactions SET status=$1 WHERE id=$2`, status, transactionID)
	return err
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
