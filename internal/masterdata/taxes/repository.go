package taxes

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	mdshared "github.com/sentosa-erp/sentosa/internal/masterdata/shared"
	"github.com/sentosa-erp/sentosa/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters mdshared.ListFilters) ([]Tax, int64, error)
	Get(ctx context.Context, id int64) (Tax, error)
	Create(ctx context.Context, tax Tax) (Tax, error)
	Update(ctx context.Context, id int64, tax Tax) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// List uses a dynamic query due to filter complexity.
func (r *repository) List(ctx context.Context, filters mdshared.ListFilters) ([]Tax, int64, error) {
	query := `SELECT id, name, percentage, created_at, updated_at FROM taxes WHERE deleted_at IS NULL`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filters.Search+"%")
	}

	countQuery := `SELECT COUNT(*) FROM taxes WHERE deleted_at IS NULL`
	countArgs := []any{}
	if filters.Search != "" {
		countArgs = append(countArgs, "%"+filters.Search+"%")
		countQuery += ` AND name ILIKE $1`
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)

	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, filters.Limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var taxes []Tax
	for rows.Next() {
		var t Tax
		if err := rows.Scan(&t.ID, &t.Name, &t.Percentage, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		taxes = append(taxes, t)
	}
	return taxes, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Tax, error) {
	var t Tax
	err := r.pool.QueryRow(ctx, `SELECT id, name, percentage, created_at, updated_at FROM taxes WHERE id=$1 AND deleted_at IS NULL`, id).
		Scan(&t.ID, &t.Name, &t.Percentage, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tax{}, shared.NotFoundf("tax %d not found", id)
	}
	if err != nil {
		return Tax{}, err
	}
	return t, nil
}

func (r *repository) Create(ctx context.Context, tax Tax) (Tax, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO taxes (name, percentage, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW()) RETURNING id, created_at, updated_at`, tax.Name, tax.Percentage).
		Scan(&tax.ID, &tax.CreatedAt, &tax.UpdatedAt)
	if err != nil {
		return Tax{}, mapUniqueViolation(err)
	}
	return tax, nil
}

func (r *repository) Update(ctx context.Context, id int64, tax Tax) error {
	tag, err := r.pool.Exec(ctx, `UPDATE taxes SET name=$1, percentage=$2, updated_at=NOW() WHERE id=$3 AND deleted_at IS NULL`, tax.Name, tax.Percentage, id)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("tax %d not found", id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE taxes SET deleted_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("tax %d not found", id)
	}
	return nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.Invalidf("tax name already in use")
	}
	return err
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == mdshared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "name":
		return "name " + dir
	case "percentage":
		return "percentage " + dir
	default:
		return "name " + dir
	}
}
