package inventory

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentosa-erp/sentosa/internal/shared"
)

type memoryLedgerRepo struct {
	products map[int64]string
	units    map[int64]bool
	rows     []History
	nextID   int64
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{
		products: map[int64]string{1: "Mineral Water"},
		units:    map[int64]bool{1: true},
	}
}

type memoryLedgerTx struct {
	repo    *memoryLedgerRepo
	pending []History
}

func (r *memoryLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryLedgerTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.rows = append(r.rows, tx.pending...)
	return nil
}

func (t *memoryLedgerTx) ProductName(ctx context.Context, id int64) (string, error) {
	name, ok := t.repo.products[id]
	if !ok {
		return "", shared.NotFoundf("product %d not found", id)
	}
	return name, nil
}

func (t *memoryLedgerTx) EnsureUnit(ctx context.Context, id int64) error {
	if !t.repo.units[id] {
		return shared.NotFoundf("unit quantity %d not found", id)
	}
	return nil
}

func (t *memoryLedgerTx) LockStock(ctx context.Context, productID, unitQuantityID int64) error {
	return nil
}

func (t *memoryLedgerTx) StockBalance(ctx context.Context, productID, unitQuantityID int64) (float64, error) {
	var total float64
	for _, row := range t.repo.rows {
		if row.ProductID == productID && row.UnitQuantityID == unitQuantityID {
			total += row.Quantity
		}
	}
	for _, row := range t.pending {
		if row.ProductID == productID && row.UnitQuantityID == unitQuantityID {
			total += row.Quantity
		}
	}
	return total, nil
}

func (t *memoryLedgerTx) AppendHistory(ctx context.Context, h History) (int64, error) {
	t.repo.nextID++
	h.ID = t.repo.nextID
	t.pending = append(t.pending, h)
	return h.ID, nil
}

func (r *memoryLedgerRepo) Summary(ctx context.Context, productID *int64) ([]SummaryRow, error) {
	type key struct{ product, unit int64 }
	totals := map[key]float64{}
	for _, row := range r.rows {
		if productID != nil && row.ProductID != *productID {
			continue
		}
		totals[key{row.ProductID, row.UnitQuantityID}] += row.Quantity
	}
	out := []SummaryRow{}
	for k, total := range totals {
		if total == 0 {
			continue
		}
		out = append(out, SummaryRow{
			ProductID:      k.product,
			ProductName:    r.products[k.product],
			UnitQuantityID: k.unit,
			Total:          total,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *memoryLedgerRepo) TotalQuantity(ctx context.Context, productID, unitQuantityID int64) (float64, error) {
	var total float64
	for _, row := range r.rows {
		if row.ProductID == productID && row.UnitQuantityID == unitQuantityID {
			total += row.Quantity
		}
	}
	return total, nil
}

func (r *memoryLedgerRepo) OpeningBalance(ctx context.Context, filter SeriesFilter) (float64, error) {
	var total float64
	for _, row := range r.rows {
		if row.ProductID != filter.ProductID {
			continue
		}
		if filter.UnitQuantityID != nil && row.UnitQuantityID != *filter.UnitQuantityID {
			continue
		}
		if row.CreatedAt.Before(filter.From) {
			total += row.Quantity
		}
	}
	return total, nil
}

func (r *memoryLedgerRepo) BucketNets(ctx context.Context, filter SeriesFilter) ([]BucketNet, error) {
	nets := map[time.Time]float64{}
	for _, row := range r.rows {
		if row.ProductID != filter.ProductID {
			continue
		}
		if filter.UnitQuantityID != nil && row.UnitQuantityID != *filter.UnitQuantityID {
			continue
		}
		if row.CreatedAt.Before(filter.From) || !row.CreatedAt.Before(filter.To) {
			continue
		}
		bucket := time.Date(row.CreatedAt.Year(), row.CreatedAt.Month(), row.CreatedAt.Day(), 0, 0, 0, 0, time.UTC)
		nets[bucket] += row.Quantity
	}
	out := []BucketNet{}
	for bucket, net := range nets {
		out = append(out, BucketNet{Bucket: bucket, Net: net})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out, nil
}

func (r *memoryLedgerRepo) Log(ctx context.Context, filter LogFilter) ([]HistoryRow, int64, error) {
	out := []HistoryRow{}
	for _, row := range r.rows {
		out = append(out, HistoryRow{History: row, ProductName: r.products[row.ProductID]})
	}
	return out, int64(len(out)), nil
}

func TestManipulateAppendsAndSums(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Manipulate(context.Background(), ManipulateInput{
		Items: []ManipulateItem{{ProductID: 1, Quantity: 10, UnitQuantityID: 1}},
	}, 1)
	require.NoError(t, err)

	_, err = svc.Manipulate(context.Background(), ManipulateInput{
		Items: []ManipulateItem{{ProductID: 1, Quantity: -3, UnitQuantityID: 1}},
	}, 1)
	require.NoError(t, err)

	total, err := svc.TotalQuantity(context.Background(), 1, 1)
	require.NoError(t, err)
	require.InDelta(t, 7, total, 1e-9)

	summary, err := svc.Summary(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	require.InDelta(t, 7, summary[0].Total, 1e-9)
}

func TestManipulateRejectsNegativeBalance(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Manipulate(context.Background(), ManipulateInput{
		Items: []ManipulateItem{{ProductID: 1, Quantity: 7, UnitQuantityID: 1}},
	}, 1)
	require.NoError(t, err)

	_, err = svc.Manipulate(context.Background(), ManipulateInput{
		Items: []ManipulateItem{{ProductID: 1, Quantity: -8, UnitQuantityID: 1}},
	}, 1)
	require.Error(t, err)
	require.True(t, shared.IsKind(err, shared.KindInsufficientStock))
	require.Contains(t, err.Error(), "Mineral Water")

	total, err := svc.TotalQuantity(context.Background(), 1, 1)
	require.NoError(t, err)
	require.InDelta(t, 7, total, 1e-9)
}

func TestManipulateBatchIsAtomic(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo, nil, nil, nil)

	// Second item drains more than the first deposits: nothing lands.
	_, err := svc.Manipulate(context.Background(), ManipulateInput{
		Items: []ManipulateItem{
			{ProductID: 1, Quantity: 5, UnitQuantityID: 1},
			{ProductID: 1, Quantity: -6, UnitQuantityID: 1},
		},
	}, 1)
	require.Error(t, err)
	require.Empty(t, repo.rows)
}

func TestManipulateValidation(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Manipulate(context.Background(), ManipulateInput{}, 1)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Manipulate(context.Background(), ManipulateInput{
		Items: []ManipulateItem{{ProductID: 1, Quantity: 0, UnitQuantityID: 1}},
	}, 1)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Manipulate(context.Background(), ManipulateInput{
		Items: []ManipulateItem{{ProductID: 99, Quantity: 1, UnitQuantityID: 1}},
	}, 1)
	require.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestTimeSeriesAccumulatesAndFillsGaps(t *testing.T) {
	repo := newMemoryLedgerRepo()
	day := func(d int) time.Time { return time.Date(2026, time.March, d, 12, 0, 0, 0, time.UTC) }
	repo.rows = []History{
		{ProductID: 1, UnitQuantityID: 1, Quantity: 10, CreatedAt: day(1)},
		{ProductID: 1, UnitQuantityID: 1, Quantity: -3, CreatedAt: day(2)},
		{ProductID: 1, UnitQuantityID: 1, Quantity: 5, CreatedAt: day(4)},
	}
	svc := NewService(repo, nil, nil, nil)

	points, err := svc.TimeSeries(context.Background(), SeriesFilter{
		ProductID: 1,
		From:      time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC),
		Interval:  IntervalDay,
	})
	require.NoError(t, err)
	require.Len(t, points, 5)

	totals := make([]float64, len(points))
	for i, p := range points {
		totals[i] = p.Total
	}
	// Day 3 has no movement; the running total carries forward.
	require.Equal(t, []float64{10, 7, 7, 12, 12}, totals)
}

func TestTimeSeriesUsesOpeningBalance(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.rows = []History{
		{ProductID: 1, UnitQuantityID: 1, Quantity: 20, CreatedAt: time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)},
		{ProductID: 1, UnitQuantityID: 1, Quantity: -5, CreatedAt: time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)},
	}
	svc := NewService(repo, nil, nil, nil)

	points, err := svc.TimeSeries(context.Background(), SeriesFilter{
		ProductID: 1,
		From:      time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
		Interval:  IntervalDay,
	})
	require.NoError(t, err)
	require.Len(t, points, 3)
	require.InDelta(t, 20, points[0].Total, 1e-9)
	require.InDelta(t, 15, points[1].Total, 1e-9)
	require.InDelta(t, 15, points[2].Total, 1e-9)
}
