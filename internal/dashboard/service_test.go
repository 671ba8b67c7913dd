package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sentosa-erp/sentosa/internal/platform/cache"
	"github.com/sentosa-erp/sentosa/internal/shared"
	"github.com/sentosa-erp/sentosa/internal/transaction"
)

type memoryDashRepo struct {
	received float64
	spent    float64
	balances []CustomerBalance
	series   []FlowPoint

	flowCalls    int
	balanceCalls int
	seriesCalls  int
}

func (r *memoryDashRepo) PaymentFlows(ctx context.Context, rng Range) (float64, float64, error) {
	r.flowCalls++
	return r.received, r.spent, nil
}

func (r *memoryDashRepo) CustomerBalances(ctx context.Context, rng Range) ([]CustomerBalance, error) {
	r.balanceCalls++
	return r.balances, nil
}

func (r *memoryDashRepo) PaymentSeries(ctx context.Context, from, to time.Time, trunc string) ([]FlowPoint, error) {
	r.seriesCalls++
	return r.series, nil
}

type memoryTxnReader struct {
	summary      transaction.Summary
	points       []transaction.SeriesPoint
	summaryCalls int
}

func (m *memoryTxnReader) Summary(ctx context.Context, filter transaction.RangeFilter) (transaction.Summary, error) {
	m.summaryCalls++
	return m.summary, nil
}

func (m *memoryTxnReader) Series(ctx context.Context, filter transaction.SeriesFilter) ([]transaction.SeriesPoint, error) {
	return m.points, nil
}

func newTestService(t *testing.T, repo *memoryDashRepo, reader *memoryTxnReader) (*Service, *cache.Versioned) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	dashCache := cache.NewVersioned(client, "test:dashboard", time.Minute)
	return NewService(repo, reader, dashCache), dashCache
}

func TestFinanceSummaryMergesAndCaches(t *testing.T) {
	repo := &memoryDashRepo{received: 300, spent: 120}
	reader := &memoryTxnReader{summary: transaction.Summary{Revenue: 500, Expenses: 200, NetIncome: 300}}
	svc, _ := newTestService(t, repo, reader)
	ctx := context.Background()

	summary, err := svc.FinanceSummary(ctx, Range{})
	require.NoError(t, err)
	require.InDelta(t, 500, summary.Revenue, 1e-9)
	require.InDelta(t, 200, summary.Expenses, 1e-9)
	require.InDelta(t, 300, summary.NetIncome, 1e-9)
	require.InDelta(t, 300, summary.Received, 1e-9)
	require.InDelta(t, 120, summary.Spent, 1e-9)
	require.InDelta(t, 180, summary.NetFlow, 1e-9)

	_, err = svc.FinanceSummary(ctx, Range{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.flowCalls, "second read must hit the cache")
	require.Equal(t, 1, reader.summaryCalls)
}

func TestFinanceSummaryRefreshesAfterBump(t *testing.T) {
	repo := &memoryDashRepo{received: 100}
	reader := &memoryTxnReader{summary: transaction.Summary{Revenue: 100, NetIncome: 100}}
	svc, dashCache := newTestService(t, repo, reader)
	ctx := context.Background()

	first, err := svc.FinanceSummary(ctx, Range{})
	require.NoError(t, err)
	require.InDelta(t, 100, first.Received, 1e-9)

	// A ledger write bumps the version; the next read must reload.
	repo.received = 250
	require.NoError(t, dashCache.Bump(ctx))

	second, err := svc.FinanceSummary(ctx, Range{})
	require.NoError(t, err)
	require.InDelta(t, 250, second.Received, 1e-9)
	require.Equal(t, 2, repo.flowCalls)
}

func TestPaymentSummaryTotals(t *testing.T) {
	repo := &memoryDashRepo{balances: []CustomerBalance{
		{CustomerID: 1, CustomerName: "Walk-in Customer", Receivable: 70, Payable: 0},
		{CustomerID: 2, CustomerName: "Toko Maju", Receivable: 30, Payable: 45},
	}}
	reader := &memoryTxnReader{}
	svc, _ := newTestService(t, repo, reader)

	summary, err := svc.PaymentSummary(context.Background(), Range{})
	require.NoError(t, err)
	require.Len(t, summary.Customers, 2)
	require.InDelta(t, 100, summary.TotalReceivable, 1e-9)
	require.InDelta(t, 45, summary.TotalPayable, 1e-9)
}

func TestPaymentTimeSeriesValidation(t *testing.T) {
	svc, _ := newTestService(t, &memoryDashRepo{}, &memoryTxnReader{})
	ctx := context.Background()

	_, err := svc.PaymentTimeSeries(ctx, Range{}, "hour")
	require.True(t, shared.IsKind(err, shared.KindValidation))

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.PaymentTimeSeries(ctx, Range{From: day, To: day}, transaction.IntervalDay)
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestWarmPrimesStandardViews(t *testing.T) {
	repo := &memoryDashRepo{received: 10, series: []FlowPoint{}}
	reader := &memoryTxnReader{summary: transaction.Summary{Revenue: 10, NetIncome: 10}}
	svc, _ := newTestService(t, repo, reader)
	ctx := context.Background()

	require.NoError(t, svc.Warm(ctx))
	require.Equal(t, 1, repo.flowCalls)
	require.Equal(t, 1, repo.balanceCalls)
	require.Equal(t, 1, repo.seriesCalls)

	// The warmed views serve reads without touching the repositories again.
	_, err := svc.FinanceSummary(ctx, Range{})
	require.NoError(t, err)
	_, err = svc.PaymentSummary(ctx, Range{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.flowCalls)
	require.Equal(t, 1, repo.balanceCalls)
}
