package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sentosa-erp/sentosa/internal/platform/cache"
	"github.com/sentosa-erp/sentosa/internal/shared"
	"github.com/sentosa-erp/sentosa/internal/transaction"
)

// TransactionReader is the slice of transaction aggregation the dashboard
// delegates to.
type TransactionReader interface {
	Summary(ctx context.Context, filter transaction.RangeFilter) (transaction.Summary, error)
	Series(ctx context.Context, filter transaction.SeriesFilter) ([]transaction.SeriesPoint, error)
}

// Service assembles the dashboard views. Every read goes through the
// versioned cache; ledger writes bump the version so a fresh read follows
// any transaction, payment, or manual stock change.
type Service struct {
	repo         RepositoryPort
	transactions TransactionReader
	cache        *cache.Versioned
}

// NewService builds Service. A nil cache degrades to uncached loads.
func NewService(repo RepositoryPort, transactions TransactionReader, dashCache *cache.Versioned) *Service {
	return &Service{repo: repo, transactions: transactions, cache: dashCache}
}

// FinanceSummary fans the transaction totals and the payment flows out in
// parallel and merges them into one view.
func (s *Service) FinanceSummary(ctx context.Context, rng Range) (FinanceSummary, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "finance", rangeKey(rng))
	if err != nil {
		return FinanceSummary{}, err
	}
	var summary FinanceSummary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (any, error) {
		var (
			txSummary       transaction.Summary
			received, spent float64
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			txSummary, err = s.transactions.Summary(gctx, transaction.RangeFilter{From: rng.From, To: rng.To})
			return err
		})
		g.Go(func() error {
			var err error
			received, spent, err = s.repo.PaymentFlows(gctx, rng)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return FinanceSummary{
			Revenue:   txSummary.Revenue,
			Expenses:  txSummary.Expenses,
			NetIncome: txSummary.NetIncome,
			Received:  received,
			Spent:     spent,
			NetFlow:   received - spent,
		}, nil
	})
	return summary, err
}

// PaymentSummary lists open customer balances with overall totals.
func (s *Service) PaymentSummary(ctx context.Context, rng Range) (PaymentSummary, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "payments", rangeKey(rng))
	if err != nil {
		return PaymentSummary{}, err
	}
	var summary PaymentSummary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (any, error) {
		balances, err := s.repo.CustomerBalances(ctx, rng)
		if err != nil {
			return nil, err
		}
		out := PaymentSummary{Customers: balances}
		for _, b := range balances {
			out.TotalReceivable += b.Receivable
			out.TotalPayable += b.Payable
		}
		return out, nil
	})
	return summary, err
}

// PaymentTimeSeries buckets payment flows by interval across the range.
func (s *Service) PaymentTimeSeries(ctx context.Context, rng Range, interval transaction.Interval) ([]FlowPoint, error) {
	if interval == "" {
		interval = transaction.IntervalDay
	}
	if !interval.Valid() {
		return nil, shared.Invalidf("unknown interval %q", interval)
	}
	if rng.To.IsZero() {
		rng.To = time.Now().UTC()
	}
	if rng.From.IsZero() {
		rng.From = rng.To.AddDate(0, 0, -30)
	}
	if !rng.From.Before(rng.To) {
		return nil, shared.Invalidf("series range start must precede its end")
	}
	trunc := "day"
	if interval == transaction.IntervalMonth {
		trunc = "month"
	}
	key, err := s.cache.BuildKey(ctx, "dashboard", "payments", "series", rangeKey(rng), string(interval))
	if err != nil {
		return nil, err
	}
	points := []FlowPoint{}
	err = s.cache.FetchJSON(ctx, key, &points, func(ctx context.Context) (any, error) {
		return s.repo.PaymentSeries(ctx, rng.From, rng.To, trunc)
	})
	return points, err
}

// TransactionTimeSeries delegates to the transaction aggregation, cached.
func (s *Service) TransactionTimeSeries(ctx context.Context, rng Range, interval transaction.Interval) ([]transaction.SeriesPoint, error) {
	if interval == "" {
		interval = transaction.IntervalDay
	}
	if !interval.Valid() {
		return nil, shared.Invalidf("unknown interval %q", interval)
	}
	if rng.To.IsZero() {
		rng.To = time.Now().UTC()
	}
	if rng.From.IsZero() {
		rng.From = rng.To.AddDate(0, 0, -30)
	}
	key, err := s.cache.BuildKey(ctx, "dashboard", "transactions", "series", rangeKey(rng), string(interval))
	if err != nil {
		return nil, err
	}
	points := []transaction.SeriesPoint{}
	err = s.cache.FetchJSON(ctx, key, &points, func(ctx context.Context) (any, error) {
		return s.transactions.Series(ctx, transaction.SeriesFilter{
			RangeFilter: transaction.RangeFilter{From: rng.From, To: rng.To},
			Interval:    interval,
		})
	})
	return points, err
}

// Warm primes the standard dashboard views. Run by the background warmup
// task after cache bumps and on the nightly schedule.
func (s *Service) Warm(ctx context.Context) error {
	now := time.Now().UTC()
	month := Range{From: now.AddDate(0, 0, -30), To: now}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.FinanceSummary(gctx, Range{})
		return err
	})
	g.Go(func() error {
		_, err := s.PaymentSummary(gctx, Range{})
		return err
	})
	g.Go(func() error {
		_, err := s.PaymentTimeSeries(gctx, month, transaction.IntervalDay)
		return err
	})
	g.Go(func() error {
		_, err := s.TransactionTimeSeries(gctx, month, transaction.IntervalDay)
		return err
	})
	return g.Wait()
}

func rangeKey(rng Range) string {
	from, to := "open", "open"
	if !rng.From.IsZero() {
		from = rng.From.Format(time.DateOnly)
	}
	if !rng.To.IsZero() {
		to = rng.To.Format(time.DateOnly)
	}
	return from + "_" + to
}
