package inventory

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sentosa-erp/sentosa/internal/platform/cache"
	"github.com/sentosa-erp/sentosa/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates ledger operations.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	cache       *cache.Versioned
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, dashCache *cache.Versioned) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, cache: dashCache}
}

// Manipulate applies a batch of manual stock adjustments. The whole batch
// runs in one transaction: any item failing validation or the non-negativity
// check aborts every appended row.
func (s *Service) Manipulate(ctx context.Context, input ManipulateInput, actorID int64) ([]History, error) {
	if len(input.Items) == 0 {
		return nil, shared.Invalidf("at least one item is required")
	}
	for i, item := range input.Items {
		if item.ProductID <= 0 || item.UnitQuantityID <= 0 {
			return nil, shared.Invalidf("item %d: product and unit quantity are required", i)
		}
		if math.Abs(item.Quantity) < 1e-9 {
			return nil, shared.Invalidf("item %d: quantity must not be zero", i)
		}
	}

	insertedKey := false
	if input.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "inventory"); err != nil {
			return nil, err
		}
		insertedKey = true
	}

	now := time.Now().UTC()
	var appended []History
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, item := range input.Items {
			name, err := tx.ProductName(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := tx.EnsureUnit(ctx, item.UnitQuantityID); err != nil {
				return err
			}
			if err := tx.LockStock(ctx, item.ProductID, item.UnitQuantityID); err != nil {
				return err
			}
			current, err := tx.StockBalance(ctx, item.ProductID, item.UnitQuantityID)
			if err != nil {
				return err
			}
			if current+item.Quantity < 0 {
				return shared.InsufficientStockf("insufficient stock for product %s: current %s, requested %s",
					name, shared.FormatAmount(current), shared.FormatAmount(-item.Quantity))
			}
			remark := item.Remark
			if remark == "" {
				remark = input.Remark
			}
			h := History{
				ProductID:      item.ProductID,
				Quantity:       item.Quantity,
				UnitQuantityID: item.UnitQuantityID,
				Remark:         remark,
				CreatedAt:      now,
				CreatedBy:      actorID,
			}
			id, err := tx.AppendHistory(ctx, h)
			if err != nil {
				return err
			}
			h.ID = id
			appended = append(appended, h)
		}
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "inventory:manipulate",
			Entity:   "inventory_history",
			EntityID: fmt.Sprintf("batch:%d", len(appended)),
			Meta:     map[string]any{"items": len(appended), "remark": input.Remark},
		})
	}
	_ = s.cache.Bump(ctx)
	return appended, nil
}

// TotalQuantity reports the current summed balance for one pair.
func (s *Service) TotalQuantity(ctx context.Context, productID, unitQuantityID int64) (float64, error) {
	if productID <= 0 || unitQuantityID <= 0 {
		return 0, shared.Invalidf("product and unit quantity are required")
	}
	return s.repo.TotalQuantity(ctx, productID, unitQuantityID)
}

// Summary lists nonzero (product, unit) balances, optionally for a single
// product.
func (s *Service) Summary(ctx context.Context, productID *int64) ([]SummaryRow, error) {
	if productID != nil && *productID <= 0 {
		return nil, shared.Invalidf("invalid product ID")
	}
	return s.repo.Summary(ctx, productID)
}

// TimeSeries returns the cumulative running balance per bucket across the
// range. Each bucket's total is the previous bucket's total plus the
// bucket's net movement; gaps carry the running total forward unchanged.
func (s *Service) TimeSeries(ctx context.Context, filter SeriesFilter) ([]SeriesPoint, error) {
	if filter.ProductID <= 0 {
		return nil, shared.Invalidf("product ID is required")
	}
	if filter.Interval == "" {
		filter.Interval = IntervalDay
	}
	if !filter.Interval.Valid() {
		return nil, shared.Invalidf("unknown interval %q", filter.Interval)
	}
	if filter.To.IsZero() {
		filter.To = time.Now().UTC()
	}
	if filter.From.IsZero() {
		filter.From = filter.To.AddDate(0, 0, -30)
	}
	if !filter.From.Before(filter.To) {
		return nil, shared.Invalidf("series range start must precede its end")
	}

	opening, err := s.repo.OpeningBalance(ctx, filter)
	if err != nil {
		return nil, err
	}
	nets, err := s.repo.BucketNets(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Single scan with an accumulator over time-ordered buckets.
	points := []SeriesPoint{}
	running := opening
	i := 0
	for bucket := truncate(filter.From, filter.Interval); bucket.Before(filter.To); bucket = step(bucket, filter.Interval) {
		for i < len(nets) && !nets[i].Bucket.After(bucket) {
			running += nets[i].Net
			i++
		}
		points = append(points, SeriesPoint{Bucket: bucket, Total: running})
	}
	return points, nil
}

// Log lists raw ledger rows with pagination.
func (s *Service) Log(ctx context.Context, filter LogFilter) ([]HistoryRow, int64, error) {
	return s.repo.Log(ctx, filter)
}

func truncate(t time.Time, interval Interval) time.Time {
	if interval == IntervalMonth {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func step(t time.Time, interval Interval) time.Time {
	if interval == IntervalMonth {
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}
