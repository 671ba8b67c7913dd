package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/sentosa-erp/sentosa/internal/inventory"
	"github.com/sentosa-erp/sentosa/internal/platform/cache"
	"github.com/sentosa-erp/sentosa/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// WarmupEnqueuer schedules a dashboard warmup after ledger writes. Enqueue
// failures never fail the request.
type WarmupEnqueuer interface {
	EnqueueDashboardWarmup(ctx context.Context) error
}

// Service orchestrates transaction creation and aggregation reads.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	cache       *cache.Versioned
	warmup      WarmupEnqueuer
}

// NewService builds Service. Audit, idempotency, cache, and warmup are all
// optional; nil values disable the corresponding side effect.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, dashCache *cache.Versioned, warmup WarmupEnqueuer) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, cache: dashCache, warmup: warmup}
}

// Create validates, computes totals, persists the transaction with its items
// and discounts, and appends one inventory ledger row per item, all inside
// a single database transaction. SELL lines decrease stock and must pass
// the sufficiency check first; BUY lines increase stock.
func (s *Service) Create(ctx context.Context, input CreateInput, actorID int64) (Detail, error) {
	if !input.Type.Valid() {
		return Detail{}, shared.Invalidf("unknown transaction type %q", input.Type)
	}
	if len(input.Items) == 0 {
		return Detail{}, shared.Invalidf("at least one item is required")
	}
	if input.CustomerID != nil && *input.CustomerID <= 0 {
		return Detail{}, shared.Invalidf("invalid customer ID")
	}

	itemTotals := make([]float64, len(input.Items))
	var subtotal float64
	for i, item := range input.Items {
		if item.ProductID <= 0 || item.UnitQuantityID <= 0 {
			return Detail{}, shared.Invalidf("item %d: product and unit quantity are required", i)
		}
		if item.Quantity <= 0 {
			return Detail{}, shared.Invalidf("item %d: quantity must be positive", i)
		}
		if item.PricePerUnit < 0 {
			return Detail{}, shared.Invalidf("item %d: price per unit must not be negative", i)
		}
		itemTotals[i] = item.Quantity * item.PricePerUnit
		subtotal += itemTotals[i]
	}

	totalDiscount, resolved, err := calculateDiscounts(itemTotals, subtotal, input.Discounts)
	if err != nil {
		return Detail{}, err
	}

	insertedKey := false
	if input.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "transaction"); err != nil {
			return Detail{}, err
		}
		insertedKey = true
	}

	now := time.Now().UTC()
	var txID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.CustomerID != nil {
			if err := tx.EnsureCustomer(ctx, *input.CustomerID); err != nil {
				return err
			}
		}

		// Validate items and, for SELL, check stock. Pending deltas track
		// quantities claimed by earlier items of the same batch so repeated
		// (product, unit) lines cannot oversell together.
		productNames := make([]string, len(input.Items))
		locked := map[int64]bool{}
		pending := map[int64]float64{}
		for i, item := range input.Items {
			name, err := tx.ProductName(ctx, item.ProductID)
			if err != nil {
				return err
			}
			productNames[i] = name
			if err := tx.EnsureUnit(ctx, item.UnitQuantityID); err != nil {
				return err
			}
			if input.Type != TypeSell {
				continue
			}
			key := shared.StockLockKey(item.ProductID, item.UnitQuantityID)
			if !locked[key] {
				if err := tx.LockStock(ctx, item.ProductID, item.UnitQuantityID); err != nil {
					return err
				}
				locked[key] = true
			}
			balance, err := tx.StockBalance(ctx, item.ProductID, item.UnitQuantityID)
			if err != nil {
				return err
			}
			available := balance - pending[key]
			if available < item.Quantity {
				return shared.InsufficientStockf("insufficient stock for product %s: current %s, requested %s",
					name, shared.FormatAmount(available), shared.FormatAmount(item.Quantity))
			}
			pending[key] += item.Quantity
		}

		rates, err := tx.TaxRates(ctx, input.TaxIDs)
		if err != nil {
			return err
		}
		totalTax, err := calculateTax(subtotal-totalDiscount, input.TaxIDs, rates)
		if err != nil {
			return err
		}
		grandTotal := subtotal - totalDiscount + totalTax

		txID, err = tx.InsertTransaction(ctx, Transaction{
			CustomerID:    input.CustomerID,
			Type:          input.Type,
			Status:        StatusUnpaid,
			Subtotal:      subtotal,
			TotalDiscount: totalDiscount,
			TotalTax:      totalTax,
			GrandTotal:    grandTotal,
			Remark:        input.Remark,
			CreatedAt:     now,
			CreatedBy:     actorID,
		})
		if err != nil {
			return err
		}

		itemIDs := make([]int64, len(input.Items))
		for i, item := range input.Items {
			id, err := tx.InsertItem(ctx, Item{
				TransactionID:  txID,
				ProductID:      item.ProductID,
				Quantity:       item.Quantity,
				UnitQuantityID: item.UnitQuantityID,
				PricePerUnit:   item.PricePerUnit,
				Total:          itemTotals[i],
				Remark:         item.Remark,
			})
			if err != nil {
				return err
			}
			itemIDs[i] = id
		}

		for _, d := range resolved {
			discount := Discount{
				TransactionID: txID,
				Type:          d.Type,
				Percentage:    d.Percentage,
				Amount:        d.Amount,
			}
			if d.ItemIndex != nil {
				discount.TransactionItemID = &itemIDs[*d.ItemIndex]
			}
			if err := tx.InsertDiscount(ctx, discount); err != nil {
				return err
			}
		}

		for _, item := range input.Items {
			quantity := item.Quantity
			if input.Type == TypeSell {
				quantity = -quantity
			}
			if _, err := tx.AppendHistory(ctx, inventory.History{
				ProductID:      item.ProductID,
				Quantity:       quantity,
				UnitQuantityID: item.UnitQuantityID,
				Remark:         fmt.Sprintf("transaction #%d", txID),
				CreatedAt:      now,
				CreatedBy:      actorID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		return Detail{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "transaction:create",
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", txID),
			Meta:     map[string]any{"type": input.Type, "items": len(input.Items)},
		})
	}
	_ = s.cache.Bump(ctx)
	if s.warmup != nil {
		_ = s.warmup.EnqueueDashboardWarmup(ctx)
	}

	return s.repo.Get(ctx, txID)
}

// Get loads one transaction with items and discounts.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	if id <= 0 {
		return Detail{}, shared.Invalidf("invalid transaction ID")
	}
	return s.repo.Get(ctx, id)
}

// List pages through transactions.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Detail, int64, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, 0, shared.Invalidf("unknown transaction type %q", *filter.Type)
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, shared.Invalidf("unknown transaction status %q", *filter.Status)
	}
	return s.repo.List(ctx, filter)
}

// GetSummary aggregates revenue, expenses, and net income.
func (s *Service) GetSummary(ctx context.Context, filter RangeFilter) (Summary, error) {
	return s.repo.Summary(ctx, filter)
}

// GetProductSummary rolls up per-product sold and bought totals.
func (s *Service) GetProductSummary(ctx context.Context, filter ProductSummaryFilter) ([]ProductSummaryRow, error) {
	if filter.ProductID != nil && *filter.ProductID <= 0 {
		return nil, shared.Invalidf("invalid product ID")
	}
	return s.repo.ProductSummary(ctx, filter)
}

// GetTimeSeries buckets revenue and expenses by interval across the range.
func (s *Service) GetTimeSeries(ctx context.Context, filter SeriesFilter) ([]SeriesPoint, error) {
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
	return s.repo.Series(ctx, filter)
}
