package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/sentosa-erp/sentosa/internal/platform/cache"
	"github.com/sentosa-erp/sentosa/internal/shared"
	"github.com/sentosa-erp/sentosa/internal/transaction"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// WarmupEnqueuer schedules a dashboard warmup after a payment lands.
type WarmupEnqueuer interface {
	EnqueueDashboardWarmup(ctx context.Context) error
}

// Service records payments and derives transaction payment status.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	cache       *cache.Versioned
	warmup      WarmupEnqueuer
}

// NewService builds Service. Audit, idempotency, cache, and warmup are
// optional; nil values disable the corresponding side effect.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, dashCache *cache.Versioned, warmup WarmupEnqueuer) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, cache: dashCache, warmup: warmup}
}

// Create records one payment. When the payment references a transaction,
// the transaction row is locked, the prior signed total recomputed, and the
// status derived per transaction type; the payment, its details, and the
// status update commit atomically. SELL payments may never push the paid
// total past the grand total.
func (s *Service) Create(ctx context.Context, input CreateInput, actorID int64) (Detail, error) {
	if !input.Type.Valid() {
		return Detail{}, shared.Invalidf("unknown payment type %q", input.Type)
	}
	if !input.Direction.Valid() {
		return Detail{}, shared.Invalidf("unknown payment direction %q", input.Direction)
	}
	if input.Amount <= 0 {
		return Detail{}, shared.Invalidf("payment amount must be positive")
	}
	if input.TransactionID != nil && *input.TransactionID <= 0 {
		return Detail{}, shared.Invalidf("invalid transaction ID")
	}
	for i, d := range input.Details {
		if d.Identifier == "" {
			return Detail{}, shared.Invalidf("detail %d: identifier is required", i)
		}
	}

	insertedKey := false
	if input.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "payment"); err != nil {
			return Detail{}, err
		}
		insertedKey = true
	}

	now := time.Now().UTC()
	var paymentID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.TransactionID != nil {
			header, err := tx.TransactionForUpdate(ctx, *input.TransactionID)
			if err != nil {
				return err
			}
			prior, err := tx.PriorSignedTotal(ctx, header.ID)
			if err != nil {
				return err
			}
			newTotal := prior + input.Direction.Signed(input.Amount)
			if header.Type == transaction.TypeSell && newTotal > header.GrandTotal+amountEpsilon {
				return shared.Overpaymentf("payment exceeds remaining balance: remaining %s",
					shared.FormatAmount(header.GrandTotal-prior))
			}
			status := deriveStatus(header.Type, header.Status, header.GrandTotal, newTotal)
			if status != header.Status {
				if err := tx.UpdateTransactionStatus(ctx, header.ID, status); err != nil {
					return err
				}
			}
		}

		var err error
		paymentID, err = tx.InsertPayment(ctx, Payment{
			TransactionID: input.TransactionID,
			Type:          input.Type,
			Direction:     input.Direction,
			Amount:        input.Amount,
			Remark:        input.Remark,
			FileID:        input.FileID,
			CreatedAt:     now,
			CreatedBy:     actorID,
		})
		if err != nil {
			return err
		}
		for _, d := range input.Details {
			if err := tx.InsertDetail(ctx, DetailRow{
				PaymentID:  paymentID,
				Identifier: d.Identifier,
				Value:      d.Value,
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
			Action:   "payment:create",
			Entity:   "payment",
			EntityID: fmt.Sprintf("%d", paymentID),
			Meta:     map[string]any{"type": input.Type, "direction": input.Direction, "amount": input.Amount},
		})
	}
	_ = s.cache.Bump(ctx)
	if s.warmup != nil {
		_ = s.warmup.EnqueueDashboardWarmup(ctx)
	}

	return s.repo.Get(ctx, paymentID)
}

// amountEpsilon absorbs float drift accumulated across partial payments so
// an exact payoff settles as PAID instead of being rejected or left
// PARTIALLY_PAID one ulp short.
const amountEpsilon = 1e-6

// deriveStatus maps the new signed payment total to a transaction status.
// SELL accumulates inflows toward the grand total. BUY payments are
// outflows paying down a payable balance, so the thresholds run negative:
// the transaction is PAID once the signed total reaches -grandTotal,
// PARTIALLY_PAID for any negative movement, and otherwise keeps its
// current status.
func deriveStatus(txType transaction.Type, current transaction.Status, grandTotal, newTotal float64) transaction.Status {
	if txType == transaction.TypeSell {
		switch {
		case newTotal >= grandTotal-amountEpsilon:
			return transaction.StatusPaid
		case newTotal > 0:
			return transaction.StatusPartiallyPaid
		default:
			return transaction.StatusUnpaid
		}
	}
	switch {
	case newTotal <= -grandTotal+amountEpsilon:
		return transaction.StatusPaid
	case newTotal < 0:
		return transaction.StatusPartiallyPaid
	default:
		return current
	}
}

// Get loads one payment with its details.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	if id <= 0 {
		return Detail{}, shared.Invalidf("invalid payment ID")
	}
	return s.repo.Get(ctx, id)
}

// List pages through payments.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Detail, int64, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, 0, shared.Invalidf("unknown payment type %q", *filter.Type)
	}
	if filter.Direction != nil && !filter.Direction.Valid() {
		return nil, 0, shared.Invalidf("unknown payment direction %q", *filter.Direction)
	}
	return s.repo.List(ctx, filter)
}
