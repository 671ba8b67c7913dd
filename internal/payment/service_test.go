package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentosa-erp/sentosa/internal/shared"
	"github.com/sentosa-erp/sentosa/internal/transaction"
)

type memoryPaymentRepo struct {
	headers  map[int64]*TransactionHeader
	payments map[int64]Payment
	details  map[int64][]DetailRow
	nextID   int64
}

func newMemoryPaymentRepo() *memoryPaymentRepo {
	return &memoryPaymentRepo{
		headers:  map[int64]*TransactionHeader{},
		payments: map[int64]Payment{},
		details:  map[int64][]DetailRow{},
	}
}

type memoryPaymentTx struct {
	repo *memoryPaymentRepo

	payments map[int64]Payment
	details  map[int64][]DetailRow
	statuses map[int64]transaction.Status
}

func (r *memoryPaymentRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryPaymentTx{
		repo:     r,
		payments: map[int64]Payment{},
		details:  map[int64][]DetailRow{},
		statuses: map[int64]transaction.Status{},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, p := range tx.payments {
		r.payments[id] = p
	}
	for id, ds := range tx.details {
		r.details[id] = append(r.details[id], ds...)
	}
	for id, status := range tx.statuses {
		r.headers[id].Status = status
	}
	return nil
}

func (t *memoryPaymentTx) TransactionForUpdate(ctx context.Context, id int64) (TransactionHeader, error) {
	header, ok := t.repo.headers[id]
	if !ok {
		return TransactionHeader{}, shared.NotFoundf("transaction %d not found", id)
	}
	return *header, nil
}

func (t *memoryPaymentTx) PriorSignedTotal(ctx context.Context, transactionID int64) (float64, error) {
	var total float64
	for _, p := range t.repo.payments {
		if p.TransactionID != nil && *p.TransactionID == transactionID {
			total += p.Direction.Signed(p.Amount)
		}
	}
	return total, nil
}

func (t *memoryPaymentTx) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	t.repo.nextID++
	p.ID = t.repo.nextID
	t.payments[p.ID] = p
	return p.ID, nil
}

func (t *memoryPaymentTx) InsertDetail(ctx context.Context, d DetailRow) error {
	t.details[d.PaymentID] = append(t.details[d.PaymentID], d)
	return nil
}

func (t *memoryPaymentTx) UpdateTransactionStatus(ctx context.Context, transactionID int64, status transaction.Status) error {
	t.statuses[transactionID] = status
	return nil
}

func (r *memoryPaymentRepo) Get(ctx context.Context, id int64) (Detail, error) {
	p, ok := r.payments[id]
	if !ok {
		return Detail{}, shared.NotFoundf("payment %d not found", id)
	}
	details := r.details[id]
	if details == nil {
		details = []DetailRow{}
	}
	return Detail{Payment: p, Details: details}, nil
}

func (r *memoryPaymentRepo) List(ctx context.Context, filter ListFilter) ([]Detail, int64, error) {
	out := []Detail{}
	for id := range r.payments {
		d, _ := r.Get(ctx, id)
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

func (r *memoryPaymentRepo) seedTransaction(id int64, txType transaction.Type, grandTotal float64) {
	r.headers[id] = &TransactionHeader{ID: id, Type: txType, Status: transaction.StatusUnpaid, GrandTotal: grandTotal}
}

func txnID(id int64) *int64 { return &id }

func TestSellStatusProgression(t *testing.T) {
	repo := newMemoryPaymentRepo()
	repo.seedTransaction(1, transaction.TypeSell, 97.50)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		TransactionID: txnID(1), Type: TypeCash, Direction: DirectionInflow, Amount: 50,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, transaction.StatusPartiallyPaid, repo.headers[1].Status)

	_, err = svc.Create(ctx, CreateInput{
		TransactionID: txnID(1), Type: TypeTransfer, Direction: DirectionInflow, Amount: 47.50,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, transaction.StatusPaid, repo.headers[1].Status)
}

func TestSellOverpaymentRejected(t *testing.T) {
	repo := newMemoryPaymentRepo()
	repo.seedTransaction(1, transaction.TypeSell, 100)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		TransactionID: txnID(1), Type: TypeCash, Direction: DirectionInflow, Amount: 100,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, transaction.StatusPaid, repo.headers[1].Status)

	_, err = svc.Create(ctx, CreateInput{
		TransactionID: txnID(1), Type: TypeCash, Direction: DirectionInflow, Amount: 0.01,
	}, 1)
	require.True(t, shared.IsKind(err, shared.KindOverpayment))
	require.Len(t, repo.payments, 1)
}

func TestSellOverpaymentMentionsRemaining(t *testing.T) {
	repo := newMemoryPaymentRepo()
	repo.seedTransaction(1, transaction.TypeSell, 100)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		TransactionID: txnID(1), Type: TypeCash, Direction: DirectionInflow, Amount: 60,
	}, 1)
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{
		TransactionID: txnID(1), Type: TypeCash, Direction: DirectionInflow, Amount: 60,
	}, 1)
	require.True(t, shared.IsKind(err, shared.KindOverpayment))
	require.Contains(t, err.Error(), "40")
}

func TestSellExactPayoffSurvivesFloatDrift(t *testing.T) {
	repo := newMemoryPaymentRepo()
	repo.seedTransaction(1, transaction.TypeSell, 0.3)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	// 0.1 + 0.2 sums to slightly above 0.3 in binary floats; the payoff
	// must settle as PAID, not bounce as an overpayment.
	_, err := svc.Create(ctx, CreateInput{
		TransactionID: txnID(1), Type: TypeCash, Direction: DirectionInflow, Amount: 0.1,
	}, 1)
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{
		TransactionID: txnID(1), Type: TypeCash, Direction: DirectionInflow, Amount: 0.2,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, transaction.StatusPaid, repo.headers[1].Status)
}

func TestSellRefundRollsStatusBack(t *testing.T) {
	repo := newMemoryPaymentRepo()
	repo.seedTransaction(1, transaction.TypeSell, 100)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		TransactionID: txnID(1), Type: TypeCash, Direction: DirectionInflow, Amount: 100,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, transaction.StatusPaid, repo.headers[1].Status)

	_, err = svc.Create(ctx, CreateInput{
		TransactionID: txnID(1), Type: TypeCash, Direction: DirectionOutflow, Amount: 100,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, transaction.StatusUnpaid, repo.headers[1].Status)
}

func TestBuyStatusProgression(t *testing.T) {
	repo := newMemoryPaymentRepo()
	repo.seedTransaction(2, transaction.TypeBuy, 200)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		TransactionID: txnID(2), Type: TypeTransfer, Direction: DirectionOutflow, Amount: 80,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, transaction.StatusPartiallyPaid, repo.headers[2].Status)

	_, err = svc.Create(ctx, CreateInput{
		TransactionID: txnID(2), Type: TypeTransfer, Direction: DirectionOutflow, Amount: 120,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, transaction.StatusPaid, repo.headers[2].Status)
}

func TestBuyInflowLeavesStatusAlone(t *testing.T) {
	repo := newMemoryPaymentRepo()
	repo.seedTransaction(2, transaction.TypeBuy, 200)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	// A supplier rebate on an unpaid purchase records the money but does not
	// move the status forward.
	_, err := svc.Create(ctx, CreateInput{
		TransactionID: txnID(2), Type: TypeTransfer, Direction: DirectionInflow, Amount: 30,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, transaction.StatusUnpaid, repo.headers[2].Status)
}

func TestStandalonePaymentSkipsStatusWork(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := NewService(repo, nil, nil, nil, nil)

	detail, err := svc.Create(context.Background(), CreateInput{
		Type: TypeCash, Direction: DirectionOutflow, Amount: 25, Remark: "office supplies",
		Details: []DetailInput{{Identifier: "receipt_no", Value: "A-1042"}},
	}, 1)
	require.NoError(t, err)
	require.Nil(t, detail.TransactionID)
	require.Len(t, detail.Details, 1)
	require.Equal(t, "receipt_no", detail.Details[0].Identifier)
}

func TestCreateValidation(t *testing.T) {
	repo := newMemoryPaymentRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Type: "CHEQUE", Direction: DirectionInflow, Amount: 10}, 1)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, CreateInput{Type: TypeCash, Direction: "SIDEWAYS", Amount: 10}, 1)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, CreateInput{Type: TypeCash, Direction: DirectionInflow, Amount: 0}, 1)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, CreateInput{
		Type: TypeCash, Direction: DirectionInflow, Amount: 10,
		Details: []DetailInput{{Identifier: "", Value: "x"}},
	}, 1)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, CreateInput{
		TransactionID: txnID(99), Type: TypeCash, Direction: DirectionInflow, Amount: 10,
	}, 1)
	require.True(t, shared.IsKind(err, shared.KindNotFound))
}
