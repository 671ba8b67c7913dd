package transaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentosa-erp/sentosa/internal/inventory"
	"github.com/sentosa-erp/sentosa/internal/shared"
)

type memoryTxnRepo struct {
	products  map[int64]string
	units     map[int64]bool
	customers map[int64]bool
	taxes     map[int64]float64

	ledger       []inventory.History
	transactions map[int64]Transaction
	items        map[int64][]Item
	discounts    map[int64][]Discount

	nextTxnID  int64
	nextItemID int64
}

func newMemoryTxnRepo() *memoryTxnRepo {
	return &memoryTxnRepo{
		products:     map[int64]string{1: "Mineral Water"},
		units:        map[int64]bool{1: true},
		customers:    map[int64]bool{5: true},
		taxes:        map[int64]float64{1: 8},
		transactions: map[int64]Transaction{},
		items:        map[int64][]Item{},
		discounts:    map[int64][]Discount{},
	}
}

type memoryTxnTx struct {
	repo *memoryTxnRepo

	ledger       []inventory.History
	transactions map[int64]Transaction
	items        map[int64][]Item
	discounts    map[int64][]Discount
}

func (r *memoryTxnRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTxnTx{
		repo:         r,
		transactions: map[int64]Transaction{},
		items:        map[int64][]Item{},
		discounts:    map[int64][]Discount{},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.ledger = append(r.ledger, tx.ledger...)
	for id, t := range tx.transactions {
		r.transactions[id] = t
	}
	for id, items := range tx.items {
		r.items[id] = append(r.items[id], items...)
	}
	for id, ds := range tx.discounts {
		r.discounts[id] = append(r.discounts[id], ds...)
	}
	return nil
}

func (t *memoryTxnTx) EnsureCustomer(ctx context.Context, id int64) error {
	if !t.repo.customers[id] {
		return shared.NotFoundf("customer %d not found", id)
	}
	return nil
}

func (t *memoryTxnTx) ProductName(ctx context.Context, id int64) (string, error) {
	name, ok := t.repo.products[id]
	if !ok {
		return "", shared.NotFoundf("product %d not found", id)
	}
	return name, nil
}

func (t *memoryTxnTx) EnsureUnit(ctx context.Context, id int64) error {
	if !t.repo.units[id] {
		return shared.NotFoundf("unit quantity %d not found", id)
	}
	return nil
}

func (t *memoryTxnTx) TaxRates(ctx context.Context, ids []int64) (map[int64]float64, error) {
	rates := map[int64]float64{}
	for _, id := range ids {
		if rate, ok := t.repo.taxes[id]; ok {
			rates[id] = rate
		}
	}
	return rates, nil
}

func (t *memoryTxnTx) LockStock(ctx context.Context, productID, unitQuantityID int64) error {
	return nil
}

func (t *memoryTxnTx) StockBalance(ctx context.Context, productID, unitQuantityID int64) (float64, error) {
	var total float64
	for _, row := range t.repo.ledger {
		if row.ProductID == productID && row.UnitQuantityID == unitQuantityID {
			total += row.Quantity
		}
	}
	return total, nil
}

func (t *memoryTxnTx) AppendHistory(ctx context.Context, h inventory.History) (int64, error) {
	t.ledger = append(t.ledger, h)
	return int64(len(t.ledger)), nil
}

func (t *memoryTxnTx) InsertTransaction(ctx context.Context, txn Transaction) (int64, error) {
	t.repo.nextTxnID++
	txn.ID = t.repo.nextTxnID
	t.transactions[txn.ID] = txn
	return txn.ID, nil
}

func (t *memoryTxnTx) InsertItem(ctx context.Context, item Item) (int64, error) {
	t.repo.nextItemID++
	item.ID = t.repo.nextItemID
	t.items[item.TransactionID] = append(t.items[item.TransactionID], item)
	return item.ID, nil
}

func (t *memoryTxnTx) InsertDiscount(ctx context.Context, d Discount) error {
	t.discounts[d.TransactionID] = append(t.discounts[d.TransactionID], d)
	return nil
}

func (r *memoryTxnRepo) Get(ctx context.Context, id int64) (Detail, error) {
	txn, ok := r.transactions[id]
	if !ok {
		return Detail{}, shared.NotFoundf("transaction %d not found", id)
	}
	d := Detail{Transaction: txn, Items: []ItemDetail{}, Discounts: r.discounts[id]}
	for _, item := range r.items[id] {
		d.Items = append(d.Items, ItemDetail{Item: item, ProductName: r.products[item.ProductID]})
	}
	if d.Discounts == nil {
		d.Discounts = []Discount{}
	}
	return d, nil
}

func (r *memoryTxnRepo) List(ctx context.Context, filter ListFilter) ([]Detail, int64, error) {
	out := []Detail{}
	for id := range r.transactions {
		d, _ := r.Get(ctx, id)
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

func (r *memoryTxnRepo) Summary(ctx context.Context, filter RangeFilter) (Summary, error) {
	var s Summary
	for _, txn := range r.transactions {
		switch txn.Type {
		case TypeSell:
			s.Revenue += txn.GrandTotal
		case TypeBuy:
			s.Expenses += txn.GrandTotal
		}
	}
	s.NetIncome = s.Revenue - s.Expenses
	return s, nil
}

func (r *memoryTxnRepo) ProductSummary(ctx context.Context, filter ProductSummaryFilter) ([]ProductSummaryRow, error) {
	return []ProductSummaryRow{}, nil
}

func (r *memoryTxnRepo) Series(ctx context.Context, filter SeriesFilter) ([]SeriesPoint, error) {
	return []SeriesPoint{}, nil
}

func (r *memoryTxnRepo) stock(productID, unitID int64) float64 {
	var total float64
	for _, row := range r.ledger {
		if row.ProductID == productID && row.UnitQuantityID == unitID {
			total += row.Quantity
		}
	}
	return total
}

func (r *memoryTxnRepo) seedStock(productID, unitID int64, quantity float64) {
	r.ledger = append(r.ledger, inventory.History{ProductID: productID, UnitQuantityID: unitID, Quantity: quantity})
}

func TestCreateSellDecrementsStock(t *testing.T) {
	repo := newMemoryTxnRepo()
	repo.seedStock(1, 1, 10)
	svc := NewService(repo, nil, nil, nil, nil)

	detail, err := svc.Create(context.Background(), CreateInput{
		Type:  TypeSell,
		Items: []ItemInput{{ProductID: 1, Quantity: 3, UnitQuantityID: 1, PricePerUnit: 5}},
	}, 1)
	require.NoError(t, err)

	require.Equal(t, StatusUnpaid, detail.Status)
	require.InDelta(t, 15, detail.Subtotal, 1e-9)
	require.InDelta(t, 15, detail.GrandTotal, 1e-9)
	require.Len(t, detail.Items, 1)
	require.InDelta(t, 7, repo.stock(1, 1), 1e-9)
}

func TestCreateRejectsInsufficientStock(t *testing.T) {
	repo := newMemoryTxnRepo()
	repo.seedStock(1, 1, 7)
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Type:  TypeSell,
		Items: []ItemInput{{ProductID: 1, Quantity: 8, UnitQuantityID: 1, PricePerUnit: 5}},
	}, 1)
	require.True(t, shared.IsKind(err, shared.KindInsufficientStock))
	require.Contains(t, err.Error(), "Mineral Water")

	require.InDelta(t, 7, repo.stock(1, 1), 1e-9)
	require.Empty(t, repo.transactions)
}

func TestCreateDuplicateLinesShareTheBalance(t *testing.T) {
	repo := newMemoryTxnRepo()
	repo.seedStock(1, 1, 10)
	svc := NewService(repo, nil, nil, nil, nil)

	// Two lines of 6 each pass individually against 10 but not together.
	_, err := svc.Create(context.Background(), CreateInput{
		Type: TypeSell,
		Items: []ItemInput{
			{ProductID: 1, Quantity: 6, UnitQuantityID: 1, PricePerUnit: 1},
			{ProductID: 1, Quantity: 6, UnitQuantityID: 1, PricePerUnit: 1},
		},
	}, 1)
	require.True(t, shared.IsKind(err, shared.KindInsufficientStock))
	require.InDelta(t, 10, repo.stock(1, 1), 1e-9)
}

func TestCreateBuyIncrementsStockWithoutCheck(t *testing.T) {
	repo := newMemoryTxnRepo()
	svc := NewService(repo, nil, nil, nil, nil)

	detail, err := svc.Create(context.Background(), CreateInput{
		Type:  TypeBuy,
		Items: []ItemInput{{ProductID: 1, Quantity: 20, UnitQuantityID: 1, PricePerUnit: 2}},
	}, 1)
	require.NoError(t, err)
	require.InDelta(t, 40, detail.GrandTotal, 1e-9)
	require.InDelta(t, 20, repo.stock(1, 1), 1e-9)
}

func TestCreateGrandTotalWithDiscountAndTax(t *testing.T) {
	repo := newMemoryTxnRepo()
	repo.seedStock(1, 1, 10)
	svc := NewService(repo, nil, nil, nil, nil)

	// 100 - 10% discount = 90; 8% tax on 90 = 7.20; grand total 97.20.
	detail, err := svc.Create(context.Background(), CreateInput{
		Type:      TypeSell,
		Items:     []ItemInput{{ProductID: 1, Quantity: 1, UnitQuantityID: 1, PricePerUnit: 100}},
		Discounts: []DiscountInput{{Type: DiscountTotalPercentage, Percentage: ptrF(10)}},
		TaxIDs:    []int64{1},
	}, 1)
	require.NoError(t, err)

	require.InDelta(t, 100, detail.Subtotal, 1e-9)
	require.InDelta(t, 10, detail.TotalDiscount, 1e-9)
	require.InDelta(t, 7.20, detail.TotalTax, 1e-9)
	require.InDelta(t, 97.20, detail.GrandTotal, 1e-9)
	require.InDelta(t, detail.Subtotal-detail.TotalDiscount+detail.TotalTax, detail.GrandTotal, 1e-9)
	require.Len(t, detail.Discounts, 1)
}

func TestCreateResolvesItemDiscountToItemID(t *testing.T) {
	repo := newMemoryTxnRepo()
	repo.seedStock(1, 1, 10)
	svc := NewService(repo, nil, nil, nil, nil)

	detail, err := svc.Create(context.Background(), CreateInput{
		Type: TypeSell,
		Items: []ItemInput{
			{ProductID: 1, Quantity: 1, UnitQuantityID: 1, PricePerUnit: 40},
			{ProductID: 1, Quantity: 1, UnitQuantityID: 1, PricePerUnit: 60},
		},
		Discounts: []DiscountInput{{Type: DiscountItemFixed, Amount: ptrF(5), ItemIndex: ptrI(1)}},
	}, 1)
	require.NoError(t, err)
	require.Len(t, detail.Discounts, 1)
	require.NotNil(t, detail.Discounts[0].TransactionItemID)
	require.Equal(t, detail.Items[1].ID, *detail.Discounts[0].TransactionItemID)
}

func TestCreateValidation(t *testing.T) {
	repo := newMemoryTxnRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Type: "SWAP"}, 1)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, CreateInput{Type: TypeSell}, 1)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Create(ctx, CreateInput{
		Type:  TypeSell,
		Items: []ItemInput{{ProductID: 1, Quantity: -1, UnitQuantityID: 1}},
	}, 1)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	unknown := int64(99)
	repo.seedStock(1, 1, 10)
	_, err = svc.Create(ctx, CreateInput{
		Type:       TypeSell,
		CustomerID: &unknown,
		Items:      []ItemInput{{ProductID: 1, Quantity: 1, UnitQuantityID: 1, PricePerUnit: 1}},
	}, 1)
	require.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestCreateUnknownTaxFails(t *testing.T) {
	repo := newMemoryTxnRepo()
	repo.seedStock(1, 1, 10)
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Type:   TypeSell,
		Items:  []ItemInput{{ProductID: 1, Quantity: 1, UnitQuantityID: 1, PricePerUnit: 10}},
		TaxIDs: []int64{42},
	}, 1)
	require.True(t, shared.IsKind(err, shared.KindNotFound))
	require.Empty(t, repo.transactions)
	require.InDelta(t, 10, repo.stock(1, 1), 1e-9)
}

func TestGetIsIdempotent(t *testing.T) {
	repo := newMemoryTxnRepo()
	repo.seedStock(1, 1, 10)
	svc := NewService(repo, nil, nil, nil, nil)

	created, err := svc.Create(context.Background(), CreateInput{
		Type:  TypeSell,
		Items: []ItemInput{{ProductID: 1, Quantity: 2, UnitQuantityID: 1, PricePerUnit: 5}},
	}, 1)
	require.NoError(t, err)

	first, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
