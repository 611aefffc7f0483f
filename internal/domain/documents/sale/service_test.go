package sale

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/product"
	"stockbooks/internal/domain/documents/outsourcing"
	"stockbooks/internal/domain/ledgers/moneyledger"
	"stockbooks/internal/domain/ledgers/stockledger"
	"stockbooks/internal/domain/profit"
	"stockbooks/pkg/numerator"
)

// --- transaction fake ---

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- numerator fake ---

type seqRow struct{ val int64 }

func (r seqRow) Scan(dest ...any) error {
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = r.val
	}
	return nil
}

type seqQuerier struct {
	mu  sync.Mutex
	val int64
}

func (q *seqQuerier) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.val++
	return seqRow{val: q.val}
}

// --- repository fakes ---

type fakeSaleRepo struct {
	sales     map[id.ID]*Sale
	reversals []Reversal
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[id.ID]*Sale)}
}

func (r *fakeSaleRepo) Create(_ context.Context, s *Sale) error {
	r.sales[s.ID] = s
	return nil
}

func (r *fakeSaleRepo) Update(_ context.Context, s *Sale) error {
	if _, ok := r.sales[s.ID]; !ok {
		return apperror.NewNotFound("sale", s.ID)
	}
	r.sales[s.ID] = s
	return nil
}

func (r *fakeSaleRepo) GetByID(_ context.Context, saleID id.ID) (*Sale, error) {
	s, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	return s, nil
}

func (r *fakeSaleRepo) GetByIDForUpdate(ctx context.Context, saleID id.ID) (*Sale, error) {
	return r.GetByID(ctx, saleID)
}

func (r *fakeSaleRepo) GetByNumber(_ context.Context, number string) (*Sale, error) {
	for _, s := range r.sales {
		if s.Number == number {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("sale", number)
}

func (r *fakeSaleRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Sale], error) {
	out := domain.ListResult[*Sale]{}
	for _, s := range r.sales {
		out.Items = append(out.Items, s)
	}
	out.TotalCount = len(out.Items)
	return out, nil
}

func (r *fakeSaleRepo) UpdateItem(_ context.Context, _ *Item) error { return nil }

func (r *fakeSaleRepo) DeleteItem(_ context.Context, _ id.ID) error { return nil }

func (r *fakeSaleRepo) InsertReversal(_ context.Context, rev *Reversal) error {
	r.reversals = append(r.reversals, *rev)
	return nil
}

type fakeProductRepo struct {
	products map[id.ID]*product.Product
}

func (r *fakeProductRepo) Create(_ context.Context, _ *product.Product) error { return nil }
func (r *fakeProductRepo) Update(_ context.Context, _ *product.Product) error { return nil }
func (r *fakeProductRepo) Delete(_ context.Context, _ id.ID) error            { return nil }

func (r *fakeProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (r *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*product.Product, error) {
	return nil, apperror.NewNotFound("product", sku)
}

func (r *fakeProductRepo) List(_ context.Context, _ product.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

func (r *fakeProductRepo) IsReferenced(_ context.Context, _ id.ID) (bool, error) {
	return false, nil
}

type fakeStockLedgerRepo struct {
	stock     map[id.ID]types.Quantity
	movements []stockledger.Movement
}

func (r *fakeStockLedgerRepo) GetStockForUpdate(_ context.Context, productID id.ID) (types.Quantity, error) {
	return r.stock[productID], nil
}

func (r *fakeStockLedgerRepo) SetStock(_ context.Context, productID id.ID, stock types.Quantity) error {
	r.stock[productID] = stock
	return nil
}

func (r *fakeStockLedgerRepo) InsertMovement(_ context.Context, m *stockledger.Movement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeStockLedgerRepo) MovementsByReference(_ context.Context, reference string) ([]stockledger.Movement, error) {
	var out []stockledger.Movement
	for _, m := range r.movements {
		if m.Reference == reference {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeStockLedgerRepo) MovementsByProduct(_ context.Context, _ id.ID, _ stockledger.MovementFilter) ([]stockledger.Movement, error) {
	return r.movements, nil
}

type fakeMoneyLedgerRepo struct {
	accounts  map[id.ID]types.Money
	customers map[id.ID]moneyledger.CustomerBalance
	cashFlows []moneyledger.CashFlowEntry
	journal   []moneyledger.JournalEntry
	payments  []moneyledger.Payment
}

func (r *fakeMoneyLedgerRepo) GetAccountBalanceForUpdate(_ context.Context, accountID id.ID) (types.Money, error) {
	balance, ok := r.accounts[accountID]
	if !ok {
		return types.ZeroMoney(), apperror.NewNotFound("account", accountID)
	}
	return balance, nil
}

func (r *fakeMoneyLedgerRepo) SetAccountBalance(_ context.Context, accountID id.ID, balance types.Money) error {
	r.accounts[accountID] = balance
	return nil
}

func (r *fakeMoneyLedgerRepo) InsertCashFlow(_ context.Context, e *moneyledger.CashFlowEntry) error {
	r.cashFlows = append(r.cashFlows, *e)
	return nil
}

func (r *fakeMoneyLedgerRepo) GetCustomerForUpdate(_ context.Context, customerID id.ID) (moneyledger.CustomerBalance, error) {
	cb, ok := r.customers[customerID]
	if !ok {
		return moneyledger.CustomerBalance{}, apperror.NewNotFound("customer", customerID)
	}
	return cb, nil
}

func (r *fakeMoneyLedgerRepo) UpdateCustomerBalance(_ context.Context, customerID id.ID, balance, totalPurchases types.Money) error {
	cb := r.customers[customerID]
	cb.CurrentBalance = balance
	cb.TotalPurchases = totalPurchases
	r.customers[customerID] = cb
	return nil
}

func (r *fakeMoneyLedgerRepo) InsertJournalEntry(_ context.Context, e *moneyledger.JournalEntry) error {
	r.journal = append(r.journal, *e)
	return nil
}

func (r *fakeMoneyLedgerRepo) InsertPayment(_ context.Context, p *moneyledger.Payment) error {
	r.payments = append(r.payments, *p)
	return nil
}

func (r *fakeMoneyLedgerRepo) CashFlows(_ context.Context, _ moneyledger.CashFlowFilter) ([]moneyledger.CashFlowEntry, error) {
	return r.cashFlows, nil
}

func (r *fakeMoneyLedgerRepo) JournalByCustomer(_ context.Context, _ id.ID, _, _ int) ([]moneyledger.JournalEntry, error) {
	return r.journal, nil
}

type fakeOutsourcingRepo struct {
	orders    map[id.ID]*outsourcing.Order
	purchases []outsourcing.ExternalPurchase
}

func newFakeOutsourcingRepo() *fakeOutsourcingRepo {
	return &fakeOutsourcingRepo{orders: make(map[id.ID]*outsourcing.Order)}
}

func (r *fakeOutsourcingRepo) Create(_ context.Context, o *outsourcing.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOutsourcingRepo) Update(_ context.Context, o *outsourcing.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOutsourcingRepo) GetByID(_ context.Context, orderID id.ID) (*outsourcing.Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("outsourcing order", orderID)
	}
	return o, nil
}

func (r *fakeOutsourcingRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*outsourcing.Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *fakeOutsourcingRepo) List(_ context.Context, _ outsourcing.ListFilter) (domain.ListResult[*outsourcing.Order], error) {
	return domain.ListResult[*outsourcing.Order]{}, nil
}

func (r *fakeOutsourcingRepo) InsertExternalPurchase(_ context.Context, p *outsourcing.ExternalPurchase) error {
	r.purchases = append(r.purchases, *p)
	return nil
}

type fakeProfitRepo struct {
	records []profit.Record
}

func (r *fakeProfitRepo) Insert(_ context.Context, rec *profit.Record) error {
	r.records = append(r.records, *rec)
	return nil
}

func (r *fakeProfitRepo) DeleteByReferenceType(_ context.Context, refType profit.ReferenceType) error {
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.ReferenceType != refType {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

func (r *fakeProfitRepo) ListSaleItems(_ context.Context) ([]profit.BackfillItem, error) {
	return nil, nil
}

func (r *fakeProfitRepo) ByReference(_ context.Context, refID id.ID) ([]profit.Record, error) {
	var out []profit.Record
	for _, rec := range r.records {
		if rec.ReferenceID == refID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// --- harness ---

type saleEnv struct {
	svc *Service
	seq *seqQuerier

	saleRepo        *fakeSaleRepo
	productRepo     *fakeProductRepo
	stockRepo       *fakeStockLedgerRepo
	moneyRepo       *fakeMoneyLedgerRepo
	outsourcingRepo *fakeOutsourcingRepo
	profitRepo      *fakeProfitRepo
}

func newSaleEnv() *saleEnv {
	env := &saleEnv{
		saleRepo:        newFakeSaleRepo(),
		productRepo:     &fakeProductRepo{products: make(map[id.ID]*product.Product)},
		stockRepo:       &fakeStockLedgerRepo{stock: make(map[id.ID]types.Quantity)},
		moneyRepo:       &fakeMoneyLedgerRepo{accounts: make(map[id.ID]types.Money), customers: make(map[id.ID]moneyledger.CustomerBalance)},
		outsourcingRepo: newFakeOutsourcingRepo(),
		profitRepo:      &fakeProfitRepo{},
	}

	env.seq = &seqQuerier{}
	txm := noopTxManager{}
	num := numerator.New(env.seq)
	stockLedger := stockledger.NewService(env.stockRepo)
	moneyLedger := moneyledger.NewService(env.moneyRepo)
	outsourcingSvc := outsourcing.NewService(env.outsourcingRepo, stockLedger, num, txm)
	profitSvc := profit.NewService(env.profitRepo, txm)

	env.svc = NewService(env.saleRepo, env.productRepo, stockLedger, moneyLedger,
		outsourcingSvc, profitSvc, num, txm)
	return env
}

func (e *saleEnv) addProduct(stock int64, price, cost float64) id.ID {
	p := product.NewProduct("SKU-"+id.New().String()[:8], "test product")
	p.Price = types.NewMoney(price)
	p.CostPrice = types.NewMoney(cost)
	e.productRepo.products[p.ID] = p
	e.stockRepo.stock[p.ID] = types.NewQuantityFromInt(stock)
	return p.ID
}

func (e *saleEnv) addCustomer(balance, creditLimit float64) id.ID {
	customerID := id.New()
	e.moneyRepo.customers[customerID] = moneyledger.CustomerBalance{
		CustomerID:     customerID,
		CurrentBalance: types.NewMoney(balance),
		CreditLimit:    types.NewMoney(creditLimit),
	}
	return customerID
}

func newTestSale(items ...*Item) *Sale {
	s := NewSale()
	s.Items = items
	return s
}

// --- tests ---

func TestCreate_CashSaleDeductsStockAndRecordsProfit(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 25, 15)
	accountID := id.New()
	env.moneyRepo.accounts[accountID] = types.NewMoney(0)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(3)})
	sl.AccountID = &accountID

	require.NoError(t, env.svc.Create(context.Background(), sl))

	// price defaults from the catalog, cost is frozen
	require.Len(t, sl.Items, 1)
	assert.True(t, sl.Items[0].UnitPrice.Equal(types.NewMoney(25)))
	assert.True(t, sl.Items[0].CostAtSale.Equal(types.NewMoney(15)))
	assert.True(t, sl.Total.Equal(types.NewMoney(75)))

	// stock moved and the movement references the sale number
	assert.Equal(t, types.NewQuantityFromInt(7), env.stockRepo.stock[productID])
	require.Len(t, env.stockRepo.movements, 1)
	assert.Equal(t, sl.Number, env.stockRepo.movements[0].Reference)
	assert.Equal(t, stockledger.TypeSale, env.stockRepo.movements[0].Type)

	// profit identity holds per record
	require.Len(t, env.profitRepo.records, 1)
	rec := env.profitRepo.records[0]
	assert.True(t, rec.Revenue.Equal(types.NewMoney(75)))
	assert.True(t, rec.COGS.Equal(types.NewMoney(45)))
	assert.True(t, rec.Profit.Equal(rec.Revenue.Sub(rec.COGS)))

	// cash inflow landed on the account
	assert.True(t, env.moneyRepo.accounts[accountID].Equal(types.NewMoney(75)))
	require.Len(t, env.moneyRepo.cashFlows, 1)
	assert.Equal(t, sl.Number, env.moneyRepo.cashFlows[0].Reference)

	assert.True(t, strings.HasPrefix(sl.Number, "SO-"))
}

func TestCreate_CreditSaleRaisesBalanceWithoutJournalRow(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(5, 100, 60)
	customerID := env.addCustomer(0, 1000)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(2)})
	sl.PaymentMethod = PaymentCredit
	sl.CustomerID = &customerID

	require.NoError(t, env.svc.Create(context.Background(), sl))

	cb := env.moneyRepo.customers[customerID]
	assert.True(t, cb.CurrentBalance.Equal(types.NewMoney(200)))
	assert.True(t, cb.TotalPurchases.Equal(types.NewMoney(200)))

	// the sale row itself is the paired record
	assert.Empty(t, env.moneyRepo.journal)
}

func TestCreate_InsufficientStockFails(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(1, 10, 5)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(2)})

	err := env.svc.Create(context.Background(), sl)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	assert.Empty(t, env.saleRepo.sales)
	assert.Empty(t, env.profitRepo.records)
}

func TestCreate_CreditLimitExceededFails(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 500, 300)
	customerID := env.addCustomer(800, 1000)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(1)})
	sl.PaymentMethod = PaymentCredit
	sl.CustomerID = &customerID

	err := env.svc.Create(context.Background(), sl)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCreditLimitExceeded))
}

func TestCreate_OutsourcedItemSkipsStock(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(0, 40, 0)
	supplierID := id.New()
	cost := types.NewMoney(22)

	sl := newTestSale(&Item{
		ProductID:              productID,
		Quantity:               types.NewQuantityFromInt(5),
		IsOutsourced:           true,
		SupplierID:             &supplierID,
		OutsourcingCostPerUnit: &cost,
	})

	require.NoError(t, env.svc.Create(context.Background(), sl))

	// no stock mutation, but a pending order and its purchase record exist
	assert.Equal(t, types.NewQuantityFromInt(0), env.stockRepo.stock[productID])
	assert.Empty(t, env.stockRepo.movements)
	require.Len(t, env.outsourcingRepo.orders, 1)
	require.Len(t, env.outsourcingRepo.purchases, 1)

	for _, order := range env.outsourcingRepo.orders {
		assert.Equal(t, outsourcing.StatusPending, order.Status)
		require.NotNil(t, order.SaleID)
		assert.Equal(t, sl.ID, *order.SaleID)
		assert.True(t, order.TotalCost.Equal(types.NewMoney(110)))
	}

	// COGS uses the outsourcing cost per unit
	require.Len(t, env.profitRepo.records, 1)
	assert.True(t, env.profitRepo.records[0].COGS.Equal(types.NewMoney(110)))
}

func TestCancel_RestoresStockAndUnwindsCredit(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 50, 30)
	customerID := env.addCustomer(0, 0)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(4)})
	sl.PaymentMethod = PaymentCredit
	sl.CustomerID = &customerID
	require.NoError(t, env.svc.Create(context.Background(), sl))
	require.Equal(t, types.NewQuantityFromInt(6), env.stockRepo.stock[productID])

	require.NoError(t, env.svc.Cancel(context.Background(), sl.ID, "customer changed mind"))

	// stock conserved across the round trip
	assert.Equal(t, types.NewQuantityFromInt(10), env.stockRepo.stock[productID])

	stored := env.saleRepo.sales[sl.ID]
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.Equal(t, "customer changed mind", stored.CancelReason)
	assert.NotNil(t, stored.CancelledAt)

	// balance unwound and the reversal journal row written
	cb := env.moneyRepo.customers[customerID]
	assert.True(t, cb.CurrentBalance.IsZero())
	require.Len(t, env.moneyRepo.journal, 1)
	assert.True(t, env.moneyRepo.journal[0].Amount.Equal(types.NewMoney(-200)))
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 10, 5)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(1)})
	require.NoError(t, env.svc.Create(context.Background(), sl))
	require.NoError(t, env.svc.Cancel(context.Background(), sl.ID, "first"))

	err := env.svc.Cancel(context.Background(), sl.ID, "second")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestRestore_ReappliesStockAndBalance(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 50, 30)
	customerID := env.addCustomer(0, 500)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(2)})
	sl.PaymentMethod = PaymentCredit
	sl.CustomerID = &customerID
	require.NoError(t, env.svc.Create(context.Background(), sl))
	require.NoError(t, env.svc.Cancel(context.Background(), sl.ID, "oops"))

	require.NoError(t, env.svc.Restore(context.Background(), sl.ID))

	assert.Equal(t, types.NewQuantityFromInt(8), env.stockRepo.stock[productID])
	stored := env.saleRepo.sales[sl.ID]
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.Nil(t, stored.CancelledAt)
	assert.Empty(t, stored.CancelReason)
	assert.True(t, env.moneyRepo.customers[customerID].CurrentBalance.Equal(types.NewMoney(100)))
}

func TestRestore_KeepsLifetimePurchasesCountedOnce(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 100, 60)
	customerID := env.addCustomer(0, 1000)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(2)})
	sl.PaymentMethod = PaymentCredit
	sl.CustomerID = &customerID
	require.NoError(t, env.svc.Create(context.Background(), sl))

	cb := env.moneyRepo.customers[customerID]
	require.True(t, cb.CurrentBalance.Equal(types.NewMoney(200)))
	require.True(t, cb.TotalPurchases.Equal(types.NewMoney(200)))

	require.NoError(t, env.svc.Cancel(context.Background(), sl.ID, "typo in address"))
	require.NoError(t, env.svc.Restore(context.Background(), sl.ID))

	// the balance round-trips, but the lifetime aggregate must not grow:
	// Cancel leaves total_purchases untouched, so Restore must too
	cb = env.moneyRepo.customers[customerID]
	assert.True(t, cb.CurrentBalance.Equal(types.NewMoney(200)))
	assert.True(t, cb.TotalPurchases.Equal(types.NewMoney(200)))

	// a second cycle still does not inflate it
	require.NoError(t, env.svc.Cancel(context.Background(), sl.ID, "again"))
	require.NoError(t, env.svc.Restore(context.Background(), sl.ID))
	assert.True(t, env.moneyRepo.customers[customerID].TotalPurchases.Equal(types.NewMoney(200)))
}

func TestRestore_RequiresCancelledStatus(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 10, 5)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(1)})
	require.NoError(t, env.svc.Create(context.Background(), sl))

	err := env.svc.Restore(context.Background(), sl.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestRestore_FailsWhenStockGone(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(3, 10, 5)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(3)})
	require.NoError(t, env.svc.Create(context.Background(), sl))
	require.NoError(t, env.svc.Cancel(context.Background(), sl.ID, "restock later"))

	// someone else took the stock in between
	env.stockRepo.stock[productID] = types.NewQuantityFromInt(1)

	err := env.svc.Restore(context.Background(), sl.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}

func TestPartialReturn_ShrinksItemAndRefunds(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 20, 10)
	customerID := env.addCustomer(0, 0)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(5)})
	sl.PaymentMethod = PaymentCredit
	sl.CustomerID = &customerID
	require.NoError(t, env.svc.Create(context.Background(), sl))
	itemID := sl.Items[0].ID

	err := env.svc.PartialReturn(context.Background(), sl.ID, PartialReturnRequest{
		Items:        []ReturnItem{{SaleItemID: itemID, Quantity: types.NewQuantityFromInt(2), Restock: true}},
		RefundAmount: types.NewMoney(40),
		Reason:       "damaged on arrival",
	})
	require.NoError(t, err)

	stored := env.saleRepo.sales[sl.ID]
	require.Len(t, stored.Items, 1)
	assert.Equal(t, types.NewQuantityFromInt(3), stored.Items[0].Quantity)
	assert.True(t, stored.Total.Equal(types.NewMoney(60)))
	assert.Equal(t, StatusCompleted, stored.Status)

	// returned quantity is back on the shelf
	assert.Equal(t, types.NewQuantityFromInt(7), env.stockRepo.stock[productID])

	// credit balance shrank by the refund
	assert.True(t, env.moneyRepo.customers[customerID].CurrentBalance.Equal(types.NewMoney(60)))
}

func TestPartialReturn_RefundMismatchFails(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 20, 10)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(5)})
	require.NoError(t, env.svc.Create(context.Background(), sl))

	err := env.svc.PartialReturn(context.Background(), sl.ID, PartialReturnRequest{
		Items:        []ReturnItem{{SaleItemID: sl.Items[0].ID, Quantity: types.NewQuantityFromInt(2)}},
		RefundAmount: types.NewMoney(39),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestPartialReturn_FullLineRemovesItem(t *testing.T) {
	env := newSaleEnv()
	p1 := env.addProduct(10, 20, 10)
	p2 := env.addProduct(10, 30, 15)

	sl := newTestSale(
		&Item{ProductID: p1, Quantity: types.NewQuantityFromInt(2)},
		&Item{ProductID: p2, Quantity: types.NewQuantityFromInt(1)},
	)
	require.NoError(t, env.svc.Create(context.Background(), sl))

	err := env.svc.PartialReturn(context.Background(), sl.ID, PartialReturnRequest{
		Items:        []ReturnItem{{SaleItemID: sl.Items[0].ID, Quantity: types.NewQuantityFromInt(2), Restock: true}},
		RefundAmount: types.NewMoney(40),
	})
	require.NoError(t, err)

	stored := env.saleRepo.sales[sl.ID]
	require.Len(t, stored.Items, 1)
	assert.Equal(t, p2, stored.Items[0].ProductID)
	assert.True(t, stored.Total.Equal(types.NewMoney(30)))
}

func TestPartialReturn_ExceedsSoldQuantity(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 20, 10)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(2)})
	require.NoError(t, env.svc.Create(context.Background(), sl))

	err := env.svc.PartialReturn(context.Background(), sl.ID, PartialReturnRequest{
		Items:        []ReturnItem{{SaleItemID: sl.Items[0].ID, Quantity: types.NewQuantityFromInt(3)}},
		RefundAmount: types.NewMoney(60),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRevert_WritesReversalRecord(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 20, 10)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(4)})
	require.NoError(t, env.svc.Create(context.Background(), sl))

	require.NoError(t, env.svc.Revert(context.Background(), sl.ID, true, "order entered twice"))

	assert.Equal(t, types.NewQuantityFromInt(10), env.stockRepo.stock[productID])
	assert.Equal(t, StatusCancelled, env.saleRepo.sales[sl.ID].Status)

	require.Len(t, env.saleRepo.reversals, 1)
	rev := env.saleRepo.reversals[0]
	assert.Equal(t, ReversalTypeFull, rev.Type)
	assert.Equal(t, "order entered twice", rev.Reason)
	require.Len(t, rev.Items, 1)
	assert.True(t, rev.Items[0].Restocked)
}

func TestRevert_WithoutRestock(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 20, 10)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(4)})
	require.NoError(t, env.svc.Create(context.Background(), sl))

	require.NoError(t, env.svc.Revert(context.Background(), sl.ID, false, "goods destroyed"))

	// stock stays deducted
	assert.Equal(t, types.NewQuantityFromInt(6), env.stockRepo.stock[productID])
	require.Len(t, env.saleRepo.reversals, 1)
	assert.False(t, env.saleRepo.reversals[0].Items[0].Restocked)
}

func TestCreate_ValidationRejectsEmptySale(t *testing.T) {
	env := newSaleEnv()

	err := env.svc.Create(context.Background(), newTestSale())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreate_RejectedSaleBurnsNoNumber(t *testing.T) {
	env := newSaleEnv()
	productID := env.addProduct(10, 20, 10)

	// number allocation happens inside the transaction, after validation,
	// so a rejected document never touches the sequence
	err := env.svc.Create(context.Background(), newTestSale())
	require.Error(t, err)
	assert.Equal(t, int64(0), env.seq.val)

	sl := newTestSale(&Item{ProductID: productID, Quantity: types.NewQuantityFromInt(1)})
	require.NoError(t, env.svc.Create(context.Background(), sl))
	assert.Equal(t, int64(1), env.seq.val)
	assert.True(t, strings.HasSuffix(sl.Number, "-0001"))
}
