package quotation

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/product"
	"stockbooks/internal/domain/documents/outsourcing"
	"stockbooks/internal/domain/documents/sale"
	"stockbooks/internal/domain/ledgers/moneyledger"
	"stockbooks/internal/domain/ledgers/stockledger"
	"stockbooks/internal/domain/profit"
	"stockbooks/pkg/numerator"
)

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

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

// fakeQuotationRepo returns copies on read so that an aborted operation
// leaves the stored state untouched, the way a rolled-back transaction
// would.
type fakeQuotationRepo struct {
	quotations map[id.ID]*Quotation
}

func newFakeQuotationRepo() *fakeQuotationRepo {
	return &fakeQuotationRepo{quotations: make(map[id.ID]*Quotation)}
}

func (r *fakeQuotationRepo) Create(_ context.Context, q *Quotation) error {
	cp := *q
	r.quotations[q.ID] = &cp
	return nil
}

func (r *fakeQuotationRepo) Update(_ context.Context, q *Quotation) error {
	if _, ok := r.quotations[q.ID]; !ok {
		return apperror.NewNotFound("quotation", q.ID)
	}
	cp := *q
	r.quotations[q.ID] = &cp
	return nil
}

func (r *fakeQuotationRepo) ReplaceItems(_ context.Context, quotationID id.ID, items []*Item) error {
	q, ok := r.quotations[quotationID]
	if !ok {
		return apperror.NewNotFound("quotation", quotationID)
	}
	q.Items = items
	return nil
}

func (r *fakeQuotationRepo) Delete(_ context.Context, quotationID id.ID) error {
	delete(r.quotations, quotationID)
	return nil
}

func (r *fakeQuotationRepo) GetByID(_ context.Context, quotationID id.ID) (*Quotation, error) {
	q, ok := r.quotations[quotationID]
	if !ok {
		return nil, apperror.NewNotFound("quotation", quotationID)
	}
	cp := *q
	return &cp, nil
}

func (r *fakeQuotationRepo) GetByIDForUpdate(ctx context.Context, quotationID id.ID) (*Quotation, error) {
	return r.GetByID(ctx, quotationID)
}

func (r *fakeQuotationRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Quotation], error) {
	return domain.ListResult[*Quotation]{}, nil
}

type fakeSaleRepo struct {
	sales map[id.ID]*sale.Sale
}

func (r *fakeSaleRepo) Create(_ context.Context, s *sale.Sale) error {
	r.sales[s.ID] = s
	return nil
}

func (r *fakeSaleRepo) Update(_ context.Context, s *sale.Sale) error {
	r.sales[s.ID] = s
	return nil
}

func (r *fakeSaleRepo) GetByID(_ context.Context, saleID id.ID) (*sale.Sale, error) {
	s, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	return s, nil
}

func (r *fakeSaleRepo) GetByIDForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.GetByID(ctx, saleID)
}

func (r *fakeSaleRepo) GetByNumber(_ context.Context, number string) (*sale.Sale, error) {
	return nil, apperror.NewNotFound("sale", number)
}

func (r *fakeSaleRepo) List(_ context.Context, _ sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	return domain.ListResult[*sale.Sale]{}, nil
}

func (r *fakeSaleRepo) UpdateItem(_ context.Context, _ *sale.Item) error   { return nil }
func (r *fakeSaleRepo) DeleteItem(_ context.Context, _ id.ID) error        { return nil }
func (r *fakeSaleRepo) InsertReversal(_ context.Context, _ *sale.Reversal) error {
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

type fakeStockRepo struct {
	stock     map[id.ID]types.Quantity
	movements []stockledger.Movement
}

func (r *fakeStockRepo) GetStockForUpdate(_ context.Context, productID id.ID) (types.Quantity, error) {
	return r.stock[productID], nil
}

func (r *fakeStockRepo) SetStock(_ context.Context, productID id.ID, stock types.Quantity) error {
	r.stock[productID] = stock
	return nil
}

func (r *fakeStockRepo) InsertMovement(_ context.Context, m *stockledger.Movement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeStockRepo) MovementsByReference(_ context.Context, _ string) ([]stockledger.Movement, error) {
	return r.movements, nil
}

func (r *fakeStockRepo) MovementsByProduct(_ context.Context, _ id.ID, _ stockledger.MovementFilter) ([]stockledger.Movement, error) {
	return r.movements, nil
}

type fakeMoneyRepo struct {
	customers map[id.ID]moneyledger.CustomerBalance
}

func (r *fakeMoneyRepo) GetAccountBalanceForUpdate(_ context.Context, accountID id.ID) (types.Money, error) {
	return types.ZeroMoney(), apperror.NewNotFound("account", accountID)
}

func (r *fakeMoneyRepo) SetAccountBalance(_ context.Context, _ id.ID, _ types.Money) error {
	return nil
}

func (r *fakeMoneyRepo) InsertCashFlow(_ context.Context, _ *moneyledger.CashFlowEntry) error {
	return nil
}

func (r *fakeMoneyRepo) GetCustomerForUpdate(_ context.Context, customerID id.ID) (moneyledger.CustomerBalance, error) {
	cb, ok := r.customers[customerID]
	if !ok {
		return moneyledger.CustomerBalance{}, apperror.NewNotFound("customer", customerID)
	}
	return cb, nil
}

func (r *fakeMoneyRepo) UpdateCustomerBalance(_ context.Context, customerID id.ID, balance, totalPurchases types.Money) error {
	cb := r.customers[customerID]
	cb.CurrentBalance = balance
	cb.TotalPurchases = totalPurchases
	r.customers[customerID] = cb
	return nil
}

func (r *fakeMoneyRepo) InsertJournalEntry(_ context.Context, _ *moneyledger.JournalEntry) error {
	return nil
}

func (r *fakeMoneyRepo) InsertPayment(_ context.Context, _ *moneyledger.Payment) error { return nil }

func (r *fakeMoneyRepo) CashFlows(_ context.Context, _ moneyledger.CashFlowFilter) ([]moneyledger.CashFlowEntry, error) {
	return nil, nil
}

func (r *fakeMoneyRepo) JournalByCustomer(_ context.Context, _ id.ID, _, _ int) ([]moneyledger.JournalEntry, error) {
	return nil, nil
}

type fakeOutsourcingRepo struct{}

func (fakeOutsourcingRepo) Create(_ context.Context, _ *outsourcing.Order) error { return nil }
func (fakeOutsourcingRepo) Update(_ context.Context, _ *outsourcing.Order) error { return nil }

func (fakeOutsourcingRepo) GetByID(_ context.Context, orderID id.ID) (*outsourcing.Order, error) {
	return nil, apperror.NewNotFound("outsourcing order", orderID)
}

func (fakeOutsourcingRepo) GetByIDForUpdate(_ context.Context, orderID id.ID) (*outsourcing.Order, error) {
	return nil, apperror.NewNotFound("outsourcing order", orderID)
}

func (fakeOutsourcingRepo) List(_ context.Context, _ outsourcing.ListFilter) (domain.ListResult[*outsourcing.Order], error) {
	return domain.ListResult[*outsourcing.Order]{}, nil
}

func (fakeOutsourcingRepo) InsertExternalPurchase(_ context.Context, _ *outsourcing.ExternalPurchase) error {
	return nil
}

type fakeProfitRepo struct {
	records []profit.Record
}

func (r *fakeProfitRepo) Insert(_ context.Context, rec *profit.Record) error {
	r.records = append(r.records, *rec)
	return nil
}

func (r *fakeProfitRepo) DeleteByReferenceType(_ context.Context, _ profit.ReferenceType) error {
	return nil
}

func (r *fakeProfitRepo) ListSaleItems(_ context.Context) ([]profit.BackfillItem, error) {
	return nil, nil
}

func (r *fakeProfitRepo) ByReference(_ context.Context, _ id.ID) ([]profit.Record, error) {
	return nil, nil
}

type quotationEnv struct {
	svc *Service

	repo        *fakeQuotationRepo
	saleRepo    *fakeSaleRepo
	productRepo *fakeProductRepo
	stockRepo   *fakeStockRepo
	moneyRepo   *fakeMoneyRepo
	profitRepo  *fakeProfitRepo
}

func newQuotationEnv() *quotationEnv {
	env := &quotationEnv{
		repo:        newFakeQuotationRepo(),
		saleRepo:    &fakeSaleRepo{sales: make(map[id.ID]*sale.Sale)},
		productRepo: &fakeProductRepo{products: make(map[id.ID]*product.Product)},
		stockRepo:   &fakeStockRepo{stock: make(map[id.ID]types.Quantity)},
		moneyRepo:   &fakeMoneyRepo{customers: make(map[id.ID]moneyledger.CustomerBalance)},
		profitRepo:  &fakeProfitRepo{},
	}

	txm := noopTxManager{}
	num := numerator.New(&seqQuerier{})
	stockLedger := stockledger.NewService(env.stockRepo)
	moneyLedger := moneyledger.NewService(env.moneyRepo)
	outsourcingSvc := outsourcing.NewService(fakeOutsourcingRepo{}, stockLedger, num, txm)
	profitSvc := profit.NewService(env.profitRepo, txm)
	saleSvc := sale.NewService(env.saleRepo, env.productRepo, stockLedger, moneyLedger,
		outsourcingSvc, profitSvc, num, txm)

	env.svc = NewService(env.repo, stockLedger, saleSvc, num, txm)
	return env
}

func (e *quotationEnv) addProduct(stock int64, price, cost float64) id.ID {
	p := product.NewProduct("SKU-"+id.New().String()[:8], "quoted product")
	p.Price = types.NewMoney(price)
	p.CostPrice = types.NewMoney(cost)
	e.productRepo.products[p.ID] = p
	e.stockRepo.stock[p.ID] = types.NewQuantityFromInt(stock)
	return p.ID
}

func (e *quotationEnv) addCustomer() id.ID {
	customerID := id.New()
	e.moneyRepo.customers[customerID] = moneyledger.CustomerBalance{CustomerID: customerID}
	return customerID
}

func newTestQuotation(customerID id.ID, validUntil time.Time, items ...*Item) *Quotation {
	q := NewQuotation(customerID, validUntil)
	q.Items = items
	return q
}

func inAWeek() time.Time { return time.Now().AddDate(0, 0, 7) }

func TestCreate_DraftWithMonthlyNumber(t *testing.T) {
	env := newQuotationEnv()
	productID := env.addProduct(10, 50, 30)

	q := newTestQuotation(env.addCustomer(), inAWeek(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(2),
		UnitPrice: types.NewMoney(45),
	})
	require.NoError(t, env.svc.Create(context.Background(), q))

	assert.Equal(t, StatusDraft, q.Status)
	assert.True(t, q.Total.Equal(types.NewMoney(90)))
	assert.True(t, strings.HasPrefix(q.Number, "QT-"))

	// quotations never reserve stock
	assert.Empty(t, env.stockRepo.movements)
}

func TestSendAndReject(t *testing.T) {
	env := newQuotationEnv()
	productID := env.addProduct(10, 50, 30)

	q := newTestQuotation(env.addCustomer(), inAWeek(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: types.NewMoney(50),
	})
	require.NoError(t, env.svc.Create(context.Background(), q))

	// reject requires sent
	err := env.svc.Reject(context.Background(), q.ID, "too expensive")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))

	require.NoError(t, env.svc.Send(context.Background(), q.ID))
	require.NoError(t, env.svc.Reject(context.Background(), q.ID, "too expensive"))

	stored := env.repo.quotations[q.ID]
	assert.Equal(t, StatusRejected, stored.Status)
	assert.Equal(t, "too expensive", stored.Comment)
}

func TestConvert_CreatesCreditSale(t *testing.T) {
	env := newQuotationEnv()
	productID := env.addProduct(10, 50, 30)
	customerID := env.addCustomer()

	q := newTestQuotation(customerID, inAWeek(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(3),
		UnitPrice: types.NewMoney(40),
	})
	require.NoError(t, env.svc.Create(context.Background(), q))
	require.NoError(t, env.svc.Send(context.Background(), q.ID))

	created, err := env.svc.Convert(context.Background(), q.ID)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, sale.PaymentCredit, created.PaymentMethod)
	require.NotNil(t, created.CustomerID)
	assert.Equal(t, customerID, *created.CustomerID)
	assert.True(t, created.Total.Equal(types.NewMoney(120)))
	assert.Contains(t, created.Comment, q.Number)

	// quoted price wins over the current catalog price
	require.Len(t, created.Items, 1)
	assert.True(t, created.Items[0].UnitPrice.Equal(types.NewMoney(40)))

	// stock deducted, quotation accepted, balance raised
	assert.Equal(t, types.NewQuantityFromInt(7), env.stockRepo.stock[productID])
	assert.Equal(t, StatusAccepted, env.repo.quotations[q.ID].Status)
	assert.True(t, env.moneyRepo.customers[customerID].CurrentBalance.Equal(types.NewMoney(120)))
}

func TestConvert_MovementTaggedAsQuotationSale(t *testing.T) {
	env := newQuotationEnv()
	productID := env.addProduct(10, 50, 30)
	customerID := env.addCustomer()

	q := newTestQuotation(customerID, inAWeek(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(2),
		UnitPrice: types.NewMoney(50),
	})
	require.NoError(t, env.svc.Create(context.Background(), q))
	require.NoError(t, env.svc.Send(context.Background(), q.ID))

	created, err := env.svc.Convert(context.Background(), q.ID)
	require.NoError(t, err)

	// the sale carries its source quotation
	require.NotNil(t, created.QuotationID)
	assert.Equal(t, q.ID, *created.QuotationID)

	// the decrement is distinguishable from a direct sale in the trail
	require.Len(t, env.stockRepo.movements, 1)
	m := env.stockRepo.movements[0]
	assert.Equal(t, stockledger.TypeQuotationSale, m.Type)
	assert.Equal(t, created.Number, m.Reference)
}

func TestConvert_InsufficientStockAbortsCleanly(t *testing.T) {
	env := newQuotationEnv()
	productID := env.addProduct(2, 50, 30)

	q := newTestQuotation(env.addCustomer(), inAWeek(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(5),
		UnitPrice: types.NewMoney(50),
	})
	require.NoError(t, env.svc.Create(context.Background(), q))
	require.NoError(t, env.svc.Send(context.Background(), q.ID))

	_, err := env.svc.Convert(context.Background(), q.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// nothing moved: no sale, no stock change, quotation still sent
	assert.Empty(t, env.saleRepo.sales)
	assert.Equal(t, types.NewQuantityFromInt(2), env.stockRepo.stock[productID])
	assert.Equal(t, StatusSent, env.repo.quotations[q.ID].Status)
}

func TestConvert_ExpiredFails(t *testing.T) {
	env := newQuotationEnv()
	productID := env.addProduct(10, 50, 30)

	q := newTestQuotation(env.addCustomer(), inAWeek(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: types.NewMoney(50),
	})
	require.NoError(t, env.svc.Create(context.Background(), q))
	require.NoError(t, env.svc.Send(context.Background(), q.ID))

	env.svc.now = func() time.Time { return time.Now().AddDate(0, 0, 14) }

	_, err := env.svc.Convert(context.Background(), q.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	assert.Empty(t, env.saleRepo.sales)
}

func TestGetByID_LazyExpiry(t *testing.T) {
	env := newQuotationEnv()
	productID := env.addProduct(10, 50, 30)

	q := newTestQuotation(env.addCustomer(), inAWeek(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: types.NewMoney(50),
	})
	require.NoError(t, env.svc.Create(context.Background(), q))
	require.NoError(t, env.svc.Send(context.Background(), q.ID))

	env.svc.now = func() time.Time { return time.Now().AddDate(0, 0, 14) }

	got, err := env.svc.GetByID(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)

	// the stored row still says sent; expiry persists on the next mutation
	assert.Equal(t, StatusSent, env.repo.quotations[q.ID].Status)
}

func TestUpdate_OnlyDraft(t *testing.T) {
	env := newQuotationEnv()
	productID := env.addProduct(10, 50, 30)

	q := newTestQuotation(env.addCustomer(), inAWeek(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: types.NewMoney(50),
	})
	require.NoError(t, env.svc.Create(context.Background(), q))
	require.NoError(t, env.svc.Send(context.Background(), q.ID))

	err := env.svc.Update(context.Background(), q)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestDelete_OnlyDraft(t *testing.T) {
	env := newQuotationEnv()
	productID := env.addProduct(10, 50, 30)

	q := newTestQuotation(env.addCustomer(), inAWeek(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: types.NewMoney(50),
	})
	require.NoError(t, env.svc.Create(context.Background(), q))
	require.NoError(t, env.svc.Delete(context.Background(), q.ID))
	assert.Empty(t, env.repo.quotations)

	q2 := newTestQuotation(env.addCustomer(), inAWeek(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: types.NewMoney(50),
	})
	require.NoError(t, env.svc.Create(context.Background(), q2))
	require.NoError(t, env.svc.Send(context.Background(), q2.ID))

	err := env.svc.Delete(context.Background(), q2.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}
