package outsourcing

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
	"stockbooks/internal/domain/ledgers/stockledger"
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

type fakeOrderRepo struct {
	orders    map[id.ID]*Order
	purchases []ExternalPurchase
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[id.ID]*Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) Update(_ context.Context, o *Order) error {
	if _, ok := r.orders[o.ID]; !ok {
		return apperror.NewNotFound("outsourcing order", o.ID)
	}
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID id.ID) (*Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("outsourcing order", orderID)
	}
	return o, nil
}

func (r *fakeOrderRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *fakeOrderRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Order], error) {
	return domain.ListResult[*Order]{}, nil
}

func (r *fakeOrderRepo) InsertExternalPurchase(_ context.Context, p *ExternalPurchase) error {
	r.purchases = append(r.purchases, *p)
	return nil
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

type outsourcingEnv struct {
	svc       *Service
	repo      *fakeOrderRepo
	stockRepo *fakeStockRepo
}

func newOutsourcingEnv() *outsourcingEnv {
	env := &outsourcingEnv{
		repo:      newFakeOrderRepo(),
		stockRepo: &fakeStockRepo{stock: make(map[id.ID]types.Quantity)},
	}
	env.svc = NewService(env.repo, stockledger.NewService(env.stockRepo),
		numerator.New(&seqQuerier{}), noopTxManager{})
	return env
}

func newPendingOrder(t *testing.T, env *outsourcingEnv, qty int64, cost float64) *Order {
	t.Helper()
	o := NewOrder(id.New(), id.New(), types.NewQuantityFromInt(qty), types.NewMoney(cost))
	require.NoError(t, env.svc.Create(context.Background(), o))
	return o
}

func TestCreate_PendingWithDailyNumber(t *testing.T) {
	env := newOutsourcingEnv()

	o := newPendingOrder(t, env, 4, 12.5)

	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.TotalCost.Equal(types.NewMoney(50)))
	assert.True(t, strings.HasPrefix(o.Number, "OS-"))
	assert.Empty(t, env.stockRepo.movements)
}

func TestCreate_Validation(t *testing.T) {
	env := newOutsourcingEnv()

	o := NewOrder(id.Nil(), id.New(), types.NewQuantityFromInt(1), types.NewMoney(10))
	err := env.svc.Create(context.Background(), o)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	o = NewOrder(id.New(), id.New(), types.NewQuantityFromInt(0), types.NewMoney(10))
	err = env.svc.Create(context.Background(), o)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreateForSaleItem_WritesExternalPurchase(t *testing.T) {
	env := newOutsourcingEnv()
	saleID := id.New()
	saleItemID := id.New()

	o := NewOrder(id.New(), id.New(), types.NewQuantityFromInt(2), types.NewMoney(55))
	require.NoError(t, env.svc.CreateForSaleItem(context.Background(), saleID, saleItemID, o))

	require.NotNil(t, o.SaleID)
	assert.Equal(t, saleID, *o.SaleID)
	require.NotNil(t, o.SaleItemID)
	assert.Equal(t, saleItemID, *o.SaleItemID)
	assert.Equal(t, StatusPending, o.Status)

	require.Len(t, env.repo.purchases, 1)
	p := env.repo.purchases[0]
	assert.Equal(t, o.ID, p.OutsourcingOrderID)
	require.NotNil(t, p.SaleID)
	assert.Equal(t, saleID, *p.SaleID)
	assert.True(t, p.TotalCost.Equal(types.NewMoney(110)))
}

func TestMarkOrdered(t *testing.T) {
	env := newOutsourcingEnv()
	o := newPendingOrder(t, env, 3, 10)

	require.NoError(t, env.svc.MarkOrdered(context.Background(), o.ID))
	assert.Equal(t, StatusOrdered, env.repo.orders[o.ID].Status)

	// ordered → ordered is not a legal transition
	err := env.svc.MarkOrdered(context.Background(), o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestDeliver_IncrementsStock(t *testing.T) {
	env := newOutsourcingEnv()
	o := newPendingOrder(t, env, 5, 20)
	env.stockRepo.stock[o.ProductID] = types.NewQuantityFromInt(2)

	require.NoError(t, env.svc.MarkOrdered(context.Background(), o.ID))
	require.NoError(t, env.svc.Deliver(context.Background(), o.ID))

	stored := env.repo.orders[o.ID]
	assert.Equal(t, StatusDelivered, stored.Status)
	require.NotNil(t, stored.DeliveredAt)

	assert.Equal(t, types.NewQuantityFromInt(7), env.stockRepo.stock[o.ProductID])
	require.Len(t, env.stockRepo.movements, 1)
	m := env.stockRepo.movements[0]
	assert.Equal(t, stockledger.TypeOutsourcingDelivery, m.Type)
	assert.Equal(t, o.Number, m.Reference)
}

func TestDeliver_AlreadyDeliveredIsNoOp(t *testing.T) {
	env := newOutsourcingEnv()
	o := newPendingOrder(t, env, 5, 20)

	require.NoError(t, env.svc.Deliver(context.Background(), o.ID))
	assert.Equal(t, types.NewQuantityFromInt(5), env.stockRepo.stock[o.ProductID])

	// second delivery must not double-count stock
	require.NoError(t, env.svc.Deliver(context.Background(), o.ID))
	assert.Equal(t, types.NewQuantityFromInt(5), env.stockRepo.stock[o.ProductID])
	assert.Len(t, env.stockRepo.movements, 1)
}

func TestDeliver_CancelledFails(t *testing.T) {
	env := newOutsourcingEnv()
	o := newPendingOrder(t, env, 5, 20)

	require.NoError(t, env.svc.Cancel(context.Background(), o.ID, "supplier unavailable"))

	err := env.svc.Deliver(context.Background(), o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	assert.Empty(t, env.stockRepo.movements)
}

func TestCancel(t *testing.T) {
	env := newOutsourcingEnv()
	o := newPendingOrder(t, env, 5, 20)

	require.NoError(t, env.svc.Cancel(context.Background(), o.ID, "supplier unavailable"))

	stored := env.repo.orders[o.ID]
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.Equal(t, "supplier unavailable", stored.Comment)

	err := env.svc.Cancel(context.Background(), o.ID, "again")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestCancel_DeliveredFails(t *testing.T) {
	env := newOutsourcingEnv()
	o := newPendingOrder(t, env, 5, 20)

	require.NoError(t, env.svc.Deliver(context.Background(), o.ID))

	err := env.svc.Cancel(context.Background(), o.ID, "too late")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}
