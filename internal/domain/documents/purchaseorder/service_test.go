package purchaseorder

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/supplier"
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
	orders map[id.ID]*Order
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
		return apperror.NewNotFound("purchase order", o.ID)
	}
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) ReplaceItems(_ context.Context, orderID id.ID, items []*Item) error {
	o, ok := r.orders[orderID]
	if !ok {
		return apperror.NewNotFound("purchase order", orderID)
	}
	o.Items = items
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, orderID id.ID) error {
	delete(r.orders, orderID)
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID id.ID) (*Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", orderID)
	}
	return o, nil
}

func (r *fakeOrderRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *fakeOrderRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Order], error) {
	return domain.ListResult[*Order]{}, nil
}

func (r *fakeOrderRepo) UpdateItem(_ context.Context, _ *Item) error { return nil }

type fakeSupplierRepo struct {
	totals map[id.ID]types.Money
}

func (r *fakeSupplierRepo) Create(_ context.Context, _ *supplier.Supplier) error { return nil }
func (r *fakeSupplierRepo) Update(_ context.Context, _ *supplier.Supplier) error { return nil }

func (r *fakeSupplierRepo) GetByID(_ context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	return nil, apperror.NewNotFound("supplier", supplierID)
}

func (r *fakeSupplierRepo) GetByCode(_ context.Context, code string) (*supplier.Supplier, error) {
	return nil, apperror.NewNotFound("supplier", code)
}

func (r *fakeSupplierRepo) List(_ context.Context, _ supplier.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	return domain.ListResult[*supplier.Supplier]{}, nil
}

func (r *fakeSupplierRepo) AddTotalPurchases(_ context.Context, supplierID id.ID, delta types.Money) error {
	current := r.totals[supplierID]
	next := current.Add(delta)
	if next.IsNegative() {
		return apperror.NewInvalidState("supplier total purchases would go negative")
	}
	r.totals[supplierID] = next
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

type poEnv struct {
	svc          *Service
	repo         *fakeOrderRepo
	supplierRepo *fakeSupplierRepo
	stockRepo    *fakeStockRepo
}

func newPOEnv() *poEnv {
	env := &poEnv{
		repo:         newFakeOrderRepo(),
		supplierRepo: &fakeSupplierRepo{totals: make(map[id.ID]types.Money)},
		stockRepo:    &fakeStockRepo{stock: make(map[id.ID]types.Quantity)},
	}
	env.svc = NewService(env.repo, env.supplierRepo,
		stockledger.NewService(env.stockRepo), numerator.New(&seqQuerier{}), noopTxManager{})
	return env
}

func newTestOrder(supplierID id.ID, items ...*Item) *Order {
	o := NewOrder(supplierID)
	o.Items = items
	return o
}

func TestCreate_DraftWithSupplierAggregate(t *testing.T) {
	env := newPOEnv()
	supplierID := id.New()
	productID := id.New()

	o := newTestOrder(supplierID, &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(10),
		UnitPrice: types.NewMoney(4),
	})
	require.NoError(t, env.svc.Create(context.Background(), o))

	assert.Equal(t, StatusDraft, o.Status)
	assert.True(t, o.Total.Equal(types.NewMoney(40)))
	assert.True(t, env.supplierRepo.totals[supplierID].Equal(types.NewMoney(40)))
	assert.NotEmpty(t, o.Number)

	// creation never touches stock
	assert.Empty(t, env.stockRepo.movements)
}

func TestUpdate_MovesAggregateByDelta(t *testing.T) {
	env := newPOEnv()
	supplierID := id.New()
	productID := id.New()

	o := newTestOrder(supplierID, &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(10),
		UnitPrice: types.NewMoney(4),
	})
	require.NoError(t, env.svc.Create(context.Background(), o))

	o.Items = []*Item{{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(5),
		UnitPrice: types.NewMoney(4),
	}}
	require.NoError(t, env.svc.Update(context.Background(), o))

	assert.True(t, env.supplierRepo.totals[supplierID].Equal(types.NewMoney(20)))
	assert.True(t, env.repo.orders[o.ID].Total.Equal(types.NewMoney(20)))
}

func TestUpdate_OnlyDraftEditable(t *testing.T) {
	env := newPOEnv()
	supplierID := id.New()

	o := newTestOrder(supplierID, &Item{
		ProductID: id.New(),
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: types.NewMoney(1),
	})
	require.NoError(t, env.svc.Create(context.Background(), o))
	require.NoError(t, env.svc.Send(context.Background(), o.ID))

	err := env.svc.Update(context.Background(), o)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestDelete_UnwindsAggregate(t *testing.T) {
	env := newPOEnv()
	supplierID := id.New()

	o := newTestOrder(supplierID, &Item{
		ProductID: id.New(),
		Quantity:  types.NewQuantityFromInt(2),
		UnitPrice: types.NewMoney(15),
	})
	require.NoError(t, env.svc.Create(context.Background(), o))
	require.NoError(t, env.svc.Delete(context.Background(), o.ID))

	assert.True(t, env.supplierRepo.totals[supplierID].IsZero())
	assert.Empty(t, env.repo.orders)
}

func TestTransitions(t *testing.T) {
	env := newPOEnv()

	o := newTestOrder(id.New(), &Item{
		ProductID: id.New(),
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: types.NewMoney(1),
	})
	require.NoError(t, env.svc.Create(context.Background(), o))

	require.NoError(t, env.svc.Send(context.Background(), o.ID))
	assert.Equal(t, StatusSent, env.repo.orders[o.ID].Status)

	require.NoError(t, env.svc.Confirm(context.Background(), o.ID))
	assert.Equal(t, StatusConfirmed, env.repo.orders[o.ID].Status)

	// confirmed cannot be sent again
	err := env.svc.Send(context.Background(), o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestCancel_OnlyDraftOrSent(t *testing.T) {
	env := newPOEnv()
	supplierID := id.New()

	o := newTestOrder(supplierID, &Item{
		ProductID: id.New(),
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: types.NewMoney(50),
	})
	require.NoError(t, env.svc.Create(context.Background(), o))
	require.NoError(t, env.svc.Send(context.Background(), o.ID))

	require.NoError(t, env.svc.Cancel(context.Background(), o.ID, "supplier out of business"))
	assert.Equal(t, StatusCancelled, env.repo.orders[o.ID].Status)
	assert.True(t, env.supplierRepo.totals[supplierID].IsZero())

	err := env.svc.Cancel(context.Background(), o.ID, "again")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestReceive_PartialThenFull(t *testing.T) {
	env := newPOEnv()
	productID := id.New()

	o := newTestOrder(id.New(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(10),
		UnitPrice: types.NewMoney(3),
	})
	require.NoError(t, env.svc.Create(context.Background(), o))
	require.NoError(t, env.svc.Send(context.Background(), o.ID))
	require.NoError(t, env.svc.Confirm(context.Background(), o.ID))

	require.NoError(t, env.svc.Receive(context.Background(), o.ID, []ReceiveItem{
		{ProductID: productID, Quantity: types.NewQuantityFromInt(4)},
	}))
	assert.Equal(t, StatusPartiallyReceived, env.repo.orders[o.ID].Status)
	assert.Equal(t, types.NewQuantityFromInt(4), env.stockRepo.stock[productID])

	require.NoError(t, env.svc.Receive(context.Background(), o.ID, []ReceiveItem{
		{ProductID: productID, Quantity: types.NewQuantityFromInt(6)},
	}))
	assert.Equal(t, StatusReceived, env.repo.orders[o.ID].Status)
	assert.Equal(t, types.NewQuantityFromInt(10), env.stockRepo.stock[productID])

	// two movements, both referencing the order number
	require.Len(t, env.stockRepo.movements, 2)
	for _, m := range env.stockRepo.movements {
		assert.Equal(t, stockledger.TypePurchase, m.Type)
		assert.Equal(t, o.Number, m.Reference)
	}
}

func TestReceive_OverReceiptFailsWholeCall(t *testing.T) {
	env := newPOEnv()
	p1 := id.New()
	p2 := id.New()

	o := newTestOrder(id.New(),
		&Item{ProductID: p1, Quantity: types.NewQuantityFromInt(5), UnitPrice: types.NewMoney(1)},
		&Item{ProductID: p2, Quantity: types.NewQuantityFromInt(5), UnitPrice: types.NewMoney(1)},
	)
	require.NoError(t, env.svc.Create(context.Background(), o))
	require.NoError(t, env.svc.Confirm(context.Background(), o.ID))

	// second line exceeds remaining; the first must not apply either
	err := env.svc.Receive(context.Background(), o.ID, []ReceiveItem{
		{ProductID: p1, Quantity: types.NewQuantityFromInt(2)},
		{ProductID: p2, Quantity: types.NewQuantityFromInt(6)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	assert.Equal(t, types.NewQuantityFromInt(0), env.stockRepo.stock[p1])
	assert.Empty(t, env.stockRepo.movements)
}

func TestReceive_DuplicateLinesSummedAgainstRemaining(t *testing.T) {
	env := newPOEnv()
	productID := id.New()

	o := newTestOrder(id.New(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(10),
		UnitPrice: types.NewMoney(2),
	})
	require.NoError(t, env.svc.Create(context.Background(), o))
	require.NoError(t, env.svc.Confirm(context.Background(), o.ID))

	// each line alone fits within the remaining 10, together they do not
	err := env.svc.Receive(context.Background(), o.ID, []ReceiveItem{
		{ProductID: productID, Quantity: types.NewQuantityFromInt(7)},
		{ProductID: productID, Quantity: types.NewQuantityFromInt(7)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	assert.Equal(t, types.NewQuantityFromInt(0), env.repo.orders[o.ID].Items[0].QuantityReceived)
	assert.Equal(t, types.NewQuantityFromInt(0), env.stockRepo.stock[productID])
	assert.Empty(t, env.stockRepo.movements)

	// a split delivery that fits the remaining quantity still works
	require.NoError(t, env.svc.Receive(context.Background(), o.ID, []ReceiveItem{
		{ProductID: productID, Quantity: types.NewQuantityFromInt(7)},
		{ProductID: productID, Quantity: types.NewQuantityFromInt(3)},
	}))
	assert.Equal(t, StatusReceived, env.repo.orders[o.ID].Status)
	assert.Equal(t, types.NewQuantityFromInt(10), env.stockRepo.stock[productID])
}

func TestReceive_DamagedGoodsSkipShelf(t *testing.T) {
	env := newPOEnv()
	productID := id.New()

	o := newTestOrder(id.New(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(3),
		UnitPrice: types.NewMoney(7),
	})
	require.NoError(t, env.svc.Create(context.Background(), o))
	require.NoError(t, env.svc.Confirm(context.Background(), o.ID))

	require.NoError(t, env.svc.Receive(context.Background(), o.ID, []ReceiveItem{
		{ProductID: productID, Quantity: types.NewQuantityFromInt(3), Condition: ConditionDamaged},
	}))

	// counted as received but never on the shelf
	assert.Equal(t, StatusReceived, env.repo.orders[o.ID].Status)
	assert.Equal(t, types.NewQuantityFromInt(0), env.stockRepo.stock[productID])
	assert.Empty(t, env.stockRepo.movements)
}

func TestReceive_RequiresReceivableStatus(t *testing.T) {
	env := newPOEnv()
	productID := id.New()

	o := newTestOrder(id.New(), &Item{
		ProductID: productID,
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: types.NewMoney(1),
	})
	require.NoError(t, env.svc.Create(context.Background(), o))

	err := env.svc.Receive(context.Background(), o.ID, []ReceiveItem{
		{ProductID: productID, Quantity: types.NewQuantityFromInt(1)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestReceive_UnknownProduct(t *testing.T) {
	env := newPOEnv()

	o := newTestOrder(id.New(), &Item{
		ProductID: id.New(),
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: types.NewMoney(1),
	})
	require.NoError(t, env.svc.Create(context.Background(), o))
	require.NoError(t, env.svc.Confirm(context.Background(), o.ID))

	err := env.svc.Receive(context.Background(), o.ID, []ReceiveItem{
		{ProductID: id.New(), Quantity: types.NewQuantityFromInt(1)},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
