package stockledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

type fakeStockRepo struct {
	stock     map[id.ID]types.Quantity
	movements []Movement

	lockErr error
	setErr  error
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{stock: make(map[id.ID]types.Quantity)}
}

func (r *fakeStockRepo) GetStockForUpdate(_ context.Context, productID id.ID) (types.Quantity, error) {
	if r.lockErr != nil {
		return 0, r.lockErr
	}
	return r.stock[productID], nil
}

func (r *fakeStockRepo) SetStock(_ context.Context, productID id.ID, stock types.Quantity) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.stock[productID] = stock
	return nil
}

func (r *fakeStockRepo) InsertMovement(_ context.Context, m *Movement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeStockRepo) MovementsByReference(_ context.Context, reference string) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.Reference == reference {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) MovementsByProduct(_ context.Context, productID id.ID, _ MovementFilter) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestAdjust_RecordsMovementWithBalances(t *testing.T) {
	repo := newFakeStockRepo()
	svc := NewService(repo)

	productID := id.New()
	repo.stock[productID] = types.NewQuantityFromInt(10)

	movement, err := svc.Adjust(context.Background(), Adjustment{
		ProductID: productID,
		Delta:     types.NewQuantityFromInt(-3),
		Type:      TypeSale,
		Reference: "SO-000001",
	})
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromInt(10), movement.BalanceBefore)
	assert.Equal(t, types.NewQuantityFromInt(7), movement.BalanceAfter)
	assert.Equal(t, types.NewQuantityFromInt(7), repo.stock[productID])
	assert.Equal(t, movement.BalanceBefore+movement.Quantity, movement.BalanceAfter)
	require.Len(t, repo.movements, 1)
	assert.Equal(t, "SO-000001", repo.movements[0].Reference)
}

func TestAdjust_RejectsNegativeBalance(t *testing.T) {
	repo := newFakeStockRepo()
	svc := NewService(repo)

	productID := id.New()
	repo.stock[productID] = types.NewQuantityFromInt(2)

	_, err := svc.Adjust(context.Background(), Adjustment{
		ProductID: productID,
		Delta:     types.NewQuantityFromInt(-5),
		Type:      TypeSale,
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	// nothing changed
	assert.Equal(t, types.NewQuantityFromInt(2), repo.stock[productID])
	assert.Empty(t, repo.movements)
}

func TestAdjust_AllowNegativeGoesBelowZero(t *testing.T) {
	repo := newFakeStockRepo()
	svc := NewService(repo)

	productID := id.New()
	repo.stock[productID] = types.NewQuantityFromInt(1)

	movement, err := svc.Adjust(context.Background(), Adjustment{
		ProductID:     productID,
		Delta:         types.NewQuantityFromInt(-4),
		Type:          TypeAdjustment,
		Reason:        "damaged goods written off twice",
		AllowNegative: true,
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(-3), movement.BalanceAfter)
}

func TestAdjust_Validation(t *testing.T) {
	svc := NewService(newFakeStockRepo())

	tests := []struct {
		name string
		adj  Adjustment
	}{
		{"nil product", Adjustment{Delta: types.NewQuantityFromInt(1), Type: TypeAdjustment}},
		{"zero delta", Adjustment{ProductID: id.New(), Type: TypeAdjustment}},
		{"missing type", Adjustment{ProductID: id.New(), Delta: types.NewQuantityFromInt(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Adjust(context.Background(), tt.adj)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestCheckAvailable(t *testing.T) {
	repo := newFakeStockRepo()
	svc := NewService(repo)

	productID := id.New()
	repo.stock[productID] = types.NewQuantityFromInt(5)

	assert.NoError(t, svc.CheckAvailable(context.Background(), productID, types.NewQuantityFromInt(5)))

	err := svc.CheckAvailable(context.Background(), productID, types.NewQuantityFromInt(6))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
}

func TestMovementsByReference(t *testing.T) {
	repo := newFakeStockRepo()
	svc := NewService(repo)

	productID := id.New()
	repo.stock[productID] = types.NewQuantityFromInt(100)

	_, err := svc.Adjust(context.Background(), Adjustment{
		ProductID: productID,
		Delta:     types.NewQuantityFromInt(-1),
		Type:      TypeSale,
		Reference: "SO-000042",
	})
	require.NoError(t, err)

	movements, err := svc.MovementsByReference(context.Background(), "SO-000042")
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, TypeSale, movements[0].Type)
}
