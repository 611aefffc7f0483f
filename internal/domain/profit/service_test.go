package profit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProfitRepo struct {
	records   []Record
	backfill  []BackfillItem
	deletedBy []ReferenceType
}

func (r *fakeProfitRepo) Insert(_ context.Context, rec *Record) error {
	r.records = append(r.records, *rec)
	return nil
}

func (r *fakeProfitRepo) DeleteByReferenceType(_ context.Context, refType ReferenceType) error {
	r.deletedBy = append(r.deletedBy, refType)
	var kept []Record
	for _, rec := range r.records {
		if rec.ReferenceType != refType {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

func (r *fakeProfitRepo) ListSaleItems(_ context.Context) ([]BackfillItem, error) {
	return r.backfill, nil
}

func (r *fakeProfitRepo) ByReference(_ context.Context, refID id.ID) ([]Record, error) {
	var out []Record
	for _, rec := range r.records {
		if rec.ReferenceID == refID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func money(v float64) types.Money { return types.NewMoney(v) }

func TestRecordSaleItem_StockedCost(t *testing.T) {
	repo := &fakeProfitRepo{}
	svc := NewService(repo, noopTxManager{})
	saleID := id.New()
	saleDate := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	rec, err := svc.RecordSaleItem(context.Background(), saleID, saleDate, SaleItemSnapshot{
		ProductID:  id.New(),
		Quantity:   types.NewQuantityFromInt(3),
		Total:      money(150),
		CostAtSale: money(30),
	})
	require.NoError(t, err)

	assert.Equal(t, saleID, rec.ReferenceID)
	assert.Equal(t, ReferenceSale, rec.ReferenceType)
	assert.True(t, rec.Revenue.Equal(money(150)))
	assert.True(t, rec.COGS.Equal(money(90)))
	assert.True(t, rec.Profit.Equal(money(60)))
	assert.Equal(t, saleDate, rec.SaleDate)
	require.Len(t, repo.records, 1)
}

func TestRecordSaleItem_OutsourcedCostWins(t *testing.T) {
	repo := &fakeProfitRepo{}
	svc := NewService(repo, noopTxManager{})
	outCost := money(42)

	rec, err := svc.RecordSaleItem(context.Background(), id.New(), time.Now(), SaleItemSnapshot{
		ProductID:              id.New(),
		Quantity:               types.NewQuantityFromInt(2),
		Total:                  money(120),
		IsOutsourced:           true,
		OutsourcingCostPerUnit: &outCost,
		CostAtSale:             money(30),
	})
	require.NoError(t, err)

	assert.True(t, rec.COGS.Equal(money(84)))
	assert.True(t, rec.Profit.Equal(money(36)))
}

func TestRecordSaleItem_Validation(t *testing.T) {
	svc := NewService(&fakeProfitRepo{}, noopTxManager{})

	_, err := svc.RecordSaleItem(context.Background(), id.Nil(), time.Now(), SaleItemSnapshot{
		ProductID: id.New(),
		Quantity:  types.NewQuantityFromInt(1),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.RecordSaleItem(context.Background(), id.New(), time.Now(), SaleItemSnapshot{
		ProductID: id.New(),
		Quantity:  types.NewQuantityFromInt(0),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestBackfill_RecomputesFromSaleItems(t *testing.T) {
	saleA := id.New()
	saleB := id.New()
	repo := &fakeProfitRepo{
		// a stale record that the backfill must wipe
		records: []Record{{ID: id.New(), ReferenceID: saleA, ReferenceType: ReferenceSale, Revenue: money(999)}},
		backfill: []BackfillItem{
			{SaleID: saleA, SaleDate: time.Now(), Item: SaleItemSnapshot{
				ProductID: id.New(), Quantity: types.NewQuantityFromInt(2), Total: money(100), CostAtSale: money(20),
			}},
			{SaleID: saleB, SaleDate: time.Now(), Item: SaleItemSnapshot{
				ProductID: id.New(), Quantity: types.NewQuantityFromInt(1), Total: money(80), CostAtSale: money(50),
			}},
		},
	}
	svc := NewService(repo, noopTxManager{})

	count, err := svc.Backfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, []ReferenceType{ReferenceSale}, repo.deletedBy)
	require.Len(t, repo.records, 2)

	recs, err := svc.ByReference(context.Background(), saleA)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Revenue.Equal(money(100)))
	assert.True(t, recs[0].COGS.Equal(money(40)))
	assert.True(t, recs[0].Profit.Equal(money(60)))
}
