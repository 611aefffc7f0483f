package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences UPSERT: every call bumps the
// counter by the increment argument (1 for strict) and returns the new value.
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := YearlyConfig("TEST")

	period := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	require.Equal(t, "TEST-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	require.Equal(t, "TEST-2026-00002", num)
}

func TestGetNextNumber_DailyScope(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DailyConfig("SO")

	period := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	require.Equal(t, "SO-20260830-0001", num)
}

func TestGetNextNumber_MonthlyScope(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := MonthlyConfig("QT")

	period := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	require.Equal(t, "QT-202608-0001", num)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := YearlyConfig("ORD")

	opts := &Options{Strategy: StrategyCached, RangeSize: 10}
	period := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	// First call allocates the range 1..10 with a single DB roundtrip.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	require.Equal(t, "ORD-2026-00001", num)
	require.EqualValues(t, 10, q.currentValue)
	require.Equal(t, 1, q.calls)

	// Subsequent calls inside the range stay in memory.
	for i := 2; i <= 10; i++ {
		num, err = svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}
	require.Equal(t, "ORD-2026-00010", num)
	require.Equal(t, 1, q.calls)

	// Range exhausted: next call refills.
	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	require.Equal(t, "ORD-2026-00011", num)
	require.Equal(t, 2, q.calls)
}

func TestGetNextNumber_ConcurrentUnique(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	cfg := DailyConfig("SO")
	period := time.Now()

	const n = 50
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
			require.NoError(t, err)
			results <- num
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool, n)
	for num := range results {
		require.False(t, seen[num], "duplicate number %s", num)
		seen[num] = true
	}
	require.Len(t, seen, n)
}
