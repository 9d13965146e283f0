package numerator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "storeroom/internal/core/numerator"
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

// mockQuerier simulates the sys_sequences UPSERT: every call advances the
// counter for its key by the given increment and returns the new value.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, _ := args[0].(string)
	var increment int64 = 1
	if len(args) > 1 {
		if v, ok := args[1].(int64); ok {
			increment = v
		}
	}

	if strings.Contains(sql, "DO UPDATE SET current_val = $2") {
		m.counters[key] = increment // SetNextNumber overwrite
	} else {
		m.counters[key] += increment
	}
	return &mockRow{val: m.counters[key]}
}

func TestStrictSequence(t *testing.T) {
	svc := New(newMockQuerier())
	ctx := context.Background()
	period := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	cfg := corenumerator.DefaultConfig("PR")

	n1, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	n2, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)

	assert.Equal(t, "PR-20260831-0001", n1)
	assert.Equal(t, "PR-20260831-0002", n2)
}

func TestDailyReset(t *testing.T) {
	svc := New(newMockQuerier())
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("PR")

	day1 := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	n1, err := svc.GetNextNumber(ctx, cfg, nil, day1)
	require.NoError(t, err)
	n2, err := svc.GetNextNumber(ctx, cfg, nil, day2)
	require.NoError(t, err)

	// Separate keys per day, so the counter starts over.
	assert.Equal(t, "PR-20260831-0001", n1)
	assert.Equal(t, "PR-20260901-0001", n2)
}

func TestCachedRanges(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	period := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	cfg := corenumerator.DefaultConfig("LOT")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		n, err := svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
		require.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}

	// 25 numbers from ranges of 10 means exactly three DB reservations.
	assert.Equal(t, int64(30), q.counters["LOT_2026_08_31"])
}

func TestCachedConcurrentUnique(t *testing.T) {
	svc := New(newMockQuerier())
	ctx := context.Background()
	period := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	cfg := corenumerator.DefaultConfig("LOT")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 5}

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				n, err := svc.GetNextNumber(ctx, cfg, opts, period)
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				if seen[n] {
					t.Errorf("duplicate number %s", n)
				}
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 160)
}

func TestSetNextNumber(t *testing.T) {
	svc := New(newMockQuerier())
	ctx := context.Background()
	period := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	cfg := corenumerator.DefaultConfig("PR")

	require.NoError(t, svc.SetNextNumber(ctx, cfg, period, 100))

	n, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "PR-20260831-0101", n)
}
