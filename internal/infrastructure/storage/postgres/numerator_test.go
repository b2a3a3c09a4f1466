package postgres

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garasi/internal/core/numerator"
)

type seqRow struct {
	val int64
	err error
}

func (r *seqRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = r.val
		}
	}
	return nil
}

// seqQuerier simulates the sys_sequences UPSERT behavior for a single
// key. It inspects the SQL shape to tell a strict bump from a range
// reservation from an overwrite.
type seqQuerier struct {
	mu      sync.Mutex
	current int64
	calls   int
}

func (q *seqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++

	switch {
	case strings.Contains(sql, "current_val + $2"):
		q.current += args[1].(int64)
	case strings.Contains(sql, "SET current_val = $2"):
		q.current = args[1].(int64)
	default:
		q.current++
	}

	return &seqRow{val: q.current}
}

var seqPeriod = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

func TestNumerator_StrictIsSequential(t *testing.T) {
	q := &seqQuerier{}
	svc := NewNumeratorService(q)
	cfg := numerator.DefaultConfig("TXN")

	first, err := svc.GetNextNumber(context.Background(), cfg, nil, seqPeriod)
	require.NoError(t, err)
	assert.Equal(t, "TXN-2026-00001", first)

	second, err := svc.GetNextNumber(context.Background(), cfg, nil, seqPeriod)
	require.NoError(t, err)
	assert.Equal(t, "TXN-2026-00002", second)

	// One round-trip per number.
	assert.Equal(t, 2, q.calls)
}

func TestNumerator_CachedReservesRanges(t *testing.T) {
	q := &seqQuerier{}
	svc := NewNumeratorService(q)
	cfg := numerator.DefaultConfig("SO")
	opts := &numerator.Options{Strategy: numerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(context.Background(), cfg, opts, seqPeriod)
	require.NoError(t, err)
	assert.Equal(t, "SO-2026-00001", num)
	assert.Equal(t, int64(10), q.current)
	assert.Equal(t, 1, q.calls)

	// Next nine numbers come from memory.
	for i := 2; i <= 10; i++ {
		num, err = svc.GetNextNumber(context.Background(), cfg, opts, seqPeriod)
		require.NoError(t, err)
	}
	assert.Equal(t, "SO-2026-00010", num)
	assert.Equal(t, 1, q.calls)

	// Eleventh exhausts the range and reserves the next one.
	num, err = svc.GetNextNumber(context.Background(), cfg, opts, seqPeriod)
	require.NoError(t, err)
	assert.Equal(t, "SO-2026-00011", num)
	assert.Equal(t, int64(20), q.current)
	assert.Equal(t, 2, q.calls)
}

func TestNumerator_SetNextDropsCachedRange(t *testing.T) {
	q := &seqQuerier{}
	svc := NewNumeratorService(q)
	cfg := numerator.DefaultConfig("SO")
	opts := &numerator.Options{Strategy: numerator.StrategyCached, RangeSize: 10}

	_, err := svc.GetNextNumber(context.Background(), cfg, opts, seqPeriod)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(context.Background(), cfg, seqPeriod, 100))

	// The cached range 2..10 must be gone; the next number comes from
	// the reset counter.
	num, err := svc.GetNextNumber(context.Background(), cfg, opts, seqPeriod)
	require.NoError(t, err)
	assert.Equal(t, "SO-2026-00101", num)
}

func TestNumerator_KeysScopeByPeriod(t *testing.T) {
	cfg := numerator.DefaultConfig("TRF")
	janKey := buildSequenceKey(cfg, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	nextYearKey := buildSequenceKey(cfg, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "TRF_2026", janKey)
	assert.Equal(t, "TRF_2027", nextYearKey)

	cfg.ResetPeriod = "month"
	monthKey := buildSequenceKey(cfg, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "TRF_2026_02", monthKey)

	cfg.ResetPeriod = "never"
	assert.Equal(t, "TRF", buildSequenceKey(cfg, seqPeriod))
}

func TestNumerator_FormatWithoutYear(t *testing.T) {
	cfg := numerator.Config{Prefix: "ADJ", PadWidth: 3}
	assert.Equal(t, "ADJ-007", formatNumber(cfg, seqPeriod, 7))
}
