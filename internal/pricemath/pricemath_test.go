package pricemath

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_guard/internal/models"
)

func TestTpSlLongOrdering(t *testing.T) {
	for _, lev := range []int{1, 2, 8, 20, 125} {
		tp, sl, err := TpSl(50000, 10, 5, models.Long, lev)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, tp, 50000.0, "lev=%d", lev)
		assert.LessOrEqual(t, sl, 50000.0, "lev=%d", lev)
	}
}

func TestTpSlShortOrdering(t *testing.T) {
	for _, lev := range []int{1, 2, 8, 20, 125} {
		tp, sl, err := TpSl(50000, 10, 5, models.Short, lev)
		require.NoError(t, err)
		assert.LessOrEqual(t, tp, 50000.0, "lev=%d", lev)
		assert.GreaterOrEqual(t, sl, 50000.0, "lev=%d", lev)
	}
}

func TestTpSlExactValues(t *testing.T) {
	// entry=50000, tp=10%, sl=5%, lev=8:
	// TP = 50000*(1+10/100/8) = 50625, SL = 50000*(1-5/100/8) = 49687.5
	tp, sl, err := TpSl(50000, 10, 5, models.Long, 8)
	require.NoError(t, err)
	assert.InDelta(t, 50625.0, tp, 1e-9)
	assert.InDelta(t, 49687.5, sl, 1e-9)
}

func TestTpSlRejectsBadLeverage(t *testing.T) {
	for _, lev := range []int{0, -1, -20} {
		_, _, err := TpSl(100, 10, 5, models.Long, lev)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrLeverage))
	}
}

func TestROI(t *testing.T) {
	// LONG: lev*(mark-entry)/entry*100
	assert.InDelta(t, 20.0, ROI(models.Long, 100, 102, 10), 1e-9)
	assert.InDelta(t, -20.0, ROI(models.Long, 100, 98, 10), 1e-9)
	// SHORT: lev*(entry-mark)/entry*100
	assert.InDelta(t, 20.0, ROI(models.Short, 100, 98, 10), 1e-9)
	assert.InDelta(t, -20.0, ROI(models.Short, 100, 102, 10), 1e-9)
}

func TestROIZeroEntry(t *testing.T) {
	for _, mark := range []float64{0, 1, 50000, -3} {
		assert.Zero(t, ROI(models.Long, 0, mark, 20))
		assert.Zero(t, ROI(models.Short, 0, mark, 20))
	}
}

func TestLockPrice(t *testing.T) {
	// entry=100, lock=1.5%, lev=10 -> 100*(1+1.5/100/10) = 100.15
	got := LockPrice(100, 1.5, models.Long, 10)
	assert.InDelta(t, 100.15, got, 1e-9)

	got = LockPrice(100, 1.5, models.Short, 10)
	assert.InDelta(t, 99.85, got, 1e-9)
}

func TestStopPrice(t *testing.T) {
	assert.InDelta(t, 99.85, StopPrice(100, 1.5, models.Long, 10), 1e-9)
	assert.InDelta(t, 100.15, StopPrice(100, 1.5, models.Short, 10), 1e-9)
}

func TestRoundDownToTick(t *testing.T) {
	assert.InDelta(t, 100.15, RoundDownToTick(100.157, 0.01), 1e-9)
	assert.InDelta(t, 100.15, RoundDownToTick(100.15, 0.01), 1e-9)
	assert.InDelta(t, 100.15, RoundDownToTick(100*(1+1.5/100/10), 0.01), 1e-9)
	// нулевой tick — без округления
	assert.Equal(t, 100.157, RoundDownToTick(100.157, 0))
}

func TestFloorToStep(t *testing.T) {
	// 950*8/50000 = 0.152 при step=0.001
	assert.InDelta(t, 0.152, FloorToStep(950*8.0/50000, 0.001), 1e-9)
	assert.InDelta(t, 0.152, FloorToStep(0.15299, 0.001), 1e-9)
	assert.Equal(t, 0.15299, FloorToStep(0.15299, 0))
}

func TestRoundUpToTick(t *testing.T) {
	assert.InDelta(t, 100.16, RoundUpToTick(100.151, 0.01), 1e-9)
	assert.InDelta(t, 100.15, RoundUpToTick(100.15, 0.01), 1e-9)
}
