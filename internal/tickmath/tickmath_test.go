package tickmath_test

import (
	"testing"

	"github.com/osmosis-labs/osmosis/osmomath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickbook/internal/tickmath"
)

func TestTickToPrice_OriginIsOne(t *testing.T) {
	price, err := tickmath.TickToPrice(0)
	require.NoError(t, err)
	assert.True(t, price.Equal(osmomath.OneBigDec()))
}

func TestTickToPrice_OutOfRange(t *testing.T) {
	_, err := tickmath.TickToPrice(tickmath.MaxTick + 1)
	assert.Error(t, err)

	_, err = tickmath.TickToPrice(tickmath.MinTick - 1)
	assert.Error(t, err)
}

func TestTickToPrice_Monotone(t *testing.T) {
	samples := []int64{
		tickmath.MinTick, -100_000_000, -18_000_000, -9_000_001, -9_000_000,
		-1, 0, 1, 8_999_999, 9_000_000, 18_000_001, 100_000_000, tickmath.MaxTick,
	}

	prev, err := tickmath.TickToPrice(samples[0])
	require.NoError(t, err)

	for _, tick := range samples[1:] {
		cur, err := tickmath.TickToPrice(tick)
		require.NoError(t, err)
		assert.True(t, cur.GT(prev), "price at tick %d should exceed price at previous sample", tick)
		prev = cur
	}
}

func TestPriceToTick_RoundTrips(t *testing.T) {
	for _, tick := range []int64{-50_000_000, -9_000_000, 0, 1, 9_000_000, 75_000_000} {
		price, err := tickmath.TickToPrice(tick)
		require.NoError(t, err)

		gotTick, err := tickmath.PriceToTick(price)
		require.NoError(t, err)
		assert.Equal(t, tick, gotTick)
	}
}
