package bisection

import (
	"errors"
	"testing"

	"lendrisk/pkg/number"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threshold(x number.Decimal) Predicate {
	return func(v number.Decimal) (bool, error) {
		return v.Lte(x), nil
	}
}

func TestSearchConverges(t *testing.T) {
	cfg := DefaultConfig()
	boundaries := []string{"0", "0.5", "1", "123.456789", "999.9999", "1000"}

	for _, b := range boundaries {
		t.Run(b, func(t *testing.T) {
			x := number.MustFromString(b)
			res, err := cfg.Search(number.Zero(), number.FromUint64(1000), threshold(x))
			require.NoError(t, err)
			assert.True(t, res.Feasible)
			assert.True(t, res.Value.Lte(x), "value %s must not pass boundary %s", res.Value, x)
			assert.True(t, x.SaturatingSub(res.Value).Lte(cfg.Tolerance), "value %s too far from %s", res.Value, x)
			assert.LessOrEqual(t, res.Iterations, cfg.MaxIterations)
		})
	}
}

func TestSearchInfeasible(t *testing.T) {
	res, err := DefaultConfig().Search(number.FromUint64(10), number.FromUint64(20), threshold(number.FromUint64(5)))
	require.NoError(t, err)
	assert.False(t, res.Feasible)
	assert.Equal(t, "10", res.Value.String())
}

func TestSearchWholeRangeFeasible(t *testing.T) {
	res, err := DefaultConfig().Search(number.Zero(), number.FromUint64(20), threshold(number.FromUint64(50)))
	require.NoError(t, err)
	assert.Equal(t, "20", res.Value.String())
	assert.Equal(t, 0, res.Iterations)
}

func TestSearchTerminatesOnArbitraryPredicate(t *testing.T) {
	cfg := Config{MaxIterations: 8, Tolerance: number.MustFromString("0.000001")}
	calls := 0
	flip := func(v number.Decimal) (bool, error) {
		calls++
		if calls <= 2 {
			return calls == 1, nil
		}
		return calls%2 == 0, nil
	}

	res, err := cfg.Search(number.Zero(), number.FromUint64(1_000_000), flip)
	require.ErrorIs(t, err, ErrDidNotConverge)
	assert.Equal(t, cfg.MaxIterations, res.Iterations)
	assert.Equal(t, cfg.MaxIterations+2, calls)
}

func TestSearchPropagatesPredicateError(t *testing.T) {
	boom := errors.New("boom")
	_, err := DefaultConfig().Search(number.Zero(), number.One(), func(number.Decimal) (bool, error) {
		return false, boom
	})
	require.ErrorIs(t, err, boom)
}
