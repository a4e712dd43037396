// Package bisection finds the boundary of a monotonic predicate.
//
// The predicate must hold on [left, x*] and fail on (x*, right]. Search returns the
// largest tried value for which the predicate held, so the answer is always on the
// safe side of the boundary.
package bisection

import (
	"errors"

	"lendrisk/pkg/number"
)

const (
	// DefaultMaxIterations bounds the work of a single search. 50 halvings shrink any
	// realistic token-amount range below DefaultTolerance.
	DefaultMaxIterations = 50
	// DefaultTolerance absolute width of the final bracket, in units of the search variable
	DefaultTolerance = "0.000001"
)

// ErrDidNotConverge the bracket was still wider than the tolerance after MaxIterations
var ErrDidNotConverge = errors.New("solver did not converge")

// Predicate reports whether x is acceptable
type Predicate func(x number.Decimal) (bool, error)

// Config solver knobs
type Config struct {
	MaxIterations int
	Tolerance     number.Decimal
}

// Result outcome of a search
type Result struct {
	// Value largest tried x with predicate(x) == true, or left when none was found
	Value number.Decimal
	// Feasible whether predicate(left) held
	Feasible   bool
	Iterations int
}

// DefaultConfig 50 iterations, 1e-6 tolerance
func DefaultConfig() Config {
	return Config{
		MaxIterations: DefaultMaxIterations,
		Tolerance:     number.MustFromString(DefaultTolerance),
	}
}

// Search bisects [left, right] for the boundary of pred.
//
// When the bracket is still wider than Tolerance after MaxIterations the best
// safe value found so far is returned together with ErrDidNotConverge.
func (c Config) Search(left, right number.Decimal, pred Predicate) (Result, error) {
	if right.Lt(left) {
		left, right = right, left
	}

	ok, err := pred(left)
	if err != nil {
		return Result{Value: left}, err
	}
	if !ok {
		return Result{Value: left}, nil
	}

	if ok, err = pred(right); err != nil {
		return Result{Value: left, Feasible: true}, err
	} else if ok {
		return Result{Value: right, Feasible: true}, nil
	}

	two := number.FromUint64(2)
	lo, hi := left, right
	res := Result{Value: lo, Feasible: true}
	for res.Iterations < c.MaxIterations {
		width := hi.SaturatingSub(lo)
		if width.Lte(c.Tolerance) {
			res.Value = lo
			return res, nil
		}

		half, err := width.Div(two)
		if err != nil {
			return res, err
		}
		mid, err := lo.Add(half)
		if err != nil {
			return res, err
		}
		// a zero-width half means the bracket cannot shrink further
		if mid.Eq(lo) {
			res.Value = lo
			return res, nil
		}

		res.Iterations++
		ok, err := pred(mid)
		if err != nil {
			return res, err
		}

		if ok {
			lo = mid
		} else {
			hi = mid
		}
		res.Value = lo
	}

	if hi.SaturatingSub(lo).Lte(c.Tolerance) {
		return res, nil
	}

	return res, ErrDidNotConverge
}
