package core

import (
	"errors"
	"fmt"
	"strconv"

	"lendrisk/pkg/bisection"
	"lendrisk/pkg/number"
)

var (
	// ErrStaleData price or interest timestamp older than the caller's bound
	ErrStaleData = errors.New("stale data")
	// ErrArithmeticOverflow amount exceeds the representable range
	ErrArithmeticOverflow = number.ErrOverflow
	// ErrRateLimitExceeded outflow would breach the sliding window cap
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrSolverDidNotConverge bisection exhausted its iterations
	ErrSolverDidNotConverge = bisection.ErrDidNotConverge
	// ErrInvalidConfiguration invalid market, curve, limiter or group config
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrReserveNotFound a position references an unknown reserve
	ErrReserveNotFound = errors.New("reserve not found")
	// ErrNoSnapshot nothing has been published yet
	ErrNoSnapshot = errors.New("no snapshot published")
)

// StaleDataError names the stale reserve input
type StaleDataError struct {
	AssetID AssetID
	Field   string
	AgeS    uint64
	MaxAgeS uint64
}

func (e *StaleDataError) Error() string {
	return fmt.Sprintf("stale data: %s %s is %ds old (max %ds)", e.AssetID, e.Field, e.AgeS, e.MaxAgeS)
}

// Unwrap makes errors.Is(err, ErrStaleData) hold
func (e *StaleDataError) Unwrap() error {
	return ErrStaleData
}

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unkown
	ErrUnknown ErrorCode = 100000
	// ErrInvalidArgument invalid argument
	ErrInvalidArgument ErrorCode = 100001

	// ErrCodeReserveNotFound no reserve
	ErrCodeReserveNotFound ErrorCode = 100100
	// ErrCodeObligationNotFound no obligation
	ErrCodeObligationNotFound ErrorCode = 100101
	// ErrCodeStaleData stale prices or interest
	ErrCodeStaleData ErrorCode = 100102
	// ErrCodeOverflow arithmetic overflow
	ErrCodeOverflow ErrorCode = 100103
	// ErrCodeRateLimited outflow rate limited
	ErrCodeRateLimited ErrorCode = 100104
	// ErrCodeNotConverged solver did not converge
	ErrCodeNotConverged ErrorCode = 100105
	// ErrCodeInvalidConfiguration invalid configuration
	ErrCodeInvalidConfiguration ErrorCode = 100106
	// ErrCodeNoSnapshot read model not ready
	ErrCodeNoSnapshot ErrorCode = 100107
)

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	return e.String()
}

// CodeOf maps an engine error to its error code
func CodeOf(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrStaleData):
		return ErrCodeStaleData
	case errors.Is(err, ErrArithmeticOverflow):
		return ErrCodeOverflow
	case errors.Is(err, ErrRateLimitExceeded):
		return ErrCodeRateLimited
	case errors.Is(err, ErrSolverDidNotConverge):
		return ErrCodeNotConverged
	case errors.Is(err, ErrInvalidConfiguration):
		return ErrCodeInvalidConfiguration
	case errors.Is(err, ErrReserveNotFound):
		return ErrCodeReserveNotFound
	case errors.Is(err, ErrNoSnapshot):
		return ErrCodeNoSnapshot
	}

	var code ErrorCode
	if errors.As(err, &code) {
		return code
	}

	return ErrUnknown
}
