package models

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/multierr"
)

// DaysPerYear converts days-to-maturity into a year fraction.
const DaysPerYear = 365.0

// Side is the option contract side. The zero value means "unset", which is
// accepted by engines that price both sides at once.
type Side int

const (
	SideUnset Side = iota
	Call
	Put
)

func (s Side) String() string {
	switch s {
	case Call:
		return "call"
	case Put:
		return "put"
	case SideUnset:
		return "unset"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Valid reports whether s is Call or Put.
func (s Side) Valid() bool {
	return s == Call || s == Put
}

// ParseSide parses "call" or "put", case-insensitively.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return SideUnset, fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// Contract holds the market and contract parameters shared by every engine.
// It is immutable once built; use NewContract.
type Contract struct {
	spot     float64
	strike   float64
	days     int
	years    float64
	rate     float64
	dividend float64
	sigma    float64
	side     Side
}

// NewContract validates its inputs and returns a Contract. All violations are
// reported together; each one wraps ErrInvalidParameter or ErrInvalidSide.
func NewContract(spot, strike float64, days int, rate, dividend, sigma float64, side Side) (Contract, error) {
	var err error
	err = multierr.Append(err, positive("spot", spot))
	err = multierr.Append(err, positive("strike", strike))
	err = multierr.Append(err, positive("sigma", sigma))
	if days < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: days to maturity must be >= 0, got %d", ErrInvalidParameter, days))
	}
	if !finite(rate) {
		err = multierr.Append(err, fmt.Errorf("%w: rate must be finite, got %v", ErrInvalidParameter, rate))
	}
	if !finite(dividend) || dividend < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: dividend yield must be >= 0, got %v", ErrInvalidParameter, dividend))
	}
	if side != SideUnset && !side.Valid() {
		err = multierr.Append(err, fmt.Errorf("%w: %v", ErrInvalidSide, side))
	}
	if err != nil {
		return Contract{}, err
	}

	return Contract{
		spot:     spot,
		strike:   strike,
		days:     days,
		years:    float64(days) / DaysPerYear,
		rate:     rate,
		dividend: dividend,
		sigma:    sigma,
		side:     side,
	}, nil
}

func positive(name string, v float64) error {
	if !finite(v) || v <= 0 {
		return fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (c Contract) Spot() float64     { return c.spot }
func (c Contract) Strike() float64   { return c.strike }
func (c Contract) Days() int         { return c.days }
func (c Contract) Years() float64    { return c.years }
func (c Contract) Rate() float64     { return c.rate }
func (c Contract) Dividend() float64 { return c.dividend }
func (c Contract) Sigma() float64    { return c.sigma }
func (c Contract) Side() Side        { return c.side }

// WithSide returns a copy of c priced on the given side.
func (c Contract) WithSide(side Side) (Contract, error) {
	if side != SideUnset && !side.Valid() {
		return Contract{}, fmt.Errorf("%w: %v", ErrInvalidSide, side)
	}
	c.side = side
	return c, nil
}

func (c Contract) String() string {
	return fmt.Sprintf("S=%.4g K=%.4g days=%d r=%.4g q=%.4g sigma=%.4g side=%s",
		c.spot, c.strike, c.days, c.rate, c.dividend, c.sigma, c.side)
}

// Intrinsic returns the exercise value of an option on the given side.
func Intrinsic(side Side, spot, strike float64) float64 {
	if side == Put {
		return math.Max(strike-spot, 0)
	}
	return math.Max(spot-strike, 0)
}
