package models

import "errors"

var (
	// ErrInvalidParameter marks inputs rejected at construction time.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidSide marks a contract side outside {call, put} where one is required.
	ErrInvalidSide = errors.New("invalid contract side")

	// ErrDegenerateModel marks a discretization or closed form that cannot be evaluated,
	// e.g. a zero σ√T in d1/d2 or a risk-neutral probability outside [0, 1].
	ErrDegenerateModel = errors.New("degenerate model")
)
