package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestNewContract(t *testing.T) {
	c, err := NewContract(100, 110, 73, 0.05, 0.01, 0.25, Put)
	require.NoError(t, err)

	assert.Equal(t, 100.0, c.Spot())
	assert.Equal(t, 110.0, c.Strike())
	assert.Equal(t, 73, c.Days())
	assert.InDelta(t, 0.2, c.Years(), 1e-12)
	assert.Equal(t, 0.05, c.Rate())
	assert.Equal(t, 0.01, c.Dividend())
	assert.Equal(t, 0.25, c.Sigma())
	assert.Equal(t, Put, c.Side())
	assert.Contains(t, c.String(), "side=put")
}

func TestNewContractValidation(t *testing.T) {
	tests := []struct {
		name     string
		spot     float64
		strike   float64
		days     int
		rate     float64
		dividend float64
		sigma    float64
		side     Side
		want     error
		failures int
	}{
		{"zero spot", 0, 100, 10, 0.05, 0, 0.2, Call, ErrInvalidParameter, 1},
		{"negative strike", 100, -1, 10, 0.05, 0, 0.2, Call, ErrInvalidParameter, 1},
		{"zero sigma", 100, 100, 10, 0.05, 0, 0, Call, ErrInvalidParameter, 1},
		{"negative days", 100, 100, -1, 0.05, 0, 0.2, Call, ErrInvalidParameter, 1},
		{"nan rate", 100, 100, 10, math.NaN(), 0, 0.2, Call, ErrInvalidParameter, 1},
		{"negative dividend", 100, 100, 10, 0.05, -0.01, 0.2, Call, ErrInvalidParameter, 1},
		{"bad side", 100, 100, 10, 0.05, 0, 0.2, Side(7), ErrInvalidSide, 1},
		{"everything", -1, 0, -1, math.Inf(1), -1, -1, Side(9), ErrInvalidParameter, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewContract(tt.spot, tt.strike, tt.days, tt.rate, tt.dividend, tt.sigma, tt.side)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.Len(t, multierr.Errors(err), tt.failures)
		})
	}
}

func TestNewContractUnsetSide(t *testing.T) {
	c, err := NewContract(100, 100, 0, -0.01, 0, 0.2, SideUnset)
	require.NoError(t, err, "negative rates and expired contracts are valid")
	assert.Equal(t, SideUnset, c.Side())
	assert.Equal(t, 0.0, c.Years())

	put, err := c.WithSide(Put)
	require.NoError(t, err)
	assert.Equal(t, Put, put.Side())
	assert.Equal(t, SideUnset, c.Side())

	_, err = c.WithSide(Side(3))
	assert.True(t, errors.Is(err, ErrInvalidSide))
}

func TestParseSide(t *testing.T) {
	for in, want := range map[string]Side{"call": Call, "C": Call, " Put ": Put, "p": Put} {
		got, err := ParseSide(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSide("straddle")
	assert.True(t, errors.Is(err, ErrInvalidSide))
	assert.Equal(t, "Side(5)", Side(5).String())
}

func TestIntrinsic(t *testing.T) {
	assert.Equal(t, 10.0, Intrinsic(Call, 120, 110))
	assert.Equal(t, 0.0, Intrinsic(Call, 100, 110))
	assert.Equal(t, 10.0, Intrinsic(Put, 100, 110))
	assert.Equal(t, 0.0, Intrinsic(Put, 120, 110))
}
