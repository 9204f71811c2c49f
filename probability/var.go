package probability

import (
	"fmt"
	"sort"

	"github.com/bcdannyboy/optpricer/models"
	"gonum.org/v1/gonum/stat"
)

// ReturnMode selects how a terminal price is turned into a return.
type ReturnMode int

const (
	// AbsoluteReturns measures P&L in price units, S_T - S.
	AbsoluteReturns ReturnMode = iota
	// PercentReturns measures P&L as a fraction of spot, (S_T - S) / S.
	PercentReturns
)

func (m ReturnMode) String() string {
	if m == PercentReturns {
		return "percent"
	}
	return "absolute"
}

// ParseReturnMode accepts "abs"/"absolute" and "pct"/"percent".
func ParseReturnMode(s string) (ReturnMode, error) {
	switch s {
	case "abs", "absolute", "pnl":
		return AbsoluteReturns, nil
	case "pct", "percent", "percentage":
		return PercentReturns, nil
	}
	return AbsoluteReturns, fmt.Errorf("%w: unknown return mode %q", models.ErrInvalidParameter, s)
}

// RiskReport summarises the maturity distribution of a simulated ensemble.
type RiskReport struct {
	CallITM    float64
	PutITM     float64
	Confidence float64
	Mode       ReturnMode
	VaR        float64
	CVaR       float64
}

// ITMProbability returns the fraction of terminal prices that finish in the
// money: above the strike for a call, below it for a put.
func ITMProbability(terminal []float64, strike float64, side models.Side) float64 {
	if len(terminal) == 0 {
		return 0
	}
	itm := 0
	for _, s := range terminal {
		if models.Intrinsic(side, s, strike) > 0 {
			itm++
		}
	}
	return float64(itm) / float64(len(terminal))
}

// Returns converts terminal prices into returns relative to spot.
func Returns(terminal []float64, spot float64, mode ReturnMode) []float64 {
	out := make([]float64, len(terminal))
	for i, s := range terminal {
		out[i] = s - spot
		if mode == PercentReturns {
			out[i] /= spot
		}
	}
	return out
}

// VaR returns the (1 - confidence) percentile of the return distribution.
// The result is a return, so a loss is negative.
func VaR(returns []float64, confidence float64) (float64, error) {
	sorted, err := sortedReturns(returns, confidence)
	if err != nil {
		return 0, err
	}
	return stat.Quantile(1-confidence, stat.Empirical, sorted, nil), nil
}

// CVaR returns the mean of the returns at or below the VaR threshold.
func CVaR(returns []float64, confidence float64) (float64, error) {
	sorted, err := sortedReturns(returns, confidence)
	if err != nil {
		return 0, err
	}
	threshold := stat.Quantile(1-confidence, stat.Empirical, sorted, nil)

	tail := sort.Search(len(sorted), func(i int) bool { return sorted[i] > threshold })
	return stat.Mean(sorted[:tail], nil), nil
}

func sortedReturns(returns []float64, confidence float64) ([]float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return nil, fmt.Errorf("%w: confidence must be in (0, 1), got %v", models.ErrInvalidParameter, confidence)
	}
	if len(returns) == 0 {
		return nil, fmt.Errorf("%w: no returns to measure", models.ErrInvalidParameter)
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)
	return sorted, nil
}

// Summarize computes ITM probabilities and tail risk for a simulated ensemble.
func Summarize(mc *models.MonteCarlo, confidence float64, mode ReturnMode) (RiskReport, error) {
	c := mc.Contract()
	terminal := mc.Terminal()
	returns := Returns(terminal, c.Spot(), mode)

	v, err := VaR(returns, confidence)
	if err != nil {
		return RiskReport{}, err
	}
	cv, err := CVaR(returns, confidence)
	if err != nil {
		return RiskReport{}, err
	}

	return RiskReport{
		CallITM:    ITMProbability(terminal, c.Strike(), models.Call),
		PutITM:     ITMProbability(terminal, c.Strike(), models.Put),
		Confidence: confidence,
		Mode:       mode,
		VaR:        v,
		CVaR:       cv,
	}, nil
}
