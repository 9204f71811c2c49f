package report

import (
	"math"
	"time"

	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/positions"
	"github.com/bcdannyboy/optpricer/probability"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

// Report is the document printed by the CLI.
type Report struct {
	Contract ContractDoc `json:"contract"`
	Models   []ModelDoc  `json:"models,omitempty"`
	Greeks   []GreeksDoc `json:"greeks,omitempty"`
	Grids    []GridDoc   `json:"grids,omitempty"`
	Risk     *RiskDoc    `json:"risk,omitempty"`
	Sweep    *SweepDoc   `json:"sweep,omitempty"`
	Trees    []TreeDoc   `json:"trees,omitempty"`
	Errors   []ErrorDoc  `json:"errors,omitempty"`
}

type ContractDoc struct {
	Spot     decimal.Decimal `json:"spot"`
	Strike   decimal.Decimal `json:"strike"`
	Days     int             `json:"days"`
	Years    decimal.Decimal `json:"years"`
	Rate     decimal.Decimal `json:"rate"`
	Dividend decimal.Decimal `json:"dividend"`
	Sigma    decimal.Decimal `json:"sigma"`
	Side     string          `json:"side"`
}

type ModelDoc struct {
	Name       string            `json:"name"`
	Call       decimal.Decimal   `json:"call"`
	Put        decimal.Decimal   `json:"put"`
	Iterations int               `json:"iterations,omitempty"`
	Steps      int               `json:"steps,omitempty"`
	CallStdErr *decimal.Decimal  `json:"call_std_err,omitempty"`
	PutStdErr  *decimal.Decimal  `json:"put_std_err,omitempty"`
	Up         *decimal.Decimal  `json:"up,omitempty"`
	Down       *decimal.Decimal  `json:"down,omitempty"`
	Probs      []decimal.Decimal `json:"probabilities,omitempty"`
	Elapsed    string            `json:"elapsed,omitempty"`
}

type GreeksDoc struct {
	Side  string          `json:"side"`
	Delta decimal.Decimal `json:"delta"`
	Gamma decimal.Decimal `json:"gamma"`
	Theta decimal.Decimal `json:"theta"`
	Vega  decimal.Decimal `json:"vega"`
	Rho   decimal.Decimal `json:"rho"`
}

// GridDoc rows follow Vols, columns follow Spots.
type GridDoc struct {
	Side   string              `json:"side"`
	Spots  []decimal.Decimal   `json:"spots"`
	Vols   []decimal.Decimal   `json:"vols"`
	Values [][]decimal.Decimal `json:"values"`
}

type RiskDoc struct {
	CallITM    decimal.Decimal `json:"call_itm"`
	PutITM     decimal.Decimal `json:"put_itm"`
	Confidence decimal.Decimal `json:"confidence"`
	Returns    string          `json:"returns"`
	VaR        decimal.Decimal `json:"var"`
	CVaR       decimal.Decimal `json:"cvar"`
}

type SweepDoc struct {
	Model  string          `json:"model"`
	Points []SweepPointDoc `json:"points"`
}

type SweepPointDoc struct {
	Count   int             `json:"count"`
	Call    decimal.Decimal `json:"call"`
	Put     decimal.Decimal `json:"put"`
	RefCall decimal.Decimal `json:"ref_call"`
	RefPut  decimal.Decimal `json:"ref_put"`
	CallErr decimal.Decimal `json:"call_err"`
	PutErr  decimal.Decimal `json:"put_err"`
	StdErr  decimal.Decimal `json:"std_err"`
	Elapsed string          `json:"elapsed"`
}

// TreeDoc holds the reached values of one lattice, depth by depth, lowest
// state index first.
type TreeDoc struct {
	Model  string              `json:"model"`
	Kind   string              `json:"kind"` // assets, calls or puts
	Levels [][]decimal.Decimal `json:"levels"`
}

type ErrorDoc struct {
	Model string `json:"model"`
	Error string `json:"error"`
}

// Builder rounds every float to a fixed number of decimal places.
type Builder struct {
	places int32
}

func NewBuilder(places int32) *Builder {
	if places < 0 {
		places = 0
	}
	return &Builder{places: places}
}

// Round converts f to a decimal rounded half away from zero. Non-finite
// values have no decimal form and come back as zero.
func (b *Builder) Round(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f).Round(b.places)
}

func (b *Builder) roundPtr(f float64) *decimal.Decimal {
	d := b.Round(f)
	return &d
}

func (b *Builder) roundAll(fs []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(fs))
	for i, f := range fs {
		out[i] = b.Round(f)
	}
	return out
}

func (b *Builder) Contract(c models.Contract) ContractDoc {
	return ContractDoc{
		Spot:     b.Round(c.Spot()),
		Strike:   b.Round(c.Strike()),
		Days:     c.Days(),
		Years:    b.Round(c.Years()),
		Rate:     b.Round(c.Rate()),
		Dividend: b.Round(c.Dividend()),
		Sigma:    b.Round(c.Sigma()),
		Side:     c.Side().String(),
	}
}

// Model describes a priced engine, adding the model specific figures of the
// engines this package knows about.
func (b *Builder) Model(e models.PricingEngine, elapsed time.Duration) ModelDoc {
	doc := ModelDoc{
		Name: e.Name(),
		Call: b.Round(e.CallPrice()),
		Put:  b.Round(e.PutPrice()),
	}
	if elapsed > 0 {
		doc.Elapsed = elapsed.String()
	}

	switch m := e.(type) {
	case *models.MonteCarlo:
		doc.Iterations = m.Iterations()
		doc.CallStdErr = b.roundPtr(m.StandardError(models.Call))
		doc.PutStdErr = b.roundPtr(m.StandardError(models.Put))
	case *models.Binomial:
		up, down := m.Factors()
		p := m.Probability()
		doc.Steps = m.Steps()
		doc.Up, doc.Down = b.roundPtr(up), b.roundPtr(down)
		doc.Probs = b.roundAll([]float64{p, 1 - p})
	case *models.Trinomial:
		up, down := m.Factors()
		pu, pm, pd := m.Probabilities()
		doc.Steps = m.Steps()
		doc.Up, doc.Down = b.roundPtr(up), b.roundPtr(down)
		doc.Probs = b.roundAll([]float64{pu, pm, pd})
	}
	return doc
}

func (b *Builder) Greeks(side models.Side, g positions.Greeks) GreeksDoc {
	return GreeksDoc{
		Side:  side.String(),
		Delta: b.Round(g.Delta),
		Gamma: b.Round(g.Gamma),
		Theta: b.Round(g.Theta),
		Vega:  b.Round(g.Vega),
		Rho:   b.Round(g.Rho),
	}
}

func (b *Builder) Grid(g *positions.PriceGrid) GridDoc {
	return GridDoc{
		Side:   g.Side.String(),
		Spots:  b.roundAll(g.Spots),
		Vols:   b.roundAll(g.Vols),
		Values: b.rows(g.Values),
	}
}

func (b *Builder) rows(m mat.Matrix) [][]decimal.Decimal {
	r, _ := m.Dims()
	out := make([][]decimal.Decimal, r)
	for i := range out {
		out[i] = b.roundAll(mat.Row(nil, i, m))
	}
	return out
}

func (b *Builder) Risk(r probability.RiskReport) *RiskDoc {
	return &RiskDoc{
		CallITM:    b.Round(r.CallITM),
		PutITM:     b.Round(r.PutITM),
		Confidence: b.Round(r.Confidence),
		Returns:    r.Mode.String(),
		VaR:        b.Round(r.VaR),
		CVaR:       b.Round(r.CVaR),
	}
}

func (b *Builder) Sweep(model probability.SweepModel, points []probability.SweepPoint) *SweepDoc {
	doc := &SweepDoc{Model: string(model), Points: make([]SweepPointDoc, len(points))}
	for i, p := range points {
		doc.Points[i] = SweepPointDoc{
			Count:   p.Count,
			Call:    b.Round(p.Call),
			Put:     b.Round(p.Put),
			RefCall: b.Round(p.RefCall),
			RefPut:  b.Round(p.RefPut),
			CallErr: b.Round(p.CallErr),
			PutErr:  b.Round(p.PutErr),
			StdErr:  b.Round(p.StdErr),
			Elapsed: p.Elapsed.String(),
		}
	}
	return doc
}

func (b *Builder) Tree(model, kind string, l *models.Lattice) TreeDoc {
	doc := TreeDoc{Model: model, Kind: kind, Levels: make([][]decimal.Decimal, l.Depths())}
	for depth := range doc.Levels {
		doc.Levels[depth] = b.roundAll(l.Level(depth))
	}
	return doc
}
