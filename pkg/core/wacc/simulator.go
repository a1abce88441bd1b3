package wacc

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"
)

// ChunkSize is the number of samples drawn from one random stream.
// Seeded output depends on it, so changing it changes seeded results.
const ChunkSize = 8192

// RandomSource hands out one independent stream per chunk.
type RandomSource interface {
	Stream(chunk int) rand.Source
}

// SeededSource gives reproducible streams: chunk k always gets PCG(Seed, k).
type SeededSource struct {
	Seed uint64
}

func (s SeededSource) Stream(chunk int) rand.Source {
	return rand.NewPCG(s.Seed, uint64(chunk))
}

// EntropySource seeds every stream from the runtime's global entropy.
type EntropySource struct{}

func (EntropySource) Stream(int) rand.Source {
	return rand.NewPCG(rand.Uint64(), rand.Uint64())
}

// SimOptions controls how samples are drawn, not what is computed
type SimOptions struct {
	Source  RandomSource
	Workers int
}

// Samples are the per-draw WACC vectors; both always have the same length
type Samples struct {
	Real    []float64
	Nominal []float64
}

// Simulate draws n samples of real and nominal WACC.
func Simulate(ctx context.Context, p *Parameters, n int, opts SimOptions) (*Samples, error) {
	if err := validateSimulation(p, n); err != nil {
		return nil, err
	}

	src := opts.Source
	if src == nil {
		src = EntropySource{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := &Samples{
		Real:    make([]float64, n),
		Nominal: make([]float64, n),
	}

	chunks := (n + ChunkSize - 1) / ChunkSize
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k := 0; k < chunks; k++ {
		lo := k * ChunkSize
		hi := min(lo+ChunkSize, n)
		stream := src.Stream(k)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			drawChunk(p, stream, out.Real[lo:hi], out.Nominal[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func drawChunk(p *Parameters, stream rand.Source, realOut, nominalOut []float64) {
	mrp := distuv.Normal{Mu: p.Macro.MarketRiskPremiumMean, Sigma: p.Macro.MarketRiskPremiumStdDev, Src: stream}
	kd := distuv.Normal{Mu: p.Macro.CostOfDebtNominalMean, Sigma: p.Macro.CostOfDebtNominalStdDev, Src: stream}
	for i := range realOut {
		r := evaluate(p, mrp.Rand(), kd.Rand())
		realOut[i] = r.WaccReal
		nominalOut[i] = r.WaccNominal
	}
}

func validateSimulation(p *Parameters, n int) error {
	if p == nil {
		return invalid("parameters", "nil")
	}
	if n < 1 {
		return invalid("sample_count", "%d, must be >= 1", n)
	}
	if !(p.Macro.MarketRiskPremiumStdDev >= 0) {
		return invalid("market_risk_premium_std_dev", "%v, must be >= 0", p.Macro.MarketRiskPremiumStdDev)
	}
	if !(p.Macro.CostOfDebtNominalStdDev >= 0) {
		return invalid("cost_of_debt_nominal_std_dev", "%v, must be >= 0", p.Macro.CostOfDebtNominalStdDev)
	}
	if p.Sector.EquityWeight == 0 {
		return invalid("equity_weight", "must be non-zero")
	}
	if p.Macro.Inflation == -1 || math.IsNaN(p.Macro.Inflation) {
		return invalid("inflation", "%v makes the real-rate conversion undefined", p.Macro.Inflation)
	}
	return nil
}
