package wacc

import (
	"context"

	"github.com/google/uuid"
)

// Validate checks the run configuration before any table is touched.
func (c SimulationConfig) Validate() error {
	if c.Percentile < 0 || c.Percentile > 100 {
		return invalid("percentile", "%d outside [0,100]", c.Percentile)
	}
	if c.SampleCount < 1 {
		return invalid("sample_count", "%d, must be >= 1", c.SampleCount)
	}
	return nil
}

// Run executes Resolve, Simulate and Summarize for one sector.
// On any error no result is returned.
func Run(ctx context.Context, tables Tables, cfg SimulationConfig) (*SimulationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 1. Resolve
	params, err := Resolve(tables, cfg.SectorID, cfg.WeightPolicy)
	if err != nil {
		return nil, err
	}

	// 2. Simulate
	samples, err := Simulate(ctx, params, cfg.SampleCount, SimOptions{Source: cfg.Source, Workers: cfg.Workers})
	if err != nil {
		return nil, err
	}

	// 3. Report
	summary, err := Summarize(samples.Real, samples.Nominal, float64(cfg.Percentile))
	if err != nil {
		return nil, err
	}

	var density *Density
	if cfg.DensityBins >= 0 {
		density, err = NewDensity(samples.Real, cfg.DensityBins)
		if err != nil {
			return nil, err
		}
	}

	res := &SimulationResult{
		RunID:           uuid.New().String(),
		SectorID:        params.SectorID,
		Parameters:      params,
		WaccReal:        samples.Real,
		WaccNominal:     samples.Nominal,
		Mean:            summary.Mean,
		MeanNominal:     summary.MeanNominal,
		Median:          summary.Median,
		Percentile:      cfg.Percentile,
		PercentileValue: summary.PercentileValue,
		Summary:         summary,
		PointEstimate:   CalculatePoint(params),
		Density:         density,
	}
	switch s := cfg.Source.(type) {
	case SeededSource:
		seed := s.Seed
		res.Seed = &seed
	case *SeededSource:
		if s != nil {
			seed := s.Seed
			res.Seed = &seed
		}
	}
	return res, nil
}
