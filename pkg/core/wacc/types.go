// Package wacc implements the Monte Carlo WACC engine.
// Layers run strictly in order: Resolve (tables -> Parameters),
// Simulate (Parameters -> Samples), Summarize (Samples -> statistics).
package wacc

// =============================================================================
// INPUT TABLES
// =============================================================================

// FixedRow is one row of the fixed table; only the first row is used
type FixedRow struct {
	TaxRate float64 `json:"tax_rate" yaml:"tax_rate"`
}

// AnnualRow holds one year of the macro series. A nil cell is a missing observation.
type AnnualRow struct {
	Year               int      `json:"year,omitempty" yaml:"year,omitempty"`
	CountryRiskPremium *float64 `json:"country_risk_premium" yaml:"country_risk_premium"`
	RiskFreeRate       *float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	MarketRiskPremium  *float64 `json:"market_risk_premium" yaml:"market_risk_premium"`
	CostOfDebtNominal  *float64 `json:"cost_of_debt_nominal" yaml:"cost_of_debt_nominal"`
	InflationUS        *float64 `json:"inflation_us" yaml:"inflation_us"`
}

// SectorRow is one row of the sector table
type SectorRow struct {
	Sector       string  `json:"sector" yaml:"sector"`
	Beta         float64 `json:"beta" yaml:"beta"`
	EquityWeight float64 `json:"equity_weight" yaml:"equity_weight"`
	DebtWeight   float64 `json:"debt_weight" yaml:"debt_weight"`
}

// Tables is the already-loaded input for one run
type Tables struct {
	Fixed   []FixedRow  `json:"fixed" yaml:"fixed"`
	Annual  []AnnualRow `json:"annual" yaml:"annual"`
	Sectors []SectorRow `json:"sectors" yaml:"sectors"`
}

// SectorIDs lists sector identifiers in table order, skipping blanks.
func (t Tables) SectorIDs() []string {
	ids := make([]string, 0, len(t.Sectors))
	for _, s := range t.Sectors {
		if s.Sector != "" {
			ids = append(ids, s.Sector)
		}
	}
	return ids
}

// =============================================================================
// RESOLVED PARAMETERS
// =============================================================================

type SectorParameters struct {
	Beta         float64 `json:"beta"`
	EquityWeight float64 `json:"equity_weight"`
	DebtWeight   float64 `json:"debt_weight"`
}

// MacroAverages are averaged over the annual series; std-devs use n-1
type MacroAverages struct {
	RiskFreeRate            float64 `json:"risk_free_rate"`
	CountryRiskPremium      float64 `json:"country_risk_premium"`
	MarketRiskPremiumMean   float64 `json:"market_risk_premium_mean"`
	MarketRiskPremiumStdDev float64 `json:"market_risk_premium_std_dev"`
	CostOfDebtNominalMean   float64 `json:"cost_of_debt_nominal_mean"`
	CostOfDebtNominalStdDev float64 `json:"cost_of_debt_nominal_std_dev"`
	Inflation               float64 `json:"inflation"`
}

type FixedParameters struct {
	TaxRate float64 `json:"tax_rate"`
}

// Parameters is everything the simulator needs for one sector
type Parameters struct {
	SectorID      string           `json:"sector_id"`
	Sector        SectorParameters `json:"sector"`
	Macro         MacroAverages    `json:"macro"`
	Fixed         FixedParameters  `json:"fixed"`
	UnleveredBeta float64          `json:"unlevered_beta"`
	Observations  map[string]int   `json:"observations"` // non-missing values per annual column
	Warnings      []string         `json:"warnings,omitempty"`
}

// =============================================================================
// RUN CONFIG & RESULT
// =============================================================================

// SimulationConfig is the caller's choice for one run
type SimulationConfig struct {
	SectorID    string
	Percentile  int // recommended 50-99, accepted 0-100
	SampleCount int // recommended >= 1000, accepted >= 1

	Source       RandomSource // nil means EntropySource
	Workers      int          // <= 0 means GOMAXPROCS
	WeightPolicy WeightPolicy
	DensityBins  int // 0 means DefaultDensityBins, < 0 disables density
}

// SimulationResult is immutable once returned
type SimulationResult struct {
	RunID      string      `json:"run_id"`
	SectorID   string      `json:"sector_id"`
	Parameters *Parameters `json:"parameters"`

	WaccReal    []float64 `json:"wacc_real,omitempty"`
	WaccNominal []float64 `json:"wacc_nominal,omitempty"`

	Mean            float64 `json:"mean"`
	MeanNominal     float64 `json:"mean_nominal"`
	Median          float64 `json:"median"`
	Percentile      int     `json:"percentile"`
	PercentileValue float64 `json:"percentile_value"`

	Summary       Summary       `json:"summary"`
	PointEstimate PointEstimate `json:"point_estimate"`
	Density       *Density      `json:"density,omitempty"`
	Seed          *uint64       `json:"seed,omitempty"`
}
