package wacc

import (
	"errors"
	"math"
	"testing"
)

func f(v float64) *float64 { return &v }

func sampleTables() Tables {
	return Tables{
		Fixed: []FixedRow{{TaxRate: 0.34}},
		Annual: []AnnualRow{
			{Year: 2021, CountryRiskPremium: f(0.025), RiskFreeRate: f(0.015), MarketRiskPremium: f(0.050), CostOfDebtNominal: f(0.070), InflationUS: f(0.047)},
			{Year: 2022, CountryRiskPremium: f(0.030), RiskFreeRate: f(0.030), MarketRiskPremium: f(0.060), CostOfDebtNominal: f(0.080), InflationUS: f(0.080)},
			{Year: 2023, CountryRiskPremium: f(0.020), RiskFreeRate: f(0.040), MarketRiskPremium: f(0.055), CostOfDebtNominal: f(0.090), InflationUS: f(0.041)},
		},
		Sectors: []SectorRow{
			{Sector: "Energia", Beta: 0.8, EquityWeight: 0.6, DebtWeight: 0.4},
			{Sector: "Saneamento", Beta: 0.7, EquityWeight: 0.5, DebtWeight: 0.5},
		},
	}
}

func TestResolve_Averages(t *testing.T) {
	p, err := Resolve(sampleTables(), "Energia", WeightPassthrough)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Means over 3 years
	checks := map[string][2]float64{
		"risk_free_rate":       {p.Macro.RiskFreeRate, (0.015 + 0.030 + 0.040) / 3},
		"country_risk_premium": {p.Macro.CountryRiskPremium, (0.025 + 0.030 + 0.020) / 3},
		"mrp_mean":             {p.Macro.MarketRiskPremiumMean, 0.055},
		"kd_mean":              {p.Macro.CostOfDebtNominalMean, 0.080},
		"inflation":            {p.Macro.Inflation, (0.047 + 0.080 + 0.041) / 3},
		// Sample std (n-1): deviations -0.005, 0.005, 0 -> sqrt(0.00005/2)
		"mrp_std": {p.Macro.MarketRiskPremiumStdDev, math.Sqrt(0.00005 / 2)},
		// deviations -0.01, 0, 0.01 -> sqrt(0.0002/2) = 0.01
		"kd_std": {p.Macro.CostOfDebtNominalStdDev, 0.01},
	}
	for name, c := range checks {
		if math.Abs(c[0]-c[1]) > 1e-12 {
			t.Errorf("%s expected %v, got %v", name, c[1], c[0])
		}
	}

	if p.Fixed.TaxRate != 0.34 {
		t.Errorf("expected tax rate 0.34, got %v", p.Fixed.TaxRate)
	}
	if p.Observations[ColMarketRiskPremium] != 3 {
		t.Errorf("expected 3 observations, got %d", p.Observations[ColMarketRiskPremium])
	}
	if len(p.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", p.Warnings)
	}
}

func TestResolve_BetaFormulaPreserved(t *testing.T) {
	p, err := Resolve(sampleTables(), "Energia", WeightPassthrough)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0.8 * (1 + 0.66 * 0.4/0.6)
	want := 0.8 * (1 + (1-0.34)*(0.4/0.6))
	if math.Abs(p.UnleveredBeta-want) > 1e-12 {
		t.Errorf("UnleveredBeta expected %v, got %v", want, p.UnleveredBeta)
	}
}

func TestResolve_SkipsMissingObservations(t *testing.T) {
	tables := sampleTables()
	tables.Annual = append(tables.Annual, AnnualRow{Year: 2024, RiskFreeRate: f(0.100)})
	nan := math.NaN()
	tables.Annual[0].InflationUS = &nan

	p, err := Resolve(tables, "Energia", WeightPassthrough)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(p.Macro.RiskFreeRate-(0.015+0.030+0.040+0.100)/4) > 1e-12 {
		t.Errorf("risk free rate should include the 4th year, got %v", p.Macro.RiskFreeRate)
	}
	if math.Abs(p.Macro.MarketRiskPremiumMean-0.055) > 1e-12 {
		t.Errorf("nil cells should be skipped, got %v", p.Macro.MarketRiskPremiumMean)
	}
	if math.Abs(p.Macro.Inflation-(0.080+0.041)/2) > 1e-12 {
		t.Errorf("NaN cells should be skipped, got %v", p.Macro.Inflation)
	}
	if p.Observations[ColInflationUS] != 2 {
		t.Errorf("expected 2 inflation observations, got %d", p.Observations[ColInflationUS])
	}
}

func TestResolve_SectorNotFound(t *testing.T) {
	_, err := Resolve(sampleTables(), "Portos", WeightPassthrough)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_, err = Resolve(sampleTables(), "", WeightPassthrough)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty id, got %v", err)
	}
}

func TestResolve_TrimsSectorID(t *testing.T) {
	p, err := Resolve(sampleTables(), "  Saneamento ", WeightPassthrough)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SectorID != "Saneamento" {
		t.Errorf("expected sector 'Saneamento', got '%s'", p.SectorID)
	}
}

func TestResolve_InsufficientData(t *testing.T) {
	tables := sampleTables()
	tables.Annual = tables.Annual[:1]

	_, err := Resolve(tables, "Energia", WeightPassthrough)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	tables = sampleTables()
	for i := range tables.Annual[1:] {
		tables.Annual[i+1].CostOfDebtNominal = nil
	}
	_, err = Resolve(tables, "Energia", WeightPassthrough)
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Field != ColCostOfDebtNominal {
		t.Fatalf("expected EngineError on %s, got %v", ColCostOfDebtNominal, err)
	}

	tables = sampleTables()
	tables.Fixed = nil
	if _, err := Resolve(tables, "Energia", WeightPassthrough); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for empty fixed table, got %v", err)
	}
}

func TestResolve_ZeroEquityWeight(t *testing.T) {
	tables := sampleTables()
	tables.Sectors[0].EquityWeight = 0
	tables.Sectors[0].DebtWeight = 1

	p, err := Resolve(tables, "Energia", WeightPassthrough)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if p != nil {
		t.Error("no parameters should be returned on error")
	}
}

func TestResolve_InvalidRanges(t *testing.T) {
	cases := map[string]func(*Tables){
		"tax above 1":       func(tb *Tables) { tb.Fixed[0].TaxRate = 1.2 },
		"negative tax":      func(tb *Tables) { tb.Fixed[0].TaxRate = -0.1 },
		"negative debt":     func(tb *Tables) { tb.Sectors[0].DebtWeight = -0.4 },
		"equity above 1":    func(tb *Tables) { tb.Sectors[0].EquityWeight = 1.5 },
		"infinite beta":     func(tb *Tables) { tb.Sectors[0].Beta = math.Inf(1) },
		"NaN equity weight": func(tb *Tables) { tb.Sectors[0].EquityWeight = math.NaN() },
	}
	for name, mutate := range cases {
		tables := sampleTables()
		mutate(&tables)
		if _, err := Resolve(tables, "Energia", WeightPassthrough); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%s: expected ErrInvalidParameter, got %v", name, err)
		}
	}
}

func TestResolve_WeightPolicies(t *testing.T) {
	tables := sampleTables()
	tables.Sectors[0].EquityWeight = 0.6
	tables.Sectors[0].DebtWeight = 0.6

	p, err := Resolve(tables, "Energia", WeightPassthrough)
	if err != nil {
		t.Fatalf("passthrough: unexpected error: %v", err)
	}
	if p.Sector.DebtWeight != 0.6 || len(p.Warnings) != 1 {
		t.Errorf("passthrough should keep weights and warn, got %+v %v", p.Sector, p.Warnings)
	}

	p, err = Resolve(tables, "Energia", WeightNormalize)
	if err != nil {
		t.Fatalf("normalize: unexpected error: %v", err)
	}
	if math.Abs(p.Sector.EquityWeight-0.5) > 1e-12 || math.Abs(p.Sector.DebtWeight-0.5) > 1e-12 {
		t.Errorf("normalize expected 0.5/0.5, got %+v", p.Sector)
	}

	if _, err := Resolve(tables, "Energia", WeightReject); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("reject: expected ErrInvalidParameter, got %v", err)
	}
}

func TestParseWeightPolicy(t *testing.T) {
	for in, want := range map[string]WeightPolicy{"": WeightPassthrough, "Normalize": WeightNormalize, " reject ": WeightReject} {
		got, err := ParseWeightPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseWeightPolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseWeightPolicy("clip"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}
