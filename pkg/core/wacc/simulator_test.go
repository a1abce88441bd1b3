package wacc

import (
	"context"
	"errors"
	"math"
	"testing"
)

// literalParams is the hand-checked scenario: deterministic inputs, both std-devs zero.
func literalParams(t *testing.T) *Parameters {
	t.Helper()
	tables := Tables{
		Fixed: []FixedRow{{TaxRate: 0.3}},
		Annual: []AnnualRow{
			{CountryRiskPremium: f(0.02), RiskFreeRate: f(0.03), MarketRiskPremium: f(0.05), CostOfDebtNominal: f(0.06), InflationUS: f(0.02)},
			{CountryRiskPremium: f(0.02), RiskFreeRate: f(0.03), MarketRiskPremium: f(0.05), CostOfDebtNominal: f(0.06), InflationUS: f(0.02)},
		},
		Sectors: []SectorRow{{Sector: "Rodovias", Beta: 0.8, EquityWeight: 0.6, DebtWeight: 0.4}},
	}
	p, err := Resolve(tables, "Rodovias", WeightPassthrough)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestSimulate_Length(t *testing.T) {
	p, err := Resolve(sampleTables(), "Energia", WeightPassthrough)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, n := range []int{1, 1000, ChunkSize, ChunkSize + 1, 3*ChunkSize + 17} {
		s, err := Simulate(context.Background(), p, n, SimOptions{Source: SeededSource{Seed: 7}})
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(s.Real) != n || len(s.Nominal) != n {
			t.Errorf("n=%d: got %d real, %d nominal", n, len(s.Real), len(s.Nominal))
		}
		for i, v := range s.Real {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("n=%d: sample %d not finite: %v", n, i, v)
			}
		}
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	p, _ := Resolve(sampleTables(), "Energia", WeightPassthrough)
	n := 2*ChunkSize + 500

	a, err := Simulate(context.Background(), p, n, SimOptions{Source: SeededSource{Seed: 42}, Workers: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Simulate(context.Background(), p, n, SimOptions{Source: SeededSource{Seed: 42}, Workers: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a.Real {
		if a.Real[i] != b.Real[i] || a.Nominal[i] != b.Nominal[i] {
			t.Fatalf("sample %d differs between runs: %v vs %v", i, a.Real[i], b.Real[i])
		}
	}

	c, _ := Simulate(context.Background(), p, n, SimOptions{Source: SeededSource{Seed: 43}})
	same := 0
	for i := range a.Real {
		if a.Real[i] == c.Real[i] {
			same++
		}
	}
	if same == n {
		t.Error("different seeds should produce different samples")
	}
}

func TestSimulate_DegenerateMatchesPoint(t *testing.T) {
	p := literalParams(t)
	point := CalculatePoint(p)

	s, err := Simulate(context.Background(), p, 1000, SimOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range s.Real {
		if math.Abs(s.Real[i]-point.WaccReal) > 1e-15 {
			t.Fatalf("sample %d: expected %v, got %v", i, point.WaccReal, s.Real[i])
		}
		if math.Abs(s.Nominal[i]-point.WaccNominal) > 1e-15 {
			t.Fatalf("sample %d: expected nominal %v, got %v", i, point.WaccNominal, s.Nominal[i])
		}
	}
}

func TestSimulate_MomentsConverge(t *testing.T) {
	p, _ := Resolve(sampleTables(), "Energia", WeightPassthrough)
	s, err := Simulate(context.Background(), p, 200000, SimOptions{Source: SeededSource{Seed: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Nominal WACC is linear in both draws, so its mean is the point estimate
	// and its std is known in closed form.
	m, _ := Mean(s.Nominal)
	point := CalculatePoint(p)
	we, wd, shield := p.Sector.EquityWeight, p.Sector.DebtWeight, 1-p.Fixed.TaxRate
	sd := math.Sqrt(math.Pow(we*p.UnleveredBeta*p.Macro.MarketRiskPremiumStdDev, 2) +
		math.Pow(wd*shield*p.Macro.CostOfDebtNominalStdDev, 2))
	tol := 4 * sd / math.Sqrt(200000)
	if math.Abs(m-point.WaccNominal) > tol {
		t.Errorf("nominal mean expected %v +/- %v, got %v", point.WaccNominal, tol, m)
	}
	sum, _ := Summarize(s.Real, s.Nominal, 50)
	if math.Abs(sum.StdDevNominal-sd)/sd > 0.02 {
		t.Errorf("nominal std expected ~%v, got %v", sd, sum.StdDevNominal)
	}
}

func TestSimulate_InvalidParameters(t *testing.T) {
	base := literalParams(t)

	if _, err := Simulate(context.Background(), base, 0, SimOptions{}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("n=0: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := Simulate(context.Background(), nil, 10, SimOptions{}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("nil params: expected ErrInvalidParameter, got %v", err)
	}

	mutations := map[string]func(*Parameters){
		"negative mrp std": func(p *Parameters) { p.Macro.MarketRiskPremiumStdDev = -0.01 },
		"negative kd std":  func(p *Parameters) { p.Macro.CostOfDebtNominalStdDev = -0.01 },
		"NaN kd std":       func(p *Parameters) { p.Macro.CostOfDebtNominalStdDev = math.NaN() },
		"zero equity":      func(p *Parameters) { p.Sector.EquityWeight = 0 },
		"inflation -100%":  func(p *Parameters) { p.Macro.Inflation = -1 },
	}
	for name, mutate := range mutations {
		p := *base
		mutate(&p)
		s, err := Simulate(context.Background(), &p, 10, SimOptions{})
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%s: expected ErrInvalidParameter, got %v", name, err)
		}
		if s != nil {
			t.Errorf("%s: no samples should be returned", name)
		}
	}
}

func TestSimulate_Cancelled(t *testing.T) {
	p, _ := Resolve(sampleTables(), "Energia", WeightPassthrough)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := Simulate(ctx, p, 4*ChunkSize, SimOptions{Source: SeededSource{Seed: 1}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s != nil {
		t.Error("no samples should be returned on cancellation")
	}
}

func TestCalculatePoint_Literal(t *testing.T) {
	p := literalParams(t)

	// Beta = 0.8 * (1 + 0.7 * 0.4/0.6)
	if math.Abs(p.UnleveredBeta-1.1733333333) > 1e-9 {
		t.Errorf("UnleveredBeta expected 1.17333, got %f", p.UnleveredBeta)
	}

	pt := CalculatePoint(p)
	want := map[string][2]float64{
		"ke_nominal": {pt.CostOfEquityNominal, 0.03 + p.UnleveredBeta*0.05 + 0.02},
		"ke_real":    {pt.CostOfEquityReal, (1+0.03+p.UnleveredBeta*0.05+0.02)/1.02 - 1},
		"kd_real":    {pt.CostOfDebtReal, 1.06/1.02 - 1},
		"wacc_real":  {pt.WaccReal, 0.0631372549},
		"wacc_nom":   {pt.WaccNominal, 0.082},
	}
	for name, c := range want {
		if math.Abs(c[0]-c[1]) > 1e-9 {
			t.Errorf("%s expected %v, got %v", name, c[1], c[0])
		}
	}
}
