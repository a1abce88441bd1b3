package wacc

// PointEstimate holds the closed-form rates at the input means
type PointEstimate struct {
	CostOfEquityNominal float64 `json:"cost_of_equity_nominal"`
	CostOfEquityReal    float64 `json:"cost_of_equity_real"`
	CostOfDebtNominal   float64 `json:"cost_of_debt_nominal"` // pre-tax
	CostOfDebtReal      float64 `json:"cost_of_debt_real"`    // pre-tax
	WaccReal            float64 `json:"wacc_real"`
	WaccNominal         float64 `json:"wacc_nominal"`
}

// CalculatePoint computes the deterministic WACC by substituting the means
// of both stochastic inputs.
func CalculatePoint(p *Parameters) PointEstimate {
	return evaluate(p, p.Macro.MarketRiskPremiumMean, p.Macro.CostOfDebtNominalMean)
}

// evaluate is the per-sample formula shared by the simulator.
func evaluate(p *Parameters, mrp, kdNominal float64) PointEstimate {
	// 1. Cost of Equity (CAPM + country risk)
	// Ke = Rf + Beta * MRP + CRP
	keNominal := p.Macro.RiskFreeRate + p.UnleveredBeta*mrp + p.Macro.CountryRiskPremium

	// 2. Fisher conversion, not subtraction
	// r = (1 + n) / (1 + i) - 1
	keReal := (1+keNominal)/(1+p.Macro.Inflation) - 1
	kdReal := (1+kdNominal)/(1+p.Macro.Inflation) - 1

	// 3. WACC = We*Ke + Wd*Kd*(1-t)
	we := p.Sector.EquityWeight
	wd := p.Sector.DebtWeight
	shield := 1 - p.Fixed.TaxRate

	return PointEstimate{
		CostOfEquityNominal: keNominal,
		CostOfEquityReal:    keReal,
		CostOfDebtNominal:   kdNominal,
		CostOfDebtReal:      kdReal,
		WaccReal:            we*keReal + wd*kdReal*shield,
		WaccNominal:         we*keNominal + wd*kdNominal*shield,
	}
}
