package wacc

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// WeightPolicy decides what happens when equity + debt weights do not sum to 1
type WeightPolicy string

const (
	WeightPassthrough WeightPolicy = "passthrough" // use as given, record a warning
	WeightNormalize   WeightPolicy = "normalize"   // rescale both to sum to 1
	WeightReject      WeightPolicy = "reject"
)

const weightSumTolerance = 1e-6

// Annual column names, as reported in errors and Parameters.Observations
const (
	ColCountryRiskPremium = "country_risk_premium"
	ColRiskFreeRate       = "risk_free_rate"
	ColMarketRiskPremium  = "market_risk_premium"
	ColCostOfDebtNominal  = "cost_of_debt_nominal"
	ColInflationUS        = "inflation_us"
)

// ParseWeightPolicy accepts "" as passthrough.
func ParseWeightPolicy(s string) (WeightPolicy, error) {
	switch WeightPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", WeightPassthrough:
		return WeightPassthrough, nil
	case WeightNormalize:
		return WeightNormalize, nil
	case WeightReject:
		return WeightReject, nil
	}
	return "", invalid("weight_policy", "unknown policy %q", s)
}

// Resolve collapses the input tables into the parameters for one sector.
func Resolve(tables Tables, sectorID string, policy WeightPolicy) (*Parameters, error) {
	// 1. Fixed parameters
	if len(tables.Fixed) == 0 {
		return nil, insufficient("fixed", "table has no rows")
	}
	taxRate := tables.Fixed[0].TaxRate
	if !inUnitInterval(taxRate) {
		return nil, invalid("tax_rate", "%v outside [0,1]", taxRate)
	}

	// 2. Sector row (first match wins)
	row, ok := findSector(tables.Sectors, sectorID)
	if !ok {
		return nil, &EngineError{Kind: ErrNotFound, Field: "sector", Msg: fmt.Sprintf("%q not in sector table", sectorID)}
	}
	sector, warnings, err := resolveSector(row, policy)
	if err != nil {
		return nil, err
	}

	// 3. Macro averages
	macro, obs, err := resolveMacro(tables.Annual)
	if err != nil {
		return nil, err
	}

	// 4. Beta adjustment: Beta * (1 + (1-t) * D/E), with the sector's own weights
	unleveredBeta := sector.Beta * (1 + (1-taxRate)*(sector.DebtWeight/sector.EquityWeight))

	return &Parameters{
		SectorID:      row.Sector,
		Sector:        sector,
		Macro:         macro,
		Fixed:         FixedParameters{TaxRate: taxRate},
		UnleveredBeta: unleveredBeta,
		Observations:  obs,
		Warnings:      warnings,
	}, nil
}

func findSector(rows []SectorRow, id string) (SectorRow, bool) {
	id = strings.TrimSpace(id)
	for _, r := range rows {
		if strings.TrimSpace(r.Sector) == id && id != "" {
			r.Sector = id
			return r, true
		}
	}
	return SectorRow{}, false
}

func resolveSector(row SectorRow, policy WeightPolicy) (SectorParameters, []string, error) {
	if math.IsNaN(row.Beta) || math.IsInf(row.Beta, 0) {
		return SectorParameters{}, nil, invalid("beta", "not finite")
	}
	if !inUnitInterval(row.EquityWeight) {
		return SectorParameters{}, nil, invalid("equity_weight", "%v outside [0,1]", row.EquityWeight)
	}
	if !inUnitInterval(row.DebtWeight) {
		return SectorParameters{}, nil, invalid("debt_weight", "%v outside [0,1]", row.DebtWeight)
	}
	if row.EquityWeight == 0 {
		return SectorParameters{}, nil, invalid("equity_weight", "must be non-zero (D/E undefined)")
	}

	sp := SectorParameters{Beta: row.Beta, EquityWeight: row.EquityWeight, DebtWeight: row.DebtWeight}
	sum := sp.EquityWeight + sp.DebtWeight
	if math.Abs(sum-1) <= weightSumTolerance {
		return sp, nil, nil
	}

	switch policy {
	case WeightReject:
		return SectorParameters{}, nil, invalid("weights", "equity + debt = %.6f, expected 1", sum)
	case WeightNormalize:
		sp.EquityWeight /= sum
		sp.DebtWeight /= sum
		return sp, []string{fmt.Sprintf("weights normalized from sum %.6f", sum)}, nil
	case WeightPassthrough, "":
		return sp, []string{fmt.Sprintf("equity + debt weights sum to %.6f, used as given", sum)}, nil
	}
	return SectorParameters{}, nil, invalid("weight_policy", "unknown policy %q", policy)
}

func resolveMacro(rows []AnnualRow) (MacroAverages, map[string]int, error) {
	cols := map[string][]float64{}
	pick := func(name string, v *float64) {
		if v != nil && !math.IsNaN(*v) {
			cols[name] = append(cols[name], *v)
		}
	}
	for _, r := range rows {
		pick(ColCountryRiskPremium, r.CountryRiskPremium)
		pick(ColRiskFreeRate, r.RiskFreeRate)
		pick(ColMarketRiskPremium, r.MarketRiskPremium)
		pick(ColCostOfDebtNominal, r.CostOfDebtNominal)
		pick(ColInflationUS, r.InflationUS)
	}

	obs := make(map[string]int, 5)
	for _, name := range []string{ColCountryRiskPremium, ColRiskFreeRate, ColMarketRiskPremium, ColCostOfDebtNominal, ColInflationUS} {
		n := len(cols[name])
		obs[name] = n
		if n <= 1 {
			return MacroAverages{}, obs, insufficient(name, "%d non-missing values, need at least 2", n)
		}
	}

	m := MacroAverages{
		RiskFreeRate:            stat.Mean(cols[ColRiskFreeRate], nil),
		CountryRiskPremium:      stat.Mean(cols[ColCountryRiskPremium], nil),
		MarketRiskPremiumMean:   stat.Mean(cols[ColMarketRiskPremium], nil),
		MarketRiskPremiumStdDev: stat.StdDev(cols[ColMarketRiskPremium], nil),
		CostOfDebtNominalMean:   stat.Mean(cols[ColCostOfDebtNominal], nil),
		CostOfDebtNominalStdDev: stat.StdDev(cols[ColCostOfDebtNominal], nil),
		Inflation:               stat.Mean(cols[ColInflationUS], nil),
	}
	return m, obs, nil
}

func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
