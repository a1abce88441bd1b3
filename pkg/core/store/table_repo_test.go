package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wacc_simulator/pkg/core/wacc"
)

func f(v float64) *float64 { return &v }

func TestTableRepo_RoundTrip(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := Connect(ctx, "")
	require.NoError(t, err)
	defer pool.Close()

	repo := NewTableRepo(pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	in := wacc.Tables{
		Fixed: []wacc.FixedRow{{TaxRate: 0.34}},
		Annual: []wacc.AnnualRow{
			{Year: 2022, CountryRiskPremium: f(0.03), RiskFreeRate: f(0.03), MarketRiskPremium: f(0.06), CostOfDebtNominal: f(0.08), InflationUS: f(0.08)},
			{Year: 2023, CountryRiskPremium: f(0.02), RiskFreeRate: f(0.04), MarketRiskPremium: f(0.055), CostOfDebtNominal: f(0.09)},
		},
		Sectors: []wacc.SectorRow{{Sector: "Energia", Beta: 0.8, EquityWeight: 0.6, DebtWeight: 0.4}},
	}
	require.NoError(t, repo.Replace(ctx, in))

	out, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in.Fixed, out.Fixed)
	require.Len(t, out.Annual, 2)
	assert.Nil(t, out.Annual[1].InflationUS)
	assert.Equal(t, []string{"Energia"}, out.SectorIDs())
}

func TestTableRepo_ReplaceWithoutYears(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := Connect(ctx, "")
	require.NoError(t, err)
	defer pool.Close()

	repo := NewTableRepo(pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	in := yearlessTables()
	require.NoError(t, repo.Replace(ctx, in))
	require.NoError(t, repo.Replace(ctx, in), "replacing twice keeps no stale rows")

	out, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out.Annual, 3)
	for i := range in.Annual {
		assert.Equal(t, 0, out.Annual[i].Year)
		assert.Equal(t, *in.Annual[i].RiskFreeRate, *out.Annual[i].RiskFreeRate, "row %d keeps source order", i)
	}
	assert.Equal(t, []string{"Saneamento", "Energia"}, out.SectorIDs())
}

func yearlessTables() wacc.Tables {
	return wacc.Tables{
		Fixed: []wacc.FixedRow{{TaxRate: 0.34}},
		Annual: []wacc.AnnualRow{
			{CountryRiskPremium: f(0.03), RiskFreeRate: f(0.05), MarketRiskPremium: f(0.06), CostOfDebtNominal: f(0.08), InflationUS: f(0.08)},
			{CountryRiskPremium: f(0.02), RiskFreeRate: f(0.01), MarketRiskPremium: f(0.055), CostOfDebtNominal: f(0.09)},
			{CountryRiskPremium: f(0.02), RiskFreeRate: f(0.03), MarketRiskPremium: f(0.05), CostOfDebtNominal: f(0.07), InflationUS: f(0.04)},
		},
		Sectors: []wacc.SectorRow{
			{Sector: "Saneamento", Beta: 0.7, EquityWeight: 0.5, DebtWeight: 0.5},
			{Sector: "Energia", Beta: 0.8, EquityWeight: 0.6, DebtWeight: 0.4},
		},
	}
}

func TestReplaceBatch(t *testing.T) {
	in := yearlessTables()
	in.Annual[2].Year = 2023

	batch := replaceBatch(in)
	require.Len(t, batch.QueuedQueries, 1+3+2)

	for i, q := range batch.QueuedQueries[1:4] {
		assert.Contains(t, q.SQL, "INSERT INTO wacc_annual")
		require.Len(t, q.Arguments, 6)
		year := q.Arguments[0].(*int)
		if i < 2 {
			assert.Nil(t, year, "missing year is stored as NULL")
		} else {
			require.NotNil(t, year)
			assert.Equal(t, 2023, *year)
		}
		assert.Equal(t, in.Annual[i].RiskFreeRate, q.Arguments[2])
	}
	assert.Equal(t, "Saneamento", batch.QueuedQueries[4].Arguments[0])
}

func TestTableRepo_NoPool(t *testing.T) {
	_, err := (&TableRepo{}).Load(context.Background())
	assert.ErrorIs(t, err, wacc.ErrDataSource)

	err = (&TableRepo{}).Replace(context.Background(), yearlessTables())
	assert.ErrorIs(t, err, wacc.ErrDataSource)
}

func TestConnect_NoDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Connect(context.Background(), "")
	assert.Error(t, err)
}
