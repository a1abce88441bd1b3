package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wacc_simulator/pkg/core/wacc"
)

// Schema creates the three input tables. Annual columns are nullable;
// missing cells are skipped when averaging. The year label is optional,
// rows keep their source order through the serial id.
const Schema = `
CREATE TABLE IF NOT EXISTS wacc_fixed (
	id       SERIAL PRIMARY KEY,
	tax_rate DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS wacc_annual (
	id                   SERIAL PRIMARY KEY,
	year                 INTEGER,
	country_risk_premium DOUBLE PRECISION,
	risk_free_rate       DOUBLE PRECISION,
	market_risk_premium  DOUBLE PRECISION,
	cost_of_debt_nominal DOUBLE PRECISION,
	inflation_us         DOUBLE PRECISION
);
CREATE TABLE IF NOT EXISTS wacc_sectors (
	id            SERIAL PRIMARY KEY,
	sector        TEXT NOT NULL UNIQUE,
	beta          DOUBLE PRECISION NOT NULL,
	equity_weight DOUBLE PRECISION NOT NULL,
	debt_weight   DOUBLE PRECISION NOT NULL
);
`

// TableRepo serves the input tables from Postgres. It satisfies ingest.Source.
type TableRepo struct {
	pool *pgxpool.Pool
}

// NewTableRepo creates a new repository instance.
func NewTableRepo(pool *pgxpool.Pool) *TableRepo {
	return &TableRepo{pool: pool}
}

func (r *TableRepo) Name() string { return "postgres" }

// EnsureSchema creates the tables if they do not exist.
func (r *TableRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return wacc.DataSourceError(r.Name(), fmt.Errorf("create schema: %w", err))
	}
	return nil
}

// Load reads all three tables in one read-only transaction.
func (r *TableRepo) Load(ctx context.Context) (wacc.Tables, error) {
	if r.pool == nil {
		return wacc.Tables{}, wacc.DataSourceError(r.Name(), fmt.Errorf("database pool not initialized"))
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return wacc.Tables{}, wacc.DataSourceError(r.Name(), err)
	}
	defer tx.Rollback(ctx)

	var tables wacc.Tables

	// 1. Fixed
	fixed, err := tx.Query(ctx, `SELECT tax_rate FROM wacc_fixed ORDER BY id`)
	if err != nil {
		return wacc.Tables{}, wacc.DataSourceError(r.Name(), err)
	}
	tables.Fixed, err = pgx.CollectRows(fixed, func(row pgx.CollectableRow) (wacc.FixedRow, error) {
		var f wacc.FixedRow
		err := row.Scan(&f.TaxRate)
		return f, err
	})
	if err != nil {
		return wacc.Tables{}, wacc.DataSourceError(r.Name(), err)
	}

	// 2. Annual
	annual, err := tx.Query(ctx, `
		SELECT year, country_risk_premium, risk_free_rate, market_risk_premium,
		       cost_of_debt_nominal, inflation_us
		FROM wacc_annual ORDER BY id`)
	if err != nil {
		return wacc.Tables{}, wacc.DataSourceError(r.Name(), err)
	}
	tables.Annual, err = pgx.CollectRows(annual, func(row pgx.CollectableRow) (wacc.AnnualRow, error) {
		var a wacc.AnnualRow
		var year *int
		err := row.Scan(&year, &a.CountryRiskPremium, &a.RiskFreeRate, &a.MarketRiskPremium,
			&a.CostOfDebtNominal, &a.InflationUS)
		if year != nil {
			a.Year = *year
		}
		return a, err
	})
	if err != nil {
		return wacc.Tables{}, wacc.DataSourceError(r.Name(), err)
	}

	// 3. Sectors
	sectors, err := tx.Query(ctx, `SELECT sector, beta, equity_weight, debt_weight FROM wacc_sectors ORDER BY id`)
	if err != nil {
		return wacc.Tables{}, wacc.DataSourceError(r.Name(), err)
	}
	tables.Sectors, err = pgx.CollectRows(sectors, func(row pgx.CollectableRow) (wacc.SectorRow, error) {
		var s wacc.SectorRow
		err := row.Scan(&s.Sector, &s.Beta, &s.EquityWeight, &s.DebtWeight)
		return s, err
	})
	if err != nil {
		return wacc.Tables{}, wacc.DataSourceError(r.Name(), err)
	}

	return tables, nil
}

// Replace swaps the stored tables for the given ones, e.g. after importing a workbook.
func (r *TableRepo) Replace(ctx context.Context, tables wacc.Tables) error {
	if r.pool == nil {
		return wacc.DataSourceError(r.Name(), fmt.Errorf("database pool not initialized"))
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE wacc_fixed, wacc_annual, wacc_sectors RESTART IDENTITY`); err != nil {
			return err
		}
		return tx.SendBatch(ctx, replaceBatch(tables)).Close()
	})
}

// replaceBatch queues the inserts in source order. A zero year is stored as NULL.
func replaceBatch(tables wacc.Tables) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, f := range tables.Fixed {
		batch.Queue(`INSERT INTO wacc_fixed (tax_rate) VALUES ($1)`, f.TaxRate)
	}
	for _, a := range tables.Annual {
		var year *int
		if a.Year != 0 {
			y := a.Year
			year = &y
		}
		batch.Queue(`
			INSERT INTO wacc_annual (year, country_risk_premium, risk_free_rate, market_risk_premium, cost_of_debt_nominal, inflation_us)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			year, a.CountryRiskPremium, a.RiskFreeRate, a.MarketRiskPremium, a.CostOfDebtNominal, a.InflationUS)
	}
	for _, s := range tables.Sectors {
		batch.Queue(`INSERT INTO wacc_sectors (sector, beta, equity_weight, debt_weight) VALUES ($1, $2, $3, $4)`,
			s.Sector, s.Beta, s.EquityWeight, s.DebtWeight)
	}
	return batch
}
