package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"wacc_simulator/pkg/core/wacc"
)

// RawTable is a header row plus string cells, the common shape every adapter produces
type RawTable struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Logical table names and the sheet/file names accepted for each.
// The Portuguese names match the original input workbook.
const (
	TableFixed  = "fixed"
	TableAnnual = "annual"
	TableSector = "sector"
)

var tableAliases = map[string][]string{
	TableFixed:  {"fixed", "fixos"},
	TableAnnual: {"annual", "anuais"},
	TableSector: {"sector", "sectors", "setoriais"},
}

// Column keys after normalisation, with accepted aliases
var columnAliases = map[string][]string{
	"sector":             {"sector", "setor"},
	"beta":               {"beta"},
	"equityweight":       {"equityweight"},
	"debtweight":         {"debtweight"},
	"taxrate":            {"taxrate"},
	"year":               {"year", "ano"},
	"countryriskpremium": {"countryriskpremium"},
	"riskfreerate":       {"riskfreerate"},
	"marketriskpremium":  {"marketriskpremium"},
	"costofdebtnominal":  {"costofdebtnominal"},
	"inflationus":        {"inflationus"},
}

// NormalizeName lowercases s and drops everything but letters and digits,
// so "taxRate", "tax_rate" and "Tax Rate" compare equal.
func NormalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchTable reports which logical table a sheet or file stem belongs to.
func MatchTable(name string) (string, bool) {
	n := NormalizeName(name)
	for table, aliases := range tableAliases {
		for _, a := range aliases {
			if n == a {
				return table, true
			}
		}
	}
	return "", false
}

// ParseCell converts a raw cell to a number. Empty, "nan", "na", "null" and
// "-" are missing (ok == false). Accepts "5%" and decimal commas ("0,05").
func ParseCell(raw string) (v float64, ok bool, err error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "nan", "na", "n/a", "null", "none", "-":
		return 0, false, nil
	}

	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		scale = 0.01
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("cannot parse %q as a number", raw)
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	return v * scale, true, nil
}

// columns maps normalised column keys to their index in the header
type columns map[string]int

func indexHeader(t *RawTable) columns {
	idx := columns{}
	for i, h := range t.Header {
		n := NormalizeName(h)
		for key, aliases := range columnAliases {
			for _, a := range aliases {
				if n == a {
					if _, seen := idx[key]; !seen {
						idx[key] = i
					}
				}
			}
		}
	}
	return idx
}

func (c columns) require(source string, t *RawTable, keys ...string) error {
	for _, k := range keys {
		if _, ok := c[k]; !ok {
			return wacc.DataSourceError(source, fmt.Errorf("table %q has no %q column", t.Name, k))
		}
	}
	return nil
}

func (c columns) cell(row []string, key string) string {
	i, ok := c[key]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// number parses a required numeric cell; missing becomes NaN and is left
// for the resolver to reject.
func (c columns) number(source string, t *RawTable, line int, row []string, key string) (float64, error) {
	v, ok, err := ParseCell(c.cell(row, key))
	if err != nil {
		return 0, wacc.DataSourceError(source, fmt.Errorf("%s row %d, %s: %v", t.Name, line, key, err))
	}
	if !ok {
		return math.NaN(), nil
	}
	return v, nil
}

func (c columns) optional(source string, t *RawTable, line int, row []string, key string) (*float64, error) {
	v, ok, err := ParseCell(c.cell(row, key))
	if err != nil {
		return nil, wacc.DataSourceError(source, fmt.Errorf("%s row %d, %s: %v", t.Name, line, key, err))
	}
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// BuildTables converts the three raw tables into typed rows.
// A nil table is ErrDataSource; no partial Tables are returned.
func BuildTables(source string, fixed, annual, sector *RawTable) (wacc.Tables, error) {
	for name, t := range map[string]*RawTable{TableFixed: fixed, TableAnnual: annual, TableSector: sector} {
		if t == nil {
			return wacc.Tables{}, wacc.MissingTable(source, name)
		}
	}

	var out wacc.Tables

	// 1. Fixed
	fc := indexHeader(fixed)
	if err := fc.require(source, fixed, "taxrate"); err != nil {
		return wacc.Tables{}, err
	}
	for i, row := range fixed.Rows {
		if blank(row) {
			continue
		}
		tax, err := fc.number(source, fixed, i+2, row, "taxrate")
		if err != nil {
			return wacc.Tables{}, err
		}
		out.Fixed = append(out.Fixed, wacc.FixedRow{TaxRate: tax})
	}

	// 2. Annual
	ac := indexHeader(annual)
	if err := ac.require(source, annual, "countryriskpremium", "riskfreerate", "marketriskpremium", "costofdebtnominal", "inflationus"); err != nil {
		return wacc.Tables{}, err
	}
	for i, row := range annual.Rows {
		if blank(row) {
			continue
		}
		line := i + 2
		var r wacc.AnnualRow
		if y, ok, _ := ParseCell(ac.cell(row, "year")); ok {
			r.Year = int(y)
		}
		cells := []struct {
			key string
			dst **float64
		}{
			{"countryriskpremium", &r.CountryRiskPremium},
			{"riskfreerate", &r.RiskFreeRate},
			{"marketriskpremium", &r.MarketRiskPremium},
			{"costofdebtnominal", &r.CostOfDebtNominal},
			{"inflationus", &r.InflationUS},
		}
		for _, c := range cells {
			v, err := ac.optional(source, annual, line, row, c.key)
			if err != nil {
				return wacc.Tables{}, err
			}
			*c.dst = v
		}
		out.Annual = append(out.Annual, r)
	}

	// 3. Sector; rows without an identifier are skipped
	sc := indexHeader(sector)
	if err := sc.require(source, sector, "sector", "beta", "equityweight", "debtweight"); err != nil {
		return wacc.Tables{}, err
	}
	for i, row := range sector.Rows {
		id := strings.TrimSpace(sc.cell(row, "sector"))
		if id == "" {
			continue
		}
		line := i + 2
		r := wacc.SectorRow{Sector: id}
		var err error
		if r.Beta, err = sc.number(source, sector, line, row, "beta"); err != nil {
			return wacc.Tables{}, err
		}
		if r.EquityWeight, err = sc.number(source, sector, line, row, "equityweight"); err != nil {
			return wacc.Tables{}, err
		}
		if r.DebtWeight, err = sc.number(source, sector, line, row, "debtweight"); err != nil {
			return wacc.Tables{}, err
		}
		out.Sectors = append(out.Sectors, r)
	}

	return out, nil
}
