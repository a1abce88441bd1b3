package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"wacc_simulator/pkg/core/wacc"
)

// CSVSource reads fixed.csv, annual.csv and sectors.csv (or the fixos /
// anuais / setoriais names) from one directory. Semicolon-delimited files
// are detected from the header line.
type CSVSource struct {
	Dir string
}

func (s *CSVSource) Name() string { return "csv:" + s.Dir }

func (s *CSVSource) Load(ctx context.Context) (wacc.Tables, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return wacc.Tables{}, wacc.DataSourceError(s.Name(), err)
	}

	found := map[string]*RawTable{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return wacc.Tables{}, err
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		table, ok := MatchTable(stem)
		if !ok || found[table] != nil {
			continue
		}
		raw, err := readCSV(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			return wacc.Tables{}, wacc.DataSourceError(s.Name(), err)
		}
		raw.Name = stem
		found[table] = raw
	}
	return BuildTables(s.Name(), found[TableFixed], found[TableAnnual], found[TableSector])
}

func readCSV(path string) (*RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if first, _, _ := strings.Cut(text, "\n"); strings.Count(first, ";") > strings.Count(first, ",") {
		r.Comma = ';'
	}

	raw := &RawTable{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if raw.Header == nil {
			raw.Header = rec
			continue
		}
		raw.Rows = append(raw.Rows, rec)
	}
	return raw, nil
}
