package ingest

import (
	"context"

	"github.com/xuri/excelize/v2"

	"wacc_simulator/pkg/core/wacc"
)

// WorkbookSource reads the three tables from sheets of one .xlsx workbook
// (e.g. "fixos", "anuais", "setoriais").
type WorkbookSource struct {
	Path string
}

func (s *WorkbookSource) Name() string { return "xlsx:" + s.Path }

func (s *WorkbookSource) Load(ctx context.Context) (wacc.Tables, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return wacc.Tables{}, wacc.DataSourceError(s.Name(), err)
	}
	defer f.Close()

	found := map[string]*RawTable{}
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return wacc.Tables{}, err
		}
		table, ok := MatchTable(sheet)
		if !ok || found[table] != nil {
			continue
		}
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return wacc.Tables{}, wacc.DataSourceError(s.Name(), err)
		}
		raw := &RawTable{Name: sheet}
		if len(rows) > 0 {
			raw.Header = rows[0]
			raw.Rows = rows[1:]
		}
		found[table] = raw
	}
	return BuildTables(s.Name(), found[TableFixed], found[TableAnnual], found[TableSector])
}
