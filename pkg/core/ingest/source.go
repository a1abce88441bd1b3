// Package ingest loads the fixed, annual and sector input tables from
// workbooks, CSV directories and YAML/JSON/HJSON documents.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wacc_simulator/pkg/core/wacc"
)

// Source loads a complete set of input tables
type Source interface {
	Name() string
	Load(ctx context.Context) (wacc.Tables, error)
}

// Source kinds accepted by Open
const (
	KindWorkbook = "xlsx"
	KindCSV      = "csv"
	KindDocument = "document"
)

// Open picks a file-based adapter by kind, or by path when kind is empty:
// a directory is CSV, .xlsx/.xlsm is a workbook, .yaml/.yml/.json/.hjson a document.
func Open(kind, path string) (Source, error) {
	if path == "" {
		return nil, wacc.DataSourceError("ingest", fmt.Errorf("no input path configured"))
	}
	if kind == "" {
		k, err := detectKind(path)
		if err != nil {
			return nil, err
		}
		kind = k
	}

	switch strings.ToLower(kind) {
	case KindWorkbook, "workbook", "excel":
		return &WorkbookSource{Path: path}, nil
	case KindCSV:
		return &CSVSource{Dir: path}, nil
	case KindDocument, "yaml", "json", "hjson":
		return &DocumentSource{Path: path}, nil
	}
	return nil, wacc.DataSourceError("ingest", fmt.Errorf("unknown source kind %q", kind))
}

func detectKind(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", wacc.DataSourceError(path, err)
	}
	if info.IsDir() {
		return KindCSV, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return KindWorkbook, nil
	case ".yaml", ".yml", ".json", ".hjson":
		return KindDocument, nil
	}
	return "", wacc.DataSourceError(path, fmt.Errorf("cannot infer source kind from extension %q", filepath.Ext(path)))
}
