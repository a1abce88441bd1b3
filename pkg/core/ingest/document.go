package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"wacc_simulator/pkg/core/utils"
	"wacc_simulator/pkg/core/wacc"
)

// DocumentSource reads one YAML, JSON or HJSON document shaped as
//
//	fixed:   {tax_rate: 0.34}          # or a one-element list
//	annual:  [{year: 2023, risk_free_rate: 0.04, ...}, ...]
//	sectors: [{sector: Energia, beta: 0.8, equity_weight: 0.6, debt_weight: 0.4}, ...]
type DocumentSource struct {
	Path string
}

func (s *DocumentSource) Name() string { return "document:" + s.Path }

func (s *DocumentSource) Load(ctx context.Context) (wacc.Tables, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return wacc.Tables{}, wacc.DataSourceError(s.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return wacc.Tables{}, err
	}
	return ParseDocument(s.Name(), filepath.Ext(s.Path), data)
}

// ParseDocument decodes a document by extension; anything that is not
// .yaml/.yml goes through the lenient JSON path (JSON, repaired JSON, HJSON).
func ParseDocument(source, ext string, data []byte) (wacc.Tables, error) {
	var doc interface{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return wacc.Tables{}, wacc.DataSourceError(source, err)
		}
	default:
		if err := utils.SmartDecode(string(data), &doc); err != nil {
			return wacc.Tables{}, wacc.DataSourceError(source, err)
		}
	}

	top, ok := asMap(doc)
	if !ok {
		return wacc.Tables{}, wacc.DataSourceError(source, fmt.Errorf("document root must be a mapping"))
	}

	found := map[string]*RawTable{}
	for key, v := range top {
		table, ok := MatchTable(key)
		if !ok || found[table] != nil {
			continue
		}
		raw, err := toRawTable(key, v)
		if err != nil {
			return wacc.Tables{}, wacc.DataSourceError(source, err)
		}
		found[table] = raw
	}
	return BuildTables(source, found[TableFixed], found[TableAnnual], found[TableSector])
}

func toRawTable(name string, v interface{}) (*RawTable, error) {
	var records []map[string]interface{}
	if m, ok := asMap(v); ok {
		records = append(records, m)
	} else if list, ok := v.([]interface{}); ok {
		for i, item := range list {
			m, ok := asMap(item)
			if !ok {
				return nil, fmt.Errorf("%s[%d] is not a mapping", name, i)
			}
			records = append(records, m)
		}
	} else {
		return nil, fmt.Errorf("%s must be a mapping or a list of mappings", name)
	}

	seen := map[string]bool{}
	var header []string
	for _, r := range records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	sort.Strings(header)

	raw := &RawTable{Name: name, Header: header}
	for _, r := range records {
		row := make([]string, len(header))
		for i, k := range header {
			row[i] = cellString(r[k])
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw, nil
}

// asMap accepts both yaml.v2 (interface keys) and JSON (string keys) mappings.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}
