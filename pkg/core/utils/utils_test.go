package utils

import (
	"strings"
	"testing"
)

func TestSmartDecode(t *testing.T) {
	type doc struct {
		TaxRate float64 `json:"tax_rate"`
	}
	inputs := map[string]string{
		"json":   `{"tax_rate": 0.34}`,
		"repair": `{"tax_rate": 0.34`,
		"hjson":  "{\n  # corporate rate\n  tax_rate: 0.34\n}",
	}
	for name, in := range inputs {
		var d doc
		if err := SmartDecode(in, &d); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
			continue
		}
		if d.TaxRate != 0.34 {
			t.Errorf("%s: expected 0.34, got %v", name, d.TaxRate)
		}
	}
}

func TestSmartDecode_RepairKeepsNumbers(t *testing.T) {
	var d map[string]float64
	in := `{"risk_free_rate": 0.0425, "market_risk_premium": 0.0513, 'k2': -1.5e-3,`
	if err := SmartDecode(in, &d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]float64{"risk_free_rate": 0.0425, "market_risk_premium": 0.0513, "k2": -1.5e-3}
	for k, v := range want {
		if d[k] != v {
			t.Errorf("%s: expected %v, got %v", k, v, d[k])
		}
	}
}

func TestNumberSpans(t *testing.T) {
	in := `{"a1": "x 2", b3: [1, -0.5, 2e10], 'c': "it's 4"}`
	var got []string
	for _, sp := range numberSpans(in) {
		got = append(got, in[sp[0]:sp[1]])
	}
	if strings.Join(got, " ") != "1 -0.5 2e10" {
		t.Errorf("unexpected numbers: %v", got)
	}
}

func TestRestoreNumbers(t *testing.T) {
	out, err := restoreNumbers(`{"b": 0.0513, "a": 2021`, `{"a":2021,"b":0.05130000039935112}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"a":2021,"b":0.0513}` {
		t.Errorf("unexpected output: %s", out)
	}

	if _, err := restoreNumbers(`{"a": 1`, `{"a":2}`); err == nil {
		t.Error("expected an error for a number with no source")
	}
	if _, err := restoreNumbers(`[0.1, 0.10000000149011612`, `[0.10000000149011612,0.10000000149011612]`); err == nil {
		t.Error("expected an error when two inputs round to the same value")
	}
}

func TestRenderMarkdown_Table(t *testing.T) {
	html, err := RenderMarkdown("| A | B |\n|---|---|\n| x | **50%** |\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "<table>") || !strings.Contains(html, "<strong>50%</strong>") {
		t.Errorf("expected an HTML table, got %s", html)
	}
}
