package wacc

import (
	"fmt"
	"strings"
)

// GuidanceEntry recommends a percentile range for a regulatory or asset-risk context.
// Informational only; nothing in the engine reads it.
type GuidanceEntry struct {
	Context       string `json:"context" yaml:"context"`
	MinPercentile int    `json:"min_percentile" yaml:"min_percentile"`
	MaxPercentile int    `json:"max_percentile" yaml:"max_percentile"`
}

// DefaultGuidance is the reference table shipped with the simulator
var DefaultGuidance = []GuidanceEntry{
	{Context: "Stable and mature regulatory environment (low risk)", MinPercentile: 50, MaxPercentile: 50},
	{Context: "Brownfield concessions (existing assets, lower risk)", MinPercentile: 50, MaxPercentile: 69},
	{Context: "Greenfield concessions (new assets, higher risk)", MinPercentile: 69, MaxPercentile: 84},
	{Context: "Unstable regulatory environment or high economic volatility", MinPercentile: 84, MaxPercentile: 84},
	{Context: "Very high CAPEX projects (ports, large airports)", MinPercentile: 69, MaxPercentile: 84},
}

// Range formats the percentile range, e.g. "50%" or "69% - 84%".
func (g GuidanceEntry) Range() string {
	if g.MinPercentile == g.MaxPercentile {
		return fmt.Sprintf("%d%%", g.MinPercentile)
	}
	return fmt.Sprintf("%d%% - %d%%", g.MinPercentile, g.MaxPercentile)
}

// GuidanceMarkdown renders the entries as a markdown table.
func GuidanceMarkdown(entries []GuidanceEntry) string {
	var b strings.Builder
	b.WriteString("| Situation | Recommended percentile |\n")
	b.WriteString("|---|---|\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | **%s** |\n", e.Context, e.Range())
	}
	return b.String()
}
