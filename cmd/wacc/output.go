package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"wacc_simulator/pkg/core/wacc"
)

const histWidth = 50

// report prints the result and writes the optional files.
func report(w io.Writer, res *wacc.SimulationResult, o simulateOpts) error {
	printSummary(w, res)
	if o.hist && res.Density != nil {
		printHistogram(w, res.Density, histWidth)
	}

	if o.jsonPath != "" {
		if err := writeFile(o.jsonPath, func(w io.Writer) error { return writeResult(w, res) }); err != nil {
			return err
		}
	}
	if o.csvPath != "" {
		if err := writeFile(o.csvPath, func(w io.Writer) error { return writeSamples(w, res) }); err != nil {
			return err
		}
	}
	return nil
}

func pct(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }

func printSummary(w io.Writer, res *wacc.SimulationResult) {
	fmt.Fprintf(w, "Sector %s (%d samples, run %s)\n", res.SectorID, len(res.WaccReal), res.RunID)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Mean real WACC:\t%s\n", pct(res.Mean))
	fmt.Fprintf(tw, "  Mean nominal WACC:\t%s\n", pct(res.MeanNominal))
	fmt.Fprintf(tw, "  Median real WACC:\t%s\n", pct(res.Median))
	fmt.Fprintf(tw, "  Real WACC at percentile %d%%:\t%s\n", res.Percentile, pct(res.PercentileValue))
	fmt.Fprintf(tw, "  Point estimate (real / nominal):\t%s / %s\n", pct(res.PointEstimate.WaccReal), pct(res.PointEstimate.WaccNominal))
	tw.Flush()
	for _, warn := range res.Parameters.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}

// printHistogram draws one row per bin, bars scaled to the tallest bin.
func printHistogram(w io.Writer, d *wacc.Density, width int) {
	peak := 0.0
	for _, v := range d.BinValues {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return
	}
	for i, v := range d.BinValues {
		n := int(v / peak * float64(width))
		fmt.Fprintf(w, "  %8s | %s\n", pct(d.BinEdges[i]), strings.Repeat("#", n))
	}
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	return writeAndClose(f, write)
}

// writeAndClose reports the close error when write itself succeeded.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); err == nil {
			err = cerr
		}
	}()
	return write(wc)
}

func writeResult(w io.Writer, res *wacc.SimulationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func writeSamples(w io.Writer, res *wacc.SimulationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sector", "run_id", "sample", "wacc_real", "wacc_nominal"}); err != nil {
		return err
	}
	for i := range res.WaccReal {
		err := cw.Write([]string{
			res.SectorID,
			res.RunID,
			strconv.Itoa(i),
			strconv.FormatFloat(res.WaccReal[i], 'g', -1, 64),
			strconv.FormatFloat(res.WaccNominal[i], 'g', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
