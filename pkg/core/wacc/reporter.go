package wacc

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary reduces the simulated vectors. The headline figures are on the real series.
type Summary struct {
	Mean            float64 `json:"mean"`
	Median          float64 `json:"median"`
	Percentile      float64 `json:"percentile"`
	PercentileValue float64 `json:"percentile_value"`
	StdDev          float64 `json:"std_dev"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`

	// Nominal series, display only
	MeanNominal            float64 `json:"mean_nominal"`
	MedianNominal          float64 `json:"median_nominal"`
	PercentileValueNominal float64 `json:"percentile_value_nominal"`
	StdDevNominal          float64 `json:"std_dev_nominal"`
}

// Mean is the arithmetic mean of x.
func Mean(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, invalid("samples", "empty")
	}
	return stat.Mean(x, nil), nil
}

// Percentile returns the pth percentile of x, interpolating linearly between
// the closest ranks (rank = p/100 * (n-1)). x is not modified.
func Percentile(x []float64, p float64) (float64, error) {
	if err := checkPercentile(x, p); err != nil {
		return 0, err
	}
	return percentileSorted(sortedCopy(x), p), nil
}

// Summarize computes the statistics of both series at percentile p.
func Summarize(realSamples, nominalSamples []float64, p float64) (Summary, error) {
	if err := checkPercentile(realSamples, p); err != nil {
		return Summary{}, err
	}
	if len(nominalSamples) == 0 {
		return Summary{}, invalid("samples_nominal", "empty")
	}

	sr := sortedCopy(realSamples)
	sn := sortedCopy(nominalSamples)

	s := Summary{
		Mean:            stat.Mean(realSamples, nil),
		Median:          percentileSorted(sr, 50),
		Percentile:      p,
		PercentileValue: percentileSorted(sr, p),
		Min:             sr[0],
		Max:             sr[len(sr)-1],

		MeanNominal:            stat.Mean(nominalSamples, nil),
		MedianNominal:          percentileSorted(sn, 50),
		PercentileValueNominal: percentileSorted(sn, p),
	}
	if len(realSamples) > 1 {
		s.StdDev = stat.StdDev(realSamples, nil)
	}
	if len(nominalSamples) > 1 {
		s.StdDevNominal = stat.StdDev(nominalSamples, nil)
	}
	return s, nil
}

func checkPercentile(x []float64, p float64) error {
	if len(x) == 0 {
		return invalid("samples", "empty")
	}
	if math.IsNaN(p) || p < 0 || p > 100 {
		return invalid("percentile", "%v outside [0,100]", p)
	}
	return nil
}

func sortedCopy(x []float64) []float64 {
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	return s
}

func percentileSorted(s []float64, p float64) float64 {
	rank := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return s[lo]
	}
	frac := rank - float64(lo)
	return s[lo] + (s[hi]-s[lo])*frac
}
