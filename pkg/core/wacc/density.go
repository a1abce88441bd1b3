package wacc

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultDensityBins = 50
	kdeGridSize        = 200
	kdeCut             = 3     // grid extends this many bandwidths past the data
	kdeMaxPoints       = 50000 // evaluation set is strided down to this size
)

// Density is the empirical distribution of a sample vector
type Density struct {
	BinEdges  []float64 `json:"bin_edges"` // len(BinValues)+1
	BinValues []float64 `json:"bin_density"`
	KDEX      []float64 `json:"kde_x,omitempty"`
	KDEY      []float64 `json:"kde_y,omitempty"`
	Bandwidth float64   `json:"bandwidth,omitempty"`
}

// NewDensity builds a density-normalised histogram and a Gaussian KDE
// (Scott's rule) of x. A zero-variance x yields a single point-mass bin and no curve.
func NewDensity(x []float64, bins int) (*Density, error) {
	if len(x) == 0 {
		return nil, invalid("samples", "empty")
	}
	if bins <= 0 {
		bins = DefaultDensityBins
	}
	s := sortedCopy(x)
	lo, hi := s[0], s[len(s)-1]
	n := float64(len(s))

	if lo == hi {
		return &Density{
			BinEdges:  []float64{lo, hi},
			BinValues: []float64{1},
		}, nil
	}

	// 1. Histogram; the top edge is nudged so the maximum falls in the last bin
	edges := make([]float64, bins+1)
	floats.Span(edges, lo, hi)
	edges[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, edges, s, nil)
	width := (hi - lo) / float64(bins)
	for i := range counts {
		counts[i] /= n * width
	}
	edges[bins] = hi

	d := &Density{BinEdges: edges, BinValues: counts}

	// 2. KDE
	sd := stat.StdDev(s, nil)
	if sd == 0 {
		return d, nil
	}
	bw := sd * math.Pow(n, -0.2)
	points := s
	if len(points) > kdeMaxPoints {
		stride := (len(points) + kdeMaxPoints - 1) / kdeMaxPoints
		thinned := make([]float64, 0, len(points)/stride+1)
		for i := 0; i < len(points); i += stride {
			thinned = append(thinned, points[i])
		}
		points = thinned
	}

	d.Bandwidth = bw
	d.KDEX = make([]float64, kdeGridSize)
	d.KDEY = make([]float64, kdeGridSize)
	floats.Span(d.KDEX, lo-kdeCut*bw, hi+kdeCut*bw)
	norm := 1 / (float64(len(points)) * bw * math.Sqrt(2*math.Pi))
	for i, gx := range d.KDEX {
		var sum float64
		for _, v := range points {
			z := (gx - v) / bw
			sum += math.Exp(-0.5 * z * z)
		}
		d.KDEY[i] = sum * norm
	}
	return d, nil
}
