package render

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"neonrefl/internal/models"
	"neonrefl/pkg/hsi"
)

// LinearStretch clips a band slice to the (percent, 100-percent)
// percentiles of its non-missing values and rescales the result to [0,1].
// It returns the stretched slice together with the low and high cutoffs.
// Missing samples stay missing.
func LinearStretch(s *models.BandSlice, percent float64) (*models.BandSlice, float64, float64, error) {
	if percent < 0 || percent >= 50 {
		return nil, 0, 0, fmt.Errorf("stretch percent %g out of range [0,50)", percent)
	}

	valid := hsi.Valid(s)
	if len(valid) == 0 {
		return nil, 0, 0, fmt.Errorf("no valid samples to stretch")
	}
	sort.Float64s(valid)

	lo := stat.Quantile(percent/100, stat.Empirical, valid, nil)
	hi := stat.Quantile(1-percent/100, stat.Empirical, valid, nil)

	out := &models.BandSlice{
		Data: make([]float64, len(s.Data)),
		Rows: s.Rows,
		Cols: s.Cols,
		Band: s.Band,
	}
	span := hi - lo
	for i, v := range s.Data {
		switch {
		case math.IsNaN(v):
			out.Data[i] = v
		case span == 0:
			out.Data[i] = 0
		default:
			out.Data[i] = math.Max(0, math.Min(1, (v-lo)/span))
		}
	}

	return out, lo, hi, nil
}

// EqualizeHist applies histogram equalization to the non-missing values of
// a band slice, mapping each value to its cumulative frequency in [0,1].
// Missing samples stay missing.
func EqualizeHist(s *models.BandSlice, bins int) (*models.BandSlice, error) {
	if bins < 2 {
		return nil, fmt.Errorf("equalization needs at least 2 bins, got %d", bins)
	}

	lo, hi, ok := hsi.Range(s)
	if !ok {
		return nil, fmt.Errorf("no valid samples to equalize")
	}

	out := &models.BandSlice{
		Data: make([]float64, len(s.Data)),
		Rows: s.Rows,
		Cols: s.Cols,
		Band: s.Band,
	}

	if hi == lo {
		for i, v := range s.Data {
			if math.IsNaN(v) {
				out.Data[i] = v
			}
		}
		return out, nil
	}

	binOf := func(v float64) int {
		b := int((v - lo) / (hi - lo) * float64(bins))
		if b >= bins {
			b = bins - 1
		}
		return b
	}

	counts := make([]int, bins)
	total := 0
	for _, v := range s.Data {
		if math.IsNaN(v) {
			continue
		}
		counts[binOf(v)]++
		total++
	}

	// Cumulative distribution over bins.
	cdf := make([]float64, bins)
	running := 0
	for i, n := range counts {
		running += n
		cdf[i] = float64(running) / float64(total)
	}

	for i, v := range s.Data {
		if math.IsNaN(v) {
			out.Data[i] = v
		} else {
			out.Data[i] = cdf[binOf(v)]
		}
	}

	return out, nil
}
