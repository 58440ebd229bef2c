// Package hsi implements band extraction and cleaning for hyperspectral
// reflectance cubes. The stored samples are integers; extraction selects a
// single band, replaces the no-data sentinel with NaN, and divides by the
// scale factor to produce reflectance values.
package hsi

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"neonrefl/internal/models"
)

var (
	// ErrBandOutOfRange is returned when the requested band index does not
	// exist in the cube.
	ErrBandOutOfRange = errors.New("band index out of range")

	// ErrZeroScaleFactor is returned when the scale factor is zero. The
	// extraction fails rather than producing infinite values.
	ErrZeroScaleFactor = errors.New("scale factor must be nonzero")
)

// ExtractBand extracts a single band from the cube and cleans it: every
// sample equal to noData becomes NaN, and every other sample is divided by
// scaleFactor. The cube is not modified; the returned slice is freshly
// allocated with the same spatial shape as the cube.
func ExtractBand(cube *models.Cube, band int, noData, scaleFactor float64) (*models.BandSlice, error) {
	if band < 0 || band >= cube.Bands {
		return nil, fmt.Errorf("%w: band %d, cube has %d bands", ErrBandOutOfRange, band, cube.Bands)
	}
	if scaleFactor == 0 {
		return nil, ErrZeroScaleFactor
	}

	out := &models.BandSlice{
		Data: make([]float64, cube.Rows*cube.Cols),
		Rows: cube.Rows,
		Cols: cube.Cols,
		Band: band,
	}

	for r := 0; r < cube.Rows; r++ {
		for c := 0; c < cube.Cols; c++ {
			v := float64(cube.At(r, c, band))
			if v == noData {
				out.Data[r*cube.Cols+c] = math.NaN()
			} else {
				out.Data[r*cube.Cols+c] = v / scaleFactor
			}
		}
	}

	return out, nil
}

// CleanRow cleans one row of raw samples from a single band in place,
// applying the same sentinel replacement and scaling as ExtractBand. It is
// used by the streaming reader, which never materializes a full cube.
func CleanRow(raw []int16, dst []float64, noData, scaleFactor float64) error {
	if scaleFactor == 0 {
		return ErrZeroScaleFactor
	}
	for i, s := range raw {
		v := float64(s)
		if v == noData {
			dst[i] = math.NaN()
		} else {
			dst[i] = v / scaleFactor
		}
	}
	return nil
}

// Valid returns the non-NaN values of a band slice. The result shares no
// storage with the input.
func Valid(s *models.BandSlice) []float64 {
	out := make([]float64, 0, len(s.Data))
	for _, v := range s.Data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Range returns the minimum and maximum of the non-NaN values of a band
// slice. If every value is NaN it returns (0, 0, false).
func Range(s *models.BandSlice) (min, max float64, ok bool) {
	valid := Valid(s)
	if len(valid) == 0 {
		return 0, 0, false
	}
	return floats.Min(valid), floats.Max(valid), true
}
