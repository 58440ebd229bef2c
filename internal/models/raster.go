package models

import (
	"math"
)

// Cube represents a 3D hyperspectral reflectance cube as delivered in a
// NEON AOP L3 tile. Samples are the raw stored integers; the scale factor
// from ReflectanceMeta must be applied to recover physical reflectance.
type Cube struct {
	// Data is the raw sample data as a 1D array in row-major
	// (row, column, band) order
	Data []int16

	// Rows is the number of rows (the y/northing dimension) in pixels
	Rows int

	// Cols is the number of columns (the x/easting dimension) in pixels
	Cols int

	// Bands is the number of spectral bands
	Bands int
}

// At returns the raw sample at the given row, column and band.
// Callers are responsible for staying in bounds.
func (c *Cube) At(row, col, band int) int16 {
	return c.Data[(row*c.Cols+col)*c.Bands+band]
}

// BandSlice is a single cleaned band extracted from a cube: one spectral
// band, converted to reflectance units, with missing samples marked NaN.
type BandSlice struct {
	// Data is the cleaned reflectance values in row-major order
	Data []float64

	// Rows and Cols are the spatial dimensions, matching the source cube
	Rows, Cols int

	// Band is the zero-based index of the band this slice was taken from
	Band int
}

// At returns the value at the given row and column.
func (s *BandSlice) At(row, col int) float64 {
	return s.Data[row*s.Cols+col]
}

// ReflectanceMeta holds the calibration attributes attached to the
// reflectance dataset.
type ReflectanceMeta struct {
	// NoDataValue is the sentinel marking missing samples (-9999 for NEON)
	NoDataValue float64

	// ScaleFactor is the divisor that converts stored integers to
	// reflectance (10000 for NEON)
	ScaleFactor float64
}

// MapInfo is the georeference record for a tile, parsed once from the
// comma-delimited map-info string stored in the file.
type MapInfo struct {
	// Projection is the coordinate system tag, e.g. "UTM"
	Projection string

	// OriginX and OriginY are the projected coordinates of the upper-left
	// corner of the image (xMin, yMax)
	OriginX, OriginY float64

	// ResX and ResY are the pixel resolutions in projected units
	ResX, ResY float64

	// Zone is the UTM zone, when the projection is UTM
	Zone int

	// Hemisphere is "N" or "S", when the projection is UTM
	Hemisphere string

	// Datum is the reference ellipsoid tag, e.g. "WGS-84"
	Datum string
}

// Extent is a bounding box in projected coordinates, in the
// (xMin, xMax, yMin, yMax) order used for placing an image on axes.
type Extent struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Wavelengths holds the band-center wavelengths of a cube in nanometers,
// indexed by band.
type Wavelengths []float64

// Min returns the shortest band-center wavelength.
func (w Wavelengths) Min() float64 {
	min := math.Inf(1)
	for _, v := range w {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the longest band-center wavelength.
func (w Wavelengths) Max() float64 {
	max := math.Inf(-1)
	for _, v := range w {
		if v > max {
			max = v
		}
	}
	return max
}

// BandWidth returns the distance in nm between the centers of band i and
// band i+1, or 0 if i is out of range.
func (w Wavelengths) BandWidth(i int) float64 {
	if i < 0 || i+1 >= len(w) {
		return 0
	}
	return w[i+1] - w[i]
}
