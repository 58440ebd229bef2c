// Package georef parses the map-info metadata string stored in NEON AOP
// reflectance files and derives spatial extents from it.
//
// The string is comma-delimited with fixed positional fields, e.g.
//
//	UTM,1.000,1.000,368000.000,4307000.000,1.0000000,1.0000000,18,N,WGS-84
//
// where fields 3,4 are the projected coordinates of the upper-left corner
// (xMin, yMax), fields 5,6 are the pixel resolution, and the trailing
// fields are the UTM zone, hemisphere and datum. The string is parsed once
// into a typed record at the ingestion boundary; nothing downstream
// re-parses it.
package georef

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"neonrefl/internal/models"
)

// ErrMalformedMapInfo is returned when the map-info string has too few
// fields or non-numeric content in the origin or resolution positions.
var ErrMalformedMapInfo = errors.New("malformed map info string")

// minFields is the number of leading positional fields required to
// georeference a tile: projection, two calibration fields, origin x/y,
// resolution x/y.
const minFields = 7

// ParseMapInfo parses a map-info string into a typed georeference record.
// Fewer than seven fields, or non-numeric origin or resolution fields,
// fail with ErrMalformedMapInfo; no partial record is returned.
func ParseMapInfo(s string) (*models.MapInfo, error) {
	fields := strings.Split(s, ",")
	if len(fields) < minFields {
		return nil, fmt.Errorf("%w: got %d fields, need at least %d", ErrMalformedMapInfo, len(fields), minFields)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	originX, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: origin x %q: %v", ErrMalformedMapInfo, fields[3], err)
	}
	originY, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: origin y %q: %v", ErrMalformedMapInfo, fields[4], err)
	}
	resX, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: x resolution %q: %v", ErrMalformedMapInfo, fields[5], err)
	}
	resY, err := strconv.ParseFloat(fields[6], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: y resolution %q: %v", ErrMalformedMapInfo, fields[6], err)
	}

	mi := &models.MapInfo{
		Projection: fields[0],
		OriginX:    originX,
		OriginY:    originY,
		ResX:       resX,
		ResY:       resY,
	}

	// The zone, hemisphere and datum fields are informational; a tile
	// missing them can still be georeferenced.
	if len(fields) > 7 {
		if zone, err := strconv.Atoi(fields[7]); err == nil {
			mi.Zone = zone
		}
	}
	if len(fields) > 8 {
		mi.Hemisphere = fields[8]
	}
	if len(fields) > 9 {
		mi.Datum = fields[9]
	}

	return mi, nil
}

// Extent computes the bounding box of a tile with the given pixel
// dimensions: xMax is the left edge plus columns times the x resolution,
// and yMin is the top edge minus rows times the y resolution.
func Extent(mi *models.MapInfo, rows, cols int) (models.Extent, error) {
	if rows <= 0 || cols <= 0 {
		return models.Extent{}, fmt.Errorf("%w: dimensions %dx%d must be positive", ErrMalformedMapInfo, rows, cols)
	}
	return models.Extent{
		XMin: mi.OriginX,
		XMax: mi.OriginX + float64(cols)*mi.ResX,
		YMin: mi.OriginY - float64(rows)*mi.ResY,
		YMax: mi.OriginY,
	}, nil
}
