// Package reflh5 reads NEON AOP L3 surface directional reflectance tiles
// delivered in HDF5 format. A tile holds a single site group at the root
// (e.g. "SERC") with the reflectance cube at
// <SITE>/Reflectance/Reflectance_Data and the georeference and spectral
// metadata under <SITE>/Reflectance/Metadata.
package reflh5

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"neonrefl/internal/models"
	"neonrefl/pkg/georef"
	"neonrefl/pkg/hsi"
)

var (
	// ErrDatasetNotFound is returned when an expected group or dataset is
	// absent from the file hierarchy.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrMissingAttribute is returned when a required calibration
	// attribute is absent from the reflectance dataset.
	ErrMissingAttribute = errors.New("missing attribute")
)

// Names of the datasets and attributes inside a reflectance tile.
const (
	reflectanceGroup  = "Reflectance"
	reflectanceData   = "Reflectance_Data"
	metadataGroup     = "Metadata"
	coordSystemGroup  = "Coordinate_System"
	spectralDataGroup = "Spectral_Data"
	mapInfoDataset    = "Map_Info"
	wavelengthDataset = "Wavelength"
	scaleFactorAttr   = "Scale_Factor"
	noDataAttr        = "Data_Ignore_Value"
)

// File is an open reflectance tile.
type File struct {
	root api.Group
	site api.Group
	refl api.Group

	// Site is the name of the site group found at the root, e.g. "SERC"
	Site string
}

// Open opens a reflectance tile and locates its site group. It fails with
// ErrDatasetNotFound if no root group contains a Reflectance subgroup.
func Open(path string) (*File, error) {
	root, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	for _, name := range root.ListSubgroups() {
		site, err := root.GetGroup(name)
		if err != nil {
			continue
		}
		refl, err := site.GetGroup(reflectanceGroup)
		if err != nil {
			site.Close()
			continue
		}
		return &File{root: root, site: site, refl: refl, Site: name}, nil
	}

	root.Close()
	return nil, fmt.Errorf("%w: no site group with a %s subgroup in %s", ErrDatasetNotFound, reflectanceGroup, path)
}

// Close releases the file.
func (f *File) Close() {
	f.refl.Close()
	f.site.Close()
	f.root.Close()
}

// Meta reads the calibration attributes attached to the reflectance
// dataset.
func (f *File) Meta() (*models.ReflectanceMeta, error) {
	vg, err := f.refl.GetVarGetter(reflectanceData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatasetNotFound, reflectanceData, err)
	}
	return metaFromAttrs(vg.Attributes())
}

func metaFromAttrs(attrs api.AttributeMap) (*models.ReflectanceMeta, error) {
	scale, err := floatAttr(attrs, scaleFactorAttr)
	if err != nil {
		return nil, err
	}
	noData, err := floatAttr(attrs, noDataAttr)
	if err != nil {
		return nil, err
	}
	return &models.ReflectanceMeta{NoDataValue: noData, ScaleFactor: scale}, nil
}

// ReadCube reads the full reflectance cube and its calibration attributes.
// For a standard 1000x1000x426 tile this holds the complete raw data in
// memory; use ReadBand to stream a single band instead.
func (f *File) ReadCube() (*models.Cube, *models.ReflectanceMeta, error) {
	vg, err := f.refl.GetVarGetter(reflectanceData)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrDatasetNotFound, reflectanceData, err)
	}

	meta, err := metaFromAttrs(vg.Attributes())
	if err != nil {
		return nil, nil, err
	}

	values, err := vg.Values()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", reflectanceData, err)
	}
	rows, ok := values.([][][]int16)
	if !ok {
		return nil, nil, fmt.Errorf("%s: unsupported sample type %T, want [][][]int16", reflectanceData, values)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, nil, fmt.Errorf("%s: empty cube", reflectanceData)
	}

	cube := &models.Cube{
		Rows:  len(rows),
		Cols:  len(rows[0]),
		Bands: len(rows[0][0]),
	}
	cube.Data = make([]int16, cube.Rows*cube.Cols*cube.Bands)
	for r, row := range rows {
		for c, px := range row {
			copy(cube.Data[(r*cube.Cols+c)*cube.Bands:], px)
		}
	}

	return cube, meta, nil
}

// ReadBand reads a single cleaned band without materializing the full
// cube, reading one row of the dataset at a time.
func (f *File) ReadBand(band int) (*models.BandSlice, error) {
	vg, err := f.refl.GetVarGetter(reflectanceData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatasetNotFound, reflectanceData, err)
	}

	meta, err := metaFromAttrs(vg.Attributes())
	if err != nil {
		return nil, err
	}

	nrows := int(vg.Len())
	if nrows == 0 {
		return nil, fmt.Errorf("%s: empty cube", reflectanceData)
	}

	var out *models.BandSlice
	var raw []int16
	for r := 0; r < nrows; r++ {
		chunk, err := vg.GetSlice(int64(r), int64(r+1))
		if err != nil {
			return nil, fmt.Errorf("reading %s row %d: %w", reflectanceData, r, err)
		}
		rows, ok := chunk.([][][]int16)
		if !ok || len(rows) != 1 {
			return nil, fmt.Errorf("%s: unsupported sample type %T, want [][][]int16", reflectanceData, chunk)
		}
		row := rows[0]

		if out == nil {
			cols, bands := len(row), len(row[0])
			if band < 0 || band >= bands {
				return nil, fmt.Errorf("%w: band %d, cube has %d bands", hsi.ErrBandOutOfRange, band, bands)
			}
			out = &models.BandSlice{
				Data: make([]float64, nrows*cols),
				Rows: nrows,
				Cols: cols,
				Band: band,
			}
			raw = make([]int16, cols)
		}

		for c, px := range row {
			raw[c] = px[band]
		}
		if err := hsi.CleanRow(raw, out.Data[r*out.Cols:(r+1)*out.Cols], meta.NoDataValue, meta.ScaleFactor); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// ReadMapInfo reads and parses the georeference record stored under
// Metadata/Coordinate_System/Map_Info.
func (f *File) ReadMapInfo() (*models.MapInfo, error) {
	cs, err := f.metadataSubgroup(coordSystemGroup)
	if err != nil {
		return nil, err
	}
	defer cs.Close()

	v, err := cs.GetVariable(mapInfoDataset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatasetNotFound, mapInfoDataset, err)
	}

	var s string
	switch val := v.Values.(type) {
	case string:
		s = val
	case []string:
		if len(val) == 0 {
			return nil, fmt.Errorf("%w: %s is empty", georef.ErrMalformedMapInfo, mapInfoDataset)
		}
		s = val[0]
	default:
		return nil, fmt.Errorf("%s: unsupported type %T, want string", mapInfoDataset, v.Values)
	}

	return georef.ParseMapInfo(s)
}

// ReadWavelengths reads the band-center wavelengths stored under
// Metadata/Spectral_Data/Wavelength.
func (f *File) ReadWavelengths() (models.Wavelengths, error) {
	sd, err := f.metadataSubgroup(spectralDataGroup)
	if err != nil {
		return nil, err
	}
	defer sd.Close()

	v, err := sd.GetVariable(wavelengthDataset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatasetNotFound, wavelengthDataset, err)
	}

	switch val := v.Values.(type) {
	case []float64:
		return models.Wavelengths(val), nil
	case []float32:
		out := make(models.Wavelengths, len(val))
		for i, w := range val {
			out[i] = float64(w)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: unsupported type %T, want []float32 or []float64", wavelengthDataset, v.Values)
	}
}

func (f *File) metadataSubgroup(name string) (api.Group, error) {
	md, err := f.refl.GetGroup(metadataGroup)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatasetNotFound, metadataGroup, err)
	}
	defer md.Close()

	g, err := md.GetGroup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrDatasetNotFound, metadataGroup, name, err)
	}
	return g, nil
}

// floatAttr reads a numeric attribute, accepting the scalar and
// single-element slice encodings HDF5 attributes come in.
func floatAttr(attrs api.AttributeMap, name string) (float64, error) {
	raw, has := attrs.Get(name)
	if !has {
		return 0, fmt.Errorf("%w: %s", ErrMissingAttribute, name)
	}
	v, err := toFloat(raw)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	return v, nil
}

func toFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	case []float64:
		if len(v) == 1 {
			return v[0], nil
		}
	case []float32:
		if len(v) == 1 {
			return float64(v[0]), nil
		}
	case []int32:
		if len(v) == 1 {
			return float64(v[0]), nil
		}
	case []int16:
		if len(v) == 1 {
			return float64(v[0]), nil
		}
	}
	return 0, fmt.Errorf("not a numeric scalar: %T", raw)
}
