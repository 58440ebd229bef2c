package reflh5

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"neonrefl/pkg/georef"
	"neonrefl/pkg/hsi"
)

// fakeAttrs is an in-memory api.AttributeMap.
type fakeAttrs struct {
	keys   []string
	values map[string]interface{}
}

func newFakeAttrs(pairs ...interface{}) *fakeAttrs {
	a := &fakeAttrs{values: map[string]interface{}{}}
	for i := 0; i < len(pairs); i += 2 {
		key := pairs[i].(string)
		a.keys = append(a.keys, key)
		a.values[key] = pairs[i+1]
	}
	return a
}

func (a *fakeAttrs) Keys() []string { return a.keys }
func (a *fakeAttrs) Get(key string) (interface{}, bool) {
	v, has := a.values[key]
	return v, has
}
func (a *fakeAttrs) GetType(key string) (string, bool)   { return "", false }
func (a *fakeAttrs) GetGoType(key string) (string, bool) { return "", false }

// fakeVarGetter is an in-memory api.VarGetter over [][][]int16 cube data.
type fakeVarGetter struct {
	cube  [][][]int16
	attrs api.AttributeMap
}

func (v *fakeVarGetter) Len() int64 { return int64(len(v.cube)) }
func (v *fakeVarGetter) Values() (interface{}, error) {
	return v.cube, nil
}
func (v *fakeVarGetter) GetSlice(begin, end int64) (interface{}, error) {
	if begin < 0 || end > int64(len(v.cube)) {
		return nil, fmt.Errorf("slice [%d,%d) out of range", begin, end)
	}
	return v.cube[begin:end], nil
}
func (v *fakeVarGetter) GetSliceMD(begin, end []int64) (interface{}, error) {
	return nil, api.ErrUnsupported
}
func (v *fakeVarGetter) Shape() []int64 {
	if len(v.cube) == 0 {
		return []int64{0, 0, 0}
	}
	return []int64{int64(len(v.cube)), int64(len(v.cube[0])), int64(len(v.cube[0][0]))}
}
func (v *fakeVarGetter) Dimensions() []string         { return []string{"y", "x", "wavelength"} }
func (v *fakeVarGetter) Attributes() api.AttributeMap { return v.attrs }
func (v *fakeVarGetter) Type() string                 { return "short" }
func (v *fakeVarGetter) GoType() string               { return "int16" }

// fakeGroup is an in-memory api.Group.
type fakeGroup struct {
	vars    map[string]*api.Variable
	getters map[string]api.VarGetter
	subs    map[string]*fakeGroup
}

func (g *fakeGroup) Close()                       {}
func (g *fakeGroup) Attributes() api.AttributeMap { return newFakeAttrs() }
func (g *fakeGroup) ListVariables() []string {
	var names []string
	for name := range g.vars {
		names = append(names, name)
	}
	for name := range g.getters {
		names = append(names, name)
	}
	return names
}
func (g *fakeGroup) GetVariable(name string) (*api.Variable, error) {
	v, has := g.vars[name]
	if !has {
		return nil, fmt.Errorf("no variable %s", name)
	}
	return v, nil
}
func (g *fakeGroup) GetVarGetter(name string) (api.VarGetter, error) {
	if vg, has := g.getters[name]; has {
		return vg, nil
	}
	if v, has := g.vars[name]; has {
		return &scalarGetter{v: v}, nil
	}
	return nil, fmt.Errorf("no variable %s", name)
}

// scalarGetter adapts a plain variable to the VarGetter interface for the
// walker.
type scalarGetter struct {
	v *api.Variable
}

func (s *scalarGetter) Len() int64                   { return 1 }
func (s *scalarGetter) Values() (interface{}, error) { return s.v.Values, nil }
func (s *scalarGetter) GetSlice(begin, end int64) (interface{}, error) {
	return s.v.Values, nil
}
func (s *scalarGetter) GetSliceMD(begin, end []int64) (interface{}, error) {
	return nil, api.ErrUnsupported
}
func (s *scalarGetter) Shape() []int64               { return nil }
func (s *scalarGetter) Dimensions() []string         { return nil }
func (s *scalarGetter) Attributes() api.AttributeMap { return newFakeAttrs() }
func (s *scalarGetter) Type() string                 { return "string" }
func (s *scalarGetter) GoType() string               { return "string" }
func (g *fakeGroup) ListSubgroups() []string {
	var names []string
	for name := range g.subs {
		names = append(names, name)
	}
	return names
}
func (g *fakeGroup) GetGroup(name string) (api.Group, error) {
	sub, has := g.subs[name]
	if !has {
		return nil, fmt.Errorf("no group %s", name)
	}
	return sub, nil
}
func (g *fakeGroup) ListTypes() []string             { return nil }
func (g *fakeGroup) GetType(string) (string, bool)   { return "", false }
func (g *fakeGroup) GetGoType(string) (string, bool) { return "", false }
func (g *fakeGroup) ListDimensions() []string        { return nil }
func (g *fakeGroup) GetDimension(string) (uint64, bool) {
	return 0, false
}

// testFile builds a File around a fake SERC-like hierarchy with a small
// cube whose sample at (r, c, b) is r*100 + c*10 + b, one sentinel
// planted at (1, 2) in band 0.
func testFile() *File {
	rows, cols, bands := 3, 4, 2
	cube := make([][][]int16, rows)
	for r := range cube {
		cube[r] = make([][]int16, cols)
		for c := range cube[r] {
			cube[r][c] = make([]int16, bands)
			for b := range cube[r][c] {
				cube[r][c][b] = int16(r*100 + c*10 + b)
			}
		}
	}
	cube[1][2][0] = -9999

	refl := &fakeGroup{
		getters: map[string]api.VarGetter{
			reflectanceData: &fakeVarGetter{
				cube:  cube,
				attrs: newFakeAttrs(scaleFactorAttr, float64(10000), noDataAttr, float64(-9999)),
			},
		},
		subs: map[string]*fakeGroup{
			metadataGroup: {
				subs: map[string]*fakeGroup{
					coordSystemGroup: {
						vars: map[string]*api.Variable{
							mapInfoDataset: {Values: "UTM,1.000,1.000,368000.000,4307000.000,1.0000000,1.0000000,18,N,WGS-84"},
						},
					},
					spectralDataGroup: {
						vars: map[string]*api.Variable{
							wavelengthDataset: {Values: []float32{383.88, 388.89}},
						},
					},
				},
			},
		},
	}
	site := &fakeGroup{subs: map[string]*fakeGroup{reflectanceGroup: refl}}
	root := &fakeGroup{subs: map[string]*fakeGroup{"SERC": site}}

	return &File{root: root, site: site, refl: refl, Site: "SERC"}
}

// TestReadCube verifies cube dimensions, sample layout and calibration
// attributes
func TestReadCube(t *testing.T) {
	f := testFile()

	cube, meta, err := f.ReadCube()
	if err != nil {
		t.Fatalf("ReadCube failed: %v", err)
	}

	if cube.Rows != 3 || cube.Cols != 4 || cube.Bands != 2 {
		t.Fatalf("expected 3x4x2 cube, got %dx%dx%d", cube.Rows, cube.Cols, cube.Bands)
	}
	if got := cube.At(2, 3, 1); got != 231 {
		t.Errorf("expected sample 231 at (2,3,1), got %d", got)
	}
	if got := cube.At(1, 2, 0); got != -9999 {
		t.Errorf("expected sentinel at (1,2,0), got %d", got)
	}

	if meta.ScaleFactor != 10000 {
		t.Errorf("expected scale factor 10000, got %g", meta.ScaleFactor)
	}
	if meta.NoDataValue != -9999 {
		t.Errorf("expected no-data value -9999, got %g", meta.NoDataValue)
	}
}

// TestReadBand verifies that the streamed band matches extracting the same
// band from the full cube
func TestReadBand(t *testing.T) {
	f := testFile()

	streamed, err := f.ReadBand(0)
	if err != nil {
		t.Fatalf("ReadBand failed: %v", err)
	}

	cube, meta, err := f.ReadCube()
	if err != nil {
		t.Fatalf("ReadCube failed: %v", err)
	}
	extracted, err := hsi.ExtractBand(cube, 0, meta.NoDataValue, meta.ScaleFactor)
	if err != nil {
		t.Fatalf("ExtractBand failed: %v", err)
	}

	if streamed.Rows != extracted.Rows || streamed.Cols != extracted.Cols {
		t.Fatalf("shape mismatch: %dx%d vs %dx%d", streamed.Rows, streamed.Cols, extracted.Rows, extracted.Cols)
	}
	for i := range streamed.Data {
		a, b := streamed.Data[i], extracted.Data[i]
		if math.IsNaN(a) != math.IsNaN(b) || (!math.IsNaN(a) && a != b) {
			t.Fatalf("index %d: streamed %g vs extracted %g", i, a, b)
		}
	}
	if !math.IsNaN(streamed.At(1, 2)) {
		t.Error("expected the sentinel sample to stream as NaN")
	}
}

// TestReadBandOutOfRange verifies the band bounds check on the streamed
// path
func TestReadBandOutOfRange(t *testing.T) {
	f := testFile()

	if _, err := f.ReadBand(2); !errors.Is(err, hsi.ErrBandOutOfRange) {
		t.Errorf("expected ErrBandOutOfRange, got %v", err)
	}
}

// TestMetaMissingAttribute verifies that an absent calibration attribute
// fails with ErrMissingAttribute
func TestMetaMissingAttribute(t *testing.T) {
	f := testFile()
	refl := f.refl.(*fakeGroup)
	vg := refl.getters[reflectanceData].(*fakeVarGetter)
	vg.attrs = newFakeAttrs(scaleFactorAttr, float64(10000))

	if _, err := f.Meta(); !errors.Is(err, ErrMissingAttribute) {
		t.Errorf("expected ErrMissingAttribute, got %v", err)
	}
}

// TestMetaAttributeEncodings verifies the scalar and single-element slice
// encodings HDF5 attributes arrive in
func TestMetaAttributeEncodings(t *testing.T) {
	f := testFile()
	refl := f.refl.(*fakeGroup)
	vg := refl.getters[reflectanceData].(*fakeVarGetter)
	vg.attrs = newFakeAttrs(scaleFactorAttr, []float64{10000}, noDataAttr, int32(-9999))

	meta, err := f.Meta()
	if err != nil {
		t.Fatalf("Meta failed: %v", err)
	}
	if meta.ScaleFactor != 10000 || meta.NoDataValue != -9999 {
		t.Errorf("unexpected meta: %+v", meta)
	}
}

// TestReadMapInfo verifies the parsed georeference record
func TestReadMapInfo(t *testing.T) {
	f := testFile()

	mi, err := f.ReadMapInfo()
	if err != nil {
		t.Fatalf("ReadMapInfo failed: %v", err)
	}
	if mi.OriginX != 368000 || mi.OriginY != 4307000 || mi.Zone != 18 {
		t.Errorf("unexpected map info: %+v", mi)
	}
}

// TestReadMapInfoMalformed verifies that a malformed string propagates
// ErrMalformedMapInfo
func TestReadMapInfoMalformed(t *testing.T) {
	f := testFile()
	refl := f.refl.(*fakeGroup)
	cs := refl.subs[metadataGroup].subs[coordSystemGroup]
	cs.vars[mapInfoDataset] = &api.Variable{Values: "UTM,1.000,1.000,368000.000"}

	if _, err := f.ReadMapInfo(); !errors.Is(err, georef.ErrMalformedMapInfo) {
		t.Errorf("expected ErrMalformedMapInfo, got %v", err)
	}
}

// TestReadMapInfoMissing verifies that an absent dataset fails with
// ErrDatasetNotFound
func TestReadMapInfoMissing(t *testing.T) {
	f := testFile()
	refl := f.refl.(*fakeGroup)
	delete(refl.subs[metadataGroup].subs, coordSystemGroup)

	if _, err := f.ReadMapInfo(); !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("expected ErrDatasetNotFound, got %v", err)
	}
}

// TestReadWavelengths verifies the float32 wavelength dataset is widened
// to float64
func TestReadWavelengths(t *testing.T) {
	f := testFile()

	w, err := f.ReadWavelengths()
	if err != nil {
		t.Fatalf("ReadWavelengths failed: %v", err)
	}
	if len(w) != 2 {
		t.Fatalf("expected 2 wavelengths, got %d", len(w))
	}
	if w.Min() > w.Max() {
		t.Errorf("expected min <= max, got %g > %g", w.Min(), w.Max())
	}
	if bw := w.BandWidth(0); bw < 5 || bw > 5.02 {
		t.Errorf("expected ~5nm band width, got %g", bw)
	}
}

// TestWalk verifies that every dataset is visited with its full path
func TestWalk(t *testing.T) {
	f := testFile()

	visited := map[string]DatasetInfo{}
	if err := f.Walk(func(d DatasetInfo) {
		visited[d.Path] = d
	}); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{
		"SERC/Reflectance/Reflectance_Data",
		"SERC/Reflectance/Metadata/Coordinate_System/Map_Info",
		"SERC/Reflectance/Metadata/Spectral_Data/Wavelength",
	}
	for _, path := range want {
		if _, has := visited[path]; !has {
			t.Errorf("expected dataset %s to be visited, got %v", path, visited)
		}
	}

	data := visited["SERC/Reflectance/Reflectance_Data"]
	if data.Type != "short" {
		t.Errorf("expected CDL type short, got %q", data.Type)
	}
	if data.Len != 3 {
		t.Errorf("expected outer length 3, got %d", data.Len)
	}
}

// TestOpenMissingFile verifies that opening a nonexistent path fails
func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/tile.h5"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
