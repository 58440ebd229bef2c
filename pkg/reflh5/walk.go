package reflh5

import (
	"fmt"
	"sort"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// group is the subset of api.Group the walker needs; tests substitute an
// in-memory hierarchy for it.
type group interface {
	ListVariables() []string
	GetVarGetter(name string) (api.VarGetter, error)
	ListSubgroups() []string
	GetGroup(name string) (api.Group, error)
	Close()
}

// DatasetInfo describes one dataset encountered while walking the file
// hierarchy.
type DatasetInfo struct {
	// Path is the full group path of the dataset, e.g.
	// "SERC/Reflectance/Reflectance_Data"
	Path string

	// Type is the element type of the dataset in CDL notation
	Type string

	// Dimensions are the named dimensions of the dataset
	Dimensions []string

	// Len is the length of the outermost dimension, or 1 for scalars
	Len int64
}

// Walk visits every dataset in the file in depth-first group order,
// calling fn for each. It is the equivalent of h5py's visititems and backs
// the info command's hierarchy listing.
func (f *File) Walk(fn func(DatasetInfo)) error {
	return walkGroup(f.root, "", fn)
}

func walkGroup(g group, prefix string, fn func(DatasetInfo)) error {
	vars := g.ListVariables()
	sort.Strings(vars)
	for _, name := range vars {
		vg, err := g.GetVarGetter(name)
		if err != nil {
			return fmt.Errorf("inspecting %s%s: %w", prefix, name, err)
		}
		fn(DatasetInfo{
			Path:       prefix + name,
			Type:       vg.Type(),
			Dimensions: vg.Dimensions(),
			Len:        vg.Len(),
		})
	}

	subs := g.ListSubgroups()
	sort.Strings(subs)
	for _, name := range subs {
		sub, err := g.GetGroup(name)
		if err != nil {
			return fmt.Errorf("opening group %s%s: %w", prefix, name, err)
		}
		err = walkGroup(sub, prefix+name+"/", fn)
		sub.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
