// command neonrefl downloads and visualizes NEON AOP hyperspectral surface
// reflectance tiles stored in HDF5 format.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"neonrefl/internal/models"
	"neonrefl/pkg/config"
	"neonrefl/pkg/download"
	"neonrefl/pkg/georef"
	"neonrefl/pkg/reflh5"
	"neonrefl/pkg/render"
)

var (
	cfg *config.Config

	configPath string
	outDir     string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "neonrefl",
		Short:         "Explore NEON AOP hyperspectral reflectance tiles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logrus.SetFormatter(&logrus.TextFormatter{
				ForceColors:     true,
				FullTimestamp:   true,
				TimestampFormat: time.RFC3339,
			})

			var err error
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("out") {
				cfg.Output.Dir = outDir
			}
			if verbose || cfg.Output.Verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "neonrefl.yaml", "path to the configuration file")
	root.PersistentFlags().StringVar(&outDir, "out", "out", "directory for rendered output")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(downloadCmd(), infoCmd(), bandCmd(), histCmd(), stretchCmd(), equalizeCmd())

	if err := root.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func downloadCmd() *cobra.Command {
	var url, dir string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a reflectance tile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("url") {
				url = cfg.Data.TileURL
			}
			if !cmd.Flags().Changed("dir") {
				dir = cfg.Data.Dir
			}
			path, err := download.Fetch(cmd.Context(), url, dir)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", download.DefaultTileURL, "tile URL")
	cmd.Flags().StringVar(&dir, "dir", "data", "download directory")
	return cmd
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "List the datasets in a tile and summarize its spectral range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := reflh5.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			fmt.Printf("site: %s\n\ndatasets:\n", f.Site)
			if err := f.Walk(func(d reflh5.DatasetInfo) {
				fmt.Printf("  %s  %s%v\n", d.Path, d.Type, d.Dimensions)
			}); err != nil {
				return err
			}

			w, err := f.ReadWavelengths()
			if err != nil {
				return err
			}
			fmt.Printf("\nbands: %d\n", len(w))
			fmt.Printf("wavelength range: %.2f - %.2f nm\n", w.Min(), w.Max())
			fmt.Printf("band width between first two bands: %.2f nm\n", w.BandWidth(0))
			fmt.Printf("band width between last two bands: %.2f nm\n", w.BandWidth(len(w)-2))

			mi, err := f.ReadMapInfo()
			if err != nil {
				return err
			}
			fmt.Printf("projection: %s zone %d%s (%s)\n", mi.Projection, mi.Zone, mi.Hemisphere, mi.Datum)
			fmt.Printf("origin: (%.1f, %.1f), resolution: (%g, %g)\n", mi.OriginX, mi.OriginY, mi.ResX, mi.ResY)
			return nil
		},
	}
}

// loadBand opens a tile and reads one cleaned band plus its extent.
func loadBand(path string, band int) (*models.BandSlice, models.Extent, error) {
	f, err := reflh5.Open(path)
	if err != nil {
		return nil, models.Extent{}, err
	}
	defer f.Close()

	logrus.WithFields(logrus.Fields{"site": f.Site, "band": band}).Debug("reading band")

	slice, err := f.ReadBand(band)
	if err != nil {
		return nil, models.Extent{}, err
	}

	mi, err := f.ReadMapInfo()
	if err != nil {
		return nil, models.Extent{}, err
	}
	ext, err := georef.Extent(mi, slice.Rows, slice.Cols)
	if err != nil {
		return nil, models.Extent{}, err
	}

	return slice, ext, nil
}

// bandOpts holds the flags shared by the band-reading commands.
type bandOpts struct {
	band    int
	cmap    string
	climMin float64
	climMax float64
}

func (o *bandOpts) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.band, "band", "b", 55, "zero-based band index")
	cmd.Flags().StringVar(&o.cmap, "cmap", "", "colormap: gray or earth")
	cmd.Flags().Float64Var(&o.climMin, "clim-min", 0, "lower color limit")
	cmd.Flags().Float64Var(&o.climMax, "clim-max", 0, "upper color limit")
}

// resolve merges command-line flags with config defaults.
func (o *bandOpts) resolve(cmd *cobra.Command) (int, render.ImageOptions) {
	band := o.band
	if !cmd.Flags().Changed("band") {
		band = cfg.Extract.Band
	}
	opts := render.ImageOptions{
		Colormap: o.cmap,
		ClimMin:  o.climMin,
		ClimMax:  o.climMax,
		UseClim:  cmd.Flags().Changed("clim-min") || cmd.Flags().Changed("clim-max"),
	}
	if opts.Colormap == "" {
		opts.Colormap = cfg.Render.Colormap
	}
	if !opts.UseClim && cfg.Render.UseClim {
		opts.ClimMin, opts.ClimMax, opts.UseClim = cfg.Render.ClimMin, cfg.Render.ClimMax, true
	}
	return band, opts
}

func outPath(name string) (string, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return filepath.Join(cfg.Output.Dir, name), nil
}

func bandCmd() *cobra.Command {
	var o bandOpts
	cmd := &cobra.Command{
		Use:   "band FILE",
		Short: "Extract a band and render it as an image and a georeferenced figure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			band, opts := o.resolve(cmd)
			slice, ext, err := loadBand(args[0], band)
			if err != nil {
				return err
			}

			img, err := render.Image(slice, opts)
			if err != nil {
				return err
			}
			pngPath, err := outPath(fmt.Sprintf("band_%03d.png", band))
			if err != nil {
				return err
			}
			if err := render.SavePNG(img, pngPath); err != nil {
				return err
			}
			logrus.WithField("path", pngPath).Info("saved band image")

			figPath, err := outPath(fmt.Sprintf("band_%03d_map.png", band))
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Band %d Reflectance", band+1)
			if err := render.BandFigure(slice, ext, opts, title, figPath); err != nil {
				return err
			}
			logrus.WithField("path", figPath).Info("saved band figure")
			return nil
		},
	}
	o.register(cmd)
	return cmd
}

func histCmd() *cobra.Command {
	var o bandOpts
	var bins int
	cmd := &cobra.Command{
		Use:   "hist FILE",
		Short: "Plot a histogram of a band's reflectance values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			band, _ := o.resolve(cmd)
			if !cmd.Flags().Changed("bins") {
				bins = cfg.Render.HistogramBins
			}
			slice, _, err := loadBand(args[0], band)
			if err != nil {
				return err
			}

			path, err := outPath(fmt.Sprintf("band_%03d_hist.png", band))
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Band %d Reflectance Distribution", band+1)
			if err := render.HistogramPlot(slice, bins, title, path); err != nil {
				return err
			}
			logrus.WithField("path", path).Info("saved histogram")
			return nil
		},
	}
	o.register(cmd)
	cmd.Flags().IntVar(&bins, "bins", 50, "number of histogram bins")
	return cmd
}

func stretchCmd() *cobra.Command {
	var o bandOpts
	var percent float64
	cmd := &cobra.Command{
		Use:   "stretch FILE",
		Short: "Render a band with a linear percentile contrast stretch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			band, opts := o.resolve(cmd)
			if !cmd.Flags().Changed("percent") {
				percent = cfg.Render.StretchPercent
			}
			slice, ext, err := loadBand(args[0], band)
			if err != nil {
				return err
			}

			stretched, lo, hi, err := render.LinearStretch(slice, percent)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{"low": lo, "high": hi}).Debug("stretch cutoffs")

			// The stretch already maps to [0,1]; color limits no longer apply.
			opts.UseClim = false

			path, err := outPath(fmt.Sprintf("band_%03d_stretch.png", band))
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Band %d, Linear %g%% Contrast Stretch", band+1, percent)
			if err := render.BandFigure(stretched, ext, opts, title, path); err != nil {
				return err
			}
			logrus.WithField("path", path).Info("saved stretched figure")
			return nil
		},
	}
	o.register(cmd)
	cmd.Flags().Float64VarP(&percent, "percent", "p", 2, "percentile cutoff")
	return cmd
}

func equalizeCmd() *cobra.Command {
	var o bandOpts
	var bins int
	cmd := &cobra.Command{
		Use:   "equalize FILE",
		Short: "Render a band with histogram equalization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			band, opts := o.resolve(cmd)
			slice, ext, err := loadBand(args[0], band)
			if err != nil {
				return err
			}

			equalized, err := render.EqualizeHist(slice, bins)
			if err != nil {
				return err
			}
			opts.UseClim = false

			path, err := outPath(fmt.Sprintf("band_%03d_eq.png", band))
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Band %d, Histogram Equalized", band+1)
			if err := render.BandFigure(equalized, ext, opts, title, path); err != nil {
				return err
			}
			logrus.WithField("path", path).Info("saved equalized figure")
			return nil
		},
	}
	o.register(cmd)
	cmd.Flags().IntVar(&bins, "bins", 256, "number of equalization bins")
	return cmd
}
