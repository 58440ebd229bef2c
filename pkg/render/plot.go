package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"neonrefl/internal/models"
	"neonrefl/pkg/hsi"
)

// HistogramPlot saves a histogram of the non-missing values of a band
// slice.
func HistogramPlot(s *models.BandSlice, bins int, title, filename string) error {
	valid := hsi.Valid(s)
	if len(valid) == 0 {
		return fmt.Errorf("no valid samples to plot")
	}

	h, err := plotter.NewHist(plotter.Values(valid), bins)
	if err != nil {
		return fmt.Errorf("building histogram: %w", err)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Reflectance"
	p.Y.Label.Text = "Count"
	p.Add(h)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("saving histogram: %w", err)
	}
	return nil
}

// BandFigure saves a figure with the rendered band placed at its spatial
// extent, with axes labeled in projected coordinates.
func BandFigure(s *models.BandSlice, ext models.Extent, opts ImageOptions, title, filename string) error {
	img, err := Image(s, opts)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Easting (m)"
	p.Y.Label.Text = "Northing (m)"
	p.Add(plotter.NewImage(img, ext.XMin, ext.YMin, ext.XMax, ext.YMax))

	if err := p.Save(6*vg.Inch, 6*vg.Inch, filename); err != nil {
		return fmt.Errorf("saving band figure: %w", err)
	}
	return nil
}
