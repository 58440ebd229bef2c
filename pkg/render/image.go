// Package render turns cleaned band slices into images and figures:
// grayscale and colormapped rasters, extent-placed band figures,
// histograms, and contrast-enhanced variants.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"neonrefl/internal/models"
	"neonrefl/pkg/hsi"
)

// ImageOptions controls how a band slice is rendered.
type ImageOptions struct {
	// Colormap selects the palette: "gray" (default) or "earth"
	Colormap string

	// ClimMin and ClimMax are the color limits; values outside the range
	// saturate. Only honored when UseClim is set, otherwise the full data
	// range is used.
	ClimMin, ClimMax float64
	UseClim          bool
}

// Image renders a band slice. Missing samples render white in grayscale
// and transparent in colormapped output.
func Image(s *models.BandSlice, opts ImageOptions) (image.Image, error) {
	lo, hi := opts.ClimMin, opts.ClimMax
	if !opts.UseClim {
		var ok bool
		lo, hi, ok = hsi.Range(s)
		if !ok {
			// All samples missing; render as a blank tile.
			lo, hi = 0, 1
		}
	}
	if hi <= lo {
		hi = lo + 1
	}

	switch opts.Colormap {
	case "", "gray":
		return grayImage(s, lo, hi), nil
	case "earth":
		return gradientImage(s, lo, hi, earthGradient), nil
	default:
		return nil, fmt.Errorf("unknown colormap %q", opts.Colormap)
	}
}

func grayImage(s *models.BandSlice, lo, hi float64) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, s.Cols, s.Rows))
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			v := s.At(r, c)
			if math.IsNaN(v) {
				img.SetGray16(c, r, color.Gray16{Y: 65535})
				continue
			}
			t := (v - lo) / (hi - lo)
			y := uint16(math.Max(0, math.Min(65535, t*65535)))
			img.SetGray16(c, r, color.Gray16{Y: y})
		}
	}
	return img
}

func gradientImage(s *models.BandSlice, lo, hi float64, grad []gradientPoint) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Cols, s.Rows))
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			v := s.At(r, c)
			if math.IsNaN(v) {
				img.SetNRGBA(c, r, color.NRGBA{})
				continue
			}
			t := (v - lo) / (hi - lo)
			img.SetNRGBA(c, r, gradientColor(grad, t))
		}
	}
	return img
}

// SavePNG writes an image to a PNG file.
func SavePNG(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// gradientPoint anchors a color at a normalized position in [0,1].
type gradientPoint struct {
	Pos   float64
	Color color.NRGBA
}

// earthGradient approximates an earth-tone palette: deep blue through
// green and tan to white.
var earthGradient = []gradientPoint{
	{0.00, color.NRGBA{0, 0, 46, 255}},
	{0.20, color.NRGBA{24, 84, 112, 255}},
	{0.45, color.NRGBA{54, 124, 79, 255}},
	{0.70, color.NRGBA{146, 148, 86, 255}},
	{0.90, color.NRGBA{201, 176, 149, 255}},
	{1.00, color.NRGBA{253, 250, 250, 255}},
}

// gradientColor interpolates the gradient at position t, clamping to the
// endpoints.
func gradientColor(grad []gradientPoint, t float64) color.NRGBA {
	if t <= grad[0].Pos {
		return grad[0].Color
	}
	if t >= grad[len(grad)-1].Pos {
		return grad[len(grad)-1].Color
	}

	idx := 0
	for i := 0; i < len(grad)-1; i++ {
		if t >= grad[i].Pos {
			idx = i
		}
	}

	p1, p2 := grad[idx], grad[idx+1]
	f := (t - p1.Pos) / (p2.Pos - p1.Pos)
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + f*(float64(b)-float64(a)))
	}
	return color.NRGBA{
		R: lerp(p1.Color.R, p2.Color.R),
		G: lerp(p1.Color.G, p2.Color.G),
		B: lerp(p1.Color.B, p2.Color.B),
		A: 255,
	}
}
