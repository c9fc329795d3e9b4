package imageprep

import (
	"image"
	"image/color"
	"strings"
)

// Filter bakes an event look into a photo. Implementations must not mutate src.
type Filter interface {
	Apply(src image.Image) image.Image
}

type identity struct{}

func (identity) Apply(src image.Image) image.Image { return src }

// Tone is a per-pixel brightness, contrast, saturation and sepia adjustment.
type Tone struct {
	Brightness float64
	Contrast   float64
	Saturation float64
	Sepia      float64
}

var tones = map[string]Tone{
	"luxury":    {Brightness: 1.08, Contrast: 1.1, Saturation: 1.15, Sepia: 0.08},
	"night":     {Brightness: 1.15, Contrast: 1.3, Saturation: 1.4},
	"pastel":    {Brightness: 1.15, Contrast: 0.85, Saturation: 0.7, Sepia: 0.1},
	"film":      {Brightness: 1.0, Contrast: 1.05, Saturation: 0.9, Sepia: 0.2},
	"editorial": {Brightness: 1.02, Contrast: 1.35, Saturation: 0.85},
	"romance":   {Brightness: 1.1, Contrast: 0.9, Saturation: 1.1, Sepia: 0.12},
	"royal":     {Brightness: 1.05, Contrast: 1.25, Saturation: 1.2, Sepia: 0.08},
	"pure":      {Brightness: 1.12, Contrast: 1.05, Saturation: 0.95},
	"candle":    {Brightness: 1.08, Contrast: 0.92, Saturation: 1.1, Sepia: 0.15},
	"memory":    {Brightness: 1.05, Contrast: 0.85, Saturation: 0.85, Sepia: 0.18},
}

// FilterFor returns the filter for an event's filter key. Unknown keys bake nothing.
func FilterFor(key string) Filter {
	tone, ok := tones[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return identity{}
	}
	return tone
}

func (t Tone) Apply(src image.Image) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			dst.SetRGBA(x, y, t.pixel(float64(r>>8), float64(g>>8), float64(b>>8), uint8(a>>8)))
		}
	}
	return dst
}

func (t Tone) pixel(r, g, b float64, a uint8) color.RGBA {
	r, g, b = r*t.Brightness, g*t.Brightness, b*t.Brightness

	r = (r-128)*t.Contrast + 128
	g = (g-128)*t.Contrast + 128
	b = (b-128)*t.Contrast + 128

	gray := 0.2126*r + 0.7152*g + 0.0722*b
	r = gray + (r-gray)*t.Saturation
	g = gray + (g-gray)*t.Saturation
	b = gray + (b-gray)*t.Saturation

	if t.Sepia > 0 {
		sr := 0.393*r + 0.769*g + 0.189*b
		sg := 0.349*r + 0.686*g + 0.168*b
		sb := 0.272*r + 0.534*g + 0.131*b
		r = r + (sr-r)*t.Sepia
		g = g + (sg-g)*t.Sepia
		b = b + (sb-b)*t.Sepia
	}
	return color.RGBA{R: clamp(r), G: clamp(g), B: clamp(b), A: a}
}

func clamp(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
