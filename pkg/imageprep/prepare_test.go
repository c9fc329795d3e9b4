package imageprep

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestPrepareShrinksLongEdge(t *testing.T) {
	raw := encodePNG(t, 3840, 960, color.RGBA{R: 90, G: 120, B: 150, A: 255})

	out, err := Prepare(bytes.NewReader(raw), FilterFor("warm"))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	if cfg.Width != MaxEdge || cfg.Height != 480 {
		t.Fatalf("unexpected size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestPrepareKeepsSmallImages(t *testing.T) {
	raw := encodePNG(t, 64, 48, color.White)

	out, err := Prepare(bytes.NewReader(raw), nil)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Fatalf("unexpected size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestPrepareRejectsUnknownFormats(t *testing.T) {
	_, err := Prepare(bytes.NewReader([]byte("RIFF....WEBPVP8 ")), nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestFilterForUnknownKeyBakesNothing(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if FilterFor("warm").Apply(src) != image.Image(src) {
		t.Fatal("unknown filter must return the source image")
	}
	if _, ok := FilterFor(" Romance ").(Tone); !ok {
		t.Fatal("expected romance tone")
	}
}

func TestToneAdjustsPixels(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	out := FilterFor("night").Apply(src)
	r, _, _, a := out.At(0, 0).RGBA()
	if r>>8 <= 100 || a>>8 != 255 {
		t.Fatalf("expected brighter pixel with alpha kept, got r=%d a=%d", r>>8, a>>8)
	}
	if got := src.RGBAAt(0, 0); got.R != 100 {
		t.Fatalf("source mutated: %+v", got)
	}
}
