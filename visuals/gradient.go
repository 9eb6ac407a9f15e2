package visuals

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// gradient palettes cycle with the scene index so back-to-back
// fallback scenes still look distinct.
var gradientPalette = []struct {
	top, bottom color.RGBA
}{
	{color.RGBA{34, 102, 51, 255}, color.RGBA{10, 31, 15, 255}},   // forest
	{color.RGBA{64, 145, 108, 255}, color.RGBA{27, 67, 50, 255}},  // sage
	{color.RGBA{134, 168, 115, 255}, color.RGBA{54, 84, 45, 255}}, // moss
	{color.RGBA{183, 146, 104, 255}, color.RGBA{92, 64, 51, 255}}, // terracotta
}

func gradientTop(idx int) color.RGBA    { return gradientPalette[idx%len(gradientPalette)].top }
func gradientBottom(idx int) color.RGBA { return gradientPalette[idx%len(gradientPalette)].bottom }

// WriteGradient renders a vertical top-to-bottom gradient PNG. This
// is the terminal image fallback and cannot fail short of a full
// disk.
func WriteGradient(path string, w, h int, top, bottom color.RGBA) error {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		t := float64(y) / float64(h-1)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gradient file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode gradient: %w", err)
	}
	return nil
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
