package visuals

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteGradient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grad.png")
	top := color.RGBA{34, 102, 51, 255}
	bottom := color.RGBA{10, 31, 15, 255}

	require.NoError(t, WriteGradient(path, 108, 192, top, bottom))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 108, img.Bounds().Dx())
	assert.Equal(t, 192, img.Bounds().Dy())

	// Top row matches the top color, bottom row the bottom color.
	r, g, b, _ := img.At(50, 0).RGBA()
	assert.Equal(t, uint32(top.R), r>>8)
	assert.Equal(t, uint32(top.G), g>>8)
	assert.Equal(t, uint32(top.B), b>>8)

	r, g, b, _ = img.At(50, 191).RGBA()
	assert.Equal(t, uint32(bottom.R), r>>8)
	assert.Equal(t, uint32(bottom.G), g>>8)
	assert.Equal(t, uint32(bottom.B), b>>8)
}

func TestGradientPaletteCycles(t *testing.T) {
	assert.Equal(t, gradientTop(0), gradientTop(len(gradientPalette)))
	assert.NotEqual(t, gradientTop(0), gradientTop(1))
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt("Pinch your basil weekly", "gardening")
	assert.Contains(t, p, "Pinch your basil weekly")
	assert.Contains(t, p, "gardening")
	assert.Contains(t, p, "no text")
}
