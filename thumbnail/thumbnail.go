// Package thumbnail renders the 720x1280 cover image: the scene
// background (or a gradient) with the hook text drawn over it in a
// heavy stroked style that survives YouTube's tiny preview sizes.
package thumbnail

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register decoder for downloaded backgrounds
	"image/png"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/dantunmibi/ytgardening/caption"
	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/types"
)

const (
	width  = 720
	height = 1280
	margin = 40

	startFontSize = 75
	minFontSize   = 35
	fontStep      = 3
	lineSpacing   = 18
	// text may cover at most 35% of the canvas height
	maxTextFrac = 0.35
)

// Generator renders thumbnails.
type Generator struct {
	cfg *config.Config
}

// New creates the thumbnail stage.
func New(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg}
}

// Run writes thumbnail.png. bgImage may be empty or unreadable, in
// which case a brand gradient is used. Text drawing requires a real
// font; without one the background ships bare rather than failing the
// run.
func (g *Generator) Run(script *types.Script, bgImage, outputDir string) (string, error) {
	log.Println("[thumbnail] Rendering thumbnail...")

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	g.drawBackground(canvas, bgImage)

	text := overlayText(script)
	fontPath := g.cfg.FontPath()
	if fontPath == "" {
		log.Println("[thumbnail] Warning: no usable font found, shipping text-free thumbnail")
	} else if err := g.drawText(canvas, text, fontPath); err != nil {
		log.Printf("[thumbnail] Warning: text draw failed (%v), shipping text-free thumbnail", err)
	}

	outFile := filepath.Join(outputDir, "thumbnail.png")
	f, err := os.Create(outFile)
	if err != nil {
		return "", fmt.Errorf("create thumbnail: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, canvas); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}

	log.Printf("[thumbnail] ✅ Thumbnail ready: %s", outFile)
	return outFile, nil
}

// overlayText picks the shorter of hook and title: thumbnails reward
// fewer, bigger words.
func overlayText(script *types.Script) string {
	if script.Hook != "" && (script.Title == "" || len(script.Hook) < len(script.Title)) {
		return script.Hook
	}
	return script.Title
}

func (g *Generator) drawBackground(canvas *image.RGBA, bgImage string) {
	if bgImage != "" {
		if src, err := loadImage(bgImage); err == nil {
			coverDraw(canvas, src)
			dimOverlay(canvas)
			return
		} else {
			log.Printf("[thumbnail] Background image unusable (%v), using gradient", err)
		}
	}
	top := color.RGBA{34, 102, 51, 255}
	bottom := color.RGBA{10, 31, 15, 255}
	for y := 0; y < height; y++ {
		t := float64(y) / float64(height-1)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		for x := 0; x < width; x++ {
			canvas.SetRGBA(x, y, c)
		}
	}
}

func (g *Generator) drawText(canvas *image.RGBA, text, fontPath string) error {
	if text == "" {
		return fmt.Errorf("no overlay text")
	}

	layout, err := caption.Fit(text, caption.Options{
		FontPath:   fontPath,
		MaxWidth:   width - 2*margin,
		MaxHeight:  int(maxTextFrac * height),
		StartSize:  startFontSize,
		MinSize:    minFontSize,
		Step:       fontStep,
		Iterations: (startFontSize-minFontSize)/fontStep + 2,
	})
	if err != nil {
		return err
	}

	fnt, err := caption.LoadFont(fontPath)
	if err != nil {
		return err
	}
	face, err := caption.NewFace(fnt, layout.FontSize)
	if err != nil {
		return err
	}

	lineH := layout.LineHeight + lineSpacing
	blockH := lineH * len(layout.Lines)
	y := (height-blockH)/2 + face.Metrics().Ascent.Ceil()

	for _, line := range layout.Lines {
		w := font.MeasureString(face, line).Ceil()
		x := (width - w) / 2
		drawStrokedLine(canvas, face, line, x, y)
		y += lineH
	}
	return nil
}

// drawStrokedLine draws a drop shadow, a thick dark stroke and the
// white fill, in that order.
func drawStrokedLine(dst *image.RGBA, face font.Face, line string, x, y int) {
	shadow := &font.Drawer{Dst: dst, Src: image.NewUniform(color.RGBA{0, 0, 0, 180}), Face: face}
	shadow.Dot = fixed.P(x+4, y+4)
	shadow.DrawString(line)

	stroke := &font.Drawer{Dst: dst, Src: image.NewUniform(color.Black), Face: face}
	for dx := -2; dx <= 2; dx += 2 {
		for dy := -2; dy <= 2; dy += 2 {
			if dx == 0 && dy == 0 {
				continue
			}
			stroke.Dot = fixed.P(x+dx, y+dy)
			stroke.DrawString(line)
		}
	}

	fill := &font.Drawer{Dst: dst, Src: image.NewUniform(color.White), Face: face}
	fill.Dot = fixed.P(x, y)
	fill.DrawString(line)
}

// coverDraw scales src to fill the canvas, cropping the overflow
// centered.
func coverDraw(dst *image.RGBA, src image.Image) {
	sb := src.Bounds()
	scale := max(
		float64(width)/float64(sb.Dx()),
		float64(height)/float64(sb.Dy()),
	)
	sw := int(float64(sb.Dx()) * scale)
	sh := int(float64(sb.Dy()) * scale)
	offX := (sw - width) / 2
	offY := (sh - height) / 2

	scaled := image.NewRGBA(image.Rect(0, 0, sw, sh))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, sb, draw.Over, nil)
	draw.Draw(dst, dst.Bounds(), scaled, image.Pt(offX, offY), draw.Src)
}

// dimOverlay darkens the background so white text stays readable.
func dimOverlay(canvas *image.RGBA) {
	dark := image.NewUniform(color.RGBA{0, 0, 0, 90})
	draw.Draw(canvas, canvas.Bounds(), dark, image.Point{}, draw.Over)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
