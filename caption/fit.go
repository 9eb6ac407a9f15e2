// Package caption wraps and sizes on-screen text so it always lands
// inside the 9:16 safe zone. Measurement uses real font metrics when a
// TTF is available and a character-width heuristic when it is not, so
// the fitter never fails outright.
package caption

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// Defaults for a 1080x1920 canvas with a 130px safe margin.
const (
	DefaultMaxWidth   = 820
	DefaultMaxHeight  = 480 // 25% of canvas height
	DefaultStartSize  = 64
	DefaultMinSize    = 32
	DefaultStep       = 4
	DefaultIterations = 10

	// heuristicCharWidth approximates the average glyph advance as a
	// fraction of the font size when no font file can be loaded.
	heuristicCharWidth = 0.55
)

// Options controls a fit. Zero values take the defaults above.
type Options struct {
	FontPath   string
	MaxWidth   int
	MaxHeight  int
	StartSize  int
	MinSize    int
	Step       int
	Iterations int
}

func (o *Options) applyDefaults() {
	if o.MaxWidth == 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight == 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.StartSize == 0 {
		o.StartSize = DefaultStartSize
	}
	if o.MinSize == 0 {
		o.MinSize = DefaultMinSize
	}
	if o.Step == 0 {
		o.Step = DefaultStep
	}
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
}

// Layout is the result of a fit: the wrapped lines and the size they
// were measured at.
type Layout struct {
	Lines      []string
	FontSize   int
	LineHeight int
	Width      int
	Height     int
	Fits       bool
	Heuristic  bool
}

// Text joins the wrapped lines back into a drawtext-ready block.
func (l Layout) Text() string {
	return strings.Join(l.Lines, "\n")
}

// Fit shrinks the font size from StartSize down in Step decrements
// until the wrapped text fits both the width and height budget, or
// MinSize / the iteration cap is reached. Words are never split.
func Fit(text string, opts Options) (Layout, error) {
	opts.applyDefaults()
	text = strings.TrimSpace(text)
	if text == "" {
		return Layout{}, fmt.Errorf("empty caption text")
	}

	m := newMeasurer(opts.FontPath)

	var last Layout
	size := opts.StartSize
	for i := 0; i < opts.Iterations; i++ {
		last = layoutAt(text, size, m, opts)
		if last.Fits || size <= opts.MinSize {
			return last, nil
		}
		size -= opts.Step
		if size < opts.MinSize {
			size = opts.MinSize
		}
	}
	return last, nil
}

func layoutAt(text string, size int, m measurer, opts Options) Layout {
	lines := wrap(text, size, m, opts.MaxWidth)
	widest := 0
	for _, ln := range lines {
		if w := m.width(ln, size); w > widest {
			widest = w
		}
	}
	lh := m.lineHeight(size)
	h := lh * len(lines)
	return Layout{
		Lines:      lines,
		FontSize:   size,
		LineHeight: lh,
		Width:      widest,
		Height:     h,
		Fits:       widest <= opts.MaxWidth && h <= opts.MaxHeight,
		Heuristic:  m.heuristic(),
	}
}

// wrap greedily packs whole words into lines of at most maxWidth
// pixels. A single word wider than the budget gets its own line and
// the size search handles the overflow.
func wrap(text string, size int, m measurer, maxWidth int) []string {
	words := strings.Fields(text)
	var lines []string
	var cur string
	for _, w := range words {
		candidate := w
		if cur != "" {
			candidate = cur + " " + w
		}
		if m.width(candidate, size) <= maxWidth || cur == "" {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

type measurer interface {
	width(s string, size int) int
	lineHeight(size int) int
	heuristic() bool
}

func newMeasurer(fontPath string) measurer {
	if fontPath != "" {
		if f, err := LoadFont(fontPath); err == nil {
			return &fontMeasurer{font: f, faces: map[int]font.Face{}}
		}
	}
	return heuristicMeasurer{}
}

// LoadFont parses a TTF/OTF file.
func LoadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// NewFace builds a rendering face at the given pixel size.
func NewFace(f *opentype.Font, size int) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

type fontMeasurer struct {
	font  *opentype.Font
	faces map[int]font.Face
}

func (m *fontMeasurer) face(size int) (font.Face, error) {
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := NewFace(m.font, size)
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}

func (m *fontMeasurer) width(s string, size int) int {
	f, err := m.face(size)
	if err != nil {
		return heuristicMeasurer{}.width(s, size)
	}
	return font.MeasureString(f, s).Ceil()
}

func (m *fontMeasurer) lineHeight(size int) int {
	f, err := m.face(size)
	if err != nil {
		return heuristicMeasurer{}.lineHeight(size)
	}
	met := f.Metrics()
	return (met.Ascent + met.Descent).Ceil()
}

func (m *fontMeasurer) heuristic() bool { return false }

type heuristicMeasurer struct{}

func (heuristicMeasurer) width(s string, size int) int {
	return int(float64(len([]rune(s))) * heuristicCharWidth * float64(size))
}

func (heuristicMeasurer) lineHeight(size int) int {
	return int(float64(size) * 1.2)
}

func (heuristicMeasurer) heuristic() bool { return true }
