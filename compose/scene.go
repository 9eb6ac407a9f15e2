// Package compose turns scripted sections into positioned scenes and
// renders them into the final 9:16 video with ffmpeg.
package compose

import (
	"fmt"
	"image/color"

	"github.com/dantunmibi/ytgardening/caption"
	"github.com/dantunmibi/ytgardening/types"
)

// Canvas and safe-zone geometry for vertical shorts.
const (
	CanvasWidth  = 1080
	CanvasHeight = 1920

	// SafeZoneMargin keeps text clear of platform UI chrome on all
	// four edges.
	SafeZoneMargin = 130

	topAnchorOffset  = 80  // extra clearance under the top margin
	bottomSafeExtra  = 180 // progress bar, captions toggle, etc.
	minDescenderPad  = 35
	descenderPadFrac = 0.6
)

// Fallback background colors used when no generated image exists.
var (
	hookColor        = color.RGBA{30, 144, 255, 255}
	ctaColor         = color.RGBA{255, 20, 147, 255}
	placeholderColor = color.RGBA{50, 50, 50, 255}
	bulletColors     = []color.RGBA{
		{255, 99, 71, 255},
		{50, 205, 50, 255},
		{255, 215, 0, 255},
	}
)

// Anchor places a caption vertically on the canvas.
type Anchor string

const (
	AnchorTop    Anchor = "top"
	AnchorCenter Anchor = "center"
	AnchorBottom Anchor = "bottom"
)

// SceneSpec is the input to BuildScene: one section of the script
// plus its slot on the timeline.
type SceneSpec struct {
	Kind      types.SectionKind
	Index     int // bullet position, drives the color cycle
	Text      string
	ImagePath string // background image; empty means solid color
	Start     float64
	Duration  float64
}

// Scene is a fully positioned scene ready for rendering. Building it
// is pure: the same spec always yields the same scene.
type Scene struct {
	Spec    SceneSpec
	Color   color.RGBA // background fill when no image
	Caption caption.Layout
	TextY   int
	HasText bool
}

// Compositor builds and renders scenes.
type Compositor struct {
	fontPath  string
	fps       int
	crossFade float64
}

// New returns a Compositor. fontPath may be empty, in which case
// caption measurement falls back to the width heuristic and ffmpeg
// uses its default font.
func New(fontPath string, fps int, crossFade float64) *Compositor {
	if fps <= 0 {
		fps = 30
	}
	if crossFade <= 0 {
		crossFade = 0.3
	}
	return &Compositor{fontPath: fontPath, fps: fps, crossFade: crossFade}
}

// BuildScene fits the caption and anchors it inside the safe zone.
// An empty-text bullet becomes a plain placeholder scene with no
// caption layer.
func (c *Compositor) BuildScene(spec SceneSpec) (Scene, error) {
	if spec.Duration <= 0 {
		return Scene{}, fmt.Errorf("scene %s/%d has no duration", spec.Kind, spec.Index)
	}
	s := Scene{Spec: spec, Color: backgroundColor(spec)}
	if spec.Text == "" {
		return s, nil
	}

	layout, err := caption.Fit(spec.Text, caption.Options{FontPath: c.fontPath})
	if err != nil {
		return Scene{}, fmt.Errorf("fit caption for %s scene: %w", spec.Kind, err)
	}
	s.Caption = layout
	s.HasText = true
	s.TextY = anchorY(anchorFor(spec.Kind), layout)
	return s, nil
}

// BuildTimeline allocates scene specs from sections and durations and
// builds every scene.
func (c *Compositor) BuildTimeline(sections []types.Section, durs []float64, images map[int]string) ([]Scene, error) {
	if len(sections) != len(durs) {
		return nil, fmt.Errorf("sections/durations mismatch: %d vs %d", len(sections), len(durs))
	}
	scenes := make([]Scene, 0, len(sections))
	start := 0.0
	bulletIdx := 0
	for i, sec := range sections {
		spec := SceneSpec{
			Kind:      sec.Kind,
			Text:      sec.Text,
			ImagePath: images[i],
			Start:     start,
			Duration:  durs[i],
		}
		if sec.Kind == types.SectionBullet {
			spec.Index = bulletIdx
			bulletIdx++
		}
		sc, err := c.BuildScene(spec)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, sc)
		start += durs[i]
	}
	return scenes, nil
}

func anchorFor(kind types.SectionKind) Anchor {
	switch kind {
	case types.SectionHook:
		return AnchorTop
	case types.SectionCTA:
		return AnchorBottom
	default:
		return AnchorCenter
	}
}

// anchorY resolves the caption's top edge, then clamps it so the full
// text block, descenders included, stays inside the safe zone.
func anchorY(a Anchor, l caption.Layout) int {
	topLimit := SafeZoneMargin + topAnchorOffset
	descPad := int(descenderPadFrac * float64(l.FontSize))
	if descPad < minDescenderPad {
		descPad = minDescenderPad
	}
	bottomLimit := CanvasHeight - (SafeZoneMargin + bottomSafeExtra) - descPad

	var y int
	switch a {
	case AnchorTop:
		y = topLimit
	case AnchorBottom:
		y = bottomLimit - l.Height
	default:
		y = (CanvasHeight - l.Height) / 2
	}

	if y+l.Height > bottomLimit {
		y = bottomLimit - l.Height
	}
	if y < topLimit {
		y = topLimit
	}
	return y
}

func backgroundColor(spec SceneSpec) color.RGBA {
	switch spec.Kind {
	case types.SectionHook:
		return hookColor
	case types.SectionCTA:
		return ctaColor
	default:
		if spec.Text == "" {
			return placeholderColor
		}
		return bulletColors[spec.Index%len(bulletColors)]
	}
}
