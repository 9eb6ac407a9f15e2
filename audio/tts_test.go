package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dantunmibi/ytgardening/types"
)

func TestEstimateDuration(t *testing.T) {
	assert.InDelta(t, 60.0, estimateDuration(repeatWords(145), 145), 0.001)
	assert.Zero(t, estimateDuration("", 145))
	assert.Zero(t, estimateDuration("hello there", 0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 15.0, clamp(3.0, 15, 75))
	assert.Equal(t, 75.0, clamp(120.0, 15, 75))
	assert.Equal(t, 42.0, clamp(42.0, 15, 75))
}

func TestSectionFileName(t *testing.T) {
	assert.Equal(t, "hook.mp3", sectionFileName(types.SectionHook, 0))
	assert.Equal(t, "bullet_0.mp3", sectionFileName(types.SectionBullet, 0))
	assert.Equal(t, "bullet_2.mp3", sectionFileName(types.SectionBullet, 2))
	assert.Equal(t, "cta.mp3", sectionFileName(types.SectionCTA, 4))
}

func TestFullText(t *testing.T) {
	s := &types.Script{
		Hook:    "Stop killing your basil",
		Bullets: []string{"Pinch weekly", "", "Water at the base"},
		CTA:     "Follow for more",
	}
	got := fullText(s)
	assert.Equal(t, "Stop killing your basil Pinch weekly Water at the base Follow for more", got)
}

func repeatWords(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += "word "
	}
	return out
}
