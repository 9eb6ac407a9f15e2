package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dantunmibi/ytgardening/types"
)

func newTestCompositor() *Compositor {
	// No font path: caption fitting uses the deterministic heuristic.
	return New("", 30, 0.3)
}

func TestBuildSceneIsDeterministic(t *testing.T) {
	c := newTestCompositor()
	spec := SceneSpec{
		Kind:     types.SectionHook,
		Text:     "Propagate Pothos In Seven Days",
		Duration: 4.5,
	}
	a, err := c.BuildScene(spec)
	require.NoError(t, err)
	b, err := c.BuildScene(spec)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildSceneAnchorsStayInSafeZone(t *testing.T) {
	c := newTestCompositor()
	topLimit := SafeZoneMargin + topAnchorOffset

	for _, kind := range []types.SectionKind{types.SectionHook, types.SectionBullet, types.SectionCTA} {
		sc, err := c.BuildScene(SceneSpec{
			Kind:     kind,
			Text:     "Mist your ferns every morning before the sun hits them",
			Duration: 5,
		})
		require.NoError(t, err)
		require.True(t, sc.HasText)

		assert.GreaterOrEqual(t, sc.TextY, topLimit, "kind %s", kind)
		bottom := sc.TextY + sc.Caption.Height
		assert.LessOrEqual(t, bottom, CanvasHeight-SafeZoneMargin-bottomSafeExtra, "kind %s", kind)
	}
}

func TestBuildSceneHookOnTopCTAOnBottom(t *testing.T) {
	c := newTestCompositor()
	hook, err := c.BuildScene(SceneSpec{Kind: types.SectionHook, Text: "Hook line", Duration: 3})
	require.NoError(t, err)
	cta, err := c.BuildScene(SceneSpec{Kind: types.SectionCTA, Text: "Follow for more", Duration: 3})
	require.NoError(t, err)

	assert.Less(t, hook.TextY, cta.TextY)
	assert.Equal(t, SafeZoneMargin+topAnchorOffset, hook.TextY)
}

func TestBuildSceneEmptyBulletIsPlaceholder(t *testing.T) {
	c := newTestCompositor()
	sc, err := c.BuildScene(SceneSpec{Kind: types.SectionBullet, Text: "", Index: 1, Duration: 1.0})
	require.NoError(t, err)

	assert.False(t, sc.HasText)
	assert.Empty(t, sc.Caption.Lines)
	assert.Equal(t, placeholderColor, sc.Color)
}

func TestBuildSceneBulletColorCycle(t *testing.T) {
	c := newTestCompositor()
	for i := 0; i < 6; i++ {
		sc, err := c.BuildScene(SceneSpec{Kind: types.SectionBullet, Text: "tip", Index: i, Duration: 2})
		require.NoError(t, err)
		assert.Equal(t, bulletColors[i%len(bulletColors)], sc.Color)
	}
}

func TestBuildSceneRejectsZeroDuration(t *testing.T) {
	c := newTestCompositor()
	_, err := c.BuildScene(SceneSpec{Kind: types.SectionHook, Text: "x", Duration: 0})
	assert.Error(t, err)
}

func TestBuildTimeline(t *testing.T) {
	c := newTestCompositor()
	script := &types.Script{
		Hook:    "Stop overwatering your succulents",
		Bullets: []string{"Let soil dry fully", "", "Use pots with drainage"},
		CTA:     "Save this tip",
	}
	sections := script.Narration()
	durs := []float64{4, 10, 1, 10, 5}

	scenes, err := c.BuildTimeline(sections, durs, map[int]string{1: "/tmp/img1.jpg"})
	require.NoError(t, err)
	require.Len(t, scenes, 5)

	assert.Equal(t, 0.0, scenes[0].Spec.Start)
	assert.Equal(t, 4.0, scenes[1].Spec.Start)
	assert.Equal(t, 14.0, scenes[2].Spec.Start)
	assert.Equal(t, "/tmp/img1.jpg", scenes[1].Spec.ImagePath)

	// Bullet indices drive the color cycle regardless of hook/cta.
	assert.Equal(t, 0, scenes[1].Spec.Index)
	assert.Equal(t, 1, scenes[2].Spec.Index)
	assert.Equal(t, 2, scenes[3].Spec.Index)

	_, err = c.BuildTimeline(sections, durs[:3], nil)
	assert.Error(t, err)
}
