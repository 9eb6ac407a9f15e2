package timeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dantunmibi/ytgardening/types"
)

func sections(hook string, bullets []string, cta string) []types.Section {
	s := &types.Script{Hook: hook, Bullets: bullets, CTA: cta}
	return s.Narration()
}

func TestAllocateSumsToAudioDuration(t *testing.T) {
	secs := sections(
		"Your pothos is begging you to do this",
		[]string{
			"Snip below a node and drop the cutting straight into water",
			"Swap the water every three days so roots get fresh oxygen",
			"Pot it up the moment roots hit two inches",
		},
		"Follow for one garden win every single day",
	)
	durs, err := Allocate(60.0, secs, nil)
	require.NoError(t, err)
	require.Len(t, durs, 5)

	sum := 0.0
	for _, d := range durs {
		assert.GreaterOrEqual(t, d, MinScene)
		sum += d
	}
	assert.InDelta(t, 60.0, sum, 0.02)
	assert.InDelta(t, 0.0, Drift(durs, 60.0), 0.02)
}

func TestAllocateLongerSectionsGetMoreTime(t *testing.T) {
	secs := sections("Quick hook", []string{
		"short tip",
		strings.Repeat("a much longer bullet with many more words ", 4),
		"short tip",
	}, "Subscribe")
	durs, err := Allocate(45.0, secs, nil)
	require.NoError(t, err)
	assert.Greater(t, durs[2], durs[1])
	assert.Greater(t, durs[2], durs[3])
}

func TestAllocateMeasuredDurationsUsedDirectly(t *testing.T) {
	secs := sections("hook", []string{"one", "two"}, "cta")
	measured := []float64{3.5, 7.25, 6.0, 2.75}
	durs, err := Allocate(19.5, secs, measured)
	require.NoError(t, err)
	assert.Equal(t, measured, durs)
}

func TestAllocateEmptyBulletKeepsFloorDuration(t *testing.T) {
	secs := sections("Three hacks your basil needs", []string{
		"Pinch the top growth weekly so the plant bushes out",
		"",
		"Water at the base in the morning, never on the leaves",
	}, "Save this for your next repot")
	durs, err := Allocate(40.0, secs, nil)
	require.NoError(t, err)
	require.Len(t, durs, 5)

	// The blank bullet estimates to zero words and lands exactly on
	// the floor, so its placeholder scene still gets screen time.
	assert.Equal(t, MinScene, durs[2])
	sum := 0.0
	for _, d := range durs {
		sum += d
	}
	assert.InDelta(t, 40.0, sum, 0.02)
}

func TestAllocateNoWordsSplitsEqually(t *testing.T) {
	secs := []types.Section{
		{Kind: types.SectionBullet, Text: ""},
		{Kind: types.SectionBullet, Text: ""},
		{Kind: types.SectionBullet, Text: ""},
	}
	durs, err := Allocate(30.0, secs, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 10}, durs)
}

func TestAllocateRejectsBadInput(t *testing.T) {
	_, err := Allocate(30.0, nil, nil)
	assert.Error(t, err)

	_, err = Allocate(0, sections("h", []string{"b"}, "c"), nil)
	assert.Error(t, err)

	_, err = Allocate(-5, sections("h", []string{"b"}, "c"), nil)
	assert.Error(t, err)
}

func TestStarts(t *testing.T) {
	starts := Starts([]float64{2.0, 3.5, 1.5})
	assert.Equal(t, []float64{0, 2.0, 5.5}, starts)
}

func TestEstimateSpeech(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 140))
	assert.InDelta(t, 60.0, EstimateSpeech(text, 140), 0.001)
	assert.Zero(t, EstimateSpeech("", 140))
	assert.Zero(t, EstimateSpeech("some words", 0))
}
