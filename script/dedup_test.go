package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dantunmibi/ytgardening/types"
)

func TestContentHashIgnoresCaseAndSpacing(t *testing.T) {
	a := ContentHash("Water deeply", []string{"Tip  one", "tip two"}, "Follow us")
	b := ContentHash("water   deeply", []string{"tip one", "Tip Two"}, "follow US")
	assert.Equal(t, a, b)

	c := ContentHash("Water deeply", []string{"tip one", "tip three"}, "Follow us")
	assert.NotEqual(t, a, c)
}

func TestTitleSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, TitleSimilarity("Propagate Pothos Fast", "propagate pothos fast"))
	assert.Zero(t, TitleSimilarity("Pruning roses", "Composting basics"))

	sim := TitleSimilarity("How to propagate pothos in water", "Propagate pothos in soil")
	assert.Greater(t, sim, 0.3)
	assert.Less(t, sim, 1.0)

	assert.Zero(t, TitleSimilarity("", "anything"))
}

func TestIsDuplicateByContentHash(t *testing.T) {
	hash := ContentHash("hook", []string{"a", "b", "c"}, "cta")
	recent := []Record{{Title: "Totally Different Title", ContentHash: hash}}

	assert.True(t, IsDuplicate("Brand New Title", hash, recent, 0.6))
	assert.False(t, IsDuplicate("Brand New Title", "othersum", recent, 0.6))
}

func TestIsDuplicateByTitleSimilarity(t *testing.T) {
	recent := []Record{{Title: "Propagate Pothos In Water Fast", ContentHash: "x"}}

	assert.True(t, IsDuplicate("Propagate Pothos In Water Fast", "y", recent, 0.6))
	assert.False(t, IsDuplicate("Overwinter Dahlias Without A Greenhouse", "y", recent, 0.6))
}

func TestIsDuplicateOlderEntriesClearLowerBar(t *testing.T) {
	// "Grow Basil Fast Indoors" vs "Grow Basil" is 0.5 similar
	// (2 shared words / 4 in the union). Fresh, that is under the
	// 0.6 threshold; at idx 50 the bar decays to 0.6/(1+0.02*50)
	// = 0.3, so the same pair collides.
	assert.Equal(t, 0.5, TitleSimilarity("Grow Basil Fast Indoors", "Grow Basil"))

	fresh := []Record{{Title: "Grow Basil", ContentHash: "z"}}
	assert.False(t, IsDuplicate("Grow Basil Fast Indoors", "y", fresh, 0.6))

	old := make([]Record, 51)
	for i := range old {
		old[i] = Record{Title: "unrelated filler entry", ContentHash: "z"}
	}
	old[50] = Record{Title: "Grow Basil", ContentHash: "z"}
	assert.True(t, IsDuplicate("Grow Basil Fast Indoors", "y", old, 0.6))
}

func TestFillDerivedSynthesizesHashtagsAndPrompts(t *testing.T) {
	s := &types.Script{
		Hook:    "hook line",
		Bullets: []string{"one", "two", "three"},
		CTA:     "cta line",
		Tags:    []string{"Garden Tips", "plant care"},
	}
	fillDerived(s)

	assert.Equal(t, []string{"#shorts", "#gardentips", "#plantcare"}, s.Hashtags)
	// One prompt per section: hook + 3 bullets + cta.
	require.Len(t, s.VisualPrompts, 5)
	assert.Equal(t, "hook line", s.VisualPrompts[0])
	assert.Equal(t, "cta line", s.VisualPrompts[4])
}

func TestFillDerivedPadsShortPromptList(t *testing.T) {
	s := &types.Script{
		Hook:          "hook",
		Bullets:       []string{"a", "b", "c"},
		CTA:           "cta",
		Hashtags:      []string{"#keep"},
		VisualPrompts: []string{"custom hook prompt"},
	}
	fillDerived(s)

	assert.Equal(t, []string{"#keep"}, s.Hashtags)
	require.Len(t, s.VisualPrompts, 5)
	assert.Equal(t, "custom hook prompt", s.VisualPrompts[0])
	assert.Equal(t, "a", s.VisualPrompts[1])
}

func TestCleanJSON(t *testing.T) {
	raw := "```json\n{\"title\": \"x\"}\n```"
	assert.Equal(t, `{"title": "x"}`, cleanJSON(raw))
	assert.Equal(t, `{"a":1}`, cleanJSON(`{"a":1}`))
}
