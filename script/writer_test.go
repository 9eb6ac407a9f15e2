package script

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/fallback"
	"github.com/dantunmibi/ytgardening/types"
)

func newTestWriter(t *testing.T) *Writer {
	cfg := config.Default()
	cfg.Paths.Workspace = t.TempDir()
	w := New(cfg)
	w.retryDelay = time.Millisecond
	return w
}

func TestParseScriptStripsFencesAndFillsDerived(t *testing.T) {
	w := newTestWriter(t)
	raw := "```json\n" + `{
		"title": "Propagate Pothos In Seven Days",
		"hook": "Free plants forever",
		"bullets": ["Cut below a node", "Drop it in water", "Wait for roots"],
		"cta": "Follow for more",
		"description": "Water propagation basics.",
		"tags": ["pothos", "propagation"]
	}` + "\n```"

	s, err := w.parseScript(raw, types.Topic{Title: "pothos propagation"})
	require.NoError(t, err)

	assert.Equal(t, "pothos propagation", s.Topic)
	assert.Equal(t, "Propagate Pothos In Seven Days", s.Title)
	assert.NotEmpty(t, s.ContentHash)
	// One visual prompt per section: hook + 3 bullets + cta.
	assert.Len(t, s.VisualPrompts, 5)
	assert.NotEmpty(t, s.Hashtags)
}

func TestParseScriptRejectsTooFewBullets(t *testing.T) {
	w := newTestWriter(t)
	_, err := w.parseScript(`{"title": "t", "hook": "h", "bullets": ["one", "two"], "cta": "c"}`,
		types.Topic{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bullets")
}

func TestParseScriptRejectsMissingTitleOrHook(t *testing.T) {
	w := newTestWriter(t)
	_, err := w.parseScript(`{"hook": "h", "bullets": ["a", "b", "c"], "cta": "c"}`,
		types.Topic{Title: "x"})
	assert.Error(t, err)

	_, err = w.parseScript(`{"title": "t", "bullets": ["a", "b", "c"], "cta": "c"}`,
		types.Topic{Title: "x"})
	assert.Error(t, err)
}

func TestParseScriptCapsBulletsAtFive(t *testing.T) {
	w := newTestWriter(t)
	s, err := w.parseScript(
		`{"title": "t", "hook": "h", "bullets": ["1", "2", "3", "4", "5", "6", "7"], "cta": "c"}`,
		types.Topic{Title: "x"})
	require.NoError(t, err)
	assert.Len(t, s.Bullets, 5)
}

func TestParseScriptRejectsMalformedJSON(t *testing.T) {
	w := newTestWriter(t)
	_, err := w.parseScript("not json at all", types.Topic{Title: "x"})
	assert.Error(t, err)
}

func TestGenerateSkipsWithoutCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	w := newTestWriter(t)

	_, err := w.generateGemini(context.Background(), types.Topic{Title: "x"}, nil)
	assert.ErrorIs(t, err, fallback.ErrSkip)

	_, err = w.generateGroq(context.Background(), types.Topic{Title: "x"}, nil)
	assert.ErrorIs(t, err, fallback.ErrSkip)
}

func TestRunShipsFallbackScriptWhenUnconfigured(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	w := newTestWriter(t)

	s, err := w.Run(context.Background(), types.Topic{Title: "balcony composting"})
	require.NoError(t, err)
	assert.True(t, s.Fallback)
	assert.Equal(t, "fallback", s.Provider)
	assert.GreaterOrEqual(t, len(s.Bullets), 3)
	assert.NotEmpty(t, s.VisualPrompts)
}
