package visuals

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/types"
)

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, fmt.Errorf("network unreachable")
}

func TestRunFallsBackToGradientsWhenEveryProviderFails(t *testing.T) {
	t.Setenv("HUGGINGFACE_API_KEY", "")

	cfg := config.Default()
	f := &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Transport: failingTransport{}},
		hfDisabled: map[string]bool{},
		retryDelay: time.Millisecond,
	}

	script := &types.Script{
		Hook:    "Your pothos wants out of that pot",
		Bullets: []string{"Check the drainage holes", "", "Size up two inches max"},
		CTA:     "Follow for repot season",
	}

	dir := t.TempDir()
	images, err := f.Run(context.Background(), script, dir)
	require.NoError(t, err)

	// Five sections; the empty bullet (index 2) gets no image, every
	// other scene falls through to a gradient PNG.
	assert.Len(t, images, 4)
	_, hasEmpty := images[2]
	assert.False(t, hasEmpty)
	for idx, path := range images {
		assert.True(t, strings.HasSuffix(path, ".png"), "scene %d: %s", idx, path)
		assert.FileExists(t, path)
		assert.Equal(t, dir, filepath.Dir(path))
	}
}

func TestHuggingFaceSkipsWithoutKey(t *testing.T) {
	t.Setenv("HUGGINGFACE_API_KEY", "")
	f := New(config.Default())
	err := f.fetchHuggingFace(context.Background(), "prompt", filepath.Join(t.TempDir(), "out.jpg"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HUGGINGFACE_API_KEY")
}
