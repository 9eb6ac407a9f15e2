package upload

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/history"
	"github.com/dantunmibi/ytgardening/types"
)

type fakePlatform struct {
	name     string
	priority int
	enabled  bool
	fails    int // failures before succeeding
	calls    int
}

func (f *fakePlatform) Name() string           { return f.name }
func (f *fakePlatform) Priority() int          { return f.priority }
func (f *fakePlatform) EnabledByDefault() bool { return f.enabled }

func (f *fakePlatform) Upload(ctx context.Context, video Video) (*types.UploadRecord, error) {
	f.calls++
	if f.calls <= f.fails {
		return nil, fmt.Errorf("transient failure %d", f.calls)
	}
	return &types.UploadRecord{VideoID: f.name + "-1", Platform: f.name, URL: "https://" + f.name}, nil
}

func newTestManager(t *testing.T, platforms ...Platform) *Manager {
	cfg := config.Default()
	cfg.Paths.Workspace = t.TempDir()
	return &Manager{
		cfg:        cfg,
		platforms:  platforms,
		log:        history.NewLog[types.UploadRecord](cfg.Paths.Workspace+"/upload_history.json", 10),
		retryDelay: time.Millisecond,
	}
}

func TestManagerDefaultSelection(t *testing.T) {
	t.Setenv("PLATFORMS", "")
	t.Setenv("FORCE_ALL", "")
	yt := &fakePlatform{name: "youtube", priority: 1, enabled: true}
	fb := &fakePlatform{name: "facebook", priority: 2, enabled: true}
	tk := &fakePlatform{name: "tiktok", priority: 4, enabled: false}
	m := newTestManager(t, tk, fb, yt)

	records, err := m.Run(context.Background(), Video{Script: &types.Script{Title: "x"}})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Priority order, disabled platform untouched.
	assert.Equal(t, "youtube", records[0].Platform)
	assert.Equal(t, "facebook", records[1].Platform)
	assert.Zero(t, tk.calls)
}

func TestManagerPlatformsEnvFilter(t *testing.T) {
	t.Setenv("PLATFORMS", "tiktok")
	yt := &fakePlatform{name: "youtube", priority: 1, enabled: true}
	tk := &fakePlatform{name: "tiktok", priority: 4, enabled: false}
	m := newTestManager(t, yt, tk)

	records, err := m.Run(context.Background(), Video{Script: &types.Script{Title: "x"}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tiktok", records[0].Platform)
	assert.Zero(t, yt.calls)
}

func TestManagerForceAllOverridesFilter(t *testing.T) {
	t.Setenv("PLATFORMS", "youtube")
	t.Setenv("FORCE_ALL", "true")
	yt := &fakePlatform{name: "youtube", priority: 1, enabled: true}
	tk := &fakePlatform{name: "tiktok", priority: 4, enabled: false}
	m := newTestManager(t, yt, tk)

	records, err := m.Run(context.Background(), Video{Script: &types.Script{Title: "x"}})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestManagerFacebookRetries(t *testing.T) {
	t.Setenv("PLATFORMS", "")
	t.Setenv("FORCE_ALL", "")
	fb := &fakePlatform{name: "facebook", priority: 2, enabled: true, fails: 2}
	m := newTestManager(t, fb)

	records, err := m.Run(context.Background(), Video{Script: &types.Script{Title: "x"}})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, fb.calls)
}

func TestManagerFailsOnlyWhenAllFail(t *testing.T) {
	t.Setenv("PLATFORMS", "")
	t.Setenv("FORCE_ALL", "")
	bad := &fakePlatform{name: "youtube", priority: 1, enabled: true, fails: 99}
	good := &fakePlatform{name: "facebook", priority: 2, enabled: true, fails: 99}
	m := newTestManager(t, bad, good)

	_, err := m.Run(context.Background(), Video{Script: &types.Script{Title: "x"}})
	assert.Error(t, err)

	ok := &fakePlatform{name: "youtube", priority: 1, enabled: true}
	m = newTestManager(t, ok, &fakePlatform{name: "facebook", priority: 2, enabled: true, fails: 99})
	records, err := m.Run(context.Background(), Video{Script: &types.Script{Title: "x"}})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestManagerConfigFileOverrides(t *testing.T) {
	t.Setenv("PLATFORMS", "")
	t.Setenv("FORCE_ALL", "")
	yt := &fakePlatform{name: "youtube", priority: 1, enabled: true}
	tk := &fakePlatform{name: "tiktok", priority: 4, enabled: false}

	on := true
	prio := 0
	m := newTestManager(t, yt, tk)
	m.overrides = map[string]platformOverride{
		"tiktok": {Enabled: &on, Priority: &prio},
	}

	records, err := m.Run(context.Background(), Video{Script: &types.Script{Title: "x"}})
	require.NoError(t, err)
	require.Len(t, records, 2)
	// The override both enables tiktok and moves it ahead of youtube.
	assert.Equal(t, "tiktok", records[0].Platform)
	assert.Equal(t, "youtube", records[1].Platform)
}

func TestLoadOverrides(t *testing.T) {
	path := t.TempDir() + "/platform_config.json"
	require.NoError(t, os.WriteFile(path, []byte(`{"instagram": {"enabled": true}}`), 0644))

	got := loadOverrides(path)
	require.Contains(t, got, "instagram")
	assert.True(t, *got["instagram"].Enabled)
	assert.Nil(t, got["instagram"].Priority)

	assert.Nil(t, loadOverrides(t.TempDir()+"/missing.json"))
}

func TestMergeTags(t *testing.T) {
	tags := mergeTags(
		[]string{"Pothos", "propagation", "pothos"},
		[]string{"gardening", "Propagation", "plant care"},
		4,
	)
	assert.Equal(t, []string{"Pothos", "propagation", "gardening", "plant care"}, tags)
	assert.LessOrEqual(t, len(tags), 4)
}

func TestParsePlatformFilter(t *testing.T) {
	assert.Nil(t, parsePlatformFilter(""))
	assert.Nil(t, parsePlatformFilter(" , "))
	f := parsePlatformFilter("YouTube, facebook")
	assert.True(t, f["youtube"])
	assert.True(t, f["facebook"])
	assert.False(t, f["tiktok"])
}
