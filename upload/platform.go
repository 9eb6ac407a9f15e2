// Package upload publishes the finished video to every enabled
// platform. YouTube is the primary target; the rest are best-effort
// and the run only fails when every attempted platform fails.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/fallback"
	"github.com/dantunmibi/ytgardening/history"
	"github.com/dantunmibi/ytgardening/types"
)

// Video bundles everything a platform needs to publish.
type Video struct {
	FilePath  string
	ThumbPath string
	Script    *types.Script
}

// Platform is one upload destination.
type Platform interface {
	Name() string
	Priority() int
	EnabledByDefault() bool
	Upload(ctx context.Context, video Video) (*types.UploadRecord, error)
}

// Manager fans the video out to the selected platforms in priority
// order.
type Manager struct {
	cfg        *config.Config
	platforms  []Platform
	overrides  map[string]platformOverride
	log        *history.Log[types.UploadRecord]
	retryDelay time.Duration
}

// NewManager wires up the full platform roster.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg: cfg,
		platforms: []Platform{
			NewYouTube(cfg),
			NewFacebook(cfg),
			NewInstagram(cfg),
			NewTikTok(cfg),
		},
		overrides:  loadOverrides(filepath.Join(cfg.Paths.Workspace, "platform_config.json")),
		log:        history.NewLog[types.UploadRecord](filepath.Join(cfg.Paths.Workspace, "upload_history.json"), history.DefaultCap),
		retryDelay: 10 * time.Second,
	}
}

// platformOverride flips a platform on or reorders it from
// platform_config.json without a code change.
type platformOverride struct {
	Enabled  *bool `json:"enabled,omitempty"`
	Priority *int  `json:"priority,omitempty"`
}

func loadOverrides(path string) map[string]platformOverride {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var out map[string]platformOverride
	if err := json.Unmarshal(data, &out); err != nil {
		log.Printf("[upload] Ignoring malformed %s: %v", path, err)
		return nil
	}
	return out
}

func (m *Manager) priority(p Platform) int {
	if o, ok := m.overrides[p.Name()]; ok && o.Priority != nil {
		return *o.Priority
	}
	return p.Priority()
}

func (m *Manager) enabled(p Platform) bool {
	if o, ok := m.overrides[p.Name()]; ok && o.Enabled != nil {
		return *o.Enabled
	}
	return p.EnabledByDefault()
}

// Run uploads to every selected platform. It returns the successful
// records; the error is non-nil only when every attempted platform
// failed.
func (m *Manager) Run(ctx context.Context, video Video) ([]*types.UploadRecord, error) {
	selected := m.selectPlatforms()
	if len(selected) == 0 {
		return nil, fmt.Errorf("no platforms selected")
	}

	names := make([]string, len(selected))
	for i, p := range selected {
		names[i] = p.Name()
	}
	log.Printf("[upload] Publishing to: %s", strings.Join(names, ", "))

	var records []*types.UploadRecord
	var failures []string
	for _, p := range selected {
		rec, err := m.uploadOne(ctx, p, video)
		if err != nil {
			log.Printf("[upload] ❌ %s failed: %v", p.Name(), err)
			failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}
		log.Printf("[upload] ✅ %s: %s", p.Name(), rec.URL)
		records = append(records, rec)
		if err := m.log.Append(*rec); err != nil {
			log.Printf("[upload] Warning: could not record upload history: %v", err)
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("all platforms failed: %s", strings.Join(failures, "; "))
	}
	return records, nil
}

// uploadOne applies per-platform retry policy. Facebook's video edge
// flakes often enough to deserve three tries.
func (m *Manager) uploadOne(ctx context.Context, p Platform, video Video) (*types.UploadRecord, error) {
	attempts := 1
	if p.Name() == "facebook" {
		attempts = 3
	}

	var rec *types.UploadRecord
	err := fallback.Retry(ctx, attempts, m.retryDelay, func() error {
		var uerr error
		rec, uerr = p.Upload(ctx, video)
		return uerr
	})
	return rec, err
}

// selectPlatforms honors the PLATFORMS env filter (comma-separated
// names) and falls back to the per-platform defaults. FORCE_ALL=true
// attempts everything regardless.
func (m *Manager) selectPlatforms() []Platform {
	sorted := make([]Platform, len(m.platforms))
	copy(sorted, m.platforms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return m.priority(sorted[i]) < m.priority(sorted[j])
	})

	if strings.EqualFold(os.Getenv("FORCE_ALL"), "true") {
		return sorted
	}

	filter := parsePlatformFilter(os.Getenv("PLATFORMS"))
	var out []Platform
	for _, p := range sorted {
		if filter != nil {
			if filter[p.Name()] {
				out = append(out, p)
			}
			continue
		}
		if m.enabled(p) {
			out = append(out, p)
		}
	}
	return out
}

func parsePlatformFilter(raw string) map[string]bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := map[string]bool{}
	for _, name := range strings.Split(raw, ",") {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			out[name] = true
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
