package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/dantunmibi/ytgardening/audio"
	"github.com/dantunmibi/ytgardening/compose"
	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/playlist"
	"github.com/dantunmibi/ytgardening/schedule"
	"github.com/dantunmibi/ytgardening/script"
	"github.com/dantunmibi/ytgardening/thumbnail"
	"github.com/dantunmibi/ytgardening/timeline"
	"github.com/dantunmibi/ytgardening/trending"
	"github.com/dantunmibi/ytgardening/types"
	"github.com/dantunmibi/ytgardening/upload"
	"github.com/dantunmibi/ytgardening/visuals"
)

// driftWarnSec is how far scene durations may run from the audio
// track before the log complains.
const driftWarnSec = 0.5

func main() {
	// Load .env (local dev only — GitHub Actions uses Secrets)
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Printf("No config.yaml (%v), using defaults", err)
		cfg = config.Default()
	}

	stage := "all"
	if len(os.Args) > 1 {
		stage = os.Args[1]
	}

	runID := os.Getenv("RUN_ID")
	if runID == "" {
		if stage == "all" {
			runID = uuid.NewString()[:8]
		} else {
			runID = "current"
		}
	}
	runDir := filepath.Join(cfg.Paths.Workspace, "runs", runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		log.Fatalf("Failed to create run dir: %v", err)
	}

	log.Printf("🌱 Sprout Snap pipeline — stage %q, run %s", stage, runID)
	log.Printf("📁 Run dir: %s", runDir)

	ctx := context.Background()
	p := &pipeline{cfg: cfg, runID: runID, runDir: runDir}

	var stageErr error
	switch stage {
	case "validate":
		stageErr = p.validateSecrets()
	case "trending":
		stageErr = p.runTrending(ctx)
	case "script":
		stageErr = p.runScript(ctx)
	case "audio":
		stageErr = p.runAudio(ctx)
	case "visuals":
		stageErr = p.runVisuals(ctx)
	case "assemble":
		stageErr = p.runAssemble(ctx)
	case "thumbnail":
		stageErr = p.runThumbnail()
	case "upload":
		stageErr = p.runUpload(ctx)
	case "schedule":
		stageErr = p.runSchedule()
	case "all":
		stageErr = p.runAll(ctx)
	default:
		stageErr = fmt.Errorf("unknown stage %q (want validate|trending|script|audio|visuals|assemble|thumbnail|upload|schedule|all)", stage)
	}

	if stageErr != nil {
		log.Printf("❌ Stage %q failed: %v", stage, stageErr)
		os.Exit(1)
	}
	log.Printf("✅ Stage %q complete", stage)
}

type pipeline struct {
	cfg    *config.Config
	runID  string
	runDir string
}

// runAll is the single-shot path used by the scheduled workflow.
func (p *pipeline) runAll(ctx context.Context) error {
	state := &types.PipelineState{
		RunID:     p.runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		saveJSON(filepath.Join(p.runDir, "pipeline_state.json"), state)
	}()

	fail := func(stage string, err error) error {
		state.Stage = stage
		state.Error = err.Error()
		return fmt.Errorf("%s: %w", stage, err)
	}

	if err := p.validateSecrets(); err != nil {
		return fail("validate", err)
	}

	log.Println("\n━━━ STAGE 1: Trending ━━━")
	if err := p.runTrending(ctx); err != nil {
		return fail("trending", err)
	}

	log.Println("\n━━━ STAGE 2: Script ━━━")
	if err := p.runScript(ctx); err != nil {
		return fail("script", err)
	}
	state.Script = p.loadScript()

	log.Println("\n━━━ STAGE 3: Voiceover ━━━")
	if err := p.runAudio(ctx); err != nil {
		return fail("audio", err)
	}
	state.AudioPath = filepath.Join(p.runDir, "audio", "voiceover.mp3")

	log.Println("\n━━━ STAGE 4: Visuals ━━━")
	if err := p.runVisuals(ctx); err != nil {
		return fail("visuals", err)
	}

	log.Println("\n━━━ STAGE 5: Assembly ━━━")
	if err := p.runAssemble(ctx); err != nil {
		return fail("assemble", err)
	}
	state.VideoPath = filepath.Join(p.runDir, "final_video.mp4")

	log.Println("\n━━━ STAGE 6: Thumbnail ━━━")
	if err := p.runThumbnail(); err != nil {
		// A missing thumbnail is not worth losing the upload over.
		log.Printf("⚠️  Thumbnail failed: %v — continuing without one", err)
	} else {
		state.ThumbPath = filepath.Join(p.runDir, "thumbnail.png")
	}

	log.Println("\n━━━ STAGE 7: Upload ━━━")
	if err := p.runUpload(ctx); err != nil {
		return fail("upload", err)
	}
	state.Uploads = p.loadUploads()
	state.Stage = "done"
	return nil
}

// validateSecrets fails fast on the credentials the happy path cannot
// run without and warns about the optional ones.
func (p *pipeline) validateSecrets() error {
	required := []string{
		"GEMINI_API_KEY",
		"HUGGINGFACE_API_KEY",
		"GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_SECRET",
		"GOOGLE_REFRESH_TOKEN",
	}
	optional := []string{
		"GROQ_API_KEY",
		"FACEBOOK_PAGE_ID", "FACEBOOK_ACCESS_TOKEN",
		"INSTAGRAM_USER_ID", "INSTAGRAM_ACCESS_TOKEN",
		"CLOUDINARY_CLOUD_NAME", "CLOUDINARY_UPLOAD_PRESET",
	}

	var missing []string
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	for _, key := range optional {
		if os.Getenv(key) == "" {
			log.Printf("[validate] Optional secret %s not set", key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required secrets: %v", missing)
	}
	log.Println("[validate] All required secrets present")
	return nil
}

func (p *pipeline) runTrending(ctx context.Context) error {
	report, err := trending.New(p.cfg).Run(ctx, p.runID)
	if err != nil {
		return err
	}
	saveJSON(filepath.Join(p.runDir, "trending.json"), report)
	return nil
}

func (p *pipeline) runScript(ctx context.Context) error {
	var report types.TrendingReport
	if err := loadJSON(filepath.Join(p.runDir, "trending.json"), &report); err != nil {
		return fmt.Errorf("load trending report (run the trending stage first): %w", err)
	}
	if len(report.Topics) == 0 {
		return fmt.Errorf("trending report has no topics")
	}

	topic := report.Topics[0]
	s, err := script.New(p.cfg).Run(ctx, topic)
	if err != nil {
		return err
	}
	if err := trending.New(p.cfg).MarkUsed(topic.Title); err != nil {
		log.Printf("[script] Warning: could not mark topic used: %v", err)
	}
	saveJSON(filepath.Join(p.runDir, "script.json"), s)
	return nil
}

func (p *pipeline) runAudio(ctx context.Context) error {
	s := p.loadScript()
	if s == nil {
		return fmt.Errorf("no script.json in run dir (run the script stage first)")
	}

	gen := audio.New(p.cfg)
	audioDir := filepath.Join(p.runDir, "audio")
	audioPath, meta, err := gen.Run(ctx, s, audioDir)
	if err != nil {
		log.Printf("[audio] Voiceover failed entirely (%v), falling back to a silent track", err)
		audioPath, meta, err = gen.SilentTrack(ctx, s, audioDir)
		if err != nil {
			return err
		}
	}
	log.Printf("[audio] Voiceover at %s (%.1fs)", audioPath, meta.ActualDuration)
	saveJSON(filepath.Join(audioDir, "audio_metadata.json"), meta)
	return nil
}

func (p *pipeline) runVisuals(ctx context.Context) error {
	s := p.loadScript()
	if s == nil {
		return fmt.Errorf("no script.json in run dir (run the script stage first)")
	}
	images, err := visuals.New(p.cfg).Run(ctx, s, filepath.Join(p.runDir, "visuals"))
	if err != nil {
		return err
	}
	saveJSON(filepath.Join(p.runDir, "images.json"), images)
	return nil
}

func (p *pipeline) runAssemble(ctx context.Context) error {
	s := p.loadScript()
	if s == nil {
		return fmt.Errorf("no script.json in run dir (run the script stage first)")
	}

	var meta types.AudioMeta
	if err := loadJSON(filepath.Join(p.runDir, "audio", "audio_metadata.json"), &meta); err != nil {
		return fmt.Errorf("load audio metadata (run the audio stage first): %w", err)
	}

	images := map[int]string{}
	if err := loadJSON(filepath.Join(p.runDir, "images.json"), &images); err != nil {
		log.Printf("[assemble] No images.json (%v), scenes will use solid colors", err)
	}

	sections := s.Narration()
	var measured []float64
	if len(meta.Sections) == len(sections) {
		for _, sa := range meta.Sections {
			measured = append(measured, sa.Duration)
		}
	}

	durs, err := timeline.Allocate(meta.ActualDuration, sections, measured)
	if err != nil {
		return fmt.Errorf("allocate durations: %w", err)
	}
	if drift := timeline.Drift(durs, meta.ActualDuration); math.Abs(drift) > driftWarnSec {
		log.Printf("[assemble] ⚠️  Timeline drifts %.2fs against the voiceover", drift)
	}

	comp := compose.New(p.cfg.FontPath(), p.cfg.Video.FPS, p.cfg.Video.CrossFadeSec)
	scenes, err := comp.BuildTimeline(sections, durs, images)
	if err != nil {
		return fmt.Errorf("build scenes: %w", err)
	}

	audioPath := filepath.Join(p.runDir, "audio", "voiceover.mp3")
	out, err := comp.Render(ctx, scenes, audioPath, p.runDir)
	if err != nil {
		return err
	}
	log.Printf("[assemble] Video: %s", out)
	return nil
}

func (p *pipeline) runThumbnail() error {
	s := p.loadScript()
	if s == nil {
		return fmt.Errorf("no script.json in run dir (run the script stage first)")
	}

	// The hook scene background doubles as the thumbnail backdrop.
	images := map[int]string{}
	_ = loadJSON(filepath.Join(p.runDir, "images.json"), &images)

	_, err := thumbnail.New(p.cfg).Run(s, images[0], p.runDir)
	return err
}

func (p *pipeline) runUpload(ctx context.Context) error {
	s := p.loadScript()
	if s == nil {
		return fmt.Errorf("no script.json in run dir (run the script stage first)")
	}

	if !schedule.ShouldPost(time.Now()) {
		log.Printf("[schedule] ⚠️  Outside the recommended posting window (IGNORE_SCHEDULE=true to silence)")
	}

	video := upload.Video{
		FilePath:  filepath.Join(p.runDir, "final_video.mp4"),
		ThumbPath: filepath.Join(p.runDir, "thumbnail.png"),
		Script:    s,
	}
	if _, err := os.Stat(video.FilePath); err != nil {
		return fmt.Errorf("no final_video.mp4 in run dir (run the assemble stage first)")
	}
	if _, err := os.Stat(video.ThumbPath); err != nil {
		video.ThumbPath = ""
	}

	records, err := upload.NewManager(p.cfg).Run(ctx, video)
	if err != nil {
		return err
	}
	saveJSON(filepath.Join(p.runDir, "multiplatform_log.json"), records)

	p.organizePlaylists(ctx, records, s.Title)

	advice := schedule.Advise(time.Now())
	log.Printf("[schedule] Next upload: %s", advice.Format())
	return nil
}

// organizePlaylists is best-effort housekeeping after a successful
// YouTube upload.
func (p *pipeline) organizePlaylists(ctx context.Context, records []*types.UploadRecord, title string) {
	for _, rec := range records {
		if rec.Platform != "youtube" {
			continue
		}
		svc, err := upload.NewYouTube(p.cfg).Service(ctx)
		if err != nil {
			log.Printf("[playlist] Skipping: %v", err)
			return
		}
		if err := playlist.New(p.cfg, svc).Run(ctx, rec.VideoID, title); err != nil {
			log.Printf("[playlist] Warning: %v", err)
		}
	}
}

func (p *pipeline) runSchedule() error {
	advice := schedule.Advise(time.Now())
	saveJSON(filepath.Join(p.runDir, "schedule.json"), advice)
	log.Printf("[schedule] %s", advice.Format())
	return nil
}

func (p *pipeline) loadScript() *types.Script {
	var s types.Script
	if err := loadJSON(filepath.Join(p.runDir, "script.json"), &s); err != nil {
		return nil
	}
	return &s
}

func (p *pipeline) loadUploads() []*types.UploadRecord {
	var recs []*types.UploadRecord
	_ = loadJSON(filepath.Join(p.runDir, "multiplatform_log.json"), &recs)
	return recs
}

func saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Warning: could not marshal JSON for %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Warning: could not save %s: %v", path, err)
	}
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
