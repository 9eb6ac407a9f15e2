// Package audio generates the voiceover: one clip per script section,
// joined with a short breath pause, plus the metadata file the
// assembly stage uses to time scenes.
package audio

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/fallback"
	"github.com/dantunmibi/ytgardening/types"
)

// minFileBytes rejects TTS output that is an error page or an empty
// container rather than audio.
const minFileBytes = 1024

// Generator handles voiceover synthesis.
type Generator struct {
	cfg *config.Config
}

// New creates the TTS stage.
func New(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg}
}

// Run synthesizes every section of the script into its own clip and
// concatenates them into voiceover.mp3. A failed section falls back
// to silence of the estimated length so the video still times out
// correctly; if the whole chain fails, the entire track is silent.
func (g *Generator) Run(ctx context.Context, script *types.Script, outputDir string) (string, *types.AudioMeta, error) {
	log.Println("[audio] Generating voiceover...")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", nil, fmt.Errorf("create audio dir: %w", err)
	}

	sections := script.Narration()
	if len(sections) == 0 {
		return "", nil, fmt.Errorf("script has no narration")
	}

	meta := &types.AudioMeta{WPM: g.cfg.Audio.WPM}
	var files []string
	bulletIdx := 0

	for i, sec := range sections {
		idx := i
		if sec.Kind == types.SectionBullet {
			idx = bulletIdx
			bulletIdx++
		}
		outFile := filepath.Join(outputDir, sectionFileName(sec.Kind, idx))
		provider, err := g.generateSection(ctx, sec.Text, outFile)
		if err != nil {
			estimate := estimateDuration(sec.Text, g.cfg.Audio.WPM)
			log.Printf("[audio] Section %d (%s) failed (%v), inserting %.1fs of silence", i, sec.Kind, err, estimate)
			if err := g.writeSilence(ctx, outFile, estimate); err != nil {
				return "", nil, fmt.Errorf("silent fallback for section %d: %w", i, err)
			}
			provider = "silence"
		}

		dur, err := probeDuration(outFile)
		if err != nil {
			dur = estimateDuration(sec.Text, g.cfg.Audio.WPM)
			log.Printf("[audio] Warning: could not probe %s, estimating %.1fs", outFile, dur)
		}

		// The recorded duration includes the pause that follows the
		// section, so scene durations sum to the real track length.
		recorded := dur
		if i < len(sections)-1 {
			recorded += g.cfg.Audio.SectionPause
		}
		meta.Sections = append(meta.Sections, types.SectionAudio{
			Kind: sec.Kind, File: outFile, Duration: recorded,
		})
		switch {
		case meta.Provider == "":
			meta.Provider = provider
		case meta.Provider != provider:
			meta.Provider = "mixed"
		}
		files = append(files, outFile)
		meta.Text += sec.Text + " "
		log.Printf("[audio] Section %d (%s): %.2fs via %s", i, sec.Kind, dur, provider)
	}

	finalAudio := filepath.Join(outputDir, "voiceover.mp3")
	if err := g.concatWithPauses(ctx, files, outputDir, finalAudio); err != nil {
		return "", nil, fmt.Errorf("concatenate voiceover: %w", err)
	}

	meta.Text = strings.TrimSpace(meta.Text)
	meta.Words = len(strings.Fields(meta.Text))
	meta.EstimatedDuration = estimateDuration(meta.Text, g.cfg.Audio.WPM)
	if dur, err := probeDuration(finalAudio); err == nil {
		meta.ActualDuration = dur
	} else {
		meta.ActualDuration = meta.EstimatedDuration
	}
	if fi, err := os.Stat(finalAudio); err == nil {
		meta.FileSizeKB = float64(fi.Size()) / 1024.0
	}

	log.Printf("[audio] ✅ Voiceover ready: %s (%.1fs, %d words)", finalAudio, meta.ActualDuration, meta.Words)
	return finalAudio, meta, nil
}

// generateSection runs the provider chain for one section's text.
func (g *Generator) generateSection(ctx context.Context, text, outFile string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty section text")
	}

	chain := fallback.NewChain("audio",
		fallback.Provider[string]{Name: "custom", Run: func(ctx context.Context) (string, error) {
			return outFile, g.runCustomTTS(ctx, text, outFile)
		}},
		fallback.Provider[string]{Name: "edge-tts", Run: func(ctx context.Context) (string, error) {
			return outFile, g.runEdgeTTS(ctx, text, outFile)
		}},
	)
	_, provider, err := chain.Run(ctx)
	if err != nil {
		return "", err
	}
	if err := validateAudioFile(outFile); err != nil {
		return "", err
	}
	return provider, nil
}

// runCustomTTS honors the TTS_COMMAND override: any binary or .py
// script that accepts --text and --output.
func (g *Generator) runCustomTTS(ctx context.Context, text, outFile string) error {
	ttsCmd := strings.TrimSpace(os.Getenv("TTS_COMMAND"))
	if ttsCmd == "" {
		return fmt.Errorf("%w: TTS_COMMAND not set", fallback.ErrSkip)
	}

	var cmd *exec.Cmd
	if strings.HasSuffix(ttsCmd, ".py") {
		cmd = exec.CommandContext(ctx, "python3", ttsCmd, "--text", text, "--output", outFile)
	} else {
		cmd = exec.CommandContext(ctx, ttsCmd, "--text", text, "--output", outFile)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return fallback.Retry(ctx, 3, 2*time.Second, cmd.Run)
}

func (g *Generator) runEdgeTTS(ctx context.Context, text, outFile string) error {
	if _, err := exec.LookPath("edge-tts"); err != nil {
		return fmt.Errorf("%w: edge-tts not installed", fallback.ErrSkip)
	}
	return fallback.Retry(ctx, 3, 2*time.Second, func() error {
		cmd := exec.CommandContext(ctx, "edge-tts",
			"--voice", g.cfg.Audio.Voice,
			"--text", text,
			"--write-media", outFile,
		)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	})
}

// writeSilence generates a silent mp3. Used per-section on provider
// failure; duration is clamped to the configured track bounds when
// the whole script is silent.
func (g *Generator) writeSilence(ctx context.Context, outFile string, seconds float64) error {
	if seconds <= 0 {
		seconds = 1.0
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=mono",
		"-t", fmt.Sprintf("%.2f", seconds),
		"-c:a", "libmp3lame",
		"-q:a", "4",
		outFile,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg anullsrc: %w", err)
	}
	return nil
}

// concatWithPauses joins section clips with the configured breath
// pause between them.
func (g *Generator) concatWithPauses(ctx context.Context, files []string, outputDir, outputFile string) error {
	pauseFile := filepath.Join(outputDir, "pause.mp3")
	if err := g.writeSilence(ctx, pauseFile, g.cfg.Audio.SectionPause); err != nil {
		return fmt.Errorf("generate pause: %w", err)
	}

	listFile := filepath.Join(outputDir, "concat_list.txt")
	var lines []string
	for i, f := range files {
		lines = append(lines, fmt.Sprintf("file '%s'", f))
		if i < len(files)-1 {
			lines = append(lines, fmt.Sprintf("file '%s'", pauseFile))
		}
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c:a", "libmp3lame",
		"-q:a", "2",
		outputFile,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

// SilentTrack writes a whole-script silent voiceover, clamped to the
// configured duration bounds. Last resort when no section could be
// synthesized at all.
func (g *Generator) SilentTrack(ctx context.Context, script *types.Script, outputDir string) (string, *types.AudioMeta, error) {
	text := fullText(script)
	dur := clamp(estimateDuration(text, g.cfg.Audio.WPM), g.cfg.Audio.MinDuration, g.cfg.Audio.MaxDuration)

	outFile := filepath.Join(outputDir, "voiceover.mp3")
	if err := g.writeSilence(ctx, outFile, dur); err != nil {
		return "", nil, err
	}
	meta := &types.AudioMeta{
		Text:              text,
		Words:             len(strings.Fields(text)),
		EstimatedDuration: dur,
		ActualDuration:    dur,
		Provider:          "silence",
		WPM:               g.cfg.Audio.WPM,
	}
	if fi, err := os.Stat(outFile); err == nil {
		meta.FileSizeKB = float64(fi.Size()) / 1024.0
	}
	return outFile, meta, nil
}

func sectionFileName(kind types.SectionKind, idx int) string {
	if kind == types.SectionBullet {
		return fmt.Sprintf("bullet_%d.mp3", idx)
	}
	return string(kind) + ".mp3"
}

func estimateDuration(text string, wpm float64) float64 {
	words := len(strings.Fields(text))
	if words == 0 || wpm <= 0 {
		return 0
	}
	return float64(words) / (wpm / 60.0)
}

func validateAudioFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio file missing: %w", err)
	}
	if fi.Size() < minFileBytes {
		return fmt.Errorf("audio file %s too small (%d bytes), likely not real audio", path, fi.Size())
	}
	return nil
}

func probeDuration(audioFile string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioFile,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}

func fullText(script *types.Script) string {
	var parts []string
	for _, s := range script.Narration() {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
