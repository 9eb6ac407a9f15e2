package compose

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Render writes one clip per scene, concatenates them, and muxes the
// narration on top. The returned path is the final MP4.
func (c *Compositor) Render(ctx context.Context, scenes []Scene, audioFile, outputDir string) (string, error) {
	if len(scenes) == 0 {
		return "", fmt.Errorf("no scenes to render")
	}
	log.Printf("[assemble] Rendering %d scenes...", len(scenes))

	var clips []string
	for i, sc := range scenes {
		clip, err := c.renderClip(ctx, sc, outputDir, i, i == 0, i == len(scenes)-1)
		if err != nil {
			return "", fmt.Errorf("render scene %d (%s): %w", i, sc.Spec.Kind, err)
		}
		clips = append(clips, clip)
	}

	silent, err := c.concatClips(ctx, clips, outputDir)
	if err != nil {
		return "", fmt.Errorf("concatenate scenes: %w", err)
	}

	final, err := c.muxAudio(ctx, silent, audioFile, outputDir)
	if err != nil {
		return "", fmt.Errorf("mux audio: %w", err)
	}

	log.Printf("[assemble] Final video ready: %s", final)
	return final, nil
}

// renderClip encodes a single scene: background (image or solid
// color), centered caption, and fade transitions at interior
// boundaries.
func (c *Compositor) renderClip(ctx context.Context, sc Scene, outputDir string, idx int, first, last bool) (string, error) {
	outFile := filepath.Join(outputDir, fmt.Sprintf("scene_%02d.mp4", idx))

	var args []string
	if sc.Spec.ImagePath != "" {
		args = append(args, "-loop", "1", "-i", sc.Spec.ImagePath)
	} else {
		src := fmt.Sprintf("color=c=0x%02X%02X%02X:s=%dx%d:r=%d",
			sc.Color.R, sc.Color.G, sc.Color.B, CanvasWidth, CanvasHeight, c.fps)
		args = append(args, "-f", "lavfi", "-i", src)
	}

	filters := []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1",
			CanvasWidth, CanvasHeight, CanvasWidth, CanvasHeight),
	}

	if sc.HasText {
		textFile := filepath.Join(outputDir, fmt.Sprintf("caption_%02d.txt", idx))
		if err := os.WriteFile(textFile, []byte(sc.Caption.Text()), 0644); err != nil {
			return "", fmt.Errorf("write caption file: %w", err)
		}
		draw := fmt.Sprintf(
			"drawtext=textfile=%s:fontsize=%d:fontcolor=white:borderw=6:bordercolor=black:line_spacing=10:x=(w-text_w)/2:y=%d",
			textFile, sc.Caption.FontSize, sc.TextY)
		if c.fontPath != "" {
			draw += ":fontfile=" + c.fontPath
		}
		filters = append(filters, draw)
	}

	// Approximate the cross-fade with fades through black at every
	// interior scene boundary.
	if !first {
		filters = append(filters, fmt.Sprintf("fade=t=in:st=0:d=%.2f", c.crossFade))
	}
	if !last {
		filters = append(filters, fmt.Sprintf("fade=t=out:st=%.3f:d=%.2f", sc.Spec.Duration-c.crossFade, c.crossFade))
	}

	args = append(args,
		"-t", fmt.Sprintf("%.3f", sc.Spec.Duration),
		"-vf", strings.Join(filters, ","),
		"-r", fmt.Sprintf("%d", c.fps),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", append([]string{"-y"}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg scene clip: %w", err)
	}
	return outFile, nil
}

func (c *Compositor) concatClips(ctx context.Context, clips []string, outputDir string) (string, error) {
	listFile := filepath.Join(outputDir, "scenes_concat.txt")
	var lines []string
	for _, f := range clips {
		lines = append(lines, fmt.Sprintf("file '%s'", f))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return "", err
	}

	outFile := filepath.Join(outputDir, "scenes_raw.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outFile,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg concat: %w", err)
	}
	return outFile, nil
}

func (c *Compositor) muxAudio(ctx context.Context, videoFile, audioFile, outputDir string) (string, error) {
	outFile := filepath.Join(outputDir, "final_video.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-i", audioFile,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outFile,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg mux: %w", err)
	}
	return outFile, nil
}
