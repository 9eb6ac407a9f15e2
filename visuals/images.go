// Package visuals produces one background image per scene through a
// chain of free providers, ending in a locally generated gradient so
// a video is never blocked on a flaky image API.
package visuals

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/fallback"
	"github.com/dantunmibi/ytgardening/types"
)

// minImageBytes rejects error pages masquerading as images.
const minImageBytes = 1000

// negativeTerms keep generated images usable as caption backgrounds.
const negativeTerms = "text, watermark, logo, words, letters, blurry, low quality"

// pexelsCuratedIDs are hand-picked vertical-friendly garden photos
// used when both AI providers are down.
var pexelsCuratedIDs = []int{
	1301856, 2132227, 4503273, 1084540, 2286895,
	1407305, 4750270, 2519392, 1105019, 6231714,
}

// Fetcher generates scene background images.
type Fetcher struct {
	cfg        *config.Config
	httpClient *http.Client
	hfDisabled map[string]bool // models that returned 402 this run
	retryDelay time.Duration
}

// New creates the visuals stage.
func New(cfg *config.Config) *Fetcher {
	return &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		hfDisabled: map[string]bool{},
		retryDelay: 3 * time.Second,
	}
}

// Run fetches a background for every scene of the script. It never
// returns an error for individual scenes: the gradient fallback always
// succeeds, so the worst case is a plain but complete set.
func (f *Fetcher) Run(ctx context.Context, script *types.Script, outputDir string) (map[int]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create visuals dir: %w", err)
	}

	sections := script.Narration()
	// Narration drops an empty hook, visual_prompts never does.
	promptOffset := 0
	if script.Hook == "" {
		promptOffset = 1
	}

	images := make(map[int]string, len(sections))
	for i, sec := range sections {
		if sec.Text == "" {
			continue // placeholder scenes use a solid color
		}
		subject := sec.Text
		if pi := i + promptOffset; pi < len(script.VisualPrompts) && script.VisualPrompts[pi] != "" {
			subject = script.VisualPrompts[pi]
		}
		outFile := filepath.Join(outputDir, fmt.Sprintf("scene_%02d.jpg", i))
		path, provider, err := f.fetchOne(ctx, subject, i, outFile)
		if err != nil {
			log.Printf("[visuals] Scene %d: all providers failed (%v), using gradient", i, err)
			path = filepath.Join(outputDir, fmt.Sprintf("scene_%02d.png", i))
			if gerr := WriteGradient(path, f.cfg.Visuals.Width, f.cfg.Visuals.Height, gradientTop(i), gradientBottom(i)); gerr != nil {
				return nil, fmt.Errorf("gradient fallback for scene %d: %w", i, gerr)
			}
			provider = "gradient"
		}
		images[i] = path
		log.Printf("[visuals] Scene %d image via %s: %s", i, provider, path)
	}
	return images, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, subject string, idx int, outFile string) (string, string, error) {
	prompt := buildPrompt(subject, f.cfg.Channel.Niche)

	chain := fallback.NewChain("visuals",
		fallback.Provider[string]{Name: "pollinations", Run: func(ctx context.Context) (string, error) {
			return outFile, f.fetchPollinations(ctx, prompt, idx, outFile)
		}},
		fallback.Provider[string]{Name: "huggingface", Run: func(ctx context.Context) (string, error) {
			return outFile, f.fetchHuggingFace(ctx, prompt, outFile)
		}},
		fallback.Provider[string]{Name: "stock", Run: func(ctx context.Context) (string, error) {
			return outFile, f.fetchStock(ctx, subject, idx, outFile)
		}},
	)
	path, provider, err := chain.Run(ctx)
	return path, provider, err
}

// fetchPollinations hits the keyless Pollinations endpoint with a
// deterministic seed per scene so reruns are reproducible.
func (f *Fetcher) fetchPollinations(ctx context.Context, prompt string, idx int, outFile string) error {
	imageURL := fmt.Sprintf(
		"https://image.pollinations.ai/prompt/%s?width=%d&height=%d&nologo=true&model=flux&seed=%d&negative=%s",
		url.PathEscape(prompt),
		f.cfg.Visuals.Width, f.cfg.Visuals.Height,
		idx*42+7,
		url.QueryEscape(negativeTerms),
	)
	return fallback.Retry(ctx, 3, f.retryDelay, func() error {
		return f.downloadImage(ctx, imageURL, nil, outFile)
	})
}

// fetchHuggingFace walks the configured model list. A 402 disables a
// model for the rest of the run; 429 and 503 just move to the next
// model.
func (f *Fetcher) fetchHuggingFace(ctx context.Context, prompt string, outFile string) error {
	apiKey := os.Getenv("HUGGINGFACE_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("%w: HUGGINGFACE_API_KEY not set", fallback.ErrSkip)
	}

	var lastErr error
	for _, model := range f.cfg.Visuals.HuggingFaceModels {
		if f.hfDisabled[model] {
			continue
		}

		endpoint := "https://api-inference.huggingface.co/models/" + model
		body := fmt.Sprintf(`{"inputs": %q, "parameters": {"negative_prompt": %q}}`, prompt, negativeTerms)

		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				lastErr = err
				continue
			}
			if len(data) < minImageBytes {
				lastErr = fmt.Errorf("model %s returned %d bytes", model, len(data))
				continue
			}
			return os.WriteFile(outFile, data, 0644)
		case http.StatusPaymentRequired:
			resp.Body.Close()
			log.Printf("[visuals] Model %s requires payment, disabling for this run", model)
			f.hfDisabled[model] = true
			lastErr = fmt.Errorf("model %s: HTTP 402", model)
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			resp.Body.Close()
			lastErr = fmt.Errorf("model %s: HTTP %d", model, resp.StatusCode)
		default:
			resp.Body.Close()
			lastErr = fmt.Errorf("model %s: HTTP %d", model, resp.StatusCode)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no huggingface models available")
	}
	return lastErr
}

// fetchStock tries free stock photo endpoints keyed loosely off the
// scene text.
func (f *Fetcher) fetchStock(ctx context.Context, text string, idx int, outFile string) error {
	w, h := f.cfg.Visuals.Width, f.cfg.Visuals.Height
	query := url.QueryEscape(f.cfg.Channel.Niche)

	sources := []string{
		fmt.Sprintf("https://source.unsplash.com/%dx%d/?%s,plants", w, h, query),
		fmt.Sprintf("https://images.pexels.com/photos/%d/pexels-photo-%d.jpeg?auto=compress&cs=tinysrgb&w=%d&h=%d&fit=crop",
			pexelsCuratedIDs[idx%len(pexelsCuratedIDs)], pexelsCuratedIDs[idx%len(pexelsCuratedIDs)], w, h),
		fmt.Sprintf("https://picsum.photos/seed/%s%d/%d/%d", f.cfg.Channel.Niche, idx, w, h),
	}

	var lastErr error
	for _, src := range sources {
		if err := f.downloadImage(ctx, src, nil, outFile); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (f *Fetcher) downloadImage(ctx context.Context, imageURL string, headers map[string]string, outFile string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; SproutSnap/1.0)")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) < minImageBytes {
		return fmt.Errorf("response too small (%d bytes), likely an error page", len(data))
	}
	return os.WriteFile(outFile, data, 0644)
}

// buildPrompt turns narration text into an image prompt with the
// channel's look baked in.
func buildPrompt(text, niche string) string {
	return fmt.Sprintf(
		"%s, lush %s photography, natural morning light, shallow depth of field, vibrant greens, vertical composition, photorealistic, no text",
		text, niche)
}
