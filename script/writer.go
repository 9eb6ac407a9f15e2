// Package script generates the narration payload for one video: a
// hook, three to five bullets and a CTA, deduplicated against recent
// runs.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/fallback"
	"github.com/dantunmibi/ytgardening/history"
	"github.com/dantunmibi/ytgardening/types"
)

// Writer turns a topic into a ready-to-narrate script.
type Writer struct {
	cfg        *config.Config
	history    *history.Log[Record]
	retryDelay time.Duration
}

// New creates the script stage.
func New(cfg *config.Config) *Writer {
	return &Writer{
		cfg:        cfg,
		history:    history.NewLog[Record](filepath.Join(cfg.Paths.Workspace, "script_history.json"), history.DefaultCap),
		retryDelay: 4 * time.Second,
	}
}

// Run generates a script for the topic, retrying when the result
// duplicates a recent script. If every provider fails, the static
// fallback script ships instead of killing the run.
func (w *Writer) Run(ctx context.Context, topic types.Topic) (*types.Script, error) {
	log.Printf("[script] Writing script for %q...", topic.Title)

	recent := w.recentRecords()
	avoid := make([]string, 0, len(recent))
	for _, r := range recent {
		avoid = append(avoid, r.Title)
	}

	for attempt := 1; attempt <= w.cfg.Script.MaxAttempts; attempt++ {
		chain := fallback.NewChain("script",
			fallback.Provider[*types.Script]{Name: "gemini", Run: func(ctx context.Context) (*types.Script, error) {
				return w.withRetry(ctx, func() (*types.Script, error) {
					return w.generateGemini(ctx, topic, avoid)
				})
			}},
			fallback.Provider[*types.Script]{Name: "groq", Run: func(ctx context.Context) (*types.Script, error) {
				return w.withRetry(ctx, func() (*types.Script, error) {
					return w.generateGroq(ctx, topic, avoid)
				})
			}},
		)

		s, provider, err := chain.Run(ctx)
		if err != nil {
			log.Printf("[script] attempt %d: %v", attempt, err)
			break
		}
		s.Provider = provider

		if IsDuplicate(s.Title, s.ContentHash, recent, w.cfg.Script.SimilarityThreshold) {
			log.Printf("[script] attempt %d produced a near-duplicate (%q), retrying", attempt, s.Title)
			avoid = append(avoid, s.Title)
			continue
		}

		if err := w.remember(s); err != nil {
			log.Printf("[script] Warning: could not record script history: %v", err)
		}
		log.Printf("[script] ✅ Script ready via %s: %q", provider, s.Title)
		return s, nil
	}

	log.Println("[script] All generation attempts exhausted, using fallback script")
	s := fallbackScript(topic)
	if err := w.remember(s); err != nil {
		log.Printf("[script] Warning: could not record script history: %v", err)
	}
	return s, nil
}

// recentRecords returns history newest-first so the similarity decay
// indexes line up.
func (w *Writer) recentRecords() []Record {
	return w.history.Recent(0)
}

func (w *Writer) remember(s *types.Script) error {
	return w.history.Append(Record{Title: s.Title, ContentHash: s.ContentHash, Created: timeNow()})
}

// withRetry gives a provider three tries with backoff before the
// chain moves on. A missing credential skips straight through.
func (w *Writer) withRetry(ctx context.Context, gen func() (*types.Script, error)) (*types.Script, error) {
	var s *types.Script
	err := fallback.Retry(ctx, 3, w.retryDelay, func() error {
		var gerr error
		s, gerr = gen()
		return gerr
	})
	return s, err
}

func (w *Writer) generateGemini(ctx context.Context, topic types.Topic, avoid []string) (*types.Script, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", fallback.ErrSkip)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(w.cfg.Script.GeminiModel)
	model.ResponseMIMEType = "application/json"
	temp := float32(w.cfg.Script.Temperature)
	model.Temperature = &temp

	resp, err := model.GenerateContent(ctx, genai.Text(w.prompt(topic, avoid)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}
	return w.parseScript(sb.String(), topic)
}

func (w *Writer) generateGroq(ctx context.Context, topic types.Topic, avoid []string) (*types.Script, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GROQ_API_KEY not set", fallback.ErrSkip)
	}

	conf := openai.DefaultConfig(apiKey)
	conf.BaseURL = "https://api.groq.com/openai/v1"
	client := openai.NewClientWithConfig(conf)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       w.cfg.Script.GroqModel,
		Temperature: float32(w.cfg.Script.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You write punchy scripts for vertical gardening videos. Respond with JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: w.prompt(topic, avoid),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("groq completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("groq returned no choices")
	}
	return w.parseScript(resp.Choices[0].Message.Content, topic)
}

func (w *Writer) prompt(topic types.Topic, avoid []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `Write a script for a 45-60 second vertical video about: %s
Channel: %s — %s

Respond with JSON:
{
  "title": "clickable title under 80 chars",
  "hook": "one sentence that stops the scroll",
  "bullets": ["tip 1", "tip 2", "tip 3"],
  "cta": "one sentence call to action",
  "description": "2-3 sentence video description",
  "tags": ["tag1", "tag2"],
  "hashtags": ["#gardening", "#planttok"],
  "visual_prompts": ["image prompt for the hook scene", "one per bullet", "one for the cta"]
}

Rules:
- %d to 5 bullets, each a single spoken sentence
- no emojis in hook/bullets/cta, they get read aloud
- concrete numbers and plant names beat vague advice`,
		topic.Title, w.cfg.Channel.Name, w.cfg.Channel.Tagline, w.cfg.Script.MinBullets)
	if topic.Angle != "" {
		fmt.Fprintf(&sb, "\n- angle: %s", topic.Angle)
	}
	if len(avoid) > 0 {
		fmt.Fprintf(&sb, "\n- do NOT reuse these recent titles: %s", strings.Join(last(avoid, 10), "; "))
	}
	return sb.String()
}

// parseScript validates the raw LLM output and fills in derived
// fields.
func (w *Writer) parseScript(raw string, topic types.Topic) (*types.Script, error) {
	cleaned := cleanJSON(raw)

	var s types.Script
	if err := json.Unmarshal([]byte(cleaned), &s); err != nil {
		return nil, fmt.Errorf("parse script JSON: %w", err)
	}
	if s.Title == "" || s.Hook == "" {
		return nil, fmt.Errorf("script missing title or hook")
	}
	if len(s.Bullets) < w.cfg.Script.MinBullets {
		return nil, fmt.Errorf("script has %d bullets, want at least %d", len(s.Bullets), w.cfg.Script.MinBullets)
	}
	if len(s.Bullets) > 5 {
		s.Bullets = s.Bullets[:5]
	}
	s.Topic = topic.Title
	s.ContentHash = ContentHash(s.Hook, s.Bullets, s.CTA)
	fillDerived(&s)
	return &s, nil
}

// fillDerived synthesizes hashtags and visual prompts when the model
// returned fewer than the downstream stages expect: one prompt per
// narration section (hook + bullets + cta).
func fillDerived(s *types.Script) {
	if len(s.Hashtags) == 0 {
		s.Hashtags = []string{"#shorts"}
		for _, t := range s.Tags {
			tag := "#" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(t)), " ", "")
			if tag != "#" {
				s.Hashtags = append(s.Hashtags, tag)
			}
			if len(s.Hashtags) >= 5 {
				break
			}
		}
	}

	want := len(s.Bullets) + 2
	sections := append([]string{s.Hook}, s.Bullets...)
	sections = append(sections, s.CTA)
	for len(s.VisualPrompts) < want {
		s.VisualPrompts = append(s.VisualPrompts, sections[len(s.VisualPrompts)])
	}
}

// cleanJSON strips markdown code fences some models insist on adding.
func cleanJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// fallbackScript is the hardcoded payload used when every provider
// fails, so scheduled runs still publish.
func fallbackScript(topic types.Topic) *types.Script {
	s := &types.Script{
		Topic: topic.Title,
		Title: "3 Garden Wins You Can Get This Week",
		Hook:  "Your plants are one habit away from thriving.",
		Bullets: []string{
			"Water deeply twice a week instead of a splash every day.",
			"Pinch off spent flowers so the plant spends energy on new blooms.",
			"Feed container plants every two weeks, nutrients wash out fast.",
		},
		CTA:         "Follow for one garden win every day.",
		Description: "Three simple habits that transform a struggling garden. No fancy tools, just better timing.",
		Tags:        []string{"gardening", "garden tips", "plant care"},
		Provider:    "fallback",
		Fallback:    true,
	}
	s.ContentHash = ContentHash(s.Hook, s.Bullets, s.CTA)
	fillDerived(s)
	return s
}

func last(ss []string, n int) []string {
	if len(ss) <= n {
		return ss
	}
	return ss[len(ss)-n:]
}
