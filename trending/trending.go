// Package trending surfaces candidate video topics from an LLM,
// Reddit and Google News RSS, scores them and picks the best unused
// ones.
package trending

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/vartanbeno/go-reddit/v2/reddit"
	"google.golang.org/api/option"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/fallback"
	"github.com/dantunmibi/ytgardening/history"
	"github.com/dantunmibi/ytgardening/types"
)

// seasonalKeywords boost a topic's score when present.
var seasonalKeywords = []string{
	"propagat", "pruning", "repot", "compost", "seed", "harvest",
	"pest", "fertiliz", "watering", "indoor", "balcony", "container",
	"beginner", "hack", "mistake", "easy", "fast", "cheap",
}

// evergreenTopics keeps the pipeline producing when every live
// source is down.
var evergreenTopics = []string{
	"Propagate pothos in water the foolproof way",
	"Three signs you are overwatering your houseplants",
	"Turn kitchen scraps into free seedlings",
	"Why your tomato leaves curl and how to fix it",
	"The five minute trick that doubles basil growth",
}

// Trending aggregates topic candidates across sources.
type Trending struct {
	cfg        *config.Config
	httpClient *http.Client
	used       *history.Log[string]
	retryDelay time.Duration
}

// New creates the trending stage.
func New(cfg *config.Config) *Trending {
	return &Trending{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		used:       history.NewLog[string](filepath.Join(cfg.Paths.Workspace, "used_topics.json"), history.DefaultCap),
		retryDelay: 4 * time.Second,
	}
}

// Run fetches, scores and deduplicates topics, returning the top
// candidates.
func (t *Trending) Run(ctx context.Context, runID string) (*types.TrendingReport, error) {
	log.Println("[trending] Discovering topics...")

	var candidates []types.Topic
	var sources []string

	if topics, err := t.fromGemini(ctx); err != nil {
		log.Printf("[trending] Gemini warning: %v", err)
	} else {
		candidates = append(candidates, topics...)
		sources = append(sources, "gemini")
		log.Printf("[trending] Gemini: %d topics", len(topics))
	}

	if topics, err := t.fromReddit(ctx); err != nil {
		log.Printf("[trending] Reddit warning: %v", err)
	} else {
		candidates = append(candidates, topics...)
		sources = append(sources, "reddit")
		log.Printf("[trending] Reddit: %d topics", len(topics))
	}

	if topics, err := t.fromRSS(ctx); err != nil {
		log.Printf("[trending] RSS warning: %v", err)
	} else {
		candidates = append(candidates, topics...)
		sources = append(sources, "rss")
		log.Printf("[trending] RSS: %d topics", len(topics))
	}

	if len(candidates) == 0 {
		log.Println("[trending] All sources empty, using evergreen topics")
		for _, title := range evergreenTopics {
			candidates = append(candidates, types.Topic{
				Title: title, Source: "evergreen", FetchedAt: time.Now(),
			})
		}
		sources = append(sources, "evergreen")
	}

	for i := range candidates {
		candidates[i].Score += ScoreTopic(candidates[i].Title)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	used := map[string]bool{}
	for _, title := range t.used.Load() {
		used[normalize(title)] = true
	}

	report := &types.TrendingReport{RunID: runID, Sources: sources, Created: time.Now()}
	for _, c := range candidates {
		if used[normalize(c.Title)] {
			continue
		}
		report.Topics = append(report.Topics, c)
		if len(report.Topics) >= t.cfg.Trending.MaxTopics {
			break
		}
	}
	if len(report.Topics) == 0 {
		return nil, fmt.Errorf("every candidate topic was already used")
	}

	log.Printf("[trending] Selected %d topics, top: %q", len(report.Topics), report.Topics[0].Title)
	return report, nil
}

// MarkUsed records a topic so later runs skip it.
func (t *Trending) MarkUsed(title string) error {
	return t.used.Append(title)
}

// ScoreTopic rates how well a headline fits a short-form gardening
// video.
func ScoreTopic(title string) float64 {
	lower := strings.ToLower(title)
	score := 0.0
	for _, kw := range seasonalKeywords {
		if strings.Contains(lower, kw) {
			score += 10
		}
	}
	words := len(strings.Fields(title))
	if words >= 4 && words <= 12 {
		score += 5 // headline length that reads well on screen
	}
	return score
}

func (t *Trending) fromGemini(ctx context.Context) ([]types.Topic, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(t.cfg.Script.GeminiModel)
	model.ResponseMIMEType = "application/json"

	prompt := fmt.Sprintf(
		`List %d gardening topics trending right now that would make a great
60-second vertical video for the channel %q (%s).
Respond as a JSON array of objects with "title" and "angle" fields.
Titles must be under 12 words and specific enough to film.`,
		t.cfg.Trending.MaxTopics*2, t.cfg.Channel.Name, t.cfg.Channel.Tagline)

	var resp *genai.GenerateContentResponse
	err = fallback.Retry(ctx, 3, t.retryDelay, func() error {
		resp, err = model.GenerateContent(ctx, genai.Text(prompt))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	raw := collectText(resp)
	var parsed []struct {
		Title string `json:"title"`
		Angle string `json:"angle"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("gemini response parse: %w", err)
	}

	var topics []types.Topic
	for _, p := range parsed {
		if p.Title == "" {
			continue
		}
		topics = append(topics, types.Topic{
			Title: p.Title, Angle: p.Angle, Source: "gemini",
			Score: 20, FetchedAt: time.Now(),
		})
	}
	return topics, nil
}

func (t *Trending) fromReddit(ctx context.Context) ([]types.Topic, error) {
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}

	subs := t.cfg.Trending.Subreddits
	if len(subs) == 0 {
		subs = []string{"gardening", "houseplants", "vegetablegardening"}
	}

	var topics []types.Topic
	for _, sub := range subs {
		posts, _, err := client.Subreddit.HotPosts(ctx, sub, &reddit.ListOptions{Limit: 25})
		if err != nil {
			log.Printf("[trending] r/%s error: %v", sub, err)
			continue
		}
		for _, p := range posts {
			if p.Score < 50 || len(strings.Fields(p.Title)) < 4 {
				continue
			}
			topics = append(topics, types.Topic{
				Title:     p.Title,
				Source:    "r/" + sub,
				Score:     float64(p.Score) / 100.0,
				FetchedAt: time.Now(),
			})
		}
	}
	return topics, nil
}

func (t *Trending) fromRSS(ctx context.Context) ([]types.Topic, error) {
	queries := t.cfg.Trending.RSSQueries
	if len(queries) == 0 {
		queries = []string{"gardening tips", "houseplant care"}
	}

	var topics []types.Topic
	for _, q := range queries {
		feedURL := fmt.Sprintf(
			"https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
			url.QueryEscape(q),
		)
		req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build rss request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; SproutSnap/1.0)")
		resp, err := t.httpClient.Do(req)
		if err != nil {
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		for _, item := range parseRSSItems(string(body)) {
			topics = append(topics, types.Topic{
				Title: item.Title, Source: "rss", Score: 5, FetchedAt: time.Now(),
			})
		}
	}
	return topics, nil
}

type rssItem struct {
	Title   string
	Link    string
	PubDate string
}

// parseRSSItems is a lightweight RSS parser; Google News feeds are
// regular enough that a tag scan beats a full XML schema.
func parseRSSItems(xml string) []rssItem {
	var items []rssItem
	parts := strings.Split(xml, "<item>")
	for _, part := range parts[1:] {
		item := rssItem{
			Title:   extractXMLTag(part, "title"),
			Link:    extractXMLTag(part, "link"),
			PubDate: extractXMLTag(part, "pubDate"),
		}
		if item.Title != "" {
			items = append(items, item)
		}
	}
	return items
}

func extractXMLTag(s, tag string) string {
	open := "<" + tag + ">"
	close := "</" + tag + ">"
	start := strings.Index(s, open)
	if start == -1 {
		return ""
	}
	start += len(open)
	end := strings.Index(s[start:], close)
	if end == -1 {
		return ""
	}
	val := s[start : start+end]
	val = strings.TrimPrefix(val, "<![CDATA[")
	val = strings.TrimSuffix(val, "]]>")
	return strings.TrimSpace(val)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// collectText joins all text parts of a Gemini response.
func collectText(resp *genai.GenerateContentResponse) string {
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
	return sb.String()
}
