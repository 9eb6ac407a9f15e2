package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Channel  ChannelConfig  `yaml:"channel"`
	Trending TrendingConfig `yaml:"trending"`
	Script   ScriptConfig   `yaml:"script"`
	Audio    AudioConfig    `yaml:"audio"`
	Visuals  VisualsConfig  `yaml:"visuals"`
	Video    VideoConfig    `yaml:"video"`
	Upload   UploadConfig   `yaml:"upload"`
	Paths    PathsConfig    `yaml:"paths"`
}

type ChannelConfig struct {
	Name    string `yaml:"name"`
	Tagline string `yaml:"tagline"`
	Niche   string `yaml:"niche"`
}

type TrendingConfig struct {
	Query      string   `yaml:"query"`
	Subreddits []string `yaml:"subreddits"`
	RSSQueries []string `yaml:"rss_queries"`
	MaxTopics  int      `yaml:"max_topics"`
}

type ScriptConfig struct {
	GeminiModel         string  `yaml:"gemini_model"`
	GroqModel           string  `yaml:"groq_model"`
	Temperature         float64 `yaml:"temperature"`
	MaxAttempts         int     `yaml:"max_attempts"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MinBullets          int     `yaml:"min_bullets"`
}

type AudioConfig struct {
	Voice        string  `yaml:"voice"`
	WPM          float64 `yaml:"wpm"`
	SectionPause float64 `yaml:"section_pause_sec"`
	MinDuration  float64 `yaml:"min_duration_sec"`
	MaxDuration  float64 `yaml:"max_duration_sec"`
}

type VisualsConfig struct {
	Width             int      `yaml:"width"`
	Height            int      `yaml:"height"`
	HuggingFaceModels []string `yaml:"huggingface_models"`
}

type VideoConfig struct {
	FPS            int      `yaml:"fps"`
	CrossFadeSec   float64  `yaml:"crossfade_sec"`
	SafeZoneMargin int      `yaml:"safe_zone_margin"`
	StartFontSize  int      `yaml:"start_font_size"`
	MinFontSize    int      `yaml:"min_font_size"`
	FontPaths      []string `yaml:"font_paths"`
}

type UploadConfig struct {
	CategoryID   string   `yaml:"category_id"`
	Privacy      string   `yaml:"privacy"`
	MadeForKids  bool     `yaml:"made_for_kids"`
	BaseTags     []string `yaml:"base_tags"`
	MaxTags      int      `yaml:"max_tags"`
	GraphVersion string   `yaml:"graph_api_version"`
}

type PathsConfig struct {
	Workspace string `yaml:"workspace"`
}

// Load reads config.yaml and returns a Config struct
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a Config with all defaults applied, used when no
// config.yaml is present (CI runs rely entirely on env secrets).
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Channel.Name == "" {
		c.Channel.Name = "Sprout Snap"
	}
	if c.Channel.Tagline == "" {
		c.Channel.Tagline = "Rapid gardening wins under 60 seconds"
	}
	if c.Channel.Niche == "" {
		c.Channel.Niche = "gardening"
	}
	if c.Trending.MaxTopics == 0 {
		c.Trending.MaxTopics = 5
	}
	if c.Script.GeminiModel == "" {
		c.Script.GeminiModel = "gemini-1.5-flash"
	}
	if c.Script.GroqModel == "" {
		c.Script.GroqModel = "llama-3.3-70b-versatile"
	}
	if c.Script.Temperature == 0 {
		c.Script.Temperature = 0.9
	}
	if c.Script.MaxAttempts == 0 {
		c.Script.MaxAttempts = 5
	}
	if c.Script.SimilarityThreshold == 0 {
		c.Script.SimilarityThreshold = 0.6
	}
	if c.Script.MinBullets == 0 {
		c.Script.MinBullets = 3
	}
	if c.Audio.Voice == "" {
		c.Audio.Voice = "en-US-AriaNeural"
	}
	if c.Audio.WPM == 0 {
		c.Audio.WPM = 145
	}
	if c.Audio.SectionPause == 0 {
		c.Audio.SectionPause = 0.25
	}
	if c.Audio.MinDuration == 0 {
		c.Audio.MinDuration = 15
	}
	if c.Audio.MaxDuration == 0 {
		c.Audio.MaxDuration = 75
	}
	if c.Visuals.Width == 0 {
		c.Visuals.Width = 1080
	}
	if c.Visuals.Height == 0 {
		c.Visuals.Height = 1920
	}
	if len(c.Visuals.HuggingFaceModels) == 0 {
		c.Visuals.HuggingFaceModels = []string{
			"stabilityai/stable-diffusion-xl-base-1.0",
			"prompthero/openjourney-v4",
			"Lykon/dreamshaper-xl-v2-turbo",
			"runwayml/stable-diffusion-v1-5",
			"stabilityai/sdxl-turbo",
		}
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = 30
	}
	if c.Video.CrossFadeSec == 0 {
		c.Video.CrossFadeSec = 0.3
	}
	if c.Video.SafeZoneMargin == 0 {
		c.Video.SafeZoneMargin = 130
	}
	if c.Video.StartFontSize == 0 {
		c.Video.StartFontSize = 64
	}
	if c.Video.MinFontSize == 0 {
		c.Video.MinFontSize = 32
	}
	if len(c.Video.FontPaths) == 0 {
		c.Video.FontPaths = []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
		}
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "26" // Howto & Style
	}
	if c.Upload.Privacy == "" {
		c.Upload.Privacy = "public"
	}
	if len(c.Upload.BaseTags) == 0 {
		c.Upload.BaseTags = []string{
			"gardening", "gardening tips", "plant care", "garden hacks",
			"urban gardening", "container gardening", "houseplants",
			"propagation", "grow your own food", "organic gardening",
			"garden shorts", "planttok", "plant parent",
		}
	}
	if c.Upload.MaxTags == 0 {
		c.Upload.MaxTags = 15
	}
	if c.Upload.GraphVersion == "" {
		c.Upload.GraphVersion = "v24.0"
	}
	if c.Paths.Workspace == "" {
		root := os.Getenv("GITHUB_WORKSPACE")
		if root == "" {
			root = "."
		}
		c.Paths.Workspace = filepath.Join(root, "tmp")
	}
}

// FontPath returns the first installed font from the configured list.
func (c *Config) FontPath() string {
	for _, p := range c.Video.FontPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
