package types

import "time"

// Topic is a single trending idea surfaced by the trending stage.
type Topic struct {
	Title     string    `json:"title"`
	Angle     string    `json:"angle,omitempty"`
	Source    string    `json:"source"`
	Score     float64   `json:"score"`
	FetchedAt time.Time `json:"fetched_at"`
}

// TrendingReport is the artifact the trending stage writes to disk.
type TrendingReport struct {
	RunID   string    `json:"run_id"`
	Topics  []Topic   `json:"topics"`
	Sources []string  `json:"sources"`
	Created time.Time `json:"created"`
}

// Script is the narration payload shared by every downstream stage.
// Hook and CTA may be empty; empty sections produce no scene.
type Script struct {
	Topic       string   `json:"topic"`
	Title       string   `json:"title"`
	Hook        string   `json:"hook"`
	Bullets     []string `json:"bullets"`
	CTA         string   `json:"cta"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	// Hashtags carry the # prefix. VisualPrompts holds one image
	// prompt per narration section (hook + bullets + cta); both are
	// synthesized when the model returns fewer.
	Hashtags      []string `json:"hashtags"`
	VisualPrompts []string `json:"visual_prompts"`
	ContentHash   string   `json:"content_hash"`
	Provider      string   `json:"provider"`
	Fallback      bool     `json:"fallback,omitempty"`
}

// Narration flattens the script into the spoken sections, in order.
// Empty hook/CTA are dropped; empty bullets are kept so the scene
// count stays aligned with the bullet list.
func (s *Script) Narration() []Section {
	var out []Section
	if s.Hook != "" {
		out = append(out, Section{Kind: SectionHook, Text: s.Hook})
	}
	for _, b := range s.Bullets {
		out = append(out, Section{Kind: SectionBullet, Text: b})
	}
	if s.CTA != "" {
		out = append(out, Section{Kind: SectionCTA, Text: s.CTA})
	}
	return out
}

// SectionKind identifies the role of a narration section.
type SectionKind string

const (
	SectionHook   SectionKind = "hook"
	SectionBullet SectionKind = "bullet"
	SectionCTA    SectionKind = "cta"
)

// Section is one spoken unit of the script.
type Section struct {
	Kind SectionKind `json:"kind"`
	Text string      `json:"text"`
}

// AudioMeta is written by the TTS stage next to voiceover.mp3 so the
// assembly stage can allocate scene durations without re-probing.
type AudioMeta struct {
	Text              string         `json:"text"`
	Words             int            `json:"words"`
	EstimatedDuration float64        `json:"estimated_duration"`
	ActualDuration    float64        `json:"actual_duration"`
	FileSizeKB        float64        `json:"file_size_kb"`
	Provider          string         `json:"provider"`
	WPM               float64        `json:"wpm"`
	Sections          []SectionAudio `json:"sections,omitempty"`
}

// SectionAudio records a per-section clip when the TTS provider
// produced one file per section.
type SectionAudio struct {
	Kind     SectionKind `json:"kind"`
	File     string      `json:"file"`
	Duration float64     `json:"duration"`
}

// UploadRecord is one published video, appended to the platform's
// upload history log.
type UploadRecord struct {
	VideoID  string    `json:"video_id"`
	Title    string    `json:"title"`
	Topic    string    `json:"topic,omitempty"`
	URL      string    `json:"url"`
	Platform string    `json:"platform"`
	Tags     []string  `json:"tags,omitempty"`
	Uploaded time.Time `json:"uploaded"`
}

// PipelineState is the run manifest persisted between stages so a
// partially completed run can be resumed or inspected.
type PipelineState struct {
	RunID       string          `json:"run_id"`
	Stage       string          `json:"stage"`
	Script      *Script         `json:"script,omitempty"`
	AudioPath   string          `json:"audio_path,omitempty"`
	VideoPath   string          `json:"video_path,omitempty"`
	ThumbPath   string          `json:"thumb_path,omitempty"`
	Uploads     []*UploadRecord `json:"uploads,omitempty"`
	StartedAt   string          `json:"started_at"`
	CompletedAt string          `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
}
