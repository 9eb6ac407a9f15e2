package upload

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/types"
)

// YouTube uploads Shorts via the Data API v3 with a long-lived
// refresh token.
type YouTube struct {
	cfg *config.Config
}

// NewYouTube creates the YouTube platform.
func NewYouTube(cfg *config.Config) *YouTube {
	return &YouTube{cfg: cfg}
}

func (y *YouTube) Name() string           { return "youtube" }
func (y *YouTube) Priority() int          { return 1 }
func (y *YouTube) EnabledByDefault() bool { return true }

// Upload publishes the video and sets the custom thumbnail. The
// thumbnail step is best-effort: Shorts mostly ignore it, so a
// failure there never fails the upload.
func (y *YouTube) Upload(ctx context.Context, video Video) (*types.UploadRecord, error) {
	svc, err := y.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube auth: %w", err)
	}

	script := video.Script
	log.Printf("[upload] YouTube: uploading %q", script.Title)

	snippet := &youtube.VideoSnippet{
		Title:       script.Title,
		Description: buildDescription(script),
		Tags:        mergeTags(script.Tags, y.cfg.Upload.BaseTags, y.cfg.Upload.MaxTags),
		CategoryId:  y.cfg.Upload.CategoryID,
	}
	status := &youtube.VideoStatus{
		PrivacyStatus:           y.cfg.Upload.Privacy,
		SelfDeclaredMadeForKids: y.cfg.Upload.MadeForKids,
	}

	f, err := os.Open(video.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		log.Printf("[upload] YouTube: file size %.1f MB", float64(fi.Size())/1024/1024)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, &youtube.Video{
		Snippet: snippet,
		Status:  status,
	})
	call.Media(f)

	uploaded, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtube upload: %w", err)
	}

	if video.ThumbPath != "" {
		if err := y.setThumbnail(svc, uploaded.Id, video.ThumbPath); err != nil {
			log.Printf("[upload] YouTube: thumbnail set failed: %v", err)
		}
	}

	return &types.UploadRecord{
		VideoID:  uploaded.Id,
		Title:    script.Title,
		Topic:    script.Topic,
		URL:      fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id),
		Platform: "youtube",
		Tags:     snippet.Tags,
		Uploaded: time.Now().UTC(),
	}, nil
}

// Service returns an authenticated YouTube client. Exposed so the
// playlist stage can reuse the same credentials.
func (y *YouTube) Service(ctx context.Context) (*youtube.Service, error) {
	return y.service(ctx)
}

func (y *YouTube) service(ctx context.Context) (*youtube.Service, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	refreshToken := os.Getenv("GOOGLE_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET or GOOGLE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh on first use
	}
	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))

	return youtube.NewService(ctx, option.WithHTTPClient(client))
}

func (y *YouTube) setThumbnail(svc *youtube.Service, videoID, thumbPath string) error {
	f, err := os.Open(thumbPath)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = svc.Thumbnails.Set(videoID).Media(f).Do()
	return err
}

// buildDescription appends the hashtag block YouTube Shorts expects.
func buildDescription(script *types.Script) string {
	desc := script.Description
	if desc == "" {
		desc = script.Hook
	}
	hashtags := strings.Join(script.Hashtags, " ")
	if hashtags == "" {
		hashtags = "#Shorts #gardening #planttok"
	}
	return desc + "\n\n" + hashtags
}

// mergeTags joins script tags with the channel base tags, dedupes and
// enforces the API limit.
func mergeTags(scriptTags, baseTags []string, limit int) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range append(append([]string{}, scriptTags...), baseTags...) {
		key := normalizeTag(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
