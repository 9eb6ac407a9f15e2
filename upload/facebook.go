package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/types"
)

// Facebook uploads to a Page's video edge via the Graph API.
type Facebook struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewFacebook creates the Facebook platform.
func NewFacebook(cfg *config.Config) *Facebook {
	return &Facebook{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (f *Facebook) Name() string           { return "facebook" }
func (f *Facebook) Priority() int          { return 2 }
func (f *Facebook) EnabledByDefault() bool { return true }

// Upload resolves a Page token (exchanging a user token when
// necessary), pushes the file to the Page's videos edge and polls for
// the permalink.
func (f *Facebook) Upload(ctx context.Context, video Video) (*types.UploadRecord, error) {
	pageID := os.Getenv("FACEBOOK_PAGE_ID")
	token := os.Getenv("FACEBOOK_ACCESS_TOKEN")
	if pageID == "" || token == "" {
		return nil, fmt.Errorf("FACEBOOK_PAGE_ID or FACEBOOK_ACCESS_TOKEN not set")
	}

	pageToken, err := f.resolvePageToken(ctx, pageID, token)
	if err != nil {
		return nil, fmt.Errorf("resolve page token: %w", err)
	}

	script := video.Script
	log.Printf("[upload] Facebook: uploading %q to page %s", script.Title, pageID)

	videoID, err := f.uploadVideo(ctx, pageID, pageToken, video.FilePath, script)
	if err != nil {
		return nil, err
	}

	permalink := f.pollPermalink(ctx, videoID, pageToken)
	if permalink == "" {
		permalink = fmt.Sprintf("https://www.facebook.com/%s/videos/%s", pageID, videoID)
	}

	return &types.UploadRecord{
		VideoID:  videoID,
		Title:    script.Title,
		Topic:    script.Topic,
		URL:      permalink,
		Platform: "facebook",
		Uploaded: time.Now().UTC(),
	}, nil
}

// resolvePageToken inspects the token type; USER tokens get exchanged
// for the Page's own token, PAGE tokens pass through.
func (f *Facebook) resolvePageToken(ctx context.Context, pageID, token string) (string, error) {
	debugURL := fmt.Sprintf("https://graph.facebook.com/%s/debug_token?input_token=%s&access_token=%s",
		f.cfg.Upload.GraphVersion, url.QueryEscape(token), url.QueryEscape(token))

	var debug struct {
		Data struct {
			Type string `json:"type"`
		} `json:"data"`
	}
	if err := f.getJSON(ctx, debugURL, &debug); err != nil {
		log.Printf("[upload] Facebook: token debug failed (%v), assuming page token", err)
		return token, nil
	}
	if !strings.EqualFold(debug.Data.Type, "USER") {
		return token, nil
	}

	log.Println("[upload] Facebook: user token detected, exchanging for page token")
	exchangeURL := fmt.Sprintf("https://graph.facebook.com/%s/%s?fields=access_token&access_token=%s",
		f.cfg.Upload.GraphVersion, pageID, url.QueryEscape(token))

	var page struct {
		AccessToken string `json:"access_token"`
	}
	if err := f.getJSON(ctx, exchangeURL, &page); err != nil {
		return "", err
	}
	if page.AccessToken == "" {
		return "", fmt.Errorf("page token exchange returned empty token")
	}
	return page.AccessToken, nil
}

func (f *Facebook) uploadVideo(ctx context.Context, pageID, token, filePath string, script *types.Script) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("access_token", token)
	_ = mw.WriteField("title", script.Title)
	_ = mw.WriteField("description", buildDescription(script))
	part, err := mw.CreateFormFile("source", "video.mp4")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("buffer video: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("https://graph-video.facebook.com/%s/%s/videos", f.cfg.Upload.GraphVersion, pageID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("facebook upload request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("facebook upload HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &result); err != nil || result.ID == "" {
		return "", fmt.Errorf("facebook upload response missing video id: %s", truncate(string(raw), 200))
	}
	return result.ID, nil
}

// pollPermalink waits for Facebook to finish processing enough to
// expose the permalink. Best effort.
func (f *Facebook) pollPermalink(ctx context.Context, videoID, token string) string {
	permURL := fmt.Sprintf("https://graph.facebook.com/%s/%s?fields=permalink_url&access_token=%s",
		f.cfg.Upload.GraphVersion, videoID, url.QueryEscape(token))

	for i := 0; i < 5; i++ {
		var result struct {
			PermalinkURL string `json:"permalink_url"`
		}
		if err := f.getJSON(ctx, permURL, &result); err == nil && result.PermalinkURL != "" {
			if strings.HasPrefix(result.PermalinkURL, "/") {
				return "https://www.facebook.com" + result.PermalinkURL
			}
			return result.PermalinkURL
		}
		select {
		case <-time.After(10 * time.Second):
		case <-ctx.Done():
			return ""
		}
	}
	return ""
}

func (f *Facebook) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
