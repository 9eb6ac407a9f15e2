package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/types"
)

const tiktokAPI = "https://open.tiktokapis.com/v2"

// TikTok publishes through the Content Posting API direct-post flow.
// Disabled by default: the API only accepts uploads from audited apps,
// so this stays off until the audit clears. It still participates in
// selection so PLATFORMS and FORCE_ALL behave uniformly.
type TikTok struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewTikTok creates the TikTok platform.
func NewTikTok(cfg *config.Config) *TikTok {
	return &TikTok{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (t *TikTok) Name() string           { return "tiktok" }
func (t *TikTok) Priority() int          { return 4 }
func (t *TikTok) EnabledByDefault() bool { return false }

// Upload runs init → file PUT → status poll.
func (t *TikTok) Upload(ctx context.Context, video Video) (*types.UploadRecord, error) {
	token := os.Getenv("TIKTOK_ACCESS_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TIKTOK_ACCESS_TOKEN not set")
	}

	info, err := os.Stat(video.FilePath)
	if err != nil {
		return nil, err
	}

	log.Printf("[upload] TikTok: initializing direct post for %q", video.Script.Title)
	publishID, uploadURL, err := t.initPost(ctx, token, video.Script.Title, info.Size())
	if err != nil {
		return nil, fmt.Errorf("init post: %w", err)
	}

	if err := t.putFile(ctx, uploadURL, video.FilePath, info.Size()); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	if err := t.waitForPublish(ctx, token, publishID); err != nil {
		return nil, fmt.Errorf("publish status: %w", err)
	}

	return &types.UploadRecord{
		VideoID:  publishID,
		Title:    video.Script.Title,
		Topic:    video.Script.Topic,
		URL:      "https://www.tiktok.com/",
		Platform: "tiktok",
		Uploaded: time.Now().UTC(),
	}, nil
}

// initPost declares the upload as a single chunk; shorts stay well
// under the 64MB chunk ceiling.
func (t *TikTok) initPost(ctx context.Context, token, title string, size int64) (string, string, error) {
	payload := map[string]any{
		"post_info": map[string]any{
			"title":         title,
			"privacy_level": "PUBLIC_TO_EVERYONE",
		},
		"source_info": map[string]any{
			"source":            "FILE_UPLOAD",
			"video_size":        size,
			"chunk_size":        size,
			"total_chunk_count": 1,
		},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", tiktokAPI+"/post/publish/video/init/", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("tiktok HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	var result struct {
		Data struct {
			PublishID string `json:"publish_id"`
			UploadURL string `json:"upload_url"`
		} `json:"data"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", "", err
	}
	if result.Error.Code != "" && result.Error.Code != "ok" {
		return "", "", fmt.Errorf("tiktok init: %s (%s)", result.Error.Message, result.Error.Code)
	}
	if result.Data.PublishID == "" || result.Data.UploadURL == "" {
		return "", "", fmt.Errorf("tiktok init response missing publish_id or upload_url")
	}
	return result.Data.PublishID, result.Data.UploadURL, nil
}

func (t *TikTok) putFile(ctx context.Context, uploadURL, filePath string, size int64) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, "PUT", uploadURL, file)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tiktok upload HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	return nil
}

// waitForPublish polls the status endpoint until the post leaves
// processing; FAILED or a timeout fails the attempt.
func (t *TikTok) waitForPublish(ctx context.Context, token, publishID string) error {
	body, _ := json.Marshal(map[string]string{"publish_id": publishID})

	for i := 0; i < 12; i++ {
		req, err := http.NewRequestWithContext(ctx, "POST", tiktokAPI+"/post/publish/status/fetch/", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.httpClient.Do(req)
		if err != nil {
			return err
		}
		var result struct {
			Data struct {
				Status string `json:"status"`
			} `json:"data"`
		}
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err == nil {
			switch result.Data.Status {
			case "PUBLISH_COMPLETE":
				return nil
			case "FAILED":
				return fmt.Errorf("tiktok reported FAILED")
			}
		}
		select {
		case <-time.After(10 * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("post not published after 2 minutes")
}
