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
	"time"

	"github.com/dantunmibi/ytgardening/config"
	"github.com/dantunmibi/ytgardening/types"
)

// Instagram publishes Reels through the Graph API container flow.
// The API only accepts a public video URL, so the file is first
// parked on Cloudinary via an unsigned upload preset. Disabled by
// default until the app passes review.
type Instagram struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewInstagram creates the Instagram platform.
func NewInstagram(cfg *config.Config) *Instagram {
	return &Instagram{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (ig *Instagram) Name() string           { return "instagram" }
func (ig *Instagram) Priority() int          { return 3 }
func (ig *Instagram) EnabledByDefault() bool { return false }

// Upload hosts the file, creates a REELS container, waits for
// processing and publishes it.
func (ig *Instagram) Upload(ctx context.Context, video Video) (*types.UploadRecord, error) {
	userID := os.Getenv("INSTAGRAM_USER_ID")
	token := os.Getenv("INSTAGRAM_ACCESS_TOKEN")
	if userID == "" || token == "" {
		return nil, fmt.Errorf("INSTAGRAM_USER_ID or INSTAGRAM_ACCESS_TOKEN not set")
	}

	videoURL, err := ig.hostOnCloudinary(ctx, video.FilePath)
	if err != nil {
		return nil, fmt.Errorf("host video: %w", err)
	}

	script := video.Script
	log.Printf("[upload] Instagram: creating reel container for %q", script.Title)

	containerID, err := ig.createContainer(ctx, userID, token, videoURL, script)
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	if err := ig.waitForContainer(ctx, containerID, token); err != nil {
		return nil, fmt.Errorf("container processing: %w", err)
	}

	mediaID, err := ig.publish(ctx, userID, token, containerID)
	if err != nil {
		return nil, fmt.Errorf("publish reel: %w", err)
	}

	return &types.UploadRecord{
		VideoID:  mediaID,
		Title:    script.Title,
		Topic:    script.Topic,
		URL:      "https://www.instagram.com/reel/" + mediaID,
		Platform: "instagram",
		Uploaded: time.Now().UTC(),
	}, nil
}

// hostOnCloudinary uses an unsigned upload preset so no API secret
// has to live in CI.
func (ig *Instagram) hostOnCloudinary(ctx context.Context, filePath string) (string, error) {
	cloud := os.Getenv("CLOUDINARY_CLOUD_NAME")
	preset := os.Getenv("CLOUDINARY_UPLOAD_PRESET")
	if cloud == "" || preset == "" {
		return "", fmt.Errorf("CLOUDINARY_CLOUD_NAME or CLOUDINARY_UPLOAD_PRESET not set")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("upload_preset", preset)
	part, err := mw.CreateFormFile("file", "video.mp4")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/video/upload", cloud)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := ig.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cloudinary HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	var result struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.Unmarshal(raw, &result); err != nil || result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary response missing secure_url")
	}
	return result.SecureURL, nil
}

func (ig *Instagram) createContainer(ctx context.Context, userID, token, videoURL string, script *types.Script) (string, error) {
	form := url.Values{}
	form.Set("media_type", "REELS")
	form.Set("video_url", videoURL)
	form.Set("caption", script.Title+"\n\n"+buildDescription(script))
	form.Set("access_token", token)

	endpoint := fmt.Sprintf("https://graph.facebook.com/%s/%s/media", ig.cfg.Upload.GraphVersion, userID)
	return ig.postForID(ctx, endpoint, form)
}

// waitForContainer polls status_code until FINISHED; ERROR or a
// timeout fails the attempt.
func (ig *Instagram) waitForContainer(ctx context.Context, containerID, token string) error {
	statusURL := fmt.Sprintf("https://graph.facebook.com/%s/%s?fields=status_code&access_token=%s",
		ig.cfg.Upload.GraphVersion, containerID, url.QueryEscape(token))

	for i := 0; i < 12; i++ {
		var result struct {
			StatusCode string `json:"status_code"`
		}
		req, err := http.NewRequestWithContext(ctx, "GET", statusURL, nil)
		if err != nil {
			return err
		}
		resp, err := ig.httpClient.Do(req)
		if err != nil {
			return err
		}
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err == nil {
			switch result.StatusCode {
			case "FINISHED":
				return nil
			case "ERROR":
				return fmt.Errorf("container entered ERROR state")
			}
		}
		select {
		case <-time.After(10 * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("container not ready after 2 minutes")
}

func (ig *Instagram) publish(ctx context.Context, userID, token, containerID string) (string, error) {
	form := url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", token)

	endpoint := fmt.Sprintf("https://graph.facebook.com/%s/%s/media_publish", ig.cfg.Upload.GraphVersion, userID)
	return ig.postForID(ctx, endpoint, form)
}

func (ig *Instagram) postForID(ctx context.Context, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ig.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("graph HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &result); err != nil || result.ID == "" {
		return "", fmt.Errorf("graph response missing id: %s", truncate(string(raw), 200))
	}
	return result.ID, nil
}
