package playlist

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/api/youtube/v3"

	"github.com/dantunmibi/ytgardening/config"
)

// existingMatchThreshold maps a computed bucket name onto an already
// created playlist even when the names drifted slightly.
const existingMatchThreshold = 0.6

// Organizer files videos into playlists on the channel.
type Organizer struct {
	cfg   *config.Config
	svc   *youtube.Service
	rules []Rule
}

// New creates the playlist stage around an authenticated service.
func New(cfg *config.Config, svc *youtube.Service) *Organizer {
	return &Organizer{cfg: cfg, svc: svc, rules: DefaultRules}
}

// Run classifies the title, finds or creates the playlist, and adds
// the video to it.
func (o *Organizer) Run(ctx context.Context, videoID, title string) error {
	bucket := Classify(title, o.rules)
	log.Printf("[playlist] %q → %q", title, bucket)

	existing, err := o.listPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("list playlists: %w", err)
	}

	playlistID := matchExisting(bucket, existing)
	if playlistID == "" {
		playlistID, err = o.createPlaylist(ctx, bucket)
		if err != nil {
			return fmt.Errorf("create playlist %q: %w", bucket, err)
		}
		log.Printf("[playlist] Created playlist %q (%s)", bucket, playlistID)
	}

	if err := o.addVideo(ctx, playlistID, videoID); err != nil {
		return fmt.Errorf("add video to playlist: %w", err)
	}
	log.Printf("[playlist] ✅ Added %s to %q", videoID, bucket)
	return nil
}

// matchExisting fuzzy-matches the bucket against channel playlists so
// a manual rename doesn't spawn duplicates.
func matchExisting(bucket string, existing map[string]string) string {
	bestID := ""
	bestSim := existingMatchThreshold
	for title, id := range existing {
		if sim := Similarity(bucket, title); sim > bestSim {
			bestSim = sim
			bestID = id
		}
	}
	return bestID
}

func (o *Organizer) listPlaylists(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	pageToken := ""
	for {
		call := o.svc.Playlists.List([]string{"snippet"}).Mine(true).MaxResults(50)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Items {
			out[p.Snippet.Title] = p.Id
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (o *Organizer) createPlaylist(ctx context.Context, title string) (string, error) {
	p, err := o.svc.Playlists.Insert([]string{"snippet", "status"}, &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       title,
			Description: fmt.Sprintf("%s — %s", o.cfg.Channel.Name, o.cfg.Channel.Tagline),
		},
		Status: &youtube.PlaylistStatus{PrivacyStatus: "public"},
	}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return p.Id, nil
}

func (o *Organizer) addVideo(ctx context.Context, playlistID, videoID string) error {
	_, err := o.svc.PlaylistItems.Insert([]string{"snippet"}, &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}).Context(ctx).Do()
	return err
}
