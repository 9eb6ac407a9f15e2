package script

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// Record is one generated script remembered for deduplication.
type Record struct {
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash"`
	Created     time.Time `json:"created"`
}

// ContentHash fingerprints the spoken content of a script. Titles are
// excluded so a reworded title over the same narration still counts
// as a duplicate.
func ContentHash(hook string, bullets []string, cta string) string {
	var sb strings.Builder
	sb.WriteString(normalizeText(hook))
	for _, b := range bullets {
		sb.WriteString("|")
		sb.WriteString(normalizeText(b))
	}
	sb.WriteString("|")
	sb.WriteString(normalizeText(cta))
	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// TitleSimilarity is the Jaccard similarity of the two titles' word
// sets, in [0, 1].
func TitleSimilarity(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

// IsDuplicate reports whether a candidate collides with history.
// Exact content hashes always collide. The title-similarity bar is
// threshold scaled by 1/(1+0.02*idx), idx 0 = most recent, so older
// entries clear a lower bar: a recurring topic has to move further
// from phrasing the channel has already shipped, however long ago.
func IsDuplicate(title, contentHash string, recent []Record, threshold float64) bool {
	for idx, r := range recent {
		if r.ContentHash != "" && r.ContentHash == contentHash {
			return true
		}
		decay := 1.0 / (1.0 + 0.02*float64(idx))
		if TitleSimilarity(title, r.Title) > threshold*decay {
			return true
		}
	}
	return false
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func wordSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?:;'\"")
		if w != "" {
			out[w] = true
		}
	}
	return out
}
