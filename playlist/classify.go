// Package playlist files uploaded videos into themed YouTube
// playlists based on the video title.
package playlist

import (
	"strings"
)

// Rule describes one playlist bucket. Keywords are scored strongest,
// plants give a category bonus when the title mentions them.
type Rule struct {
	Name     string
	Keywords []string
	Plants   []string
}

// DefaultRules covers the channel's recurring formats. The last
// resort bucket is "hacks".
var DefaultRules = []Rule{
	{
		Name:     "Propagation Station",
		Keywords: []string{"propagate", "propagation", "cutting", "cuttings", "root", "clone"},
		Plants:   []string{"pothos", "monstera", "philodendron", "spider plant", "snake plant"},
	},
	{
		Name:     "Houseplant Care",
		Keywords: []string{"houseplant", "indoor", "watering", "overwatering", "repot", "light"},
		Plants:   []string{"monstera", "fiddle leaf", "snake plant", "peace lily", "fern", "orchid"},
	},
	{
		Name:     "Grow Your Own Food",
		Keywords: []string{"harvest", "vegetable", "grow", "edible", "seed", "kitchen scraps"},
		Plants:   []string{"tomato", "basil", "lettuce", "pepper", "herbs", "potato"},
	},
	{
		Name:     "Garden Problem Fixes",
		Keywords: []string{"fix", "dying", "yellow", "pest", "disease", "mistake", "wrong", "save"},
		Plants:   []string{"tomato", "rose", "basil", "hydrangea"},
	},
	{
		Name:     "Garden Hacks",
		Keywords: []string{"hack", "trick", "cheap", "diy", "easy", "minute", "secret"},
	},
}

// DefaultBucket is used when no rule scores at all.
const DefaultBucket = "Garden Hacks"

// Classify picks the best playlist name for a title.
func Classify(title string, rules []Rule) string {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	lower := strings.ToLower(title)
	words := strings.Fields(lower)

	best := DefaultBucket
	bestScore := 0
	for _, r := range rules {
		if score := scoreRule(lower, words, r); score > bestScore {
			best = r.Name
			bestScore = score
		}
	}
	return best
}

// scoreRule weighs exact keyword hits heaviest, then word-level hits,
// then fuzzy near-misses, with a bonus when the rule's plants show
// up.
func scoreRule(lowerTitle string, titleWords []string, r Rule) int {
	score := 0
	for _, kw := range r.Keywords {
		kw = strings.ToLower(kw)
		switch {
		case strings.Contains(lowerTitle, kw):
			score += 3
		case keywordWordHit(titleWords, kw):
			score += 2
		case fuzzyHit(titleWords, kw):
			score += 1
		}
	}
	for _, plant := range r.Plants {
		if strings.Contains(lowerTitle, strings.ToLower(plant)) {
			score += 2
		}
	}
	return score
}

// keywordWordHit matches any keyword word longer than three chars
// against the title words.
func keywordWordHit(titleWords []string, kw string) bool {
	for _, kwWord := range strings.Fields(kw) {
		if len(kwWord) <= 3 {
			continue
		}
		for _, tw := range titleWords {
			if tw == kwWord {
				return true
			}
		}
	}
	return false
}

func fuzzyHit(titleWords []string, kw string) bool {
	for _, tw := range titleWords {
		if Similarity(tw, kw) >= 0.8 {
			return true
		}
	}
	return false
}

// Similarity is a ratio in [0, 1] based on the longest common
// subsequence: 2*LCS / (len(a)+len(b)).
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	lcs := prev[len(rb)]
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}
