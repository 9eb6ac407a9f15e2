// Package timeline turns a voiceover duration into per-scene
// durations. When the TTS stage produced one clip per section the
// measured durations are used as-is; otherwise durations are estimated
// from word counts and scaled so the scenes cover the full track.
package timeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/dantunmibi/ytgardening/types"
)

const (
	// CrossFade is the visual overlap between adjacent scenes.
	CrossFade = 0.3
	// MinScene is the duration floor applied after cross-fade
	// compensation. A scene shorter than this flashes by unreadably.
	MinScene = 1.0
	// FallbackWPM is the speech rate assumed when no measured
	// durations exist and the track length must be split by words.
	FallbackWPM = 140.0
)

// EstimateSpeech returns the expected spoken duration of text at the
// given words-per-minute rate.
func EstimateSpeech(text string, wpm float64) float64 {
	words := len(strings.Fields(text))
	if words == 0 || wpm <= 0 {
		return 0
	}
	return float64(words) / (wpm / 60.0)
}

// Allocate distributes total seconds of audio across the sections.
//
// If measured has one positive duration per section those are trusted
// directly. Otherwise each section gets time proportional to its word
// count, scaled to the real track length, compensated for cross-fade
// overlap, floored at MinScene, and the rounding residual is absorbed
// by the final section so the timeline never drifts against the audio.
func Allocate(total float64, sections []types.Section, measured []float64) ([]float64, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("no sections to allocate")
	}
	if total <= 0 {
		return nil, fmt.Errorf("invalid audio duration %.2fs", total)
	}

	if len(measured) == len(sections) && allPositive(measured) {
		out := make([]float64, len(measured))
		copy(out, measured)
		return out, nil
	}

	n := len(sections)
	durs := make([]float64, n)
	totalWords := 0
	for _, s := range sections {
		totalWords += len(strings.Fields(s.Text))
	}

	if totalWords == 0 {
		for i := range durs {
			durs[i] = total / float64(n)
		}
		return durs, nil
	}

	// Scale word-count estimates so they sum to the real track length.
	sumEst := 0.0
	for i, s := range sections {
		durs[i] = EstimateSpeech(s.Text, FallbackWPM)
		sumEst += durs[i]
	}
	if sumEst > 0 {
		scale := total / sumEst
		for i := range durs {
			durs[i] *= scale
		}
	}

	// Spread the cross-fade overlap cost proportionally, then floor.
	// An empty bullet estimates to zero and lands exactly on the floor,
	// which is what keeps its placeholder scene on screen.
	overlap := CrossFade * float64(n-1)
	for i := range durs {
		durs[i] = math.Max(MinScene, durs[i]-overlap*durs[i]/total)
	}

	// The final section absorbs the rounding residual.
	sum := 0.0
	for _, d := range durs {
		sum += d
	}
	if diff := total - sum; math.Abs(diff) > 0.01 {
		durs[n-1] = math.Max(MinScene, durs[n-1]+diff)
	}
	return durs, nil
}

// Starts returns the start offset of each scene on a concatenated
// timeline.
func Starts(durs []float64) []float64 {
	out := make([]float64, len(durs))
	acc := 0.0
	for i, d := range durs {
		out[i] = acc
		acc += d
	}
	return out
}

// Drift reports how far the allocated durations run from the audio
// track. Callers warn above half a second.
func Drift(durs []float64, total float64) float64 {
	sum := 0.0
	for _, d := range durs {
		sum += d
	}
	return sum - total
}

func allPositive(ds []float64) bool {
	for _, d := range ds {
		if d <= 0 {
			return false
		}
	}
	return true
}
