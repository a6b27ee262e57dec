package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

// Fallback builds a deterministic analysis from the video duration alone.
// Same duration and tier always yield the same document, so retries and
// tests are reproducible.
func Fallback(duration float64, tier plans.Tier) Document {
	doc := Document{
		ViralScore:     0.72,
		ContentType:    "general",
		TargetAudience: "broad social media audience",
		Techniques:     []string{"strong opening hook", "tight pacing", "caption overlay"},
		Factors:        []string{"watch-through potential", "shareability", "emotional resonance"},
		Summary:        fmt.Sprintf("Heuristic assessment of a %.0f second video based on duration and pacing norms.", duration),
		SegmentHints:   fallbackHints(duration, tier),
	}
	return doc
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func fallbackHints(duration float64, tier plans.Tier) []SegmentHint {
	if duration <= 0 {
		return nil
	}

	if duration > 180 {
		// Long-form: open, middle, and closing act windows.
		return []SegmentHint{
			{StartTime: 0, EndTime: math.Min(60, 0.4*duration), Score: 0.95, Description: "Opening hook"},
			{StartTime: 0.3 * duration, EndTime: 0.7 * duration, Score: 0.88, Description: "Core moment"},
			{StartTime: 0.65 * duration, EndTime: duration, Score: 0.92, Description: "Climax and payoff"},
		}
	}

	if tier == plans.TierStandard {
		return []SegmentHint{
			{StartTime: 0, EndTime: math.Min(30, duration), Score: 0.9, Description: "Opening highlight"},
		}
	}

	count := int(duration / plans.DefaultSegmentDuration.Seconds())
	if count < 2 {
		count = 2
	}
	if limit := plans.MaxSegmentsForDuration(secondsToDuration(duration)); count > limit {
		count = limit
	}

	chunk := duration / float64(count)
	hints := make([]SegmentHint, 0, count)
	for i := 0; i < count; i++ {
		hints = append(hints, SegmentHint{
			StartTime:   float64(i) * chunk,
			EndTime:     float64(i+1) * chunk,
			Score:       0.9 - 0.05*float64(i),
			Description: fmt.Sprintf("Highlight %d", i+1),
		})
	}
	return hints
}
