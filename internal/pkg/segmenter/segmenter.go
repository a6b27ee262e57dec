// Package segmenter turns analysis hints into a concrete cutting plan that
// honors tier limits and business caps.
package segmenter

import (
	"fmt"
	"sort"
	"time"

	"github.com/LeTienDat/ViralCut/internal/pkg/analysis"
	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Segment is one planned clip. Index is dense starting at 1.
type Segment struct {
	Index       int
	StartTime   float64
	EndTime     float64
	Score       float64
	Description string
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Plan converts hints into segments for a video of the given duration.
// Hints are clamped to the video, too-short ones dropped, too-long ones
// truncated from the end to the tier ceiling. When more usable hints exist
// than the cap allows, the highest-scoring ones win. The result is ordered
// by start time with dense indexes.
//
// When no hint survives, Plan falls back to even chunking so an upload is
// never left without segments.
func Plan(hints []analysis.SegmentHint, videoDuration float64, tier plans.Tier) []Segment {
	if videoDuration <= 0 {
		return nil
	}

	minLen := plans.MinSegmentDuration.Seconds()
	maxLen := plans.MaxSegmentDuration(tier).Seconds()

	usable := make([]Segment, 0, len(hints))
	for _, h := range hints {
		start := h.StartTime
		end := h.EndTime
		if start < 0 {
			start = 0
		}
		if end > videoDuration {
			end = videoDuration
		}
		if end-start < minLen {
			continue
		}
		if end-start > maxLen {
			end = start + maxLen
		}
		usable = append(usable, Segment{
			StartTime:   start,
			EndTime:     end,
			Score:       h.Score,
			Description: h.Description,
		})
	}

	if len(usable) == 0 {
		return chunkEvenly(videoDuration, tier)
	}

	limit := plans.MaxSegmentsForDuration(secondsToDuration(videoDuration))
	if len(usable) > limit {
		sort.SliceStable(usable, func(i, j int) bool {
			return usable[i].Score > usable[j].Score
		})
		usable = usable[:limit]
	}

	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].StartTime < usable[j].StartTime
	})
	for i := range usable {
		usable[i].Index = i + 1
	}
	return usable
}

// chunkEvenly slices the video into fixed-length pieces. A trailing
// remainder shorter than the minimum is discarded.
func chunkEvenly(videoDuration float64, tier plans.Tier) []Segment {
	chunk := plans.DefaultSegmentDuration.Seconds()
	minLen := plans.MinSegmentDuration.Seconds()
	limit := plans.MaxSegmentsForDuration(secondsToDuration(videoDuration))

	var out []Segment
	for start := 0.0; start < videoDuration && len(out) < limit; start += chunk {
		end := start + chunk
		if end > videoDuration {
			end = videoDuration
		}
		if end-start < minLen {
			break
		}
		out = append(out, Segment{
			Index:       len(out) + 1,
			StartTime:   start,
			EndTime:     end,
			Score:       0.5,
			Description: fmt.Sprintf("Part %d", len(out)+1),
		})
	}
	return out
}
