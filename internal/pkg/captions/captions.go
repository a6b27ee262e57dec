// Package captions composes per-segment caption copy and timed subtitle
// tracks in SRT form.
package captions

import (
	"fmt"
	"strings"

	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

// Cue is one timed subtitle line, with times relative to the segment start.
type Cue struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Track is an ordered list of cues covering one segment.
type Track struct {
	Cues []Cue `json:"cues"`
}

// Result bundles everything the renderer and the API need for a segment.
type Result struct {
	CaptionText   string
	NarrationText string
	Track         Track
}

// emotionLabels cycle across a video's segments, first clip gets [EXCITING].
var emotionLabels = []string{"[EXCITING]", "[SURPRISING]", "[IMPORTANT]"}

var emotionTags = []string{"🔥", "😱", "💡", "🚀", "💯"}

var hookLines = []string{
	"Wait for it...",
	"You won't believe this part",
	"This changes everything",
	"Watch till the end",
}

// Compose builds caption copy and a subtitle track for a segment.
// segmentIndex is the segment's 1-based index within its video and drives
// the emotion label and hook line cycles. The cue layout depends on the
// tier's caption style: basic gets a single cue, enhanced and advanced get
// three cues for short segments and four beyond thirty seconds. Cue times
// never exceed the segment duration.
func Compose(segmentIndex int, duration float64, description string, tier plans.Tier) Result {
	profile := plans.ProfileFor(tier)
	cycle := segmentIndex - 1
	if cycle < 0 {
		cycle = 0
	}
	label := emotionLabels[cycle%len(emotionLabels)]
	tag := emotionTags[cycle%len(emotionTags)]
	headline := strings.TrimSpace(description)
	if headline == "" {
		headline = fmt.Sprintf("Moment %d", segmentIndex)
	}

	res := Result{
		NarrationText: fmt.Sprintf("%s. %s", headline, hookLines[cycle%len(hookLines)]),
	}

	if profile.CaptionStyle == "basic" {
		res.CaptionText = fmt.Sprintf("%s %s", label, headline)
		res.Track = Track{Cues: []Cue{
			{Index: 1, Start: 0, End: clampEnd(duration, duration), Text: res.CaptionText},
		}}
		return res
	}

	res.CaptionText = fmt.Sprintf("%s %s %s", label, tag, headline)

	count := 3
	if duration > 30 {
		count = 4
	}
	if count > profile.MaxCues {
		count = profile.MaxCues
	}

	lines := cueLines(headline, label, tag, count)
	slot := duration / float64(count)
	cues := make([]Cue, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * slot
		end := clampEnd(start+slot, duration)
		cues = append(cues, Cue{Index: i + 1, Start: start, End: end, Text: lines[i]})
	}
	res.Track = Track{Cues: cues}
	return res
}

func cueLines(headline, label, tag string, count int) []string {
	lines := []string{
		fmt.Sprintf("%s %s %s", label, tag, headline),
		hookLines[0],
		"Keep watching 👀",
		hookLines[3],
	}
	return lines[:count]
}

// StripLabel removes a leading emotion label from previously composed
// caption text so re-composition does not stack labels.
func StripLabel(s string) string {
	s = strings.TrimSpace(s)
	for _, l := range emotionLabels {
		if strings.HasPrefix(s, l) {
			return strings.TrimSpace(strings.TrimPrefix(s, l))
		}
	}
	return s
}

func clampEnd(end, duration float64) float64 {
	if end > duration {
		return duration
	}
	return end
}

// SRT renders the track in SubRip format. Milliseconds are truncated, not
// rounded, so a cue never spills past the segment end.
func (t Track) SRT() string {
	var b strings.Builder
	for _, c := range t.Cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", c.Index, srtTimestamp(c.Start), srtTimestamp(c.End), c.Text)
	}
	return b.String()
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds * 1000)
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000
	milli := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, milli)
}
