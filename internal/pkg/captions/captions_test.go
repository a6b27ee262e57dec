package captions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

func TestComposeStandardSingleCue(t *testing.T) {
	t.Parallel()

	res := Compose(1, 28, "Big reveal", plans.TierStandard)
	require.Len(t, res.Track.Cues, 1)
	assert.Equal(t, "[EXCITING] Big reveal", res.CaptionText)
	assert.Equal(t, 0.0, res.Track.Cues[0].Start)
	assert.Equal(t, 28.0, res.Track.Cues[0].End)
	// Basic style carries no emoji, only the label.
	assert.NotContains(t, res.CaptionText, "🔥")
}

func TestComposeCueCountByDuration(t *testing.T) {
	t.Parallel()

	short := Compose(1, 25, "Opening hook", plans.TierPremium)
	assert.Len(t, short.Track.Cues, 3)

	long := Compose(1, 45, "Opening hook", plans.TierPremium)
	assert.Len(t, long.Track.Cues, 4)

	free := Compose(1, 45, "Opening hook", plans.TierFreeHigh)
	assert.Len(t, free.Track.Cues, 4)
}

func TestComposeCuesCoverSegment(t *testing.T) {
	t.Parallel()

	res := Compose(1, 42, "Core moment", plans.TierFreeHigh)
	cues := res.Track.Cues
	require.NotEmpty(t, cues)

	assert.Equal(t, 0.0, cues[0].Start)
	for i := 1; i < len(cues); i++ {
		assert.Equal(t, cues[i-1].End, cues[i].Start)
	}
	last := cues[len(cues)-1]
	assert.LessOrEqual(t, last.End, 42.0)
}

func TestComposeEmotionLabelCycles(t *testing.T) {
	t.Parallel()

	// The bracketed label vocabulary cycles by segment index.
	assert.Contains(t, Compose(1, 20, "Moment", plans.TierPremium).CaptionText, "[EXCITING]")
	assert.Contains(t, Compose(2, 20, "Moment", plans.TierPremium).CaptionText, "[SURPRISING]")
	assert.Contains(t, Compose(3, 20, "Moment", plans.TierPremium).CaptionText, "[IMPORTANT]")
	assert.Contains(t, Compose(4, 20, "Moment", plans.TierPremium).CaptionText, "[EXCITING]")

	// Emoji tags cycle independently.
	a := Compose(1, 20, "Moment", plans.TierPremium)
	f := Compose(1+len(emotionTags)*len(emotionLabels), 20, "Moment", plans.TierPremium)
	assert.Equal(t, a.CaptionText, f.CaptionText)
	assert.NotEqual(t, a.CaptionText, Compose(2, 20, "Moment", plans.TierPremium).CaptionText)
}

func TestStripLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Big reveal", StripLabel("[EXCITING] Big reveal"))
	assert.Equal(t, "🔥 Big reveal", StripLabel("[SURPRISING] 🔥 Big reveal"))
	assert.Equal(t, "Plain text", StripLabel("Plain text"))

	// Recomposing stripped text yields stable caption copy.
	first := Compose(2, 20, "Core moment", plans.TierPremium)
	again := Compose(2, 20, StripLabel(first.CaptionText), plans.TierPremium)
	assert.Contains(t, again.CaptionText, "[SURPRISING]")
	assert.NotContains(t, again.CaptionText, "[SURPRISING] [SURPRISING]")
}

func TestComposeFallbackHeadlineUsesSegmentNumber(t *testing.T) {
	t.Parallel()

	res := Compose(2, 20, "  ", plans.TierPremium)
	assert.Contains(t, res.CaptionText, "Moment 2")
}

func TestSRTFormat(t *testing.T) {
	t.Parallel()

	track := Track{Cues: []Cue{
		{Index: 1, Start: 0, End: 12.3456, Text: "first"},
		{Index: 2, Start: 12.3456, End: 3671.5, Text: "second"},
	}}

	srt := track.SRT()
	// Milliseconds truncate: 12.3456 -> 12,345.
	assert.Contains(t, srt, "00:00:00,000 --> 00:00:12,345\nfirst")
	assert.Contains(t, srt, "00:00:12,345 --> 01:01:11,500\nsecond")

	blocks := strings.Split(strings.TrimSpace(srt), "\n\n")
	assert.Len(t, blocks, 2)
	assert.True(t, strings.HasPrefix(blocks[0], "1\n"))
	assert.True(t, strings.HasPrefix(blocks[1], "2\n"))
}
