package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

func TestBuildFilterStandard(t *testing.T) {
	t.Parallel()

	f := buildFilter("", plans.ProfileFor(plans.TierStandard))
	assert.Contains(t, f, "scale=720:1280:force_original_aspect_ratio=decrease")
	assert.Contains(t, f, "pad=720:1280")
	assert.NotContains(t, f, "eq=")
	assert.NotContains(t, f, "subtitles=")
}

func TestBuildFilterPremiumWithSubtitles(t *testing.T) {
	t.Parallel()

	f := buildFilter("/tmp/seg.srt", plans.ProfileFor(plans.TierPremium))
	assert.Contains(t, f, "scale=1080:1920")
	assert.Contains(t, f, "eq=contrast=1.05:saturation=1.15")
	assert.Contains(t, f, "unsharp=")
	assert.Contains(t, f, "fade=t=in")
	assert.Contains(t, f, "subtitles=/tmp/seg.srt:force_style=")
	assert.Contains(t, f, "FontSize=16")
}

func TestEscapeFilterPath(t *testing.T) {
	t.Parallel()

	got := escapeFilterPath(`C:\clips\out.srt`)
	assert.Equal(t, `C\:\\clips\\out.srt`, got)
}

func TestFmtSeconds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "12.500", fmtSeconds(12.5))
	assert.Equal(t, "0.000", fmtSeconds(0))
}

func TestFilterOrder(t *testing.T) {
	t.Parallel()

	// Subtitles must come after scaling so they are sized to the canvas.
	f := buildFilter("/tmp/a.srt", plans.ProfileFor(plans.TierFreeHigh))
	assert.Less(t, strings.Index(f, "scale="), strings.Index(f, "subtitles="))
}
