package upload

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

func TestValidateName(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateName("clip.mp4"))
	assert.NoError(t, ValidateName("CLIP.MOV"))
	assert.NoError(t, ValidateName("archive.mkv"))

	assert.Error(t, ValidateName("script.sh"))
	assert.Error(t, ValidateName("photo.jpg"))
	assert.Error(t, ValidateName("noextension"))
}

func TestValidateSize(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateSize(1024))
	assert.NoError(t, ValidateSize(plans.MaxFileSize))
	assert.Error(t, ValidateSize(plans.MaxFileSize+1))
	assert.Error(t, ValidateSize(0))
	assert.Error(t, ValidateSize(-1))
}

func TestSniffContent(t *testing.T) {
	t.Parallel()

	// MP4 ftyp box is detected as video/mp4.
	mp4Head := append([]byte{0, 0, 0, 0x18}, []byte("ftypmp42")...)
	assert.NoError(t, SniffContent(mp4Head))

	// Matroska magic is not in the detector's table; it sniffs as
	// octet-stream, which we accept.
	mkvHead := []byte{0x1a, 0x45, 0xdf, 0xa3, 0x01, 0x02, 0x03}
	assert.NoError(t, SniffContent(mkvHead))

	// Plain text is rejected.
	assert.Error(t, SniffContent([]byte("#!/bin/sh\nrm -rf /\n")))
	assert.Error(t, SniffContent([]byte(strings.Repeat("<html>", 10))))
}

func TestValidateDuration(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateDuration(299, plans.TierStandard))
	assert.NoError(t, ValidateDuration(300, plans.TierFreeHigh))
	assert.Error(t, ValidateDuration(301, plans.TierFreeHigh))

	assert.NoError(t, ValidateDuration(1800, plans.TierPremium))
	assert.Error(t, ValidateDuration(1801, plans.TierPremium))

	assert.Error(t, ValidateDuration(0, plans.TierPremium))
}

func TestLimitsFor(t *testing.T) {
	t.Parallel()

	free := LimitsFor(plans.TierStandard)
	premium := LimitsFor(plans.TierPremium)

	assert.Equal(t, int64(plans.MaxFileSize), free.MaxFileSize)
	assert.Equal(t, 300.0, free.MaxSeconds)
	assert.Equal(t, 1800.0, premium.MaxSeconds)
	assert.Contains(t, free.AllowedTypes, ".mp4")
	assert.Len(t, free.AllowedTypes, 6)
}
