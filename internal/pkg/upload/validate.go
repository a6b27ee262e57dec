// Package upload validates incoming video files before any processing is
// scheduled.
package upload

import (
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

// AllowedExtensions are the accepted container formats.
var AllowedExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".webm": true,
	".mkv":  true,
	".avi":  true,
}

// ValidateName checks the file extension against the whitelist.
func ValidateName(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file %q has no extension", filename)
	}
	if !AllowedExtensions[ext] {
		return fmt.Errorf("file type %s is not supported", ext)
	}
	return nil
}

// ValidateSize enforces the upload size ceiling.
func ValidateSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("file is empty")
	}
	if size > plans.MaxFileSize {
		return fmt.Errorf("file size %d exceeds the %d byte limit", size, plans.MaxFileSize)
	}
	return nil
}

// SniffContent inspects the first bytes of the file. Matroska and AVI
// containers are reported as application/octet-stream by the detector, so
// that type passes when the extension already did.
func SniffContent(head []byte) error {
	contentType := http.DetectContentType(head)
	if strings.HasPrefix(contentType, "video/") {
		return nil
	}
	if contentType == "application/octet-stream" {
		return nil
	}
	return fmt.Errorf("content type %s is not a video", contentType)
}

// ValidateDuration enforces the tier's upload duration ceiling.
func ValidateDuration(seconds float64, tier plans.Tier) error {
	if seconds <= 0 {
		return fmt.Errorf("video has no readable duration")
	}
	limit := plans.MaxVideoDuration(tier)
	if seconds > limit.Seconds() {
		return fmt.Errorf("video runs %.0fs, the limit for your plan is %.0fs", seconds, limit.Seconds())
	}
	return nil
}

// Limits is the client-facing summary of what an upload may be.
type Limits struct {
	MaxFileSize  int64         `json:"max_file_size"`
	MaxDuration  time.Duration `json:"-"`
	MaxSeconds   float64       `json:"max_duration_seconds"`
	AllowedTypes []string      `json:"allowed_types"`
}

// LimitsFor reports the limits that apply to a tier.
func LimitsFor(tier plans.Tier) Limits {
	maxDur := plans.MaxVideoDuration(tier)
	types := make([]string, 0, len(AllowedExtensions))
	for ext := range AllowedExtensions {
		types = append(types, ext)
	}
	sort.Strings(types)
	return Limits{
		MaxFileSize:  plans.MaxFileSize,
		MaxDuration:  maxDur,
		MaxSeconds:   maxDur.Seconds(),
		AllowedTypes: types,
	}
}
