// Package renderer shells out to ffmpeg to cut and encode portrait clips
// with burned-in subtitles.
package renderer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

// Adapter wraps the ffmpeg and ffprobe binaries.
type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// ProbeDuration returns the container duration of a media file in seconds.
func (a *Adapter) ProbeDuration(ctx context.Context, in string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

// RenderClip cuts [start, end) out of the source, scales and pads it to the
// tier's portrait canvas, optionally applies the tier's enhancement chain,
// burns the subtitle file in when given, and encodes for social delivery.
func (a *Adapter) RenderClip(ctx context.Context, in string, start, end float64, srtPath, out string, profile plans.QualityProfile) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	args := []string{
		"-y",
		"-ss", fmtSeconds(start),
		"-to", fmtSeconds(end),
		"-i", in,
		"-vf", buildFilter(srtPath, profile),
		"-r", strconv.Itoa(profile.FPS),
		"-c:v", "libx264",
		"-preset", profile.Preset,
		"-crf", strconv.Itoa(profile.CRF),
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		out,
	}

	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render clip: %w\n%s", err, string(b))
	}
	return nil
}

// buildFilter assembles the -vf chain: scale into the portrait canvas,
// pad the remainder, then effects and subtitles.
func buildFilter(srtPath string, profile plans.QualityProfile) string {
	wh := strings.SplitN(profile.Resolution, ":", 2)
	w, h := wh[0], wh[1]

	filters := []string{
		fmt.Sprintf("scale=%s:%s:force_original_aspect_ratio=decrease", w, h),
		fmt.Sprintf("pad=%s:%s:(ow-iw)/2:(oh-ih)/2:black", w, h),
	}
	if profile.VideoEffects {
		filters = append(filters,
			"eq=contrast=1.05:saturation=1.15",
			"unsharp=5:5:0.8:3:3:0.4",
			"fade=t=in:st=0:d=0.3",
		)
	}
	if srtPath != "" {
		filters = append(filters, "subtitles="+escapeFilterPath(srtPath)+":force_style='"+subtitleStyle(profile)+"'")
	}
	return strings.Join(filters, ",")
}

func subtitleStyle(profile plans.QualityProfile) string {
	switch profile.CaptionStyle {
	case "advanced":
		return "FontName=Arial,FontSize=16,Bold=1,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=2,Shadow=1,Alignment=2,MarginV=60"
	case "enhanced":
		return "FontName=Arial,FontSize=14,Bold=1,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=2,Alignment=2,MarginV=50"
	default:
		return "FontName=Arial,FontSize=12,PrimaryColour=&H00FFFFFF,Outline=1,Alignment=2,MarginV=40"
	}
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}
