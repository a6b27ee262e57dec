// Package pipeline orchestrates the processing chain for an uploaded video:
// analysis, segmentation, captioning, and rendering, with progress published
// after every stage transition.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2/log"

	"github.com/LeTienDat/ViralCut/app/models"
	"github.com/LeTienDat/ViralCut/internal/pkg/analysis"
	"github.com/LeTienDat/ViralCut/internal/pkg/captions"
	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
	"github.com/LeTienDat/ViralCut/internal/pkg/quota"
	"github.com/LeTienDat/ViralCut/internal/pkg/segmenter"
)

// Analyzer produces a viral assessment for a video.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, duration float64, tier plans.Tier) analysis.Outcome
}

// Renderer cuts and encodes clips.
type Renderer interface {
	ProbeDuration(ctx context.Context, in string) (float64, error)
	RenderClip(ctx context.Context, in string, start, end float64, srtPath, out string, profile plans.QualityProfile) error
}

// TierResolver decides which tier an owner is processed at.
type TierResolver interface {
	TierFor(email string) plans.Tier
}

// VideoStore is the subset of video storage the pipeline needs.
type VideoStore interface {
	GetByUUID(uuid string) (*models.VideoUpload, error)
	Update(video *models.VideoUpload) error
}

// AnalysisStore persists analysis documents.
type AnalysisStore interface {
	Create(a *models.ViralAnalysis) error
}

// SegmentStore persists planned segments.
type SegmentStore interface {
	ReplaceForVideo(videoUUID string, segments []models.VideoSegment) error
	GetByVideoUUID(videoUUID string) ([]models.VideoSegment, error)
	Update(segment *models.VideoSegment) error
}

// Pipeline runs the full processing chain for one video at a time.
type Pipeline struct {
	videos    VideoStore
	analyses  AnalysisStore
	segments  SegmentStore
	analyzer  Analyzer
	renderer  Renderer
	tiers     TierResolver
	status    StatusStore
	outputDir string
}

func New(videos VideoStore, analyses AnalysisStore, segments SegmentStore, analyzer Analyzer, renderer Renderer, tiers TierResolver, status StatusStore, outputDir string) *Pipeline {
	if outputDir == "" {
		outputDir = "./uploads/clips"
	}
	return &Pipeline{
		videos:    videos,
		analyses:  analyses,
		segments:  segments,
		analyzer:  analyzer,
		renderer:  renderer,
		tiers:     tiers,
		status:    status,
		outputDir: outputDir,
	}
}

func completionMessage(tier plans.Tier) string {
	switch tier {
	case plans.TierPremium:
		return "Premium processing complete! Your clips were rendered at maximum quality."
	case plans.TierFreeHigh:
		return "High-quality processing complete! Upgrade to Premium to keep this quality on every upload."
	default:
		return "Processing complete! Upgrade to Premium for higher quality clips."
	}
}

func (p *Pipeline) setStage(videoUUID, stage, message string) {
	err := p.status.Set(Status{
		VideoUUID: videoUUID,
		Stage:     stage,
		Progress:  ProgressFor(stage),
		Message:   message,
	})
	if err != nil {
		log.Errorf("[Pipeline] Failed to publish status %s for %s: %v", stage, videoUUID, err)
	}
}

func (p *Pipeline) fail(videoUUID string, cause error) error {
	if err := p.status.Set(Status{
		VideoUUID: videoUUID,
		Stage:     StageFailed,
		Progress:  0,
		Error:     cause.Error(),
	}); err != nil {
		log.Errorf("[Pipeline] Failed to publish failure for %s: %v", videoUUID, err)
	}
	return cause
}

// Process runs the chain for a video. Rendering is best effort per segment;
// the run only fails when no segment could be rendered at all.
func (p *Pipeline) Process(ctx context.Context, videoUUID string) error {
	video, err := p.videos.GetByUUID(videoUUID)
	if err != nil {
		return p.fail(videoUUID, fmt.Errorf("load video: %w", err))
	}

	tier := p.tiers.TierFor(video.OwnerEmail)
	profile := plans.ProfileFor(tier)

	video.Status = models.UploadStatusProcessing
	if err := p.videos.Update(video); err != nil {
		return p.fail(videoUUID, fmt.Errorf("mark processing: %w", err))
	}

	// Analysis
	p.setStage(videoUUID, StageAnalyzing, "Analyzing viral potential")
	outcome := p.analyzer.Analyze(ctx, video.OriginalName, video.Duration, tier)
	if outcome.Err != nil {
		log.Warnf("[Pipeline] Analysis degraded to fallback for %s: %v", videoUUID, outcome.Err)
	}
	if err := p.saveAnalysis(videoUUID, outcome); err != nil {
		return p.fail(videoUUID, fmt.Errorf("persist analysis: %w", err))
	}

	// Segmentation
	p.setStage(videoUUID, StageSegmenting, "Selecting clip windows")
	planned := segmenter.Plan(outcome.Document.SegmentHints, video.Duration, tier)
	if len(planned) == 0 {
		return p.fail(videoUUID, fmt.Errorf("no usable segments for %.1fs video", video.Duration))
	}

	// Captioning
	p.setStage(videoUUID, StageCaptioning, "Writing captions")
	rows := make([]models.VideoSegment, 0, len(planned))
	for _, seg := range planned {
		comp := captions.Compose(seg.Index, seg.Duration(), seg.Description, tier)
		trackJSON, err := json.Marshal(comp.Track)
		if err != nil {
			return p.fail(videoUUID, fmt.Errorf("encode subtitle track: %w", err))
		}
		track := models.JSON(trackJSON)
		rows = append(rows, models.VideoSegment{
			VideoUUID:     videoUUID,
			Index:         seg.Index,
			StartTime:     seg.StartTime,
			EndTime:       seg.EndTime,
			Duration:      seg.Duration(),
			CaptionText:   comp.CaptionText,
			NarrationText: comp.NarrationText,
			Score:         seg.Score,
			QualityTier:   string(tier),
			SubtitleTrack: &track,
		})
	}
	if err := p.segments.ReplaceForVideo(videoUUID, rows); err != nil {
		return p.fail(videoUUID, fmt.Errorf("persist segments: %w", err))
	}

	// Rendering
	p.setStage(videoUUID, StageRendering, "Rendering clips")
	stored, err := p.segments.GetByVideoUUID(videoUUID)
	if err != nil {
		return p.fail(videoUUID, fmt.Errorf("reload segments: %w", err))
	}

	rendered := 0
	for i := range stored {
		seg := &stored[i]
		if err := p.renderSegment(ctx, video, seg, profile); err != nil {
			log.Errorf("[Pipeline] Render segment %d of %s failed: %v", seg.Index, videoUUID, err)
			continue
		}
		rendered++
	}
	if rendered == 0 {
		return p.fail(videoUUID, fmt.Errorf("all %d segment renders failed", len(stored)))
	}

	video.Status = models.UploadStatusUploaded
	if err := p.videos.Update(video); err != nil {
		log.Errorf("[Pipeline] Failed to clear processing flag for %s: %v", videoUUID, err)
	}

	p.setStage(videoUUID, StageCompleted, p.completionMessageFor(video.OwnerEmail, tier))
	return nil
}

// completionMessageFor adds the remaining free high-quality count when the
// resolver can report it.
func (p *Pipeline) completionMessageFor(email string, tier plans.Tier) string {
	if tier == plans.TierFreeHigh {
		if reporter, ok := p.tiers.(interface{ Status(email string) quota.UsageStatus }); ok {
			remaining := reporter.Status(email).RemainingHQ
			return fmt.Sprintf("High-quality processing complete! %d free high-quality uploads left this window. Upgrade to Premium to keep this quality on every upload.", remaining)
		}
	}
	return completionMessage(tier)
}

func (p *Pipeline) saveAnalysis(videoUUID string, outcome analysis.Outcome) error {
	doc := outcome.Document
	techniques, _ := json.Marshal(doc.Techniques)
	factors, _ := json.Marshal(doc.Factors)
	hints, _ := json.Marshal(doc.SegmentHints)

	return p.analyses.Create(&models.ViralAnalysis{
		VideoUUID:      videoUUID,
		ViralScore:     doc.ViralScore,
		ContentType:    doc.ContentType,
		TargetAudience: doc.TargetAudience,
		Techniques:     models.JSON(techniques),
		Factors:        models.JSON(factors),
		SegmentHints:   models.JSON(hints),
		Summary:        doc.Summary,
		Source:         outcome.Source,
	})
}

// renderSegment writes the subtitle file and encodes the clip, then stores
// the artifact path on the segment row.
func (p *Pipeline) renderSegment(ctx context.Context, video *models.VideoUpload, seg *models.VideoSegment, profile plans.QualityProfile) error {
	dir := filepath.Join(p.outputDir, video.UUID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create clip dir: %w", err)
	}

	srtPath := filepath.Join(dir, fmt.Sprintf("segment_%d.srt", seg.Index))
	if err := p.writeSubtitles(seg, srtPath); err != nil {
		return err
	}

	outPath := filepath.Join(dir, fmt.Sprintf("segment_%d.mp4", seg.Index))
	if err := p.renderer.RenderClip(ctx, video.FilePath, seg.StartTime, seg.EndTime, srtPath, outPath, profile); err != nil {
		return err
	}

	seg.ArtifactPath = outPath
	return p.segments.Update(seg)
}

func (p *Pipeline) writeSubtitles(seg *models.VideoSegment, srtPath string) error {
	var track captions.Track
	if seg.SubtitleTrack != nil {
		if err := json.Unmarshal([]byte(*seg.SubtitleTrack), &track); err != nil {
			return fmt.Errorf("decode subtitle track: %w", err)
		}
	}
	if len(track.Cues) == 0 {
		comp := captions.Compose(seg.Index, seg.Duration, captions.StripLabel(seg.CaptionText), plans.NormalizeTier(seg.QualityTier))
		track = comp.Track
	}
	return os.WriteFile(srtPath, []byte(track.SRT()), 0o644)
}

// EnsureArtifact re-renders a segment whose clip file went missing, using
// the stored plan and subtitle track. Existing artifacts are returned as-is.
func (p *Pipeline) EnsureArtifact(ctx context.Context, videoUUID string, seg *models.VideoSegment) (string, error) {
	if seg.ArtifactPath != "" {
		if _, err := os.Stat(seg.ArtifactPath); err == nil {
			return seg.ArtifactPath, nil
		}
	}

	video, err := p.videos.GetByUUID(videoUUID)
	if err != nil {
		return "", fmt.Errorf("load video: %w", err)
	}
	profile := plans.ProfileFor(plans.NormalizeTier(seg.QualityTier))
	if err := p.renderSegment(ctx, video, seg, profile); err != nil {
		return "", err
	}
	return seg.ArtifactPath, nil
}
