package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/LeTienDat/ViralCut/app/models"
	"github.com/LeTienDat/ViralCut/app/repository"
	"github.com/LeTienDat/ViralCut/internal/pkg/jobqueue"
	"github.com/LeTienDat/ViralCut/internal/pkg/pipeline"
	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
	"github.com/LeTienDat/ViralCut/internal/pkg/segmenter"
	"github.com/LeTienDat/ViralCut/internal/pkg/upload"
)

const listPageSize = 50

// ingestUpload validates the multipart file, stores it on disk, probes its
// duration against the owner's tier limit, and records the VideoUpload row.
// On any validation failure the response has already been written and the
// returned video is nil.
func ingestUpload(c *fiber.Ctx) (*models.VideoUpload, plans.Tier, error) {
	file, err := c.FormFile("video")
	if err != nil {
		return nil, "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing video file"})
	}
	owner := strings.TrimSpace(c.FormValue("owner"))

	if err := upload.ValidateName(file.Filename); err != nil {
		return nil, "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := upload.ValidateSize(file.Size); err != nil {
		return nil, "", c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": err.Error()})
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read upload"})
	}
	head := make([]byte, 512)
	n, _ := io.ReadFull(src, head)
	src.Close()
	if err := upload.SniffContent(head[:n]); err != nil {
		return nil, "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tier := tierOracle.TierFor(owner)

	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		fiberlog.Errorf("[Upload] Failed to create upload dir: %v", err)
		return nil, "", c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage unavailable"})
	}
	id := uuid.New().String()
	dest := filepath.Join(uploadDir, id+strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveFile(file, dest); err != nil {
		fiberlog.Errorf("[Upload] Failed to store %s: %v", file.Filename, err)
		return nil, "", c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store upload"})
	}

	duration, err := mediaProbe.ProbeDuration(c.Context(), dest)
	if err != nil {
		os.Remove(dest)
		return nil, "", c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "could not read video duration"})
	}
	if err := upload.ValidateDuration(duration, tier); err != nil {
		os.Remove(dest)
		return nil, "", c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": err.Error()})
	}

	video := &models.VideoUpload{
		UUID:         id,
		OriginalName: file.Filename,
		FilePath:     dest,
		FileSize:     file.Size,
		Duration:     duration,
		OwnerEmail:   owner,
		Status:       models.UploadStatusUploaded,
	}
	if err := repository.GetGlobalRepositories().Video.Create(video); err != nil {
		os.Remove(dest)
		fiberlog.Errorf("[Upload] Failed to record %s: %v", id, err)
		return nil, "", c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record upload"})
	}
	return video, tier, nil
}

// HandleUploadVideo ingests a video and queues the full processing chain.
func HandleUploadVideo(c *fiber.Ctx) error {
	video, tier, err := ingestUpload(c)
	if video == nil {
		return err
	}

	if err := statusStore.Set(pipeline.Status{
		VideoUUID: video.UUID,
		Stage:     pipeline.StageQueued,
		Progress:  pipeline.ProgressFor(pipeline.StageQueued),
		Message:   "Waiting for a worker",
	}); err != nil {
		fiberlog.Warnf("[Upload] Failed to publish queued status for %s: %v", video.UUID, err)
	}

	payload := jobqueue.VideoProcessingJobPayload{
		VideoUUID:    video.UUID,
		FilePath:     video.FilePath,
		EnableBackup: backupEnabled,
	}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeVideoProcessing, payload.ToMap()); err != nil {
		fiberlog.Errorf("[Upload] Failed to enqueue processing for %s: %v", video.UUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to queue processing"})
	}

	return c.JSON(fiber.Map{
		"video_id": video.UUID,
		"duration": video.Duration,
		"status":   pipeline.StageQueued,
		"tier":     tier,
	})
}

// HandleAnalyzeVideo is the synchronous variant: it ingests the video, runs
// analysis and segment planning inline, and returns the full document
// without rendering anything.
func HandleAnalyzeVideo(c *fiber.Ctx) error {
	video, tier, err := ingestUpload(c)
	if video == nil {
		return err
	}

	outcome := videoAnalyzer.Analyze(c.Context(), video.OriginalName, video.Duration, tier)
	if outcome.Err != nil {
		fiberlog.Warnf("[Analyze] Falling back for %s: %v", video.UUID, outcome.Err)
	}
	doc := outcome.Document

	techniques, _ := json.Marshal(doc.Techniques)
	factors, _ := json.Marshal(doc.Factors)
	hints, _ := json.Marshal(doc.SegmentHints)
	repos := repository.GetGlobalRepositories()
	if err := repos.Analysis.Create(&models.ViralAnalysis{
		VideoUUID:      video.UUID,
		ViralScore:     doc.ViralScore,
		ContentType:    doc.ContentType,
		TargetAudience: doc.TargetAudience,
		Techniques:     models.JSON(techniques),
		Factors:        models.JSON(factors),
		SegmentHints:   models.JSON(hints),
		Summary:        doc.Summary,
		Source:         outcome.Source,
	}); err != nil {
		fiberlog.Errorf("[Analyze] Failed to store analysis for %s: %v", video.UUID, err)
	}

	planned := segmenter.Plan(doc.SegmentHints, video.Duration, tier)
	rows := make([]models.VideoSegment, 0, len(planned))
	for _, seg := range planned {
		rows = append(rows, models.VideoSegment{
			VideoUUID:   video.UUID,
			Index:       seg.Index,
			StartTime:   seg.StartTime,
			EndTime:     seg.EndTime,
			Duration:    seg.Duration(),
			CaptionText: seg.Description,
			Score:       seg.Score,
			QualityTier: string(tier),
		})
	}
	if err := repos.Segment.ReplaceForVideo(video.UUID, rows); err != nil {
		fiberlog.Errorf("[Analyze] Failed to store segments for %s: %v", video.UUID, err)
	}

	return c.JSON(fiber.Map{
		"video_id":        video.UUID,
		"duration":        video.Duration,
		"tier":            tier,
		"analysis_source": outcome.Source,
		"analysis":        doc,
		"segments":        rows,
	})
}

// HandleProcessingStatus reports the pipeline status for one video.
func HandleProcessingStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status, err := statusStore.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no status for this video"})
	}
	return c.JSON(status)
}

// HandleVideoAnalysis returns the stored analysis document.
func HandleVideoAnalysis(c *fiber.Ctx) error {
	id := c.Params("id")
	a, err := repository.GetGlobalRepositories().Analysis.GetByVideoUUID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "analysis not found"})
	}
	return c.JSON(a)
}

// HandleVideoSegments returns the planned segments for a video.
func HandleVideoSegments(c *fiber.Ctx) error {
	id := c.Params("id")
	segments, err := repository.GetGlobalRepositories().Segment.GetByVideoUUID(id)
	if err != nil {
		fiberlog.Errorf("[Segments] Lookup failed for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "segment lookup failed"})
	}
	if len(segments) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no segments for this video"})
	}
	return c.JSON(fiber.Map{
		"video_id": id,
		"count":    len(segments),
		"segments": segments,
	})
}

// HandleVideoList lists an owner's uploads with their live pipeline status.
func HandleVideoList(c *fiber.Ctx) error {
	owner := strings.TrimSpace(c.Query("owner"))
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := c.QueryInt("limit", listPageSize)
	if limit <= 0 || limit > listPageSize {
		limit = listPageSize
	}

	videos, err := repository.GetGlobalRepositories().Video.GetByOwner(owner, offset, limit)
	if err != nil {
		fiberlog.Errorf("[List] Lookup failed for %q: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "video lookup failed"})
	}

	type listEntry struct {
		models.VideoUpload
		Stage    string `json:"stage,omitempty"`
		Progress int    `json:"progress"`
	}
	entries := make([]listEntry, 0, len(videos))
	for _, v := range videos {
		entry := listEntry{VideoUpload: v}
		if status, err := statusStore.Get(v.UUID); err == nil {
			entry.Stage = status.Stage
			entry.Progress = status.Progress
		}
		entries = append(entries, entry)
	}
	return c.JSON(fiber.Map{
		"count":  len(entries),
		"videos": entries,
	})
}

// HandleDownloadSegment streams one rendered clip, re-rendering it from the
// original upload when the artifact has gone missing.
func HandleDownloadSegment(c *fiber.Ctx) error {
	id := c.Params("id")
	index, err := c.ParamsInt("index")
	if err != nil || index < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid segment index"})
	}

	seg, err := repository.GetGlobalRepositories().Segment.GetByVideoUUIDAndIndex(id, index)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "segment not found"})
	}

	path, err := videoPipeline.EnsureArtifact(c.Context(), id, seg)
	if err != nil {
		fiberlog.Errorf("[Download] Failed to produce clip %s/%d: %v", id, index, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "clip is not available"})
	}

	return c.Download(path, fmt.Sprintf("clip_%d.mp4", index))
}

// HandleDeleteVideo marks the upload deleted and queues cleanup of its
// files and derived artifacts. Deleting an unknown video is a no-op.
func HandleDeleteVideo(c *fiber.Ctx) error {
	id := c.Params("id")
	repos := repository.GetGlobalRepositories()

	video, err := repos.Video.GetByUUID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(fiber.Map{"video_id": id, "status": "deleted"})
		}
		fiberlog.Errorf("[Delete] Lookup failed for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "video lookup failed"})
	}

	if video.Status != models.UploadStatusDeleted {
		video.Status = models.UploadStatusDeleted
		if err := repos.Video.Update(video); err != nil {
			fiberlog.Errorf("[Delete] Failed to mark %s deleted: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "delete failed"})
		}
	}

	payload := jobqueue.DeleteVideoJobPayload{VideoUUID: id, FilePath: video.FilePath}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeDeleteVideo, payload.ToMap()); err != nil {
		fiberlog.Errorf("[Delete] Failed to enqueue cleanup for %s: %v", id, err)
	}

	return c.JSON(fiber.Map{"video_id": id, "status": "deleted"})
}

// HandlePremiumPlans returns the purchasable plan catalog.
func HandlePremiumPlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": plans.All()})
}

type ownerRequest struct {
	Email string `json:"email"`
}

// HandleUsageStatus reports the owner's tier and remaining free
// high-quality allowance.
func HandleUsageStatus(c *fiber.Ctx) error {
	var req ownerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	return c.JSON(tierOracle.Status(strings.TrimSpace(req.Email)))
}

// HandlePremiumStatus reports whether the owner has an active subscription.
func HandlePremiumStatus(c *fiber.Ctx) error {
	var req ownerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	status := tierOracle.Status(strings.TrimSpace(req.Email))
	resp := fiber.Map{
		"is_premium": status.IsPremium,
		"tier":       status.Tier,
	}
	if status.PlanID != "" {
		resp["plan_id"] = status.PlanID
	}
	if status.PlanExpiresAt != nil {
		resp["plan_expires_at"] = status.PlanExpiresAt
	}
	return c.JSON(resp)
}

// HandleUploadLimits returns the limits that would apply to the owner.
func HandleUploadLimits(c *fiber.Ctx) error {
	owner := strings.TrimSpace(c.Query("owner"))
	tier := tierOracle.TierFor(owner)
	return c.JSON(fiber.Map{
		"tier":   tier,
		"limits": upload.LimitsFor(tier),
	})
}
