package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/LeTienDat/ViralCut/app/repository"
)

// processVideoJob runs the processing pipeline for an uploaded video.
// Pipeline failures are final: the pipeline already published the failed
// status with its cause, and re-running analysis on the same input would
// fail the same way, so the job is not retried.
func (q *Queue) processVideoJob(ctx context.Context, job *Job) error {
	payload, err := VideoProcessingJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid video processing payload: %w", err)
	}
	if payload.VideoUUID == "" {
		return fmt.Errorf("video processing payload missing video_uuid")
	}

	if q.deps.Pipeline == nil {
		return fmt.Errorf("pipeline not configured")
	}

	if err := q.deps.Pipeline.Process(ctx, payload.VideoUUID); err != nil {
		log.Errorf("[JobQueue] Pipeline failed for %s: %v", payload.VideoUUID, err)
		return nil
	}

	if payload.EnableBackup && q.deps.Backup != nil {
		q.enqueueClipBackups(payload.VideoUUID)
	}
	return nil
}

// enqueueClipBackups schedules an S3 upload per rendered clip.
func (q *Queue) enqueueClipBackups(videoUUID string) {
	segments, err := repository.GetGlobalRepositories().Segment.GetByVideoUUID(videoUUID)
	if err != nil {
		log.Errorf("[JobQueue] Cannot list segments of %s for backup: %v", videoUUID, err)
		return
	}
	for _, seg := range segments {
		if seg.ArtifactPath == "" {
			continue
		}
		payload := S3BackupJobPayload{
			VideoUUID:    videoUUID,
			SegmentIndex: seg.Index,
			FilePath:     seg.ArtifactPath,
		}
		if _, err := q.EnqueueJob(JobTypeS3Backup, payload.ToMap()); err != nil {
			log.Errorf("[JobQueue] Failed to enqueue backup for %s segment %d: %v", videoUUID, seg.Index, err)
		}
	}
}

// processS3BackupJob uploads one rendered clip to the archive bucket.
func (q *Queue) processS3BackupJob(_ context.Context, job *Job) error {
	payload, err := S3BackupJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid s3 backup payload: %w", err)
	}

	if q.deps.Backup == nil {
		log.Warnf("[JobQueue] S3 backup disabled, dropping job for %s", payload.VideoUUID)
		return nil
	}

	objectKey := q.deps.BackupConfig.ClipObjectKey(payload.VideoUUID, payload.SegmentIndex)
	if _, err := q.deps.Backup.UploadFile(payload.FilePath, objectKey); err != nil {
		return fmt.Errorf("backup clip %s: %w", objectKey, err)
	}
	return nil
}
