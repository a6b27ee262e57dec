package jobqueue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/LeTienDat/ViralCut/app/repository"
	"github.com/LeTienDat/ViralCut/internal/pkg/cache"
	"github.com/LeTienDat/ViralCut/internal/pkg/pipeline"
)

// processDeleteVideoJob removes a video's database rows, local files,
// cached status, and archived clips. Every step tolerates the target
// already being gone, so a retried or replayed delete is harmless.
func (q *Queue) processDeleteVideoJob(_ context.Context, job *Job) error {
	payload, err := DeleteVideoJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid delete payload: %w", err)
	}
	if payload.VideoUUID == "" {
		return fmt.Errorf("delete payload missing video_uuid")
	}

	repos := repository.GetGlobalRepositories()

	// Collect artifact locations before the rows disappear.
	segments, err := repos.Segment.GetByVideoUUID(payload.VideoUUID)
	if err != nil {
		log.Warnf("[JobQueue] Cannot list segments of %s for delete: %v", payload.VideoUUID, err)
	}

	if err := repos.Video.Delete(payload.VideoUUID); err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("delete video rows: %w", err)
	}

	// Original upload file.
	if payload.FilePath != "" {
		if err := os.Remove(payload.FilePath); err != nil && !os.IsNotExist(err) {
			log.Errorf("[JobQueue] Failed to remove upload file %s: %v", payload.FilePath, err)
		}
	}

	// Rendered clips and subtitle files share one directory per video.
	for _, seg := range segments {
		if seg.ArtifactPath == "" {
			continue
		}
		dir := filepath.Dir(seg.ArtifactPath)
		if err := os.RemoveAll(dir); err != nil {
			log.Errorf("[JobQueue] Failed to remove clip dir %s: %v", dir, err)
		}
		break
	}

	// Archived copies.
	if q.deps.Backup != nil && q.deps.BackupConfig != nil {
		prefix := q.deps.BackupConfig.VideoPrefix(payload.VideoUUID)
		if err := q.deps.Backup.DeletePrefix(prefix); err != nil {
			log.Errorf("[JobQueue] Failed to remove archived clips under %s: %v", prefix, err)
		}
	}

	// Cached processing status.
	statusKey := fmt.Sprintf(pipeline.VideoStatusKeyFormat, payload.VideoUUID)
	if err := cache.Delete(statusKey); err != nil {
		log.Warnf("[JobQueue] Failed to drop status key %s: %v", statusKey, err)
	}

	log.Infof("[JobQueue] Deleted video %s and its artifacts", payload.VideoUUID)
	return nil
}
