package repository

import (
	"github.com/LeTienDat/ViralCut/app/models"
	"gorm.io/gorm"
)

// segmentRepository implements the SegmentRepository interface
type segmentRepository struct {
	db *gorm.DB
}

// NewSegmentRepository creates a new segment repository instance
func NewSegmentRepository(db *gorm.DB) SegmentRepository {
	return &segmentRepository{db: db}
}

// ReplaceForVideo swaps the full segment set of a video in one transaction.
// Re-running the pipeline must never leave a mix of old and new segments.
func (r *segmentRepository) ReplaceForVideo(videoUUID string, segments []models.VideoSegment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_uuid = ?", videoUUID).Delete(&models.VideoSegment{}).Error; err != nil {
			return err
		}
		if len(segments) == 0 {
			return nil
		}
		return tx.Create(&segments).Error
	})
}

// GetByVideoUUID retrieves all segments of a video ordered by index
func (r *segmentRepository) GetByVideoUUID(videoUUID string) ([]models.VideoSegment, error) {
	var segments []models.VideoSegment
	err := r.db.Where("video_uuid = ?", videoUUID).
		Order("segment_index ASC").Find(&segments).Error
	return segments, err
}

// GetByVideoUUIDAndIndex retrieves a single segment by its position
func (r *segmentRepository) GetByVideoUUIDAndIndex(videoUUID string, index int) (*models.VideoSegment, error) {
	var segment models.VideoSegment
	err := r.db.Where("video_uuid = ? AND segment_index = ?", videoUUID, index).
		First(&segment).Error
	if err != nil {
		return nil, err
	}
	return &segment, nil
}

// Update updates an existing segment in the database
func (r *segmentRepository) Update(segment *models.VideoSegment) error {
	return r.db.Save(segment).Error
}

// DeleteByVideoUUID removes all segments of a video
func (r *segmentRepository) DeleteByVideoUUID(videoUUID string) error {
	return r.db.Where("video_uuid = ?", videoUUID).Delete(&models.VideoSegment{}).Error
}
