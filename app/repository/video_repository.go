package repository

import (
	"time"

	"github.com/LeTienDat/ViralCut/app/models"
	"gorm.io/gorm"
)

// videoRepository implements the VideoRepository interface
type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new video repository instance
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

// Create creates a new video upload record in the database
func (r *videoRepository) Create(video *models.VideoUpload) error {
	return r.db.Create(video).Error
}

// GetByUUID retrieves a video upload by its UUID
func (r *videoRepository) GetByUUID(uuid string) (*models.VideoUpload, error) {
	var video models.VideoUpload
	err := r.db.Where("uuid = ?", uuid).First(&video).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// GetByOwner retrieves videos belonging to an owner with pagination
func (r *videoRepository) GetByOwner(email string, offset, limit int) ([]models.VideoUpload, error) {
	var videos []models.VideoUpload
	err := r.db.Where("owner_email = ? AND status <> ?", email, models.UploadStatusDeleted).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&videos).Error
	return videos, err
}

// Update updates an existing video upload in the database
func (r *videoRepository) Update(video *models.VideoUpload) error {
	return r.db.Save(video).Error
}

// Delete removes a video and its dependent records in a transaction
func (r *videoRepository) Delete(uuid string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_uuid = ?", uuid).Delete(&models.VideoSegment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_uuid = ?", uuid).Delete(&models.ViralAnalysis{}).Error; err != nil {
			return err
		}
		return tx.Where("uuid = ?", uuid).Delete(&models.VideoUpload{}).Error
	})
}

// Count returns the total number of video uploads
func (r *videoRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.VideoUpload{}).Count(&count).Error
	return count, err
}

// CountByOwnerSince counts an owner's uploads created after the given time.
// Deleted uploads still count towards the usage window.
func (r *videoRepository) CountByOwnerSince(email string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.VideoUpload{}).
		Where("owner_email = ? AND created_at >= ?", email, since).
		Count(&count).Error
	return count, err
}
