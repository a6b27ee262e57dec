package repository

import (
	"github.com/LeTienDat/ViralCut/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// analysisRepository implements the AnalysisRepository interface
type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new analysis repository instance
func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

// Create stores an analysis, replacing any previous one for the same video
func (r *analysisRepository) Create(analysis *models.ViralAnalysis) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_uuid"}},
		UpdateAll: true,
	}).Create(analysis).Error
}

// GetByVideoUUID retrieves the analysis for a video
func (r *analysisRepository) GetByVideoUUID(videoUUID string) (*models.ViralAnalysis, error) {
	var analysis models.ViralAnalysis
	err := r.db.Where("video_uuid = ?", videoUUID).First(&analysis).Error
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// DeleteByVideoUUID removes the analysis tied to a video
func (r *analysisRepository) DeleteByVideoUUID(videoUUID string) error {
	return r.db.Where("video_uuid = ?", videoUUID).Delete(&models.ViralAnalysis{}).Error
}
