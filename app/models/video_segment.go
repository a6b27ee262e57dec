package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VideoSegment is one clip candidate cut from an upload. Index values are
// dense and 1-based per upload; SubtitleTrack and ArtifactPath are filled in
// by later pipeline stages.
type VideoSegment struct {
	ID            uint    `gorm:"primaryKey" json:"-"`
	UUID          string  `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"id"`
	VideoUUID     string  `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;index;not null" json:"video_id"`
	Index         int     `gorm:"column:segment_index;not null" json:"segment_index"`
	StartTime     float64 `gorm:"type:double" json:"start_time"`
	EndTime       float64 `gorm:"type:double" json:"end_time"`
	Duration      float64 `gorm:"type:double" json:"duration"`
	CaptionText   string  `gorm:"type:varchar(255)" json:"caption_text"`
	NarrationText string  `gorm:"type:text" json:"narration_text"`
	Score         float64 `gorm:"type:double" json:"score"`
	QualityTier   string  `gorm:"type:varchar(20)" json:"quality_tier"`
	SubtitleTrack *JSON   `gorm:"type:json" json:"subtitle_track,omitempty"`
	ArtifactPath  string  `gorm:"type:varchar(255)" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *VideoSegment) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.New().String()
	}
	return nil
}
