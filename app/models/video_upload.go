package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	UploadStatusUploaded   = "uploaded"
	UploadStatusProcessing = "processing"
	UploadStatusDeleted    = "deleted"
)

// VideoUpload is the system-of-record row for one ingested video. Everything
// except Status is immutable after creation.
type VideoUpload struct {
	ID           uint    `gorm:"primaryKey" json:"-"`
	UUID         string  `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"id"`
	OriginalName string  `gorm:"type:varchar(255);not null" json:"original_name"`
	FilePath     string  `gorm:"type:varchar(255);not null" json:"-"`
	FileSize     int64   `gorm:"type:bigint" json:"file_size"`
	Duration     float64 `gorm:"type:double" json:"duration"`
	OwnerEmail   string  `gorm:"type:varchar(200);index" json:"owner_email,omitempty"`
	Status       string  `gorm:"type:varchar(20);default:'uploaded'" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (v *VideoUpload) BeforeCreate(tx *gorm.DB) error {
	if v.UUID == "" {
		v.UUID = uuid.New().String()
	}
	return nil
}

// FindVideoUploadByUUID loads an upload by its public id.
func FindVideoUploadByUUID(db *gorm.DB, id string) (*VideoUpload, error) {
	var v VideoUpload
	if err := db.Where("uuid = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}
