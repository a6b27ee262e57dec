package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSON stores raw JSON documents in a text column.
type JSON json.RawMessage

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = JSON("{}")
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source")
	}
	*j = JSON(bytes)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = JSON(data)
	return nil
}

// ViralAnalysis is the stored result of content analysis for one upload.
// It is written exactly once and immutable thereafter.
type ViralAnalysis struct {
	ID             uint    `gorm:"primaryKey" json:"-"`
	VideoUUID      string  `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"video_id"`
	ViralScore     float64 `gorm:"type:double" json:"viral_score"`
	ContentType    string  `gorm:"type:varchar(100)" json:"content_type"`
	TargetAudience string  `gorm:"type:varchar(255)" json:"target_audience"`
	Techniques     JSON    `gorm:"type:json" json:"viral_techniques"`
	Factors        JSON    `gorm:"type:json" json:"engagement_factors"`
	Summary        string  `gorm:"type:text" json:"content_summary"`
	AnalysisText   string  `gorm:"type:text" json:"analysis_text"`
	SegmentHints   JSON    `gorm:"type:json" json:"segment_hints"`
	Source         string  `gorm:"type:varchar(20)" json:"analysis_source"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
