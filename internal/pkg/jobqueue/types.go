package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeVideoProcessing JobType = "video_processing"
	JobTypeDeleteVideo     JobType = "delete_video"
	JobTypeS3Backup        JobType = "s3_backup"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// VideoProcessingJobPayload contains the payload for video processing jobs
type VideoProcessingJobPayload struct {
	VideoUUID    string `json:"video_uuid"`
	FilePath     string `json:"file_path"`
	EnableBackup bool   `json:"enable_backup"`
}

// ToMap converts the payload to a map for storage
func (p VideoProcessingJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"video_uuid":    p.VideoUUID,
		"file_path":     p.FilePath,
		"enable_backup": p.EnableBackup,
	}
}

// VideoProcessingJobPayloadFromMap creates a payload from a map
func VideoProcessingJobPayloadFromMap(data map[string]interface{}) (*VideoProcessingJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload VideoProcessingJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// DeleteVideoJobPayload contains payload for deleting a video, its segments
// and local/remote artifacts asynchronously
type DeleteVideoJobPayload struct {
	VideoUUID string `json:"video_uuid"`
	FilePath  string `json:"file_path"`
}

func (p DeleteVideoJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"video_uuid": p.VideoUUID,
		"file_path":  p.FilePath,
	}
}

func DeleteVideoJobPayloadFromMap(data map[string]interface{}) (*DeleteVideoJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var payload DeleteVideoJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// S3BackupJobPayload contains the payload for S3 clip backup jobs
type S3BackupJobPayload struct {
	VideoUUID    string `json:"video_uuid"`
	SegmentIndex int    `json:"segment_index"`
	FilePath     string `json:"file_path"`
}

func (p S3BackupJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"video_uuid":    p.VideoUUID,
		"segment_index": p.SegmentIndex,
		"file_path":     p.FilePath,
	}
}

func S3BackupJobPayloadFromMap(data map[string]interface{}) (*S3BackupJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var payload S3BackupJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
